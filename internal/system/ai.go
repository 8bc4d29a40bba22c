package system

import (
	"time"

	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
)

// AISystem runs every unit's active state once, in ascending id order.
// Units spawned during this phase start on the next tick. Phase 2 (Update).
type AISystem struct {
	world *world.State
}

func NewAISystem(ws *world.State) *AISystem {
	return &AISystem{world: ws}
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *AISystem) Update(_ time.Duration) {
	s.world.EachUnit(s.world.ExecuteBrain)
}
