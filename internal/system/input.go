package system

import (
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/core/event"
	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"go.uber.org/zap"
)

// InputSystem runs the actions queued by DispatchNextTick, then commits
// what they spawned or removed so the AI phase sees it. Phase 0 (Input).
type InputSystem struct {
	queue *event.Queue[*world.State]
	world *world.State
	log   *zap.Logger
}

func NewInputSystem(queue *event.Queue[*world.State], ws *world.State, log *zap.Logger) *InputSystem {
	return &InputSystem{queue: queue, world: ws, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	if n := s.queue.Drain(s.world); n > 0 {
		s.log.Debug("deferred actions run", zap.Int("count", n), zap.Uint64("tick", s.world.Tick()))
	}
	s.world.Flush()
}
