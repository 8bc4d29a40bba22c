package system

import (
	"fmt"
	"time"

	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"go.uber.org/zap"
)

// DigestSystem logs the determinism digest every interval ticks so two runs
// can be compared for desyncs. Phase 4 (Output).
type DigestSystem struct {
	world    *world.State
	log      *zap.Logger
	interval int
	last     uint64
}

func NewDigestSystem(ws *world.State, log *zap.Logger, intervalTicks int) *DigestSystem {
	return &DigestSystem{world: ws, log: log, interval: intervalTicks}
}

func (s *DigestSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *DigestSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	tick := s.world.Tick()
	if tick%uint64(s.interval) != 0 {
		return
	}
	s.last = s.world.Digest()
	s.log.Info("state digest",
		zap.Uint64("tick", tick),
		zap.String("digest", fmt.Sprintf("%016x", s.last)),
		zap.Int("entities", s.world.World().Count()))
}

// Last returns the most recently logged digest.
func (s *DigestSystem) Last() uint64 { return s.last }
