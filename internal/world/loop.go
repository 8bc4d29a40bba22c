package world

import (
	"context"
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/core/event"
	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"go.uber.org/zap"
)

// Loop drives a State. In-tick phases (input through post-update) run inside
// ExecuteTick; output and persist run after the commit.
type Loop struct {
	state  *State
	runner *coresys.Runner
	queue  *event.Queue[*State]
	log    *zap.Logger
}

func NewLoop(state *State, runner *coresys.Runner, queue *event.Queue[*State], log *zap.Logger) *Loop {
	return &Loop{state: state, runner: runner, queue: queue, log: log}
}

func (l *Loop) State() *State { return l.state }

// DispatchNextTick queues fn to run at the start of the next tick on the
// simulation goroutine. Safe from any goroutine.
func (l *Loop) DispatchNextTick(fn func(*State)) {
	l.queue.Push(fn)
}

// Step runs one full tick.
func (l *Loop) Step(dt time.Duration) {
	l.state.world.ExecuteTick(func(uint64) {
		l.runner.TickRange(coresys.PhaseInput, coresys.PhasePostUpdate, dt)
	})
	l.runner.TickRange(coresys.PhaseOutput, coresys.PhasePersist, dt)
}

// Run steps the loop every interval until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.log.Info("tick loop started", zap.Duration("interval", interval))
	for {
		select {
		case <-ticker.C:
			l.Step(interval)
		case <-ctx.Done():
			l.log.Info("tick loop stopped", zap.Uint64("tick", l.state.Tick()))
			return nil
		}
	}
}
