package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order. Systems of the same phase run in
// registration order.
type Runner struct {
	systems []System
	sorted  bool
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every phase in order.
func (r *Runner) Tick(dt time.Duration) {
	r.TickRange(PhaseInput, PhasePersist, dt)
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.TickRange(phase, phase, dt)
}

// TickRange runs the systems whose phase lies in [from, to]. The world loop
// uses it to split in-tick phases from the post-commit ones.
func (r *Runner) TickRange(from, to Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if p := s.Phase(); p >= from && p <= to {
			s.Update(dt)
		}
	}
}

func (r *Runner) Len() int { return len(r.systems) }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
