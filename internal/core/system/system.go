package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain deferred actions, commit their spawns
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: AI state machines
	PhasePostUpdate              // 3: projectiles, damage
	PhaseOutput                  // 4: presentation frame (after commit)
	PhasePersist                 // 5: autosave (after commit)
)

// InTick reports whether systems of this phase run inside ExecuteTick.
func (p Phase) InTick() bool { return p <= PhasePostUpdate }

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	}
	return "unknown"
}

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
