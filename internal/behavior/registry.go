// Package behavior holds the unit AI states that run on the ai engine with
// the game world as environment.
package behavior

import (
	"github.com/JakubekWeg/wc2-sub000/internal/ai"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
)

type (
	Context = ai.Context[*world.State]
	State   = ai.State[*world.State]
)

// State type ids as written to saves.
const (
	TypeRoot                = "core:root"
	TypeIdle                = "core:idle"
	TypeAttacking           = "core:attacking"
	TypeGoingAndFindingPath = "core:going-and-finding-path"
	TypeGoingPath           = "core:going-path"
	TypeGoingTile           = "core:going-tile"
	TypeGoingTileFailed     = "core:going-tile-failed"
)

// MaxStalls is how many plans in a row may end without the unit moving
// before a movement or chase gives up.
const MaxStalls = 4

// NewRegistry returns a registry holding every state in this package.
func NewRegistry() *ai.Registry[*world.State] {
	r := ai.NewRegistry[*world.State]()
	r.MustRegister(TypeRoot, func() State { return &Root{} })
	r.MustRegister(TypeIdle, func() State { return &IdlePatrolling{} })
	r.MustRegister(TypeAttacking, func() State { return &Attacking{} })
	r.MustRegister(TypeGoingAndFindingPath, func() State { return &GoingAndFindingPath{} })
	r.MustRegister(TypeGoingPath, func() State { return &GoingPath{} })
	r.MustRegister(TypeGoingTile, func() State { return &GoingTile{} })
	r.MustRegister(TypeGoingTileFailed, func() State { return &GoingTileFailed{} })
	return r
}

// NewRoot builds the bottom frame of a fresh unit stack.
func NewRoot() State { return &Root{} }

// Options returns world options wired to this package's states.
func Options() world.Options {
	return world.Options{States: NewRegistry(), Root: NewRoot}
}
