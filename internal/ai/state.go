// Package ai implements the stack-based per-entity state machine. It is
// generic over the environment E that states act on, so the engine has no
// dependency on the game world.
package ai

import "github.com/JakubekWeg/wc2-sub000/internal/core/ecs"

// Command is a player order routed to the top of a stack.
type Command interface {
	CommandName() string
}

// Context is passed to every state callback.
type Context[E any] struct {
	Self    ecs.EntityID
	Tick    uint64
	Env     E
	Machine *Controller[E]
}

// State is one frame of an entity's behaviour stack. Implementations are
// pointer types whose exported fields are the frame's saved form.
type State[E any] interface {
	// TypeID is the namespaced id used to find the factory on load.
	TypeID() string
	// Update runs once per tick while the frame is on top. It may push, pop
	// or replace frames through ctx.Machine.
	Update(ctx *Context[E])
	// OnPop releases everything the frame acquired (tile subscriptions,
	// reservations, debug registrations). The controller calls it for every
	// frame that leaves the stack.
	OnPop(ctx *Context[E])
	// HandleCommand returns false to let the controller pop this frame and
	// offer the command to the one below.
	HandleCommand(cmd Command, ctx *Context[E]) bool
}

// SightObserver is implemented by states that react to tile-range
// notifications.
type SightObserver[E any] interface {
	EntityEnteredSightRange(ctx *Context[E], other ecs.EntityID)
	EntityLeftSightRange(ctx *Context[E], other ecs.EntityID)
}

// PostSetupper is implemented by states that resolve references to other
// entities after a save has been fully committed.
type PostSetupper[E any] interface {
	PostSetup(ctx *Context[E]) error
}

// Validator lets a state reject field values read from a save.
type Validator interface {
	Validate() error
}
