package ai

import "github.com/JakubekWeg/wc2-sub000/internal/core/ecs"

// Controller owns one entity's state stack. stack[0] is the bottom (root)
// frame; the last element is the active one.
type Controller[E any] struct {
	stack []State[E]
}

// NewController starts a stack with root as its only frame.
func NewController[E any](root State[E]) *Controller[E] {
	return &Controller[E]{stack: []State[E]{root}}
}

func (c *Controller[E]) Len() int { return len(c.stack) }

// Get returns the active frame, or nil once the stack has been cleared.
func (c *Controller[E]) Get() State[E] {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}

// Push places s above the active frame. It runs from the next Execute.
func (c *Controller[E]) Push(s State[E]) {
	c.stack = append(c.stack, s)
}

// Pop removes the active frame after running its OnPop. The bottom frame is
// never popped; Pop reports false in that case.
func (c *Controller[E]) Pop(ctx *Context[E]) bool {
	if len(c.stack) <= 1 {
		return false
	}
	top := c.stack[len(c.stack)-1]
	c.stack[len(c.stack)-1] = nil
	c.stack = c.stack[:len(c.stack)-1]
	top.OnPop(c.bind(ctx))
	return true
}

// Replace swaps the active frame for s, running the old frame's OnPop first.
func (c *Controller[E]) Replace(s State[E], ctx *Context[E]) {
	if len(c.stack) == 0 {
		c.stack = append(c.stack, s)
		return
	}
	old := c.stack[len(c.stack)-1]
	old.OnPop(c.bind(ctx))
	c.stack[len(c.stack)-1] = s
}

// Execute runs the active frame's Update.
func (c *Controller[E]) Execute(ctx *Context[E]) {
	if top := c.Get(); top != nil {
		top.Update(c.bind(ctx))
	}
}

// Dispatch offers cmd to the active frame, popping frames that decline it
// until one accepts. It reports whether any frame accepted.
func (c *Controller[E]) Dispatch(cmd Command, ctx *Context[E]) bool {
	ctx = c.bind(ctx)
	for {
		top := c.Get()
		if top == nil {
			return false
		}
		if top.HandleCommand(cmd, ctx) {
			return true
		}
		if !c.Pop(ctx) {
			return false
		}
	}
}

// EnteredSight forwards a sight entry to the active frame when it is a
// SightObserver. It reports whether the frame observed it.
func (c *Controller[E]) EnteredSight(other ecs.EntityID, ctx *Context[E]) bool {
	obs, ok := c.Get().(SightObserver[E])
	if !ok {
		return false
	}
	obs.EntityEnteredSightRange(c.bind(ctx), other)
	return true
}

// LeftSight is EnteredSight for a departure.
func (c *Controller[E]) LeftSight(other ecs.EntityID, ctx *Context[E]) bool {
	obs, ok := c.Get().(SightObserver[E])
	if !ok {
		return false
	}
	obs.EntityLeftSightRange(c.bind(ctx), other)
	return true
}

// Clear pops every frame, the root included, running each OnPop. Used when
// the owning entity leaves the world.
func (c *Controller[E]) Clear(ctx *Context[E]) {
	ctx = c.bind(ctx)
	for len(c.stack) > 0 {
		top := c.stack[len(c.stack)-1]
		c.stack[len(c.stack)-1] = nil
		c.stack = c.stack[:len(c.stack)-1]
		top.OnPop(ctx)
	}
}

// TypeIDs lists frame type ids from the top down.
func (c *Controller[E]) TypeIDs() []string {
	out := make([]string, 0, len(c.stack))
	for i := len(c.stack) - 1; i >= 0; i-- {
		out = append(out, c.stack[i].TypeID())
	}
	return out
}

// Each visits frames from the top down.
func (c *Controller[E]) Each(fn func(State[E])) {
	for i := len(c.stack) - 1; i >= 0; i-- {
		fn(c.stack[i])
	}
}

func (c *Controller[E]) bind(ctx *Context[E]) *Context[E] {
	if ctx == nil {
		ctx = &Context[E]{}
	}
	ctx.Machine = c
	return ctx
}
