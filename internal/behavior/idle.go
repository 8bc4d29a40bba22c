package behavior

import (
	"github.com/JakubekWeg/wc2-sub000/internal/ai"
	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
)

// IdlePatrolling watches the tiles within sight range and engages the first
// hostile that is already there or walks in. Unarmed units only watch.
type IdlePatrolling struct {
	watching bool
}

func (s *IdlePatrolling) TypeID() string { return TypeIdle }

func (s *IdlePatrolling) Update(c *Context) {
	if s.watching {
		return
	}
	env := c.Env
	p, ok := env.Position(c.Self)
	if !ok {
		return
	}
	r := 0
	if sight, ok := env.Sights.Get(c.Self); ok {
		r = sight.Range
	}
	found := env.Grid().AddListenersForRectAndGet(p.X-r, p.Y-r, 2*r+1, 2*r+1,
		env.Brains.MustGet(c.Self).Sight(),
		func(id ecs.EntityID) bool { return env.Hostile(c.Self, id) })
	s.watching = true

	if target := env.SelectTarget(c.Self, found); target != 0 {
		s.engage(c, target)
	}
}

func (s *IdlePatrolling) EntityEnteredSightRange(c *Context, other ecs.EntityID) {
	if !s.watching || !c.Env.Hostile(c.Self, other) {
		return
	}
	if target := c.Env.SelectTarget(c.Self, []ecs.EntityID{other}); target != 0 {
		s.engage(c, target)
	}
}

func (s *IdlePatrolling) EntityLeftSightRange(*Context, ecs.EntityID) {}

func (s *IdlePatrolling) engage(c *Context, target ecs.EntityID) {
	if !c.Env.Weapons.Has(c.Self) {
		return
	}
	s.unwatch(c)
	c.Machine.Push(&Attacking{Target: target})
}

func (s *IdlePatrolling) unwatch(c *Context) {
	if !s.watching {
		return
	}
	c.Env.Grid().RemoveListenerFromAllTiles(c.Env.Brains.MustGet(c.Self).Sight())
	s.watching = false
}

func (s *IdlePatrolling) OnPop(c *Context) { s.unwatch(c) }

func (s *IdlePatrolling) HandleCommand(ai.Command, *Context) bool { return false }
