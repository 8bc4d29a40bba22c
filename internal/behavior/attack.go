package behavior

import (
	"github.com/JakubekWeg/wc2-sub000/internal/ai"
	"github.com/JakubekWeg/wc2-sub000/internal/component"
	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
	"go.uber.org/zap"
)

// chaseLeash caps how many steps a chase walks before re-aiming at a moving
// target.
const chaseLeash = 4

// Attacking fires at Target whenever it is in weapon range and reloaded,
// closing in when it is not. When the target dies it picks the next hostile
// in sight, or pops.
type Attacking struct {
	Target ecs.EntityID `json:"target"`
	Reload int          `json:"reload"` // ticks until the next shot
	Chases int          `json:"chases"` // chases in a row that gained no ground
	FromX  int          `json:"fromX"`
	FromY  int          `json:"fromY"`
	Chased bool         `json:"chased"`
}

func (s *Attacking) TypeID() string { return TypeAttacking }

func (s *Attacking) Update(c *Context) {
	env := c.Env
	if !s.valid(c) && !s.retarget(c) {
		c.Machine.Pop(c)
		return
	}
	weapon, ok := env.Weapons.Get(c.Self)
	if !ok {
		c.Machine.Pop(c)
		return
	}
	me, _ := env.Position(c.Self)
	them, _ := env.Position(s.Target)

	if component.Chebyshev(me, them) > weapon.Range {
		if s.Chased && me.X == s.FromX && me.Y == s.FromY {
			s.Chases++
		} else {
			s.Chases = 0
		}
		if s.Chases >= MaxStalls {
			env.Log().Debug("chase abandoned",
				zap.Uint32("entity", uint32(c.Self)),
				zap.Uint32("target", uint32(s.Target)))
			c.Machine.Pop(c)
			return
		}
		s.Chased = true
		s.FromX, s.FromY = me.X, me.Y
		r := weapon.Range
		chase := GoToArea(pathfind.Rect{X: them.X - r, Y: them.Y - r, W: 2*r + 1, H: 2*r + 1})
		chase.Leash = chaseLeash
		chase.Once = true
		c.Machine.Push(chase)
		return
	}
	s.Chased = false
	s.Chases = 0

	if d, ok := pathfind.Toward(them.X-me.X, them.Y-me.Y); ok {
		env.Drawables.MustGet(c.Self).Facing = int(d)
	}
	if s.Reload > 0 {
		s.Reload--
		return
	}
	if _, err := env.SpawnProjectile(c.Self, s.Target); err != nil {
		env.Log().Warn("fire failed", zap.Uint32("entity", uint32(c.Self)), zap.Error(err))
		c.Machine.Pop(c)
		return
	}
	s.Reload = weapon.Reload
}

func (s *Attacking) valid(c *Context) bool {
	return s.Target != 0 && s.Target != c.Self && c.Env.Alive(s.Target) && c.Env.Healths.Has(s.Target)
}

// retarget switches to the best hostile within sight range.
func (s *Attacking) retarget(c *Context) bool {
	r := 0
	if sight, ok := c.Env.Sights.Get(c.Self); ok {
		r = sight.Range
	}
	next := c.Env.SelectTarget(c.Self, c.Env.HostilesNear(c.Self, r))
	if next == 0 {
		return false
	}
	s.Target = next
	s.Chased = false
	s.Chases = 0
	return true
}

// PostSetup drops a target that did not survive the save.
func (s *Attacking) PostSetup(c *Context) error {
	if _, ok := c.Env.World().Lookup(s.Target); !ok {
		s.Target = 0
	}
	return nil
}

func (s *Attacking) OnPop(*Context) {}

func (s *Attacking) HandleCommand(ai.Command, *Context) bool { return false }
