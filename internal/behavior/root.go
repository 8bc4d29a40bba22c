package behavior

import (
	"github.com/JakubekWeg/wc2-sub000/internal/ai"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
	"go.uber.org/zap"
)

// Root is the permanent bottom frame. It takes player commands, which every
// frame above it declines, and falls back to idling when nothing is queued.
type Root struct{}

func (r *Root) TypeID() string { return TypeRoot }

func (r *Root) Update(c *Context) {
	if c.Machine.Len() == 1 {
		c.Machine.Push(&IdlePatrolling{})
	}
}

func (r *Root) OnPop(*Context) {}

func (r *Root) HandleCommand(cmd ai.Command, c *Context) bool {
	switch cmd := cmd.(type) {
	case ai.MoveCommand:
		c.Machine.Push(GoToPoint(cmd.X, cmd.Y))
	case ai.AttackCommand:
		if cmd.Target == c.Self || !c.Env.Alive(cmd.Target) || !c.Env.Healths.Has(cmd.Target) {
			c.Env.Log().Debug("attack order ignored: bad target",
				zap.Uint32("entity", uint32(c.Self)),
				zap.Uint32("target", uint32(cmd.Target)))
			return true
		}
		if !c.Env.Weapons.Has(c.Self) {
			c.Env.Log().Debug("attack order ignored: unarmed", zap.Uint32("entity", uint32(c.Self)))
			return true
		}
		c.Machine.Push(&Attacking{Target: cmd.Target})
	case ai.StopCommand:
		// Update pushes a fresh idle frame.
	default:
		return false
	}
	return true
}

// GoToPoint walks to a single tile.
func GoToPoint(x, y int) *GoingAndFindingPath {
	return &GoingAndFindingPath{Goal: pathfind.Rect{X: x, Y: y, W: 1, H: 1}}
}

// GoToArea walks until the unit stands anywhere inside r.
func GoToArea(r pathfind.Rect) *GoingAndFindingPath {
	return &GoingAndFindingPath{Goal: r, Area: true}
}
