package behavior

import (
	"errors"

	"github.com/JakubekWeg/wc2-sub000/internal/ai"
	"github.com/JakubekWeg/wc2-sub000/internal/component"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
	"go.uber.org/zap"
)

// GoingAndFindingPath plans coarse routes toward Goal and walks them until
// the unit arrives or MaxStalls plans in a row leave it where it was. A
// point goal is a 1x1 Goal with Area unset: it is planned as an exact tile,
// so the destination may be occupied.
type GoingAndFindingPath struct {
	Goal  pathfind.Rect `json:"goal"`
	Area  bool          `json:"area,omitempty"`
	Leash int           `json:"leash,omitempty"` // max steps per route, 0 = no cap
	Once  bool          `json:"once,omitempty"`  // pop after the first route

	Stalls  int  `json:"stalls"`
	Planned bool `json:"planned"`
	FromX   int  `json:"fromX"`
	FromY   int  `json:"fromY"`
}

func (s *GoingAndFindingPath) TypeID() string { return TypeGoingAndFindingPath }

func (s *GoingAndFindingPath) Update(c *Context) {
	env := c.Env
	p, ok := env.Position(c.Self)
	if !ok || s.Goal.Reached(p.X, p.Y) {
		c.Machine.Pop(c)
		return
	}
	if s.Planned {
		s.Planned = false
		if p.X == s.FromX && p.Y == s.FromY {
			s.Stalls++
		} else {
			s.Stalls = 0
		}
		if s.Once {
			c.Machine.Pop(c)
			return
		}
	}
	if s.Stalls >= MaxStalls {
		env.Log().Debug("destination unreachable",
			zap.Uint32("entity", uint32(c.Self)),
			zap.Int("x", s.Goal.X),
			zap.Int("y", s.Goal.Y))
		c.Machine.Pop(c)
		return
	}

	route := s.plan(c, p)
	if s.Leash > 0 && len(route) > s.Leash {
		route = route[:s.Leash]
	}
	if len(route) == 0 {
		s.Stalls++
		return
	}
	s.Planned = true
	s.FromX, s.FromY = p.X, p.Y
	c.Machine.Push(&GoingPath{Route: route})
	c.Machine.Execute(c)
}

func (s *GoingAndFindingPath) plan(c *Context, p component.Position) []pathfind.Direction {
	walkable := c.Env.Grid().IsWalkable
	if s.Area {
		return pathfind.FindRect(p.X, p.Y, s.Goal, walkable, c.Env.PathBudget())
	}
	return pathfind.FindCoarse(p.X, p.Y, s.Goal.X, s.Goal.Y, walkable, c.Env.PathBudget())
}

func (s *GoingAndFindingPath) Validate() error {
	if s.Goal.W < 1 || s.Goal.H < 1 {
		return errors.New("empty goal")
	}
	return nil
}

func (s *GoingAndFindingPath) OnPop(*Context) {}

func (s *GoingAndFindingPath) HandleCommand(ai.Command, *Context) bool { return false }

// GoingPath walks Route one GoingTile at a time. The remaining route is
// shown in the debug feed while the frame lives.
type GoingPath struct {
	Route []pathfind.Direction `json:"route"`
	Next  int                  `json:"next"`

	shown bool
}

func (s *GoingPath) TypeID() string { return TypeGoingPath }

func (s *GoingPath) Update(c *Context) {
	if s.Next >= len(s.Route) {
		c.Machine.Pop(c)
		return
	}
	if !s.shown {
		s.show(c)
	}
	d := s.Route[s.Next]
	s.Next++
	c.Machine.Push(&GoingTile{Dir: d})
	c.Machine.Execute(c)
}

func (s *GoingPath) show(c *Context) {
	p, ok := c.Env.Position(c.Self)
	if !ok {
		return
	}
	points := make([]pathfind.Point, 0, len(s.Route)-s.Next)
	x, y := p.X, p.Y
	for _, d := range s.Route[s.Next:] {
		x, y = pathfind.Apply(x, y, d)
		points = append(points, pathfind.Point{X: x, Y: y})
	}
	c.Env.RegisterDebugPath(c.Self, points)
	s.shown = true
}

func (s *GoingPath) Validate() error {
	if s.Next < 0 || s.Next > len(s.Route) {
		return errors.New("route cursor out of range")
	}
	for _, d := range s.Route {
		if d > pathfind.NorthWest {
			return errors.New("bad direction")
		}
	}
	return nil
}

func (s *GoingPath) OnPop(c *Context) {
	if s.shown {
		c.Env.UnregisterDebugPath(c.Self)
	}
}

func (s *GoingPath) HandleCommand(ai.Command, *Context) bool { return false }

// GoingTile moves one step in Dir. It reserves the destination tile first;
// when that fails it is replaced by GoingTileFailed. The unit keeps its
// origin tile until it arrives. A step takes max(1, cost*4/speed) ticks.
type GoingTile struct {
	Dir      pathfind.Direction `json:"dir"`
	Reserved bool               `json:"reserved"`
	Left     int                `json:"left"`
	Total    int                `json:"total"`

	arrived bool
}

func (s *GoingTile) TypeID() string { return TypeGoingTile }

func (s *GoingTile) Update(c *Context) {
	env := c.Env
	p, ok := env.Position(c.Self)
	if !ok {
		c.Machine.Pop(c)
		return
	}
	dx, dy := pathfind.Apply(p.X, p.Y, s.Dir)
	draw := env.Drawables.MustGet(c.Self)

	if !s.Reserved {
		if !env.ReserveTile(dx, dy, c.Self) {
			c.Machine.Replace(&GoingTileFailed{}, c)
			return
		}
		s.Reserved = true
		s.Total = StepTicks(s.Dir, env.Movers.MustGet(c.Self).Speed)
		s.Left = s.Total
		draw.Facing = int(s.Dir)
	}

	s.Left--
	if s.Left > 0 {
		ox, oy := s.Dir.Delta()
		done := s.Total - s.Left
		draw.OffsetX = ox * 100 * done / s.Total
		draw.OffsetY = oy * 100 * done / s.Total
		draw.Frame++
		return
	}

	env.Grid().Release(p.X, p.Y, c.Self)
	env.SetPosition(c.Self, dx, dy)
	draw.OffsetX, draw.OffsetY = 0, 0
	s.arrived = true
	c.Machine.Pop(c)
}

// StepTicks is the duration of one step for a unit of the given speed.
func StepTicks(d pathfind.Direction, speed int) int {
	return max(1, d.Cost()*4/max(1, speed))
}

// PostSetup takes the reservation back after a load, since the grid only
// rebuilds occupancy from positions. If the tile was taken meanwhile the
// step restarts and fails on the next update.
func (s *GoingTile) PostSetup(c *Context) error {
	if !s.Reserved {
		return nil
	}
	p, ok := c.Env.Position(c.Self)
	if !ok {
		return nil
	}
	dx, dy := pathfind.Apply(p.X, p.Y, s.Dir)
	if !c.Env.ReserveTile(dx, dy, c.Self) {
		s.Reserved = false
		s.Left, s.Total = 0, 0
	}
	return nil
}

func (s *GoingTile) Validate() error {
	if s.Dir > pathfind.NorthWest {
		return errors.New("bad direction")
	}
	if s.Reserved && (s.Total < 1 || s.Left < 0 || s.Left > s.Total) {
		return errors.New("bad step timer")
	}
	return nil
}

// OnPop gives back the reserved tile unless the step completed.
func (s *GoingTile) OnPop(c *Context) {
	if s.arrived || !s.Reserved {
		return
	}
	if p, ok := c.Env.Position(c.Self); ok {
		dx, dy := pathfind.Apply(p.X, p.Y, s.Dir)
		c.Env.Grid().Release(dx, dy, c.Self)
	}
	if draw, ok := c.Env.Drawables.Get(c.Self); ok {
		draw.OffsetX, draw.OffsetY = 0, 0
	}
}

func (s *GoingTile) HandleCommand(ai.Command, *Context) bool { return false }

// GoingTileFailed drops itself and the GoingPath below it, so the planner
// under that replans around whatever took the tile.
type GoingTileFailed struct{}

func (s *GoingTileFailed) TypeID() string { return TypeGoingTileFailed }

func (s *GoingTileFailed) Update(c *Context) {
	c.Machine.Pop(c)
	c.Machine.Pop(c)
}

func (s *GoingTileFailed) OnPop(*Context) {}

func (s *GoingTileFailed) HandleCommand(ai.Command, *Context) bool { return false }
