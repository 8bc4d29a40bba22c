package pathfind

import "container/heap"

// DefaultBudget is the number of closed nodes after which a bounded search
// gives up and returns its best partial route.
const DefaultBudget = 50

// Walkable reports whether a unit may step onto (x, y).
type Walkable func(x, y int) bool

// Goal decides when a search is done and steers it.
type Goal interface {
	Reached(x, y int) bool
	Estimate(x, y int) int
}

// Point is a single destination tile.
type Point struct{ X, Y int }

func (p Point) Reached(x, y int) bool { return x == p.X && y == p.Y }
func (p Point) Estimate(x, y int) int { return Heuristic(x, y, p.X, p.Y) }

// Rect is a destination area; any tile inside ends the search.
type Rect struct{ X, Y, W, H int }

func (r Rect) Reached(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.W && y < r.Y+r.H
}

// Estimate measures to the closest tile of the rectangle.
func (r Rect) Estimate(x, y int) int {
	cx := min(max(x, r.X), r.X+r.W-1)
	cy := min(max(y, r.Y), r.Y+r.H-1)
	return Heuristic(x, y, cx, cy)
}

// Result is the outcome of one search.
type Result struct {
	Path     []Direction
	Reached  bool // the goal itself was expanded
	Expanded int  // closed nodes
}

type node struct {
	x, y   int
	g, h   int
	seq    int
	dir    Direction
	parent *node
	index  int // position in the open heap, -1 once closed
}

type openSet []*node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	fi, fj := o[i].g+o[i].h, o[j].g+o[j].h
	if fi != fj {
		return fi < fj
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(v any) {
	n := v.(*node)
	n.index = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*o = old[:len(old)-1]
	return n
}

func pack(x, y int) int64 { return int64(int32(x))<<32 | int64(uint32(int32(y))) }

// Search runs A* from (sx, sy) toward goal. A node is costed once, when it
// is first discovered; later cheaper routes to an open or closed node are
// ignored. The start tile is never tested for walkability.
//
// With budget > 0 the search stops after that many closed nodes and, if
// the goal was not reached, returns the route to the closed node with the
// lowest estimate. With budget <= 0 it runs until the goal is expanded or
// the open set is empty, and returns no path on failure.
func Search(sx, sy int, goal Goal, walkable Walkable, budget int) Result {
	seen := make(map[int64]*node, 256)
	open := make(openSet, 0, 64)
	seq := 0

	start := &node{x: sx, y: sy, h: goal.Estimate(sx, sy)}
	seen[pack(sx, sy)] = start
	heap.Push(&open, start)

	var best *node
	closed := 0
	for open.Len() > 0 {
		n := heap.Pop(&open).(*node)
		closed++
		if best == nil || n.h < best.h {
			best = n
		}
		if goal.Reached(n.x, n.y) {
			return Result{Path: trace(n), Reached: true, Expanded: closed}
		}
		if budget > 0 && closed >= budget {
			break
		}
		for d := North; d <= NorthWest; d++ {
			nx, ny := Apply(n.x, n.y, d)
			k := pack(nx, ny)
			if _, ok := seen[k]; ok {
				continue
			}
			if !walkable(nx, ny) {
				continue
			}
			seq++
			m := &node{x: nx, y: ny, g: n.g + d.Cost(), h: goal.Estimate(nx, ny), seq: seq, dir: d, parent: n}
			seen[k] = m
			heap.Push(&open, m)
		}
	}

	if budget <= 0 || best == nil {
		return Result{Expanded: closed}
	}
	return Result{Path: trace(best), Expanded: closed}
}

func trace(n *node) []Direction {
	steps := 0
	for p := n; p.parent != nil; p = p.parent {
		steps++
	}
	out := make([]Direction, steps)
	for p := n; p.parent != nil; p = p.parent {
		steps--
		out[steps] = p.dir
	}
	return out
}

// FindExact searches without a budget and succeeds only on reaching
// (dx, dy).
func FindExact(sx, sy, dx, dy int, walkable Walkable) ([]Direction, bool) {
	r := Search(sx, sy, Point{dx, dy}, walkable, 0)
	if !r.Reached {
		return nil, false
	}
	return r.Path, true
}

// FindCoarse is the bounded search toward (dx, dy). The destination may be
// unwalkable; the route then stops at the closest expanded tile.
func FindCoarse(sx, sy, dx, dy int, walkable Walkable, budget int) []Direction {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return Search(sx, sy, Point{dx, dy}, walkable, budget).Path
}

// FindRect is the bounded search that stops on the first expanded tile
// inside r.
func FindRect(sx, sy int, r Rect, walkable Walkable, budget int) []Direction {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return Search(sx, sy, r, walkable, budget).Path
}

// Walk applies a route to a start tile and returns the end tile.
func Walk(x, y int, route []Direction) (int, int) {
	for _, d := range route {
		x, y = Apply(x, y, d)
	}
	return x, y
}
