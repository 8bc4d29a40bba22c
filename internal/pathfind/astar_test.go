package pathfind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMap struct {
	w, h    int
	blocked map[Point]bool
}

func newTestMap(w, h int, walls ...Point) *testMap {
	m := &testMap{w: w, h: h, blocked: map[Point]bool{}}
	for _, p := range walls {
		m.blocked[p] = true
	}
	return m
}

func (m *testMap) walkable(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return !m.blocked[Point{x, y}]
}

func (m *testMap) assertValid(t *testing.T, sx, sy int, route []Direction) {
	t.Helper()
	x, y := sx, sy
	for i, d := range route {
		x, y = Apply(x, y, d)
		require.True(t, m.walkable(x, y), "step %d (%s) lands on blocked (%d,%d)", i, d, x, y)
	}
}

func TestHeuristicIsOctile(t *testing.T) {
	assert.Equal(t, 0, Heuristic(2, 2, 2, 2))
	assert.Equal(t, 70, Heuristic(0, 0, 5, 5))
	assert.Equal(t, 50, Heuristic(0, 0, 5, 0))
	assert.Equal(t, 14*2+10*3, Heuristic(0, 0, 5, 2))
	assert.Equal(t, Heuristic(5, 2, 0, 0), Heuristic(0, 0, 5, 2))
}

func TestDirections(t *testing.T) {
	x, y := Apply(3, 3, NorthEast)
	assert.Equal(t, [2]int{4, 2}, [2]int{x, y})
	assert.Equal(t, CostDiagonal, SouthWest.Cost())
	assert.Equal(t, CostCardinal, West.Cost())

	d, ok := Toward(-4, 9)
	assert.True(t, ok)
	assert.Equal(t, SouthWest, d)
	_, ok = Toward(0, 0)
	assert.False(t, ok)
	assert.Equal(t, "NW", NorthWest.String())
}

func TestExactOpenGridDiagonal(t *testing.T) {
	m := newTestMap(10, 10)
	route, ok := FindExact(0, 0, 5, 5, m.walkable)
	require.True(t, ok)
	assert.Equal(t, []Direction{SouthEast, SouthEast, SouthEast, SouthEast, SouthEast}, route)
}

func TestExactStartIsGoal(t *testing.T) {
	m := newTestMap(3, 3)
	route, ok := FindExact(1, 1, 1, 1, m.walkable)
	assert.True(t, ok)
	assert.Empty(t, route)
}

func TestExactAroundWall(t *testing.T) {
	var walls []Point
	for y := 0; y < 7; y++ {
		walls = append(walls, Point{4, y})
	}
	m := newTestMap(10, 10, walls...)

	route, ok := FindExact(1, 1, 8, 1, m.walkable)
	require.True(t, ok)
	m.assertValid(t, 1, 1, route)
	ex, ey := Walk(1, 1, route)
	assert.Equal(t, Point{8, 1}, Point{ex, ey})
}

func TestExactUnreachableReturnsFalse(t *testing.T) {
	var ring []Point
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				ring = append(ring, Point{5 + dx, 5 + dy})
			}
		}
	}
	m := newTestMap(10, 10, ring...)
	route, ok := FindExact(0, 0, 5, 5, m.walkable)
	assert.False(t, ok)
	assert.Nil(t, route)
}

func TestCoarseBlockedDestinationReturnsPartialPrefix(t *testing.T) {
	m := newTestMap(12, 12, Point{5, 5})

	r := Search(0, 0, Point{5, 5}, m.walkable, DefaultBudget)
	assert.False(t, r.Reached)
	assert.LessOrEqual(t, r.Expanded, DefaultBudget)
	require.NotEmpty(t, r.Path)
	m.assertValid(t, 0, 0, r.Path)

	ex, ey := Walk(0, 0, r.Path)
	assert.Less(t, Heuristic(ex, ey, 5, 5), Heuristic(0, 0, 5, 5))

	assert.Equal(t, r.Path, FindCoarse(0, 0, 5, 5, m.walkable, 0))
}

func TestCoarseRespectsSmallBudget(t *testing.T) {
	m := newTestMap(64, 64)
	r := Search(0, 0, Point{60, 60}, m.walkable, 5)
	assert.False(t, r.Reached)
	assert.Equal(t, 5, r.Expanded)
	assert.NotEmpty(t, r.Path)
}

func TestCoarseReachesWhenWithinBudget(t *testing.T) {
	m := newTestMap(10, 10)
	r := Search(0, 0, Point{3, 0}, m.walkable, DefaultBudget)
	assert.True(t, r.Reached)
	assert.Equal(t, []Direction{East, East, East}, r.Path)
}

func TestRectStopsOnFirstTileInside(t *testing.T) {
	m := newTestMap(12, 12)
	area := Rect{X: 6, Y: 0, W: 3, H: 3}
	route := FindRect(0, 0, area, m.walkable, 0)
	require.Len(t, route, 6)
	ex, ey := Walk(0, 0, route)
	assert.True(t, area.Reached(ex, ey))
	assert.Equal(t, 0, area.Estimate(ex, ey))
}

func TestRectFromInsideIsEmpty(t *testing.T) {
	m := newTestMap(5, 5)
	assert.Empty(t, FindRect(2, 2, Rect{X: 1, Y: 1, W: 3, H: 3}, m.walkable, 0))
}

func TestStartTileNeedNotBeWalkable(t *testing.T) {
	m := newTestMap(5, 5, Point{0, 0})
	route, ok := FindExact(0, 0, 2, 0, m.walkable)
	require.True(t, ok)
	assert.Equal(t, []Direction{East, East}, route)
}
