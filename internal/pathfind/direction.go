package pathfind

// Direction is one of the eight compass moves. Order matches the heading
// encoding used across the simulation: 0=N, 1=NE, ... 7=NW, y grows south.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// Edge costs: cardinal = 10, diagonal = 14 (≈10√2).
const (
	CostCardinal = 10
	CostDiagonal = 14
)

var deltas = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

var names = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (d Direction) Delta() (dx, dy int) { return deltas[d][0], deltas[d][1] }
func (d Direction) Diagonal() bool      { return d%2 == 1 }

func (d Direction) Cost() int {
	if d.Diagonal() {
		return CostDiagonal
	}
	return CostCardinal
}

func (d Direction) String() string {
	if int(d) < len(names) {
		return names[d]
	}
	return "?"
}

// Apply returns the tile reached by stepping d from (x, y).
func Apply(x, y int, d Direction) (int, int) {
	return x + deltas[d][0], y + deltas[d][1]
}

// Toward returns the direction whose step best approximates (dx, dy), and
// false when both are zero.
func Toward(dx, dy int) (Direction, bool) {
	sx, sy := sign(dx), sign(dy)
	for i, v := range deltas {
		if v[0] == sx && v[1] == sy {
			return Direction(i), true
		}
	}
	return 0, false
}

// Heuristic is the scaled octile distance between two tiles.
func Heuristic(ax, ay, bx, by int) int {
	dx, dy := abs(ax-bx), abs(ay-by)
	if dx < dy {
		dx, dy = dy, dx
	}
	return CostDiagonal*dy + CostCardinal*(dx-dy)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
