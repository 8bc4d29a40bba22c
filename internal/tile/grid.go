package tile

import (
	"errors"
	"fmt"

	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
)

var (
	ErrInvalidCoordinate  = errors.New("tile: coordinate out of bounds")
	ErrOccupationConflict = errors.New("tile: occupied by another entity")
)

// Listener is notified of every occupancy write on a subscribed tile,
// including writes that leave the occupant unchanged. Listeners must be
// comparable (pointer receivers).
type Listener interface {
	TileChanged(t *Tile, prev, next ecs.EntityID)
}

// Tile is one grid cell. Its identity is stable for the grid's lifetime.
type Tile struct {
	X, Y      int
	occupant  ecs.EntityID
	blocked   bool
	listeners []Listener
}

func (t *Tile) Occupant() ecs.EntityID { return t.occupant }
func (t *Tile) Blocked() bool          { return t.blocked }

// Walkable reports whether nothing stands on the tile.
func (t *Tile) Walkable() bool { return !t.blocked && t.occupant == 0 }

// Grid is a fixed W×H tile map with occupancy and range subscriptions.
// The listener→tiles side of the subscription index is kept here and is
// only mutated together with the tile side.
type Grid struct {
	width  int
	height int
	tiles  []Tile // index = y*width + x
	subs   map[Listener]map[*Tile]struct{}
}

func NewGrid(width, height int) *Grid {
	g := &Grid{
		width:  width,
		height: height,
		tiles:  make([]Tile, width*height),
		subs:   make(map[Listener]map[*Tile]struct{}),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := &g.tiles[y*width+x]
			t.X, t.Y = x, y
		}
	}
	return g
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.width && y < g.height
}

// Get returns the tile at (x, y).
func (g *Grid) Get(x, y int) (*Tile, error) {
	if !g.InBounds(x, y) {
		return nil, fmt.Errorf("(%d,%d) in %dx%d: %w", x, y, g.width, g.height, ErrInvalidCoordinate)
	}
	return &g.tiles[y*g.width+x], nil
}

func (g *Grid) at(x, y int) *Tile { return &g.tiles[y*g.width+x] }

// Occupant returns the entity on (x, y), or 0 for empty or out-of-bounds.
func (g *Grid) Occupant(x, y int) ecs.EntityID {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.at(x, y).occupant
}

// IsWalkable never fails: out-of-bounds, blocked and occupied tiles are not
// walkable.
func (g *Grid) IsWalkable(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.at(x, y).Walkable()
}

// SetBlocked marks static terrain. Blocked tiles refuse occupants.
func (g *Grid) SetBlocked(x, y int, blocked bool) error {
	t, err := g.Get(x, y)
	if err != nil {
		return err
	}
	t.blocked = blocked
	return nil
}

// UpdateRegistry sets the occupant of (x, y). Writing 0 clears the tile.
// It fails if another entity holds the tile or the tile is terrain.
func (g *Grid) UpdateRegistry(x, y int, occupant ecs.EntityID) error {
	t, err := g.Get(x, y)
	if err != nil {
		return err
	}
	if !canOccupy(t, occupant) {
		return fmt.Errorf("(%d,%d) held by %d, wanted by %d: %w", x, y, t.occupant, occupant, ErrOccupationConflict)
	}
	g.write(t, occupant)
	return nil
}

// UpdateRegistryCheck is the non-failing variant used on movement paths where
// contention is expected. It returns false and leaves the tile unchanged on
// conflict or out-of-bounds.
func (g *Grid) UpdateRegistryCheck(x, y int, occupant ecs.EntityID) bool {
	if !g.InBounds(x, y) {
		return false
	}
	t := g.at(x, y)
	if !canOccupy(t, occupant) {
		return false
	}
	g.write(t, occupant)
	return true
}

// Release clears (x, y) only if it is held by occupant.
func (g *Grid) Release(x, y int, occupant ecs.EntityID) bool {
	if !g.InBounds(x, y) {
		return false
	}
	t := g.at(x, y)
	if t.occupant != occupant {
		return false
	}
	g.write(t, 0)
	return true
}

func canOccupy(t *Tile, occupant ecs.EntityID) bool {
	if occupant == 0 {
		return true
	}
	if t.blocked {
		return false
	}
	return t.occupant == 0 || t.occupant == occupant
}

func (g *Grid) write(t *Tile, occupant ecs.EntityID) {
	prev := t.occupant
	t.occupant = occupant
	if len(t.listeners) == 0 {
		return
	}
	// Listeners may unsubscribe from inside the callback.
	snapshot := make([]Listener, len(t.listeners))
	copy(snapshot, t.listeners)
	for _, l := range snapshot {
		l.TileChanged(t, prev, occupant)
	}
}
