package component

import "github.com/JakubekWeg/wc2-sub000/internal/core/ecs"

// Pure data, zero methods beyond small predicates. Mutation happens in
// behaviour states and systems.

// Position is the tile an entity stands on. For a moving unit it stays on
// the origin tile until the step completes.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Drawable is what the presentation feed needs to draw an entity.
type Drawable struct {
	Sprite string `json:"sprite"`
	Facing int    `json:"facing"` // 0=N .. 7=NW
	Frame  int    `json:"frame"`
	// OffsetX/OffsetY are the sub-tile displacement of a unit mid-step,
	// in 1/100 of a tile.
	OffsetX int `json:"offsetX"`
	OffsetY int `json:"offsetY"`
}

// Force is the owning side. Zero is neutral.
type Force struct {
	ID int `json:"id"`
}

// Hostile reports whether two forces fight each other: both non-neutral and
// different.
func Hostile(a, b Force) bool {
	return a.ID != 0 && b.ID != 0 && a.ID != b.ID
}

type Health struct {
	HP  int `json:"hp"`
	Max int `json:"max"`
}

func (h Health) Dead() bool { return h.HP <= 0 }

// Mover holds walking speed. A step costs max(1, cost*4/Speed) ticks where
// cost is 10 for a cardinal step and 14 for a diagonal one.
type Mover struct {
	Speed int `json:"speed"`
}

type Sight struct {
	Range int `json:"range"`
}

// Weapon is a unit's ranged attack. Projectile names the entity type spawned
// per shot.
type Weapon struct {
	Range      int    `json:"range"`
	Damage     int    `json:"damage"`
	Reload     int    `json:"reload"` // ticks between shots
	Projectile string `json:"projectile"`
}

// Projectile flies toward Target's current tile, Speed tiles per tick.
type Projectile struct {
	Source ecs.EntityID `json:"source"`
	Target ecs.EntityID `json:"target"`
	Damage int          `json:"damage"`
	Speed  int          `json:"speed"`
	// DestX/DestY is the last known target tile, used once the target is gone.
	DestX int `json:"destX"`
	DestY int `json:"destY"`
}

// Chebyshev returns the king-move distance between two positions.
func Chebyshev(a, b Position) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
