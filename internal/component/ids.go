package component

import "github.com/JakubekWeg/wc2-sub000/internal/core/ecs"

// Component ids. An entity type's ComponentSet is built from these.
const (
	IDPosition ecs.ComponentID = iota
	IDDrawable
	IDOccupant // tag: the entity holds its tile in the grid
	IDForce
	IDHealth
	IDMover
	IDSight
	IDWeapon
	IDBrain
	IDProjectile
)

var names = [...]string{
	IDPosition:   "position",
	IDDrawable:   "drawable",
	IDOccupant:   "occupant",
	IDForce:      "force",
	IDHealth:     "health",
	IDMover:      "mover",
	IDSight:      "sight",
	IDWeapon:     "weapon",
	IDBrain:      "ai",
	IDProjectile: "projectile",
}

// Name returns the save key used for component c.
func Name(c ecs.ComponentID) string {
	if int(c) < len(names) && names[c] != "" {
		return names[c]
	}
	return "unknown"
}
