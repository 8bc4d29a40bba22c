package event

import "github.com/JakubekWeg/wc2-sub000/internal/core/ecs"

// Gameplay events, delivered one tick after emission.

// ProjectileHit is emitted when a projectile reaches its target.
type ProjectileHit struct {
	Projectile ecs.EntityID
	Source     ecs.EntityID
	Target     ecs.EntityID
	Damage     int
}

// EntityDied is emitted when an entity's health reaches zero.
type EntityDied struct {
	Entity ecs.EntityID
	Killer ecs.EntityID
	Force  int
}
