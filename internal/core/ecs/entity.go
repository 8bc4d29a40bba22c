package ecs

import "fmt"

// EntityID is assigned from a monotonic counter when an entity is spawned.
// IDs start at 1 and are never reused within a session; 0 means "no entity".
type EntityID uint32

func (id EntityID) IsZero() bool { return id == 0 }

// ComponentID names one component kind. At most 64 kinds exist per world.
type ComponentID uint8

// MaxComponents is the capacity of a ComponentSet.
const MaxComponents = 64

// ComponentSet is a capability bitset: bit i set means component i is present.
type ComponentSet uint64

// NewComponentSet builds a set from the given component ids.
func NewComponentSet(ids ...ComponentID) ComponentSet {
	var s ComponentSet
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

func (s ComponentSet) With(id ComponentID) ComponentSet { return s | bit(id) }
func (s ComponentSet) Has(id ComponentID) bool          { return s&bit(id) != 0 }
func (s ComponentSet) IsEmpty() bool                    { return s == 0 }

func bit(id ComponentID) ComponentSet {
	if id >= MaxComponents {
		panic(fmt.Sprintf("ecs: component id %d out of range (max %d)", id, MaxComponents-1))
	}
	return 1 << id
}

// ContainsAll reports whether every component in other is also in s.
func (s ComponentSet) ContainsAll(other ComponentSet) bool {
	return s&other == other
}

// Entity is the committed (or pending) handle for one simulation object.
// Payloads live in component stores keyed by ID; the component set is fixed
// by Type and never changes after spawn.
type Entity struct {
	ID   EntityID
	Type *EntityType
}

// Has reports whether the entity's type carries component c.
func (e *Entity) Has(c ComponentID) bool {
	return e.Type.components.Has(c)
}

// Components returns the entity's immutable component set.
func (e *Entity) Components() ComponentSet {
	return e.Type.components
}
