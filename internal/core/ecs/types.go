package ecs

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Payload is the decoded top-level object of one saved entity. Each trait
// reads and writes its own keys.
type Payload map[string]json.RawMessage

// Trait contributes one component to an entity type: how to create its
// default payload and how to move it in and out of a save.
type Trait struct {
	Component ComponentID
	Init      func(e *Entity)
	Save      func(e *Entity, out Payload) error
	Load      func(e *Entity, in Payload) error
	// PostSetup runs after every entity of a save has been committed, so it
	// may resolve references to other entities by id.
	PostSetup func(e *Entity, in Payload) error
}

// EntityType is an immutable descriptor built by TypeComposer.
type EntityType struct {
	name       string
	components ComponentSet
	traits     []Trait
}

func (t *EntityType) Name() string             { return t.name }
func (t *EntityType) Components() ComponentSet { return t.components }

func (t *EntityType) initialize(e *Entity) {
	for _, tr := range t.traits {
		if tr.Init != nil {
			tr.Init(e)
		}
	}
}

// Serialize writes the entity as one JSON object: id, type and every
// trait's keys.
func (t *EntityType) Serialize(e *Entity) (json.RawMessage, error) {
	out := Payload{}
	id, _ := json.Marshal(e.ID)
	name, _ := json.Marshal(t.name)
	out["id"] = id
	out["type"] = name
	for _, tr := range t.traits {
		if tr.Save == nil {
			continue
		}
		if err := tr.Save(e, out); err != nil {
			return nil, fmt.Errorf("serialize %s#%d: %w", t.name, e.ID, err)
		}
	}
	return json.Marshal(out)
}

// Deserialize applies every trait's Load to an already-initialized entity.
func (t *EntityType) Deserialize(e *Entity, in Payload) error {
	for _, tr := range t.traits {
		if tr.Load == nil {
			continue
		}
		if err := tr.Load(e, in); err != nil {
			return fmt.Errorf("deserialize %s#%d: %w", t.name, e.ID, err)
		}
	}
	return nil
}

// PostSetup runs the traits' PostSetup hooks in declaration order.
func (t *EntityType) PostSetup(e *Entity, in Payload) error {
	for _, tr := range t.traits {
		if tr.PostSetup == nil {
			continue
		}
		if err := tr.PostSetup(e, in); err != nil {
			return fmt.Errorf("post-setup %s#%d: %w", t.name, e.ID, err)
		}
	}
	return nil
}

// TypeComposer collects traits for one entity type. Build returns a
// descriptor that shares no mutable state with the composer.
type TypeComposer struct {
	name   string
	traits []Trait
}

func NewTypeComposer(name string) *TypeComposer {
	return &TypeComposer{name: name}
}

// With appends traits. A component contributed twice keeps both traits;
// hooks run in the order given.
func (c *TypeComposer) With(traits ...Trait) *TypeComposer {
	c.traits = append(c.traits, traits...)
	return c
}

// Tag adds bare components that carry no payload.
func (c *TypeComposer) Tag(ids ...ComponentID) *TypeComposer {
	for _, id := range ids {
		c.traits = append(c.traits, Trait{Component: id})
	}
	return c
}

func (c *TypeComposer) Build() *EntityType {
	t := &EntityType{
		name:   CanonicalTypeName(c.name),
		traits: make([]Trait, len(c.traits)),
	}
	copy(t.traits, c.traits)
	for _, tr := range t.traits {
		t.components = t.components.With(tr.Component)
	}
	return t
}

// CanonicalTypeName trims and NFC-normalizes a type name so that visually
// identical names collide at registration.
func CanonicalTypeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
