package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownState   = errors.New("ai: unknown state type")
	ErrMalformedSave  = errors.New("ai: malformed state save")
	ErrDuplicateState = errors.New("ai: state type already registered")
)

const typeIDKey = "typeId"

// Registry maps namespaced type ids to factories. One registry is built at
// startup and handed to every world that needs to load stacks.
type Registry[E any] struct {
	factories map[string]func() State[E]
}

func NewRegistry[E any]() *Registry[E] {
	return &Registry[E]{factories: make(map[string]func() State[E])}
}

// Register binds typeID to a factory returning a fresh, zero-valued state.
func (r *Registry[E]) Register(typeID string, factory func() State[E]) error {
	if _, dup := r.factories[typeID]; dup {
		return fmt.Errorf("%q: %w", typeID, ErrDuplicateState)
	}
	r.factories[typeID] = factory
	return nil
}

func (r *Registry[E]) MustRegister(typeID string, factory func() State[E]) {
	if err := r.Register(typeID, factory); err != nil {
		panic(err)
	}
}

// TypeIDs returns the registered ids, sorted.
func (r *Registry[E]) TypeIDs() []string {
	out := make([]string, 0, len(r.factories))
	for id := range r.factories {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Save encodes the stack top to bottom as {typeId, ...fields} objects.
func (c *Controller[E]) Save() ([]json.RawMessage, error) {
	out := make([]json.RawMessage, 0, len(c.stack))
	for i := len(c.stack) - 1; i >= 0; i-- {
		raw, err := encodeState(c.stack[i])
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func encodeState[E any](s State[E]) (json.RawMessage, error) {
	fields, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.TypeID(), err)
	}
	obj := map[string]json.RawMessage{}
	if err := json.Unmarshal(fields, &obj); err != nil {
		return nil, fmt.Errorf("encode %s: state must marshal to an object: %w", s.TypeID(), err)
	}
	id, _ := json.Marshal(s.TypeID())
	obj[typeIDKey] = id
	return json.Marshal(obj)
}

// Decode rebuilds a controller from Save output, bottom frame first.
func (r *Registry[E]) Decode(entries []json.RawMessage) (*Controller[E], error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty stack: %w", ErrMalformedSave)
	}
	c := &Controller[E]{stack: make([]State[E], 0, len(entries))}
	for i := len(entries) - 1; i >= 0; i-- {
		s, err := r.decodeState(entries[i])
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		c.stack = append(c.stack, s)
	}
	return c, nil
}

func (r *Registry[E]) decodeState(raw json.RawMessage) (State[E], error) {
	var head struct {
		TypeID *string `json:"typeId"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedSave)
	}
	if head.TypeID == nil || *head.TypeID == "" {
		return nil, fmt.Errorf("missing %s: %w", typeIDKey, ErrMalformedSave)
	}
	factory, ok := r.factories[*head.TypeID]
	if !ok {
		return nil, fmt.Errorf("%q: %w", *head.TypeID, ErrUnknownState)
	}
	s := factory()
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, fmt.Errorf("%s fields: %v: %w", *head.TypeID, err, ErrMalformedSave)
	}
	if v, ok := s.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %v: %w", *head.TypeID, err, ErrMalformedSave)
		}
	}
	return s, nil
}
