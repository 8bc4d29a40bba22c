package ecs

import "sort"

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on commit of a removal.
type Removable interface {
	Remove(id EntityID)
}

// PtrComponentStore is a generic typed store for one component's payloads.
// Iteration is in ascending entity id order so that every system walking a
// store sees the same sequence on every run.
type PtrComponentStore[T any] struct {
	data map[EntityID]*T
	ids  []EntityID // sorted
}

func NewPtrComponentStore[T any]() *PtrComponentStore[T] {
	return &PtrComponentStore[T]{
		data: make(map[EntityID]*T, 256),
		ids:  make([]EntityID, 0, 256),
	}
}

func (s *PtrComponentStore[T]) Set(id EntityID, c *T) {
	if _, ok := s.data[id]; !ok {
		i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
		s.ids = append(s.ids, 0)
		copy(s.ids[i+1:], s.ids[i:])
		s.ids[i] = id
	}
	s.data[id] = c
}

func (s *PtrComponentStore[T]) Get(id EntityID) (*T, bool) {
	c, ok := s.data[id]
	return c, ok
}

// MustGet returns the payload or nil. Callers use it where the component set
// already guarantees presence.
func (s *PtrComponentStore[T]) MustGet(id EntityID) *T {
	return s.data[id]
}

func (s *PtrComponentStore[T]) Remove(id EntityID) {
	if _, ok := s.data[id]; !ok {
		return
	}
	delete(s.data, id)
	i := sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
}

func (s *PtrComponentStore[T]) Has(id EntityID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *PtrComponentStore[T]) Len() int {
	return len(s.data)
}

// Each visits payloads in ascending id order. fn must not add or remove
// entries of this store.
func (s *PtrComponentStore[T]) Each(fn func(EntityID, *T)) {
	for _, id := range s.ids {
		fn(id, s.data[id])
	}
}
