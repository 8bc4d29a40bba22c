package ecs

import "sort"

// Each2 iterates, in ascending id order, over entities that have both
// component A and B. It walks the smaller store and probes the larger one.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range sa.ids {
			if b, ok := sb.data[id]; ok {
				fn(id, sa.data[id], b)
			}
		}
		return
	}
	for _, id := range sb.ids {
		if a, ok := sa.data[id]; ok {
			fn(id, a, sb.data[id])
		}
	}
}

// IDSet is an ordered set of entity ids. Indices use it to hold committed
// members so that iteration order is deterministic.
type IDSet struct {
	ids []EntityID
}

func (s *IDSet) search(id EntityID) int {
	return sort.Search(len(s.ids), func(i int) bool { return s.ids[i] >= id })
}

// Add inserts id and reports whether it was absent.
func (s *IDSet) Add(id EntityID) bool {
	i := s.search(id)
	if i < len(s.ids) && s.ids[i] == id {
		return false
	}
	s.ids = append(s.ids, 0)
	copy(s.ids[i+1:], s.ids[i:])
	s.ids[i] = id
	return true
}

// Remove deletes id and reports whether it was present.
func (s *IDSet) Remove(id EntityID) bool {
	i := s.search(id)
	if i >= len(s.ids) || s.ids[i] != id {
		return false
	}
	s.ids = append(s.ids[:i], s.ids[i+1:]...)
	return true
}

func (s *IDSet) Has(id EntityID) bool {
	i := s.search(id)
	return i < len(s.ids) && s.ids[i] == id
}

func (s *IDSet) Len() int { return len(s.ids) }

// Slice returns a copy of the members in ascending order.
func (s *IDSet) Slice() []EntityID {
	out := make([]EntityID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Each visits a snapshot of the members, so fn may mutate the set.
func (s *IDSet) Each(fn func(EntityID)) {
	for _, id := range s.Slice() {
		fn(id)
	}
}
