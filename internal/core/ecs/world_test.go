package ecs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	compPos ComponentID = iota
	compTag
	compOther
)

type pos struct{ X, Y int }

type recordingIndex struct {
	req     ComponentSet
	added   []EntityID
	removed []EntityID
	onAdd   func(e *Entity)
}

func (r *recordingIndex) Requires() ComponentSet { return r.req }

func (r *recordingIndex) EntityAdded(e *Entity) {
	r.added = append(r.added, e.ID)
	if r.onAdd != nil {
		r.onAdd(e)
	}
}

func (r *recordingIndex) EntityRemoved(e *Entity) { r.removed = append(r.removed, e.ID) }

func requireLifecycle(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a lifecycle panic")
		err, ok := r.(error)
		require.True(t, ok)
		require.ErrorIs(t, err, ErrLifecycle)
	}()
	fn()
}

func newTestWorld(t *testing.T) (*World, *PtrComponentStore[pos], *EntityType, *EntityType) {
	t.Helper()
	w := NewWorld(zap.NewNop())
	positions := NewStore[pos](w.Registry())
	mover := NewTypeComposer("mover").With(Trait{
		Component: compPos,
		Init:      func(e *Entity) { positions.Set(e.ID, &pos{}) },
		Save: func(e *Entity, out Payload) error {
			raw, err := json.Marshal(positions.MustGet(e.ID))
			out["pos"] = raw
			return err
		},
		Load: func(e *Entity, in Payload) error {
			return json.Unmarshal(in["pos"], positions.MustGet(e.ID))
		},
	}).Build()
	marker := NewTypeComposer("marker").Tag(compTag).Build()
	require.NoError(t, w.RegisterEntityType(mover))
	require.NoError(t, w.RegisterEntityType(marker))
	return w, positions, mover, marker
}

func TestRegisterEntityTypeRejectsDuplicatesAndEmpty(t *testing.T) {
	w, _, _, _ := newTestWorld(t)

	err := w.RegisterEntityType(NewTypeComposer("  mover ").Tag(compOther).Build())
	assert.ErrorIs(t, err, ErrDuplicateType)

	err = w.RegisterEntityType(NewTypeComposer("nothing").Build())
	assert.ErrorIs(t, err, ErrEmptyComponents)
}

func TestRegistrationAfterLockPanics(t *testing.T) {
	w, _, _, _ := newTestWorld(t)
	w.LockTypes()

	requireLifecycle(t, func() { w.RegisterIndex(&recordingIndex{}) })
	requireLifecycle(t, func() { _ = w.RegisterEntityType(NewTypeComposer("late").Tag(compTag).Build()) })
	requireLifecycle(t, func() { w.LockTypes() })
}

func TestSpawnOutsideTickPanics(t *testing.T) {
	w, _, mover, _ := newTestWorld(t)
	requireLifecycle(t, func() { w.SpawnEntity(mover) })

	w.LockTypes()
	requireLifecycle(t, func() { w.SpawnEntity(mover) })
	requireLifecycle(t, func() { w.RemoveEntity(1) })
}

func TestExecuteTickIsNotReentrant(t *testing.T) {
	w, _, _, _ := newTestWorld(t)
	w.LockTypes()

	requireLifecycle(t, func() {
		w.ExecuteTick(func(uint64) {
			w.ExecuteTick(func(uint64) {})
		})
	})
}

func TestIndicesOnlySeeMatchingTypes(t *testing.T) {
	w, _, mover, marker := newTestWorld(t)
	posIdx := &recordingIndex{req: NewComponentSet(compPos)}
	all := &recordingIndex{}
	w.RegisterIndex(posIdx)
	w.RegisterIndex(all)
	w.LockTypes()

	var m, k *Entity
	w.ExecuteTick(func(uint64) {
		m = w.SpawnEntity(mover)
		k = w.SpawnEntity(marker)
		_, visible := w.Lookup(m.ID)
		assert.False(t, visible, "spawned entity must not be visible before commit")
	})

	assert.Equal(t, []EntityID{m.ID}, posIdx.added)
	assert.Equal(t, []EntityID{m.ID, k.ID}, all.added)

	w.ExecuteTick(func(uint64) { w.RemoveEntity(m.ID) })
	assert.Equal(t, []EntityID{m.ID}, posIdx.removed)
	_, ok := w.Lookup(m.ID)
	assert.False(t, ok)
}

func TestSpawnFromIndexCallbackCommitsSameTick(t *testing.T) {
	w, _, mover, marker := newTestWorld(t)
	idx := &recordingIndex{req: NewComponentSet(compPos)}
	idx.onAdd = func(e *Entity) { w.SpawnEntity(marker) }
	w.RegisterIndex(idx)
	w.LockTypes()

	w.ExecuteTick(func(uint64) { w.SpawnEntity(mover) })

	require.Equal(t, 2, w.Count())
	ents := w.Entities()
	assert.Equal(t, EntityID(1), ents[0].ID)
	assert.Equal(t, EntityID(2), ents[1].ID)

	w.ExecuteTick(func(uint64) { w.RemoveEntity(1) })
	w.ExecuteTick(func(uint64) {
		e := w.SpawnEntity(mover)
		assert.Equal(t, EntityID(3), e.ID, "ids are never reused")
	})
}

func TestRemovalClearsStores(t *testing.T) {
	w, positions, mover, _ := newTestWorld(t)
	w.LockTypes()

	var id EntityID
	w.ExecuteTick(func(uint64) { id = w.SpawnEntity(mover).ID })
	require.True(t, positions.Has(id))

	w.ExecuteTick(func(uint64) {
		w.RemoveEntity(id)
		w.RemoveEntity(id)
		assert.False(t, w.Alive(id))
	})
	assert.False(t, positions.Has(id))
}

type modListener struct{ calls []EntityID }

func (m *modListener) EntityModified(e *Entity, _ ComponentID) { m.calls = append(m.calls, e.ID) }

func TestNotifyEntityModified(t *testing.T) {
	w, _, mover, _ := newTestWorld(t)
	l := &modListener{}
	w.RegisterModificationListener(compPos, l)
	w.LockTypes()

	var e *Entity
	w.ExecuteTick(func(uint64) {
		e = w.SpawnEntity(mover)
		w.NotifyEntityModified(e, compPos) // pending: skipped
	})
	assert.Empty(t, l.calls)

	w.ExecuteTick(func(uint64) {
		w.NotifyEntityModified(e, compPos)
		w.NotifyEntityModified(e, compTag)
	})
	assert.Equal(t, []EntityID{e.ID}, l.calls)

	requireLifecycle(t, func() { w.NotifyEntityModified(e, compPos) })
}

func TestRestoreWithExplicitIDs(t *testing.T) {
	w, positions, mover, _ := newTestWorld(t)
	w.LockTypes()

	var saved json.RawMessage
	w.ExecuteTick(func(uint64) {
		e := w.SpawnEntity(mover)
		*positions.MustGet(e.ID) = pos{X: 3, Y: 4}
	})
	e, _ := w.Lookup(1)
	saved, err := mover.Serialize(e)
	require.NoError(t, err)

	w2, positions2, mover2, _ := newTestWorld(t)
	w2.LockTypes()
	w2.ResumeFromTick(40, 9)
	w2.Restore(func() {
		var in Payload
		require.NoError(t, json.Unmarshal(saved, &in))
		e, err := w2.SpawnEntityWithID(mover2, 1)
		require.NoError(t, err)
		require.NoError(t, mover2.Deserialize(e, in))

		_, err = w2.SpawnEntityWithID(mover2, 1)
		assert.ErrorIs(t, err, ErrDuplicateEntityID)
	})

	assert.Equal(t, uint64(40), w2.Tick())
	assert.Equal(t, EntityID(9), w2.NextEntityID())
	assert.Equal(t, pos{X: 3, Y: 4}, *positions2.MustGet(1))

	w2.ExecuteTick(func(tick uint64) {
		assert.Equal(t, uint64(41), tick)
		assert.Equal(t, EntityID(9), w2.SpawnEntity(mover2).ID)
	})
}

func TestSpawnByUnknownName(t *testing.T) {
	w, _, _, _ := newTestWorld(t)
	w.LockTypes()
	w.ExecuteTick(func(uint64) {
		_, err := w.Spawn("dragon")
		assert.ErrorIs(t, err, ErrUnknownEntityType)
	})
}

func TestComponentSetRejectsOutOfRangeIDs(t *testing.T) {
	s := NewComponentSet(0, MaxComponents-1)
	assert.True(t, s.Has(MaxComponents-1))
	assert.Panics(t, func() { s.With(MaxComponents) })
	assert.Panics(t, func() { s.Has(MaxComponents + 3) })
}

func TestEntitiesAreSortedByID(t *testing.T) {
	w, _, mover, marker := newTestWorld(t)
	w.LockTypes()
	w.ExecuteTick(func(uint64) {
		for i := 0; i < 20; i++ {
			if i%3 == 0 {
				w.SpawnEntity(marker)
			} else {
				w.SpawnEntity(mover)
			}
		}
	})
	w.ExecuteTick(func(uint64) { w.RemoveEntity(7) })

	ents := w.Entities()
	require.Len(t, ents, 19)
	for i := 1; i < len(ents); i++ {
		assert.Less(t, ents[i-1].ID, ents[i].ID)
	}
}

func TestEach2AndStoreEachVisitInIDOrder(t *testing.T) {
	r := NewRegistry()
	a := NewStore[pos](r)
	b := NewStore[int](r)
	for _, id := range []EntityID{5, 2, 9, 4} {
		a.Set(id, &pos{X: int(id)})
	}
	for _, id := range []EntityID{9, 2, 7} {
		v := int(id) * 10
		b.Set(id, &v)
	}

	var both []EntityID
	Each2(a, b, func(id EntityID, p *pos, v *int) {
		assert.Equal(t, int(id), p.X)
		assert.Equal(t, int(id)*10, *v)
		both = append(both, id)
	})
	assert.Equal(t, []EntityID{2, 9}, both)

	var all []EntityID
	a.Each(func(id EntityID, _ *pos) { all = append(all, id) })
	assert.Equal(t, []EntityID{2, 4, 5, 9}, all)

	var set IDSet
	for _, id := range []EntityID{3, 1, 2} {
		set.Add(id)
	}
	var seen []EntityID
	set.Each(func(id EntityID) {
		seen = append(seen, id)
		set.Remove(id)
	})
	assert.Equal(t, []EntityID{1, 2, 3}, seen)
	assert.Zero(t, set.Len())
}
