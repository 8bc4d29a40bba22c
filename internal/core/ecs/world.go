package ecs

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// World is the top-level ECS container. It owns entity lifecycle, the
// component store registry and the index dispatch tables.
//
// A world moves through two phases. Before LockTypes, entity types, indices
// and modification listeners are registered. After it, entities are spawned
// and removed only from inside ExecuteTick (or Restore); both operations are
// queued and committed at Flush. All access happens on one goroutine.
type World struct {
	log      *zap.Logger
	registry *Registry

	types     map[string]*EntityType
	typeOrder []*EntityType
	indices   []Index
	listeners map[ComponentID][]ModificationListener
	triggers  map[*EntityType][]Index

	locked    bool
	executing bool
	restoring bool
	flushing  bool

	tick     uint64
	nextID   EntityID
	entities map[EntityID]*Entity

	pendingAdd    []*Entity
	pendingRemove []EntityID
	removeQueued  map[EntityID]struct{}
}

func NewWorld(log *zap.Logger) *World {
	return &World{
		log:          log,
		registry:     NewRegistry(),
		types:        make(map[string]*EntityType),
		listeners:    make(map[ComponentID][]ModificationListener),
		nextID:       1,
		entities:     make(map[EntityID]*Entity, 1024),
		pendingAdd:   make([]*Entity, 0, 64),
		removeQueued: make(map[EntityID]struct{}),
	}
}

func (w *World) Registry() *Registry { return w.registry }

// Tick returns the number of the last tick started.
func (w *World) Tick() uint64 { return w.tick }

// NextEntityID returns the id the next spawn will receive.
func (w *World) NextEntityID() EntityID { return w.nextID }

func (w *World) Locked() bool    { return w.locked }
func (w *World) Executing() bool { return w.executing }

// --- Registration (pre-lock) ---

// RegisterEntityType adds a type descriptor. Names are compared after
// canonicalization.
func (w *World) RegisterEntityType(t *EntityType) error {
	if w.locked {
		violation("registerEntityType", "world types are locked")
	}
	if t.components.IsEmpty() {
		return fmt.Errorf("register %q: %w", t.name, ErrEmptyComponents)
	}
	if _, dup := w.types[t.name]; dup {
		return fmt.Errorf("register %q: %w", t.name, ErrDuplicateType)
	}
	w.types[t.name] = t
	w.typeOrder = append(w.typeOrder, t)
	return nil
}

func (w *World) RegisterIndex(idx Index) {
	if w.locked {
		violation("registerIndex", "world types are locked")
	}
	w.indices = append(w.indices, idx)
}

func (w *World) RegisterModificationListener(c ComponentID, l ModificationListener) {
	if w.locked {
		violation("registerModificationListener", "world types are locked")
	}
	w.listeners[c] = append(w.listeners[c], l)
}

// LockTypes ends registration and computes, for every type, the indices it
// triggers.
func (w *World) LockTypes() {
	if w.locked {
		violation("lockTypes", "world types are already locked")
	}
	w.locked = true
	w.triggers = make(map[*EntityType][]Index, len(w.typeOrder))
	for _, t := range w.typeOrder {
		var matched []Index
		for _, idx := range w.indices {
			if t.components.ContainsAll(idx.Requires()) {
				matched = append(matched, idx)
			}
		}
		w.triggers[t] = matched
		w.log.Debug("entity type locked",
			zap.String("type", t.name),
			zap.Int("indices", len(matched)))
	}
}

// TypeByName resolves a registered type.
func (w *World) TypeByName(name string) (*EntityType, error) {
	t, ok := w.types[CanonicalTypeName(name)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownEntityType)
	}
	return t, nil
}

// Types returns the registered types in registration order.
func (w *World) Types() []*EntityType {
	out := make([]*EntityType, len(w.typeOrder))
	copy(out, w.typeOrder)
	return out
}

// --- Tick execution ---

// ExecuteTick advances the tick counter, runs fn and commits every queued
// addition and removal, including ones queued by index callbacks during the
// commit itself.
func (w *World) ExecuteTick(fn func(tick uint64)) {
	if !w.locked {
		violation("executeTick", "world types are not locked")
	}
	if w.executing {
		violation("executeTick", "a tick is already executing")
	}
	w.executing = true
	defer func() { w.executing = false }()

	w.tick++
	fn(w.tick)
	w.Flush()
}

// Flush commits pending additions and removals until both queues are empty.
// Index callbacks may spawn or remove further entities; those are committed
// in the same call.
func (w *World) Flush() {
	if !w.executing {
		violation("flush", "no tick is executing")
	}
	if w.flushing {
		return // the outer Flush loop picks up anything queued now
	}
	w.flushing = true
	defer func() { w.flushing = false }()

	for len(w.pendingAdd) > 0 || len(w.pendingRemove) > 0 {
		adds := w.pendingAdd
		w.pendingAdd = make([]*Entity, 0, 16)
		for _, e := range adds {
			w.entities[e.ID] = e
			for _, idx := range w.triggers[e.Type] {
				idx.EntityAdded(e)
			}
		}

		removes := w.pendingRemove
		w.pendingRemove = nil
		for _, id := range removes {
			delete(w.removeQueued, id)
			e, ok := w.entities[id]
			if !ok {
				continue
			}
			for _, idx := range w.triggers[e.Type] {
				idx.EntityRemoved(e)
			}
			delete(w.entities, id)
			w.registry.RemoveAll(id)
		}
	}
}

// SpawnEntity allocates the next id, initializes the type's payloads and
// queues the entity for commit. The returned entity is not yet visible to
// Lookup or to indices; callers may adjust payloads before the commit.
func (w *World) SpawnEntity(t *EntityType) *Entity {
	if !w.locked {
		violation("spawnEntity", "world types are not locked")
	}
	if !w.executing {
		violation("spawnEntity", "no tick is executing")
	}
	if w.types[t.name] != t {
		violation("spawnEntity", fmt.Sprintf("type %q is not registered with this world", t.name))
	}
	e := &Entity{ID: w.nextID, Type: t}
	w.nextID++
	t.initialize(e)
	w.pendingAdd = append(w.pendingAdd, e)
	return e
}

// Spawn resolves typeName and spawns it.
func (w *World) Spawn(typeName string) (*Entity, error) {
	t, err := w.TypeByName(typeName)
	if err != nil {
		return nil, err
	}
	return w.SpawnEntity(t), nil
}

// RemoveEntity queues id for removal at the next commit. Repeated calls in
// the same tick are collapsed.
func (w *World) RemoveEntity(id EntityID) {
	if !w.executing {
		violation("removeEntity", "no tick is executing")
	}
	if _, queued := w.removeQueued[id]; queued {
		return
	}
	w.removeQueued[id] = struct{}{}
	w.pendingRemove = append(w.pendingRemove, id)
}

// NotifyEntityModified fans out to listeners registered for c. Entities that
// are not committed yet are skipped: their indices read the current state
// when the addition commits.
func (w *World) NotifyEntityModified(e *Entity, c ComponentID) {
	if !w.executing {
		violation("notifyEntityModified", "no tick is executing")
	}
	if _, committed := w.entities[e.ID]; !committed {
		return
	}
	for _, l := range w.listeners[c] {
		l.EntityModified(e, c)
	}
}

// --- Lookup ---

// Lookup returns a committed entity.
func (w *World) Lookup(id EntityID) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// Alive reports whether id is committed and not queued for removal.
func (w *World) Alive(id EntityID) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	_, dying := w.removeQueued[id]
	return !dying
}

func (w *World) Count() int { return len(w.entities) }

// Entities returns the committed entities in ascending id order.
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- Persistence support ---

// ResumeFromTick sets the tick counter and id allocator when loading a save.
func (w *World) ResumeFromTick(tick uint64, nextID EntityID) {
	if !w.locked {
		violation("resumeFromTick", "world types are not locked")
	}
	if w.executing {
		violation("resumeFromTick", "a tick is executing")
	}
	if nextID == 0 {
		nextID = 1
	}
	w.tick = tick
	w.nextID = nextID
}

// Restore runs fn inside an executing window that does not advance the tick
// and commits what fn spawned. SpawnEntityWithID is legal only here.
func (w *World) Restore(fn func()) {
	if !w.locked {
		violation("restore", "world types are not locked")
	}
	if w.executing {
		violation("restore", "a tick is already executing")
	}
	w.executing = true
	w.restoring = true
	defer func() {
		w.executing = false
		w.restoring = false
	}()
	fn()
	w.Flush()
}

// SpawnEntityWithID queues an entity under an explicit id taken from a save.
func (w *World) SpawnEntityWithID(t *EntityType, id EntityID) (*Entity, error) {
	if !w.restoring {
		violation("spawnEntityWithID", "not restoring a save")
	}
	if w.types[t.name] != t {
		violation("spawnEntityWithID", fmt.Sprintf("type %q is not registered with this world", t.name))
	}
	if id.IsZero() {
		return nil, fmt.Errorf("id 0: %w", ErrDuplicateEntityID)
	}
	if _, ok := w.entities[id]; ok {
		return nil, fmt.Errorf("id %d: %w", id, ErrDuplicateEntityID)
	}
	for _, p := range w.pendingAdd {
		if p.ID == id {
			return nil, fmt.Errorf("id %d: %w", id, ErrDuplicateEntityID)
		}
	}
	e := &Entity{ID: id, Type: t}
	if id >= w.nextID {
		w.nextID = id + 1
	}
	t.initialize(e)
	w.pendingAdd = append(w.pendingAdd, e)
	return e, nil
}
