package chunk

import (
	"sort"

	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
)

// Key packs chunk coordinates: cx in the high 32 bits, cy in the low 32
// bits. Every (cx, cy) pair maps to a distinct key.
type Key int64

func KeyFor(cx, cy int) Key {
	return Key(int64(int32(cx))<<32 | int64(uint32(int32(cy))))
}

func (k Key) Coords() (cx, cy int) {
	return int(int32(k >> 32)), int(int32(uint32(k)))
}

// Chunk is one square bucket of entities.
type Chunk struct {
	Key     Key
	members ecs.IDSet
}

// Entities returns the members in ascending id order.
func (c *Chunk) Entities() []ecs.EntityID { return c.members.Slice() }
func (c *Chunk) Len() int                 { return c.members.Len() }

// Locator reports an entity's tile position.
type Locator func(id ecs.EntityID) (x, y int)

// Indexer buckets positioned entities into size×size chunks. It is an
// ecs.Index for adds/removes and an ecs.ModificationListener for position
// changes, so membership is updated in the same call that moved the entity.
// Accessed only from the simulation goroutine.
type Indexer struct {
	size     int
	requires ecs.ComponentSet
	locate   Locator
	chunks   map[Key]*Chunk
	keys     map[ecs.EntityID]Key // each entity's recorded chunk
}

func NewIndexer(size int, requires ecs.ComponentSet, locate Locator) *Indexer {
	if size <= 0 {
		size = 8
	}
	return &Indexer{
		size:     size,
		requires: requires,
		locate:   locate,
		chunks:   make(map[Key]*Chunk),
		keys:     make(map[ecs.EntityID]Key),
	}
}

func (ix *Indexer) Size() int { return ix.size }

func (ix *Indexer) toChunkCoord(v int) int {
	if v < 0 {
		return (v - ix.size + 1) / ix.size
	}
	return v / ix.size
}

// KeyAt returns the key of the chunk containing tile (x, y).
func (ix *Indexer) KeyAt(x, y int) Key {
	return KeyFor(ix.toChunkCoord(x), ix.toChunkCoord(y))
}

// KeyOf returns the recorded chunk of an indexed entity.
func (ix *Indexer) KeyOf(id ecs.EntityID) (Key, bool) {
	k, ok := ix.keys[id]
	return k, ok
}

// Chunk returns the bucket for k, or nil if it holds nothing.
func (ix *Indexer) Chunk(k Key) *Chunk { return ix.chunks[k] }

// ChunkCount returns the number of non-empty chunks.
func (ix *Indexer) ChunkCount() int { return len(ix.chunks) }

// Chunks returns the non-empty chunks ordered by key.
func (ix *Indexer) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(ix.chunks))
	for _, c := range ix.chunks {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func (ix *Indexer) Requires() ecs.ComponentSet { return ix.requires }

func (ix *Indexer) EntityAdded(e *ecs.Entity) {
	x, y := ix.locate(e.ID)
	k := ix.KeyAt(x, y)
	ix.register(k, e.ID)
	ix.keys[e.ID] = k
}

func (ix *Indexer) EntityRemoved(e *ecs.Entity) {
	k, ok := ix.keys[e.ID]
	if !ok {
		return
	}
	ix.unregister(k, e.ID)
	delete(ix.keys, e.ID)
}

// EntityModified re-buckets an entity after its position changed.
func (ix *Indexer) EntityModified(e *ecs.Entity, _ ecs.ComponentID) {
	old, ok := ix.keys[e.ID]
	if !ok {
		return
	}
	x, y := ix.locate(e.ID)
	k := ix.KeyAt(x, y)
	if k == old {
		return
	}
	ix.unregister(old, e.ID)
	ix.register(k, e.ID)
	ix.keys[e.ID] = k
}

func (ix *Indexer) register(k Key, id ecs.EntityID) {
	c := ix.chunks[k]
	if c == nil {
		c = &Chunk{Key: k}
		ix.chunks[k] = c
	}
	c.members.Add(id)
}

func (ix *Indexer) unregister(k Key, id ecs.EntityID) {
	c := ix.chunks[k]
	if c == nil {
		return
	}
	c.members.Remove(id)
	if c.members.Len() == 0 {
		delete(ix.chunks, k)
	}
}

// EntitiesWithinCoarse returns, in ascending id order, every entity in a
// chunk overlapping the rectangle grown by one chunk on each side. The
// result is a superset; callers filter by exact position.
func (ix *Indexer) EntitiesWithinCoarse(x, y, w, h int) []ecs.EntityID {
	if w <= 0 || h <= 0 {
		return nil
	}
	cx0 := ix.toChunkCoord(x) - 1
	cy0 := ix.toChunkCoord(y) - 1
	cx1 := ix.toChunkCoord(x+w-1) + 1
	cy1 := ix.toChunkCoord(y+h-1) + 1

	var out []ecs.EntityID
	for cy := cy0; cy <= cy1; cy++ {
		for cx := cx0; cx <= cx1; cx++ {
			if c := ix.chunks[KeyFor(cx, cy)]; c != nil {
				out = append(out, c.members.Slice()...)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
