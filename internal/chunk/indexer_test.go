package chunk

import (
	"math/rand"
	"testing"

	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const compPos ecs.ComponentID = 0

type pos struct{ X, Y int }

type fixture struct {
	world     *ecs.World
	positions *ecs.PtrComponentStore[pos]
	ix        *Indexer
	unit      *ecs.EntityType
}

func newFixture(t *testing.T, size int) *fixture {
	t.Helper()
	w := ecs.NewWorld(zap.NewNop())
	positions := ecs.NewStore[pos](w.Registry())
	ix := NewIndexer(size, ecs.NewComponentSet(compPos), func(id ecs.EntityID) (int, int) {
		p := positions.MustGet(id)
		return p.X, p.Y
	})
	unit := ecs.NewTypeComposer("unit").With(ecs.Trait{
		Component: compPos,
		Init:      func(e *ecs.Entity) { positions.Set(e.ID, &pos{}) },
	}).Build()
	require.NoError(t, w.RegisterEntityType(unit))
	w.RegisterIndex(ix)
	w.RegisterModificationListener(compPos, ix)
	w.LockTypes()
	return &fixture{world: w, positions: positions, ix: ix, unit: unit}
}

func (f *fixture) spawnAt(x, y int) ecs.EntityID {
	e := f.world.SpawnEntity(f.unit)
	*f.positions.MustGet(e.ID) = pos{x, y}
	return e.ID
}

func (f *fixture) move(id ecs.EntityID, x, y int) {
	*f.positions.MustGet(id) = pos{x, y}
	e, _ := f.world.Lookup(id)
	f.world.NotifyEntityModified(e, compPos)
}

func (f *fixture) assertConsistent(t *testing.T) {
	t.Helper()
	for _, e := range f.world.Entities() {
		p := f.positions.MustGet(e.ID)
		want := f.ix.KeyAt(p.X, p.Y)
		got, ok := f.ix.KeyOf(e.ID)
		require.True(t, ok)
		require.Equal(t, want, got)
		for k, c := range f.ix.chunks {
			has := c.members.Has(e.ID)
			if k == want {
				require.True(t, has, "entity %d missing from its chunk", e.ID)
			} else {
				require.False(t, has, "entity %d found in foreign chunk", e.ID)
			}
		}
	}
}

func TestKeyPackingIsCollisionFree(t *testing.T) {
	seen := map[Key][2]int{}
	for cx := -40; cx <= 40; cx++ {
		for cy := -40; cy <= 40; cy++ {
			k := KeyFor(cx, cy)
			prev, dup := seen[k]
			require.False(t, dup, "(%d,%d) collides with %v", cx, cy, prev)
			seen[k] = [2]int{cx, cy}
			gx, gy := k.Coords()
			assert.Equal(t, cx, gx)
			assert.Equal(t, cy, gy)
		}
	}
}

func TestNegativeCoordinatesFloor(t *testing.T) {
	ix := NewIndexer(8, 0, nil)
	assert.Equal(t, KeyFor(-1, -1), ix.KeyAt(-1, -8))
	assert.Equal(t, KeyFor(-2, 0), ix.KeyAt(-9, 7))
	assert.Equal(t, KeyFor(1, 0), ix.KeyAt(8, 0))
}

func TestMembershipFollowsPosition(t *testing.T) {
	f := newFixture(t, 4)
	var a, b ecs.EntityID
	f.world.ExecuteTick(func(uint64) {
		a = f.spawnAt(1, 1)
		b = f.spawnAt(5, 1)
	})
	assert.Equal(t, []ecs.EntityID{a}, f.ix.Chunk(f.ix.KeyAt(0, 0)).Entities())
	assert.Equal(t, []ecs.EntityID{b}, f.ix.Chunk(f.ix.KeyAt(4, 0)).Entities())

	f.world.ExecuteTick(func(uint64) {
		f.move(a, 2, 3) // same chunk
		f.move(b, 0, 0)
	})
	assert.Nil(t, f.ix.Chunk(f.ix.KeyAt(4, 0)), "empty chunks are dropped")
	assert.Equal(t, []ecs.EntityID{a, b}, f.ix.Chunk(f.ix.KeyAt(0, 0)).Entities())

	f.world.ExecuteTick(func(uint64) { f.world.RemoveEntity(a) })
	_, ok := f.ix.KeyOf(a)
	assert.False(t, ok)
	assert.Equal(t, []ecs.EntityID{b}, f.ix.Chunk(f.ix.KeyAt(0, 0)).Entities())
}

func TestRandomWalkKeepsInvariant(t *testing.T) {
	f := newFixture(t, 8)
	rng := rand.New(rand.NewSource(7))
	var ids []ecs.EntityID
	f.world.ExecuteTick(func(uint64) {
		for i := 0; i < 40; i++ {
			ids = append(ids, f.spawnAt(rng.Intn(64), rng.Intn(64)))
		}
	})
	for tick := 0; tick < 50; tick++ {
		f.world.ExecuteTick(func(uint64) {
			for _, id := range ids {
				if rng.Intn(3) == 0 {
					f.move(id, rng.Intn(64), rng.Intn(64))
				}
			}
			if tick%10 == 0 {
				ids = append(ids, f.spawnAt(rng.Intn(64), rng.Intn(64)))
			}
		})
		f.assertConsistent(t)
	}
}

func TestEntitiesWithinCoarseUsesOneChunkMargin(t *testing.T) {
	f := newFixture(t, 4)
	var near, margin, far ecs.EntityID
	f.world.ExecuteTick(func(uint64) {
		near = f.spawnAt(9, 9)    // chunk (2,2)
		margin = f.spawnAt(13, 9) // chunk (3,2): adjacent to the query
		far = f.spawnAt(30, 30)   // chunk (7,7)
	})

	got := f.ix.EntitiesWithinCoarse(8, 8, 4, 4)
	assert.Equal(t, []ecs.EntityID{near, margin}, got)
	assert.NotContains(t, got, far)
	assert.Empty(t, f.ix.EntitiesWithinCoarse(8, 8, 0, 4))
}
