package system

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/ai"
	"github.com/JakubekWeg/wc2-sub000/internal/behavior"
	"github.com/JakubekWeg/wc2-sub000/internal/config"
	"github.com/JakubekWeg/wc2-sub000/internal/core/event"
	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"github.com/JakubekWeg/wc2-sub000/internal/data"
	"github.com/JakubekWeg/wc2-sub000/internal/net"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const protos = `
projectiles:
  - {name: arrow, sprite: arrow, speed: 2}
units:
  - {name: peasant, sprite: peasant, hp: 30, speed: 10, sight: 2}
  - {name: archer, sprite: archer, hp: 40, speed: 10, sight: 5, weapon: {range: 4, damage: 5, reload: 3, projectile: arrow}}
`

const field = `
name: field
width: 20
height: 20
units:
  - {type: peasant, x: 1, y: 1, force: 1}
  - {type: peasant, x: 10, y: 10, force: 2}
`

type rig struct {
	ws     *world.State
	runner *coresys.Runner
	queue  *event.Queue[*world.State]
	loop   *world.Loop
}

func newRig(t *testing.T) *rig {
	t.Helper()
	p, err := data.ParsePrototypes([]byte(protos))
	require.NoError(t, err)
	m, err := data.ParseMap([]byte(field))
	require.NoError(t, err)
	bus := event.NewBus()
	opts := behavior.Options()
	opts.Bus = bus
	ws, err := world.New(zap.NewNop(), opts, p, m)
	require.NoError(t, err)
	require.NoError(t, ws.Populate(m))

	r := &rig{ws: ws, runner: coresys.NewRunner(), queue: event.NewQueue[*world.State]()}
	r.runner.Register(NewInputSystem(r.queue, ws, zap.NewNop()))
	r.runner.Register(NewEventSystem(bus))
	r.runner.Register(NewAISystem(ws))
	r.runner.Register(NewProjectileSystem(ws))
	r.loop = world.NewLoop(ws, r.runner, r.queue, zap.NewNop())
	return r
}

func (r *rig) step(n int) {
	for i := 0; i < n; i++ {
		r.loop.Step(100 * time.Millisecond)
	}
}

type capture struct {
	frames []*net.Frame
	err    error
}

func (c *capture) Broadcast(f *net.Frame) error {
	c.frames = append(c.frames, f)
	return c.err
}

func TestInputRunsQueuedActionsBeforeAI(t *testing.T) {
	r := newRig(t)
	var seen uint64
	r.loop.DispatchNextTick(func(ws *world.State) {
		seen = ws.Tick()
		ws.IssueCommand(1, ai.MoveCommand{X: 3, Y: 1})
	})
	assert.Equal(t, 1, r.queue.Len())
	r.step(1)
	assert.Equal(t, uint64(1), seen)
	assert.Equal(t, 0, r.queue.Len())
	assert.Equal(t, behavior.TypeGoingTile, r.ws.Brains.MustGet(1).Machine.TypeIDs()[0],
		"the order was planned in the same tick")
}

func TestOutputFrameCarriesDrawablesAndDebugOverlays(t *testing.T) {
	r := newRig(t)
	pub := &capture{}
	out := NewOutputSystem(r.ws, pub, config.FeedConfig{DebugPaths: true, DebugChunks: true, DebugSight: true}, zap.NewNop())
	r.runner.Register(out)

	r.loop.DispatchNextTick(func(ws *world.State) { ws.IssueCommand(1, ai.MoveCommand{X: 4, Y: 1}) })
	r.step(2)
	require.Len(t, pub.frames, 2)

	f := pub.frames[1]
	assert.Equal(t, uint64(2), f.Tick)
	assert.Len(t, f.Digest, 16)
	require.Len(t, f.Drawables, 2)
	d := f.Drawables[0]
	assert.Equal(t, uint32(1), d.ID)
	assert.Equal(t, "peasant", d.Type)
	assert.Equal(t, [2]int{1, 1}, [2]int{d.X, d.Y})
	assert.Equal(t, 1, d.Force)
	assert.Positive(t, d.OffsetX, "mid-step offset toward the east")

	require.Len(t, f.Paths, 1)
	assert.Equal(t, [][2]int{{2, 1}, {3, 1}, {4, 1}}, f.Paths[0].Points)
	assert.Len(t, f.Chunks, 2)
	require.Len(t, f.Sight, 2)
	assert.Equal(t, net.Area{Entity: 1, X: -1, Y: -1, W: 5, H: 5}, f.Sight[0])
}

func TestOutputWithoutDebugOmitsOverlays(t *testing.T) {
	r := newRig(t)
	pub := &capture{err: errors.New("socket gone")}
	r.runner.Register(NewOutputSystem(r.ws, pub, config.FeedConfig{}, zap.NewNop()))
	r.step(1)
	require.Len(t, pub.frames, 1)
	assert.Nil(t, pub.frames[0].Paths)
	assert.Nil(t, pub.frames[0].Chunks)
	assert.Nil(t, pub.frames[0].Sight)
}

type memStore struct {
	saved  []*world.Snapshot
	slots  []uuid.UUID
	pruned int
}

func (m *memStore) SaveSnapshot(_ context.Context, slot uuid.UUID, snap *world.Snapshot) error {
	m.saved = append(m.saved, snap)
	m.slots = append(m.slots, slot)
	return nil
}

func (m *memStore) Prune(_ context.Context, _ uuid.UUID, keep int) (int64, error) {
	m.pruned = keep
	return 0, nil
}

func TestAutosaveEveryInterval(t *testing.T) {
	r := newRig(t)
	store := &memStore{}
	slot := uuid.New()
	auto := NewAutosaveSystem(r.ws, store, slot, zap.NewNop(), 3)
	r.runner.Register(auto)

	r.step(7)
	require.Len(t, store.saved, 2)
	assert.Equal(t, uint64(3), store.saved[0].Tick)
	assert.Equal(t, uint64(6), store.saved[1].Tick)
	assert.Equal(t, slot, store.slots[1])
	assert.Equal(t, keepSnapshots, store.pruned)
	require.NoError(t, store.saved[1].Verify())

	require.NoError(t, auto.SaveNow())
	assert.Equal(t, uint64(7), store.saved[2].Tick)
}

func TestDigestSystemLogsOnInterval(t *testing.T) {
	r := newRig(t)
	dg := NewDigestSystem(r.ws, zap.NewNop(), 4)
	r.runner.Register(dg)
	r.step(3)
	assert.Zero(t, dg.Last())
	r.step(1)
	assert.Equal(t, r.ws.Digest(), dg.Last())
}

func TestCombatSystemCountsLosses(t *testing.T) {
	r := newRig(t)
	bus := r.ws.Bus()
	combat := NewCombatSystem(r.ws, bus, zap.NewNop())

	r.loop.DispatchNextTick(func(ws *world.State) {
		event.Emit(ws.Bus(), event.ProjectileHit{Source: 1, Target: 2, Damage: 100})
	})
	r.step(2)
	assert.False(t, r.ws.Alive(2))
	r.step(1)
	assert.Equal(t, 1, combat.Losses(2))
}
