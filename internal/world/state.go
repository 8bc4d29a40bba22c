package world

import (
	"errors"
	"fmt"

	"github.com/JakubekWeg/wc2-sub000/internal/ai"
	"github.com/JakubekWeg/wc2-sub000/internal/chunk"
	"github.com/JakubekWeg/wc2-sub000/internal/component"
	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/core/event"
	"github.com/JakubekWeg/wc2-sub000/internal/data"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
	"github.com/JakubekWeg/wc2-sub000/internal/tile"
	"go.uber.org/zap"
)

var (
	ErrNotAUnit = errors.New("world: entity type is not a unit")
	ErrNoWeapon = errors.New("world: unit has no weapon")
	ErrNotEmpty = errors.New("world: state already holds entities")
)

// DefaultChunkSize is the chunk edge used when Options leaves it zero.
const DefaultChunkSize = 8

// Options configures a State. States and Root are required: the registry
// decodes saved AI stacks and Root builds the bottom frame of a fresh one.
type Options struct {
	ChunkSize  int
	PathBudget int
	States     *ai.Registry[*State]
	Root       func() ai.State[*State]
	Hooks      Hooks
	Bus        *event.Bus
}

// Brain is the AI component payload.
type Brain struct {
	Machine *ai.Controller[*State]
	sight   *sightListener
}

// Sight is the tile listener that routes occupancy changes to the active
// frame's SightObserver.
func (b *Brain) Sight() tile.Listener { return b.sight }

// State owns one running simulation: the ECS world, component stores, tile
// grid, chunk index and AI registry.
// Accessed only from the tick loop goroutine, no locks needed.
type State struct {
	log   *zap.Logger
	world *ecs.World
	bus   *event.Bus
	hooks Hooks

	Positions   *ecs.PtrComponentStore[component.Position]
	Drawables   *ecs.PtrComponentStore[component.Drawable]
	Forces      *ecs.PtrComponentStore[component.Force]
	Healths     *ecs.PtrComponentStore[component.Health]
	Movers      *ecs.PtrComponentStore[component.Mover]
	Sights      *ecs.PtrComponentStore[component.Sight]
	Weapons     *ecs.PtrComponentStore[component.Weapon]
	Brains      *ecs.PtrComponentStore[Brain]
	Projectiles *ecs.PtrComponentStore[component.Projectile]

	grid   *tile.Grid
	chunks *chunk.Indexer
	states *ai.Registry[*State]
	root   func() ai.State[*State]

	units       ecs.IDSet // committed entities with a brain
	projectiles ecs.IDSet // committed projectiles

	claims     map[pathfind.Point]ecs.EntityID // tiles of units spawned this tick
	debugPaths map[ecs.EntityID][]pathfind.Point
	pathBudget int
}

// New builds a State for map m with one entity type per prototype, then
// locks the world. The map's units are not spawned; call Populate for a new
// game or Load for a saved one.
func New(log *zap.Logger, opts Options, protos *data.Prototypes, m *data.Map) (*State, error) {
	if opts.States == nil || opts.Root == nil {
		return nil, fmt.Errorf("world: state registry and root factory are required")
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.PathBudget <= 0 {
		opts.PathBudget = pathfind.DefaultBudget
	}
	if opts.Bus == nil {
		opts.Bus = event.NewBus()
	}

	w := ecs.NewWorld(log)
	reg := w.Registry()
	s := &State{
		log:         log,
		world:       w,
		bus:         opts.Bus,
		hooks:       opts.Hooks,
		Positions:   ecs.NewStore[component.Position](reg),
		Drawables:   ecs.NewStore[component.Drawable](reg),
		Forces:      ecs.NewStore[component.Force](reg),
		Healths:     ecs.NewStore[component.Health](reg),
		Movers:      ecs.NewStore[component.Mover](reg),
		Sights:      ecs.NewStore[component.Sight](reg),
		Weapons:     ecs.NewStore[component.Weapon](reg),
		Brains:      ecs.NewStore[Brain](reg),
		Projectiles: ecs.NewStore[component.Projectile](reg),
		grid:        tile.NewGrid(m.Width, m.Height),
		states:      opts.States,
		root:        opts.Root,
		claims:      make(map[pathfind.Point]ecs.EntityID),
		debugPaths:  make(map[ecs.EntityID][]pathfind.Point),
		pathBudget:  opts.PathBudget,
	}
	for _, b := range m.Blocked() {
		if err := s.grid.SetBlocked(b[0], b[1], true); err != nil {
			return nil, fmt.Errorf("map %q terrain: %w", m.Name, err)
		}
	}

	if err := s.registerTypes(protos); err != nil {
		return nil, err
	}

	s.chunks = chunk.NewIndexer(opts.ChunkSize, ecs.NewComponentSet(component.IDPosition), s.locate)
	w.RegisterIndex(s.chunks)
	w.RegisterModificationListener(component.IDPosition, s.chunks)
	w.RegisterIndex(&ecs.IndexFuncs{
		Components: ecs.NewComponentSet(component.IDPosition, component.IDOccupant),
		Added:      s.occupantAdded,
		Removed:    s.occupantRemoved,
	})
	w.RegisterIndex(&ecs.IndexFuncs{
		Components: ecs.NewComponentSet(component.IDBrain),
		Added:      func(e *ecs.Entity) { s.units.Add(e.ID) },
		Removed:    s.brainRemoved,
	})
	w.RegisterIndex(&ecs.IndexFuncs{
		Components: ecs.NewComponentSet(component.IDProjectile),
		Added:      func(e *ecs.Entity) { s.projectiles.Add(e.ID) },
		Removed:    func(e *ecs.Entity) { s.projectiles.Remove(e.ID) },
	})
	w.LockTypes()

	log.Info("world ready",
		zap.String("map", m.Name),
		zap.Int("width", m.Width),
		zap.Int("height", m.Height),
		zap.Int("types", len(w.Types())),
		zap.Int("chunk_size", opts.ChunkSize))
	return s, nil
}

func (s *State) locate(id ecs.EntityID) (int, int) {
	p := s.Positions.MustGet(id)
	return p.X, p.Y
}

func (s *State) occupantAdded(e *ecs.Entity) {
	p := s.Positions.MustGet(e.ID)
	delete(s.claims, pathfind.Point{X: p.X, Y: p.Y})
	if err := s.grid.UpdateRegistry(p.X, p.Y, e.ID); err != nil {
		s.log.Warn("entity committed onto a taken tile",
			zap.Uint32("entity", uint32(e.ID)),
			zap.Int("x", p.X),
			zap.Int("y", p.Y),
			zap.Error(err))
	}
}

func (s *State) occupantRemoved(e *ecs.Entity) {
	p := s.Positions.MustGet(e.ID)
	s.grid.Release(p.X, p.Y, e.ID)
}

// brainRemoved pops every frame so states release their reservations and
// subscriptions before the entity's payloads are dropped.
func (s *State) brainRemoved(e *ecs.Entity) {
	s.units.Remove(e.ID)
	b := s.Brains.MustGet(e.ID)
	b.Machine.Clear(s.Context(e.ID))
	s.grid.RemoveListenerFromAllTiles(b.sight)
	delete(s.debugPaths, e.ID)
}

// --- accessors ---

func (s *State) Log() *zap.Logger       { return s.log }
func (s *State) World() *ecs.World      { return s.world }
func (s *State) Bus() *event.Bus        { return s.bus }
func (s *State) Grid() *tile.Grid       { return s.grid }
func (s *State) Chunks() *chunk.Indexer { return s.chunks }
func (s *State) PathBudget() int        { return s.pathBudget }
func (s *State) Tick() uint64           { return s.world.Tick() }

// Units returns the committed AI entities in ascending id order.
func (s *State) Units() []ecs.EntityID { return s.units.Slice() }

// ProjectileIDs returns the committed projectiles in ascending id order.
func (s *State) ProjectileIDs() []ecs.EntityID { return s.projectiles.Slice() }

// EachUnit visits the AI entities committed when it starts, in ascending id
// order. fn may spawn and remove entities.
func (s *State) EachUnit(fn func(ecs.EntityID)) { s.units.Each(fn) }

// EachProjectile is EachUnit for projectiles.
func (s *State) EachProjectile(fn func(ecs.EntityID)) { s.projectiles.Each(fn) }

// Alive reports whether id is committed and not queued for removal.
func (s *State) Alive(id ecs.EntityID) bool { return s.world.Alive(id) }

// Position returns the entity's tile. ok is false for entities without one.
func (s *State) Position(id ecs.EntityID) (component.Position, bool) {
	p, ok := s.Positions.Get(id)
	if !ok {
		return component.Position{}, false
	}
	return *p, true
}

// SetPosition moves an entity and tells the position listeners (the chunk
// index). Tile occupancy is the caller's job.
func (s *State) SetPosition(id ecs.EntityID, x, y int) {
	p := s.Positions.MustGet(id)
	if p == nil {
		return
	}
	p.X, p.Y = x, y
	if e, ok := s.world.Lookup(id); ok {
		s.world.NotifyEntityModified(e, component.IDPosition)
	}
}

// Context builds the callback context for entity id at the current tick.
func (s *State) Context(id ecs.EntityID) *ai.Context[*State] {
	return &ai.Context[*State]{Self: id, Tick: s.world.Tick(), Env: s}
}

// Flush commits spawns and removals queued so far in this tick.
func (s *State) Flush() { s.world.Flush() }

// ExecuteBrain runs one AI update for id. Dead or uncommitted entities are
// skipped.
func (s *State) ExecuteBrain(id ecs.EntityID) {
	if !s.world.Alive(id) {
		return
	}
	b, ok := s.Brains.Get(id)
	if !ok {
		return
	}
	b.Machine.Execute(s.Context(id))
}

// IssueCommand routes a player order to a unit's stack. It reports whether
// some frame accepted it.
func (s *State) IssueCommand(id ecs.EntityID, cmd ai.Command) bool {
	if !s.world.Alive(id) {
		return false
	}
	b, ok := s.Brains.Get(id)
	if !ok {
		return false
	}
	accepted := b.Machine.Dispatch(cmd, s.Context(id))
	s.log.Debug("command issued",
		zap.Uint32("entity", uint32(id)),
		zap.String("command", cmd.CommandName()),
		zap.Bool("accepted", accepted))
	return accepted
}

// sightListener forwards occupancy changes on watched tiles to the owner's
// active frame. Reaffirmations and the owner's own moves are ignored.
type sightListener struct {
	s    *State
	self ecs.EntityID
}

func (l *sightListener) TileChanged(_ *tile.Tile, prev, next ecs.EntityID) {
	if prev == next || !l.s.world.Alive(l.self) {
		return
	}
	b, ok := l.s.Brains.Get(l.self)
	if !ok {
		return
	}
	if !prev.IsZero() && prev != l.self {
		b.Machine.LeftSight(prev, l.s.Context(l.self))
	}
	if !next.IsZero() && next != l.self {
		b.Machine.EnteredSight(next, l.s.Context(l.self))
	}
}
