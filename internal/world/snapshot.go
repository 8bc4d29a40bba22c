package world

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JakubekWeg/wc2-sub000/internal/component"
	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/pathfind"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

var ErrMalformedSave = errors.New("world: malformed save")

// Snapshot is a complete save: the tick counter, the id allocator and one
// JSON object per entity in ascending id order.
type Snapshot struct {
	Tick     uint64            `json:"tick"`
	NextID   ecs.EntityID      `json:"nextId"`
	Entities []json.RawMessage `json:"entities"`
	Checksum string            `json:"checksum"` // hex BLAKE2b-256
}

// Save serializes every committed entity. It must run between ticks.
func (s *State) Save() (*Snapshot, error) {
	if s.world.Executing() {
		return nil, fmt.Errorf("save: a tick is executing")
	}
	snap := &Snapshot{
		Tick:   s.world.Tick(),
		NextID: s.world.NextEntityID(),
	}
	for _, e := range s.world.Entities() {
		raw, err := e.Type.Serialize(e)
		if err != nil {
			return nil, err
		}
		snap.Entities = append(snap.Entities, raw)
	}
	snap.Seal()
	return snap, nil
}

// Seal recomputes the checksum after the entities were edited, e.g. by a
// map editor.
func (snap *Snapshot) Seal() {
	snap.Checksum = snap.sum()
}

// Verify checks the snapshot against its checksum.
func (snap *Snapshot) Verify() error {
	if snap.Checksum != snap.sum() {
		return fmt.Errorf("checksum mismatch: %w", ErrMalformedSave)
	}
	return nil
}

func (snap *Snapshot) sum() string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], snap.Tick)
	h.Write(buf[:])
	binary.BigEndian.PutUint32(buf[:4], uint32(snap.NextID))
	h.Write(buf[:4])
	for _, raw := range snap.Entities {
		binary.BigEndian.PutUint32(buf[:4], uint32(len(raw)))
		h.Write(buf[:4])
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Load restores a snapshot into a State that holds no entities yet. Entities
// are spawned under their saved ids and committed together; post-setup hooks
// run afterwards so they can resolve references to any entity. On error the
// State is partially loaded and must be discarded.
func (s *State) Load(snap *Snapshot) error {
	if err := snap.Verify(); err != nil {
		return err
	}
	if s.world.Count() != 0 {
		return ErrNotEmpty
	}

	type loaded struct {
		entity  *ecs.Entity
		payload ecs.Payload
	}
	batch := make([]loaded, 0, len(snap.Entities))

	s.world.ResumeFromTick(snap.Tick, snap.NextID)
	taken := make(map[pathfind.Point]ecs.EntityID, len(snap.Entities))
	var err error
	s.world.Restore(func() {
		for i, raw := range snap.Entities {
			var e *ecs.Entity
			var in ecs.Payload
			if e, in, err = s.restoreEntity(raw); err != nil {
				err = fmt.Errorf("entity #%d: %w", i, err)
				return
			}
			if err = s.claimLoaded(e, taken); err != nil {
				err = fmt.Errorf("entity #%d: %w", i, err)
				return
			}
			batch = append(batch, loaded{e, in})
		}
	})
	if err != nil {
		return err
	}

	for _, l := range batch {
		if err := l.entity.Type.PostSetup(l.entity, l.payload); err != nil {
			return err
		}
	}
	s.log.Info("snapshot loaded",
		zap.Uint64("tick", snap.Tick),
		zap.Int("entities", len(batch)))
	return nil
}

func (s *State) restoreEntity(raw json.RawMessage) (*ecs.Entity, ecs.Payload, error) {
	var in ecs.Payload
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, ErrMalformedSave)
	}
	var head struct {
		ID   ecs.EntityID `json:"id"`
		Type string       `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, nil, fmt.Errorf("%v: %w", err, ErrMalformedSave)
	}
	t, err := s.world.TypeByName(head.Type)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedSave, err)
	}
	e, err := s.world.SpawnEntityWithID(t, head.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedSave, err)
	}
	if err := t.Deserialize(e, in); err != nil {
		return nil, nil, err
	}
	return e, in, nil
}

// claimLoaded checks that a restored occupant stands on its own open tile.
// The grid is written when the batch commits, so overlaps inside the batch
// are tracked in taken.
func (s *State) claimLoaded(e *ecs.Entity, taken map[pathfind.Point]ecs.EntityID) error {
	if !e.Has(component.IDOccupant) {
		return nil
	}
	p := s.Positions.MustGet(e.ID)
	at := pathfind.Point{X: p.X, Y: p.Y}
	if other, dup := taken[at]; dup {
		return fmt.Errorf("tile (%d,%d) already holds entity %d: %w", p.X, p.Y, other, ErrMalformedSave)
	}
	if !s.grid.IsWalkable(p.X, p.Y) {
		return fmt.Errorf("tile (%d,%d) is blocked or off the map: %w", p.X, p.Y, ErrMalformedSave)
	}
	taken[at] = e.ID
	return nil
}
