package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/core/ecs"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNoSnapshot = errors.New("persist: no snapshot in slot")

// SlotInfo describes one save slot.
type SlotInfo struct {
	ID        uuid.UUID
	Name      string
	MapName   string
	CreatedAt time.Time
	LastTick  uint64 // 0 when the slot holds no snapshot
}

// SaveRepo stores world snapshots in save slots. Each autosave appends a
// row; loading reads the newest.
type SaveRepo struct {
	db *DB
}

func NewSaveRepo(db *DB) *SaveRepo {
	return &SaveRepo{db: db}
}

// CreateSlot registers a new slot and returns its id.
func (r *SaveRepo) CreateSlot(ctx context.Context, name, mapName string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO save_slots (id, name, map_name) VALUES ($1, $2, $3)`,
		id, name, mapName,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create slot: %w", err)
	}
	return id, nil
}

// EnsureSlot creates slot id if it does not exist yet.
func (r *SaveRepo) EnsureSlot(ctx context.Context, id uuid.UUID, name, mapName string) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO save_slots (id, name, map_name) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		id, name, mapName,
	)
	if err != nil {
		return fmt.Errorf("ensure slot %s: %w", id, err)
	}
	return nil
}

// SaveSnapshot appends snap to slot. Saving the same tick twice replaces the
// earlier row.
func (r *SaveRepo) SaveSnapshot(ctx context.Context, slot uuid.UUID, snap *world.Snapshot) error {
	entities, err := json.Marshal(snap.Entities)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx,
		`INSERT INTO snapshots (slot_id, tick, next_id, checksum, entities)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (slot_id, tick) DO UPDATE SET
		   next_id = EXCLUDED.next_id,
		   checksum = EXCLUDED.checksum,
		   entities = EXCLUDED.entities,
		   created_at = now()`,
		slot, int64(snap.Tick), int64(snap.NextID), snap.Checksum, entities,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s@%d: %w", slot, snap.Tick, err)
	}
	return nil
}

// LatestSnapshot returns the newest snapshot of slot, or ErrNoSnapshot.
func (r *SaveRepo) LatestSnapshot(ctx context.Context, slot uuid.UUID) (*world.Snapshot, error) {
	var (
		tick, nextID int64
		checksum     string
		entities     []byte
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT tick, next_id, checksum, entities FROM snapshots
		 WHERE slot_id = $1 ORDER BY tick DESC LIMIT 1`,
		slot,
	).Scan(&tick, &nextID, &checksum, &entities)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("slot %s: %w", slot, ErrNoSnapshot)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", slot, err)
	}

	snap := &world.Snapshot{
		Tick:     uint64(tick),
		NextID:   ecs.EntityID(nextID),
		Checksum: checksum,
	}
	if err := json.Unmarshal(entities, &snap.Entities); err != nil {
		return nil, fmt.Errorf("decode snapshot %s@%d: %w", slot, tick, err)
	}
	return snap, nil
}

// Prune keeps the newest keep snapshots of slot and deletes the rest.
func (r *SaveRepo) Prune(ctx context.Context, slot uuid.UUID, keep int) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM snapshots WHERE slot_id = $1 AND id NOT IN (
		   SELECT id FROM snapshots WHERE slot_id = $1 ORDER BY tick DESC LIMIT $2)`,
		slot, keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune %s: %w", slot, err)
	}
	return tag.RowsAffected(), nil
}

// ListSlots returns every slot, newest first.
func (r *SaveRepo) ListSlots(ctx context.Context) ([]SlotInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT s.id, s.name, s.map_name, s.created_at, COALESCE(MAX(n.tick), 0)
		 FROM save_slots s LEFT JOIN snapshots n ON n.slot_id = s.id
		 GROUP BY s.id ORDER BY s.created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var s SlotInfo
		var last int64
		if err := rows.Scan(&s.ID, &s.Name, &s.MapName, &s.CreatedAt, &last); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		s.LastTick = uint64(last)
		out = append(out, s)
	}
	return out, rows.Err()
}
