package system

import (
	"context"
	"time"

	coresys "github.com/JakubekWeg/wc2-sub000/internal/core/system"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// keepSnapshots is how many snapshots per slot survive pruning.
const keepSnapshots = 10

// SnapshotStore is the persistence side of autosave; persist.SaveRepo
// implements it.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, slot uuid.UUID, snap *world.Snapshot) error
	Prune(ctx context.Context, slot uuid.UUID, keep int) (int64, error)
}

// AutosaveSystem writes a snapshot of the whole world to its slot every
// interval ticks. Phase 5 (Persist).
type AutosaveSystem struct {
	world     *world.State
	store     SnapshotStore
	slot      uuid.UUID
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks
}

func NewAutosaveSystem(ws *world.State, store SnapshotStore, slot uuid.UUID, log *zap.Logger, intervalTicks int) *AutosaveSystem {
	return &AutosaveSystem{
		world:    ws,
		store:    store,
		slot:     slot,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *AutosaveSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *AutosaveSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if err := s.SaveNow(); err != nil {
		s.log.Error("autosave failed", zap.Error(err))
	}
}

// SaveNow writes a snapshot immediately. Called on graceful shutdown so the
// last ticks are not lost.
func (s *AutosaveSystem) SaveNow() error {
	snap, err := s.world.Save()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.SaveSnapshot(ctx, s.slot, snap); err != nil {
		return err
	}
	pruned, err := s.store.Prune(ctx, s.slot, keepSnapshots)
	if err != nil {
		s.log.Warn("snapshot prune failed", zap.Error(err))
	}
	s.log.Info("autosave complete",
		zap.String("slot", s.slot.String()),
		zap.Uint64("tick", snap.Tick),
		zap.Int("entities", len(snap.Entities)),
		zap.Int64("pruned", pruned))
	return nil
}
