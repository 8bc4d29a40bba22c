package persist

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/JakubekWeg/wc2-sub000/internal/config"
	"github.com/JakubekWeg/wc2-sub000/internal/world"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// openTestDB connects to WC2_TEST_DSN or skips.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("WC2_TEST_DSN")
	if dsn == "" {
		t.Skip("WC2_TEST_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := NewDB(ctx, config.DatabaseConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: time.Minute}, zap.NewNop())
	require.NoError(t, err)
	version, err := RunMigrations(ctx, db.Pool, zap.NewNop())
	require.NoError(t, err)
	require.GreaterOrEqual(t, version, int64(1))
	t.Cleanup(db.Close)
	return db
}

func TestSaveRepoRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewSaveRepo(db)
	ctx := context.Background()

	slot, err := repo.CreateSlot(ctx, "test", "crossing")
	require.NoError(t, err)

	_, err = repo.LatestSnapshot(ctx, slot)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	for tick := uint64(10); tick <= 30; tick += 10 {
		snap := &world.Snapshot{Tick: tick, NextID: 3, Checksum: "c", Entities: nil}
		require.NoError(t, repo.SaveSnapshot(ctx, slot, snap))
	}
	got, err := repo.LatestSnapshot(ctx, slot)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), got.Tick)

	n, err := repo.Prune(ctx, slot, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, repo.EnsureSlot(ctx, slot, "again", "crossing"))
	slots, err := repo.ListSlots(ctx)
	require.NoError(t, err)
	var found bool
	for _, s := range slots {
		if s.ID == slot {
			found = true
			assert.Equal(t, uint64(30), s.LastTick)
		}
	}
	assert.True(t, found)
	assert.NotEqual(t, uuid.Nil, slot)
}
