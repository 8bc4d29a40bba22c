package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wc2sim.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[sim]
tick_rate = "50ms"
path_budget = 80

[feed]
debug_paths = true

[logging]
format = "json"
`))
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.Sim.TickRate)
	assert.Equal(t, 80, cfg.Sim.PathBudget)
	assert.Equal(t, 8, cfg.Sim.ChunkSize, "unset keys keep defaults")
	assert.True(t, cfg.Feed.DebugPaths)
	assert.True(t, cfg.Feed.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "[sim]\nchunk_size = 0\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[database]\nenabled = true\nautosave_ticks = 0\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[sim\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestShippedConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "wc2sim.toml"))
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Sim.TickRate)
	assert.Equal(t, "127.0.0.1:7070", cfg.Feed.BindAddress)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
}
