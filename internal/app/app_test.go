package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facecounter/internal/config"
	"facecounter/internal/logger"
	"facecounter/internal/model"
)

func testConfig(t *testing.T, backend, name string) *config.Config {
	cfg := config.Default()
	cfg.StateBackend = backend
	cfg.StatePath = filepath.Join(t.TempDir(), name)
	return cfg
}

func TestLoadState_MissingResourceIsEmpty(t *testing.T) {
	for _, cfg := range []*config.Config{
		testConfig(t, config.BackendSQLite, "state.db"),
		testConfig(t, config.BackendFile, "state.json"),
	} {
		store, state, err := loadState(cfg, logger.NewNop())
		require.NoError(t, err, cfg.StateBackend)

		assert.Zero(t, state.KnownCount())
		assert.Zero(t, state.Count())
		assert.Empty(t, state.Dates())
		assert.NotEmpty(t, state.SessionID())
		require.NoError(t, store.Close())
	}
}

func TestLoadState_CorruptBlobFails(t *testing.T) {
	cfg := testConfig(t, config.BackendFile, "state.json")
	require.NoError(t, os.WriteFile(cfg.StatePath, []byte("{not json"), 0644))

	_, _, err := loadState(cfg, logger.NewNop())
	require.Error(t, err)

	data, err := os.ReadFile(cfg.StatePath)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestSaveState_SurvivesRestart(t *testing.T) {
	for _, cfg := range []*config.Config{
		testConfig(t, config.BackendSQLite, "state.db"),
		testConfig(t, config.BackendFile, "state.json"),
	} {
		store, state, err := loadState(cfg, logger.NewNop())
		require.NoError(t, err)

		var e model.Embedding
		e[0] = 0.25
		now := time.Now()
		state.Observe(e, now)

		require.NoError(t, saveState(store, state, logger.NewNop()))
		require.NoError(t, store.Close())

		store, restored, err := loadState(cfg, logger.NewNop())
		require.NoError(t, err, cfg.StateBackend)
		defer store.Close()

		assert.Equal(t, 1, restored.KnownCount())
		assert.Equal(t, 1, restored.Count())
		assert.True(t, restored.Seen("Face_1"))
		assert.NotEqual(t, state.SessionID(), restored.SessionID())

		got := restored.Observe(e, now.Add(time.Second))
		assert.False(t, got.Counted)
		assert.Equal(t, "Face_1", got.Label)
	}
}
