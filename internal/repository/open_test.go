package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facecounter/internal/config"
	"facecounter/internal/model"
)

func TestOpenStateStore_Backends(t *testing.T) {
	day := model.Date{Year: 2025, Month: time.February, Day: 14}
	snap := model.NewSnapshot()
	snap.Identities = []model.KnownIdentity{{ID: 1, LastSeen: day}}
	snap.History[day] = []model.AttendanceRecord{
		{Label: "Face_1", Timestamp: time.Date(2025, time.February, 14, 8, 0, 0, 0, time.Local)},
	}

	for _, tc := range []struct {
		backend string
		name    string
	}{
		{config.BackendSQLite, "attendance.db"},
		{config.BackendFile, "attendance.json"},
	} {
		t.Run(tc.backend, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", tc.name)

			store, err := OpenStateStore(tc.backend, path)
			require.NoError(t, err)

			empty, err := store.Load()
			require.NoError(t, err)
			assert.Empty(t, empty.Identities)

			require.NoError(t, store.Save(snap))
			require.NoError(t, store.Close())

			store, err = OpenStateStore(tc.backend, path)
			require.NoError(t, err)
			defer store.Close()

			got, err := store.Load()
			require.NoError(t, err)
			require.Len(t, got.Identities, 1)
			assert.Equal(t, day, got.Identities[0].LastSeen)
			require.Len(t, got.History[day], 1)
			assert.Equal(t, "Face_1", got.History[day][0].Label)
		})
	}
}

func TestOpenStateStore_UnknownBackend(t *testing.T) {
	_, err := OpenStateStore("redis", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}
