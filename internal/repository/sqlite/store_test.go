package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facecounter/internal/model"
)

func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, dbPath
}

func sampleSnapshot() *model.Snapshot {
	var a, b model.Embedding
	a[0], a[127] = 0.25, -0.75
	b[64] = 0.1

	mon := model.Date{Year: 2025, Month: time.February, Day: 3}
	tue := model.Date{Year: 2025, Month: time.February, Day: 4}

	snap := model.NewSnapshot()
	snap.Identities = []model.KnownIdentity{
		{ID: 2, Embedding: b, LastSeen: tue},
		{ID: 1, Embedding: a, LastSeen: mon},
	}
	snap.History[mon] = []model.AttendanceRecord{
		{Label: "Face_1", Timestamp: time.Date(2025, time.February, 3, 9, 0, 0, 0, time.UTC), Session: "run-a"},
	}
	snap.History[tue] = []model.AttendanceRecord{
		{Label: "Face_2", Timestamp: time.Date(2025, time.February, 4, 9, 0, 0, 500, time.UTC), Session: "run-b"},
	}
	return snap
}

func TestStore_FreshDatabaseIsEmpty(t *testing.T) {
	store, dbPath := setupTestStore(t)

	snap, err := store.Load()

	require.NoError(t, err)
	assert.Empty(t, snap.Identities)
	assert.Empty(t, snap.History)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	store, _ := setupTestStore(t)
	want := sampleSnapshot()

	require.NoError(t, store.Save(want))
	got, err := store.Load()

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_SaveReplaces(t *testing.T) {
	store, _ := setupTestStore(t)
	require.NoError(t, store.Save(sampleSnapshot()))

	smaller := model.NewSnapshot()
	smaller.Identities = sampleSnapshot().Identities[:1]
	require.NoError(t, store.Save(smaller))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, got.Identities, 1)
	assert.Empty(t, got.History)

	count, err := store.Identities().Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_SaveWithProgress(t *testing.T) {
	store, _ := setupTestStore(t)

	calls := 0
	require.NoError(t, store.SaveWithProgress(sampleSnapshot(), func() { calls++ }))

	assert.Equal(t, 2, calls)
}

func TestStore_FailedSaveRollsBack(t *testing.T) {
	store, _ := setupTestStore(t)
	require.NoError(t, store.Save(sampleSnapshot()))

	bad := sampleSnapshot()
	bad.Identities[1].ID = bad.Identities[0].ID
	calls := 0
	err := store.SaveWithProgress(bad, func() { calls++ })

	assert.Error(t, err)
	assert.Zero(t, calls)
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestStore_ReopenKeepsState(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleSnapshot()))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestStore_CorruptFileFails(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "state.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("this is not a sqlite database, just text padding it out"), 0644))

	_, err := NewStore(dbPath)

	assert.Error(t, err)
}

func TestAttendanceRepository_QueriesByDate(t *testing.T) {
	store, _ := setupTestStore(t)
	repo := store.Attendance()
	day := model.Date{Year: 2025, Month: time.March, Day: 1}

	_, err := repo.Insert(day, model.AttendanceRecord{Label: "Face_1", Timestamp: time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	_, err = repo.Insert(day, model.AttendanceRecord{Label: "Face_3", Timestamp: time.Date(2025, time.March, 1, 8, 5, 0, 0, time.UTC)})
	require.NoError(t, err)

	records, err := repo.GetByDate(day)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Face_1", records[0].Label)
	assert.Equal(t, "Face_3", records[1].Label)

	empty, err := repo.GetByDate(model.Date{Year: 2030, Month: time.January, Day: 1})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	dates, err := repo.GetDates()
	require.NoError(t, err)
	assert.Equal(t, []model.Date{day}, dates)
}

func TestEmbeddingCodec(t *testing.T) {
	var e model.Embedding
	for i := range e {
		e[i] = float32(i) / 7
	}

	got, err := decodeEmbedding(encodeEmbedding(e))
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = decodeEmbedding([]byte{1, 2, 3})
	assert.Error(t, err)
}
