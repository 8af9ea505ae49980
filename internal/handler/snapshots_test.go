package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facecounter/internal/dto"
	"facecounter/internal/logger"
	"facecounter/internal/service/storage"
)

func snapshotDir(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()

	older := storage.SnapshotName("Face_1", time.Date(2025, time.May, 1, 9, 0, 0, 0, time.Local))
	newer := storage.SnapshotName("Face_2", time.Date(2025, time.May, 2, 9, 0, 0, 0, time.Local))
	for _, name := range []string{older, newer} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("jpeg"), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0644))
	return dir, older, newer
}

func TestGetSnapshotsHandler(t *testing.T) {
	dir, older, newer := snapshotDir(t)

	rec := get(t, GetSnapshotsHandler(dir, logger.NewNop()), "/api/snapshots")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Snapshots []struct {
			Name  string `json:"name"`
			Label string `json:"label"`
			Date  string `json:"date"`
		} `json:"snapshots"`
		Length int `json:"length"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Length)
	assert.Equal(t, newer, resp.Snapshots[0].Name)
	assert.Equal(t, "Face_2", resp.Snapshots[0].Label)
	assert.Equal(t, "2025-05-02", resp.Snapshots[0].Date)
	assert.Equal(t, older, resp.Snapshots[1].Name)
}

func TestGetSnapshotsHandler_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "none")

	rec := get(t, GetSnapshotsHandler(dir, logger.NewNop()), "/api/snapshots")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.SnapshotsData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Zero(t, resp.Length)
}

func TestViewSnapshotHandler(t *testing.T) {
	dir, older, _ := snapshotDir(t)
	h := ViewSnapshotHandler(dir)

	rec := get(t, h, "/api/snapshots/view?image="+older)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/snapshots/view").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/snapshots/view?image=../secret").Code)
}

func TestDeleteSnapshotHandler(t *testing.T) {
	dir, older, _ := snapshotDir(t)
	h := DeleteSnapshotHandler(dir, logger.NewNop())

	rec := send(h, http.MethodPost, "/api/snapshots/delete?filename="+older)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := os.Stat(filepath.Join(dir, older))
	assert.True(t, os.IsNotExist(err))

	rec = send(h, http.MethodDelete, "/api/snapshots/delete?filename="+older)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSnapshotRemovalRejectsGet(t *testing.T) {
	dir, older, _ := snapshotDir(t)

	rec := get(t, DeleteSnapshotHandler(dir, logger.NewNop()), "/api/snapshots/delete?filename="+older)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST, DELETE", rec.Header().Get("Allow"))

	rec = get(t, ClearSnapshotsHandler(dir, logger.NewNop()), "/api/snapshots/clear")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func send(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestClearSnapshotsHandler(t *testing.T) {
	dir, _, _ := snapshotDir(t)

	rec := send(ClearSnapshotsHandler(dir, logger.NewNop()), http.MethodPost, "/api/snapshots/clear")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "notes.txt", entries[0].Name())
}
