package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"facecounter/internal/dto"
	"facecounter/internal/logger"
	"facecounter/internal/service/storage"
)

// GetSnapshotsHandler lists stored snapshots, newest first.
func GetSnapshotsHandler(dir string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		files, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading snapshot directory: %v", err)
			http.Error(w, "Unable to read snapshot directory", http.StatusInternalServerError)
			return
		}

		snapshots := make([]dto.SnapshotInfo, 0, len(files))
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			label, ts, err := storage.ParseSnapshotName(file.Name())
			if err != nil {
				continue
			}
			snapshots = append(snapshots, dto.SnapshotInfo{
				Name:      file.Name(),
				Label:     label,
				Date:      ts,
				TimeOfDay: ts,
			})
		}
		sort.Slice(snapshots, func(i, j int) bool {
			return snapshots[i].Date.After(snapshots[j].Date)
		})

		writeJSON(w, logger, dto.SnapshotsData{
			Snapshots: snapshots,
			Dir:       dir,
			Length:    len(snapshots),
		})
	}
}

// ViewSnapshotHandler serves a single snapshot specified via the "image" query parameter.
func ViewSnapshotHandler(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		image, ok := snapshotParam(w, r, "image")
		if !ok {
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, image))
	}
}

// DeleteSnapshotHandler removes one snapshot from disk.
func DeleteSnapshotHandler(dir string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deleteMethod(w, r) {
			return
		}
		filename, ok := snapshotParam(w, r, "filename")
		if !ok {
			return
		}

		if err := os.Remove(filepath.Join(dir, filename)); err != nil {
			if os.IsNotExist(err) {
				http.NotFound(w, r)
				return
			}
			logger.Error("Failed to delete snapshot %s: %v", filename, err)
			http.Error(w, "Unable to delete snapshot", http.StatusInternalServerError)
			return
		}

		logger.Info("Deleted snapshot: %s", filename)
		writeJSON(w, logger, map[string]string{"status": "deleted", "filename": filename})
	}
}

// ClearSnapshotsHandler deletes every snapshot in the directory.
func ClearSnapshotsHandler(dir string, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deleteMethod(w, r) {
			return
		}
		files, err := os.ReadDir(dir)
		if err != nil && !os.IsNotExist(err) {
			logger.Error("Error reading snapshot directory: %v", err)
			http.Error(w, "Unable to read snapshot directory", http.StatusInternalServerError)
			return
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if _, _, err := storage.ParseSnapshotName(file.Name()); err != nil {
				continue
			}
			if err := os.Remove(filepath.Join(dir, file.Name())); err != nil {
				logger.Error("Error deleting snapshot %s: %v", file.Name(), err)
			}
		}

		logger.Info("All snapshots cleared from directory: %s", dir)
		w.WriteHeader(http.StatusNoContent)
	}
}

// deleteMethod admits POST and DELETE only.
func deleteMethod(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		w.Header().Set("Allow", "POST, DELETE")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// snapshotParam reads a bare file name from the query.
func snapshotParam(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	name := r.URL.Query().Get(key)
	if name == "" {
		http.Error(w, key+" parameter is required", http.StatusBadRequest)
		return "", false
	}
	if filepath.Base(name) != name || name == "." || name == ".." {
		http.Error(w, "Invalid file name", http.StatusBadRequest)
		return "", false
	}
	return name, true
}
