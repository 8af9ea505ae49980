package repository

import (
	"fmt"
	"os"
	"path/filepath"

	"facecounter/internal/config"
	"facecounter/internal/repository/file"
	"facecounter/internal/repository/sqlite"
)

var (
	_ StateStore           = (*sqlite.Store)(nil)
	_ StateStore           = (*file.Store)(nil)
	_ IdentityRepository   = (*sqlite.IdentityRepository)(nil)
	_ AttendanceRepository = (*sqlite.AttendanceRepository)(nil)
)

// OpenStateStore opens the persisted state resource for the given
// backend, creating its parent directory when needed.
func OpenStateStore(backend, path string) (StateStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	switch backend {
	case config.BackendSQLite:
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendFile:
		return file.New(path), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}
