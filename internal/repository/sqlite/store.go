package sqlite

import (
	"errors"
	"fmt"

	"facecounter/internal/model"
)

// Store implements repository.StateStore on top of the identity and
// attendance tables.
type Store struct {
	db          *DB
	identities  *IdentityRepository
	attendances *AttendanceRepository
}

// NewStore opens the database at dbPath and returns a state store.
func NewStore(dbPath string) (*Store, error) {
	db, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:          db,
		identities:  NewIdentityRepository(db),
		attendances: NewAttendanceRepository(db),
	}, nil
}

// Identities exposes the identity repository.
func (s *Store) Identities() *IdentityRepository {
	return s.identities
}

// Attendance exposes the attendance repository.
func (s *Store) Attendance() *AttendanceRepository {
	return s.attendances
}

// Load reads the whole state. A fresh database is an empty state.
func (s *Store) Load() (*model.Snapshot, error) {
	identities, err := s.identities.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load identities: %w", err)
	}
	history, err := s.attendances.GetHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance: %w", err)
	}

	snap := model.NewSnapshot()
	snap.Identities = identities
	snap.History = history
	return snap, nil
}

// Save replaces both tables inside one transaction.
func (s *Store) Save(snap *model.Snapshot) error {
	return s.SaveWithProgress(snap, nil)
}

// SaveWithProgress is Save with onRecord called after each attendance
// record is written. Nothing is kept unless every row is written.
func (s *Store) SaveWithProgress(snap *model.Snapshot, onRecord func()) error {
	if snap == nil {
		return errors.New("nil snapshot")
	}

	s.db.Lock()
	defer s.db.Unlock()

	tx, err := s.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceIdentities(tx, snap.Identities); err != nil {
		return err
	}
	if err := replaceAttendance(tx, snap.History, onRecord); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
