package repository

import "facecounter/internal/model"

// StateStore persists the whole application state as one unit.
type StateStore interface {
	// Load returns the persisted state. A missing resource yields an
	// empty snapshot and no error.
	Load() (*model.Snapshot, error)
	// Save replaces the persisted state with snap.
	Save(snap *model.Snapshot) error
	Close() error
}

// IdentityRepository defines identity row operations.
type IdentityRepository interface {
	GetAll() ([]model.KnownIdentity, error)
	ReplaceAll(identities []model.KnownIdentity) error
	Count() (int, error)
}

// AttendanceRepository defines attendance row operations.
type AttendanceRepository interface {
	Insert(day model.Date, rec model.AttendanceRecord) (int64, error)
	GetByDate(day model.Date) ([]model.AttendanceRecord, error)
	GetDates() ([]model.Date, error)
	GetHistory() (map[model.Date][]model.AttendanceRecord, error)
	ReplaceAll(history map[model.Date][]model.AttendanceRecord) error
}
