// Package file stores the application state as a single JSON blob.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"facecounter/internal/model"
)

// blob is the on-disk layout. encodings, dates and ids are index aligned.
type blob struct {
	Encodings         []model.Embedding       `json:"encodings"`
	Dates             []string                `json:"dates"`
	IDs               []int                   `json:"ids,omitempty"`
	AttendanceHistory map[string][]blobRecord `json:"attendance_history"`
}

type blobRecord struct {
	FaceID  string `json:"face_id"`
	Time    string `json:"time"`
	Session string `json:"session,omitempty"`
}

// Store keeps state in one JSON file.
type Store struct {
	path string
	loc  *time.Location
}

// New returns a Store for path. Timestamps are interpreted in local time.
func New(path string) *Store {
	return &Store{path: path, loc: time.Local}
}

// Path returns the blob location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the blob. A missing file is an empty state.
func (s *Store) Load() (*model.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return model.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return Decode(data, s.loc)
}

// Save writes the blob through a temp file and rename.
func (s *Store) Save(snap *model.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Encode serializes a snapshot into the blob format.
func Encode(snap *model.Snapshot) ([]byte, error) {
	b := blob{
		Encodings:         make([]model.Embedding, 0, len(snap.Identities)),
		Dates:             make([]string, 0, len(snap.Identities)),
		IDs:               make([]int, 0, len(snap.Identities)),
		AttendanceHistory: make(map[string][]blobRecord, len(snap.History)),
	}
	for _, k := range snap.Identities {
		b.Encodings = append(b.Encodings, k.Embedding)
		b.Dates = append(b.Dates, k.LastSeen.String())
		b.IDs = append(b.IDs, k.ID)
	}
	for day, records := range snap.History {
		out := make([]blobRecord, 0, len(records))
		for _, rec := range records {
			out = append(out, blobRecord{
				FaceID:  rec.Label,
				Time:    rec.Timestamp.Format(model.TimestampLayout),
				Session: rec.Session,
			})
		}
		b.AttendanceHistory[day.String()] = out
	}

	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// Decode parses the blob format. Without an ids array, identity ids are
// positional (index+1). Ids must be positive and unique.
func Decode(data []byte, loc *time.Location) (*model.Snapshot, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if len(b.Dates) != len(b.Encodings) {
		return nil, fmt.Errorf("corrupt state: %d encodings but %d dates", len(b.Encodings), len(b.Dates))
	}
	if len(b.IDs) != 0 && len(b.IDs) != len(b.Encodings) {
		return nil, fmt.Errorf("corrupt state: %d encodings but %d ids", len(b.Encodings), len(b.IDs))
	}

	snap := model.NewSnapshot()
	ids := make(map[int]struct{}, len(b.Encodings))
	for i, enc := range b.Encodings {
		day, err := model.ParseDate(b.Dates[i])
		if err != nil {
			return nil, fmt.Errorf("corrupt state: %w", err)
		}
		id := i + 1
		if len(b.IDs) != 0 {
			id = b.IDs[i]
		}
		if id <= 0 {
			return nil, fmt.Errorf("corrupt state: invalid id %d", id)
		}
		if _, dup := ids[id]; dup {
			return nil, fmt.Errorf("corrupt state: duplicate id %d", id)
		}
		ids[id] = struct{}{}
		snap.Identities = append(snap.Identities, model.KnownIdentity{
			ID:        id,
			Embedding: enc,
			LastSeen:  day,
		})
	}

	days := make([]string, 0, len(b.AttendanceHistory))
	for key := range b.AttendanceHistory {
		days = append(days, key)
	}
	sort.Strings(days)
	for _, key := range days {
		day, err := model.ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("corrupt state: %w", err)
		}
		records := make([]model.AttendanceRecord, 0, len(b.AttendanceHistory[key]))
		for _, rec := range b.AttendanceHistory[key] {
			ts, err := time.ParseInLocation(model.TimestampLayout, rec.Time, loc)
			if err != nil {
				return nil, fmt.Errorf("corrupt state: invalid timestamp %q: %w", rec.Time, err)
			}
			records = append(records, model.AttendanceRecord{
				Label:     rec.FaceID,
				Timestamp: ts,
				Session:   rec.Session,
			})
		}
		snap.History[day] = records
	}
	return snap, nil
}
