package model

import "time"

// TimestampLayout is the textual form of a sighting timestamp at storage boundaries.
const TimestampLayout = "2006-01-02 15:04:05"

// AttendanceRecord is one first-sighting-of-the-day entry.
type AttendanceRecord struct {
	Label     string    `json:"label"`
	Timestamp time.Time `json:"timestamp"`
	Session   string    `json:"session,omitempty"`
}

// Snapshot is the whole persisted state: known identities in match order
// and the date-partitioned attendance ledger.
type Snapshot struct {
	Identities []KnownIdentity
	History    map[Date][]AttendanceRecord
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{History: make(map[Date][]AttendanceRecord)}
}

// Sighting is the outcome of observing one face.
type Sighting struct {
	Label     string
	Timestamp time.Time
	// New is true when the face did not match any known identity.
	New bool
	// Counted is true when the sighting was recorded in the ledger.
	Counted bool
	// Count is the number of visitors counted today after this sighting.
	Count int
}
