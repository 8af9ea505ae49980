// Package ledger keeps attendance records partitioned by calendar date.
package ledger

import (
	"sort"
	"time"

	"facecounter/internal/model"
)

// Ledger maps a date to its records in detection order. It performs no
// deduplication; callers decide what counts as a first sighting.
type Ledger struct {
	days map[model.Date][]model.AttendanceRecord
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{days: make(map[model.Date][]model.AttendanceRecord)}
}

// FromHistory builds a ledger from persisted history. Slices are copied.
func FromHistory(history map[model.Date][]model.AttendanceRecord) *Ledger {
	l := New()
	for day, records := range history {
		if len(records) == 0 {
			continue
		}
		l.days[day] = append([]model.AttendanceRecord(nil), records...)
	}
	return l
}

// Record appends a sighting to the given date.
func (l *Ledger) Record(day model.Date, label string, ts time.Time, session string) {
	l.days[day] = append(l.days[day], model.AttendanceRecord{
		Label:     label,
		Timestamp: ts,
		Session:   session,
	})
}

// Query returns the records of a date. A date without records yields an
// empty, non-nil slice.
func (l *Ledger) Query(day model.Date) []model.AttendanceRecord {
	records := l.days[day]
	out := make([]model.AttendanceRecord, len(records))
	copy(out, records)
	return out
}

// Dates returns the dates that have records, oldest first.
func (l *Ledger) Dates() []model.Date {
	dates := make([]model.Date, 0, len(l.days))
	for day := range l.days {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// Len returns the total number of records.
func (l *Ledger) Len() int {
	n := 0
	for _, records := range l.days {
		n += len(records)
	}
	return n
}

// History returns a deep copy of the ledger contents.
func (l *Ledger) History() map[model.Date][]model.AttendanceRecord {
	out := make(map[model.Date][]model.AttendanceRecord, len(l.days))
	for day, records := range l.days {
		out[day] = append([]model.AttendanceRecord(nil), records...)
	}
	return out
}
