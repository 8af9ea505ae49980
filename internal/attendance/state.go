// Package attendance holds the running application state: known
// identities, the attendance ledger and the set of visitors counted today.
package attendance

import (
	"sync"
	"time"

	"facecounter/internal/identity"
	"facecounter/internal/ledger"
	"facecounter/internal/model"
)

// State is owned by the counting loop. HTTP handlers and autosave read it
// concurrently, hence the lock.
type State struct {
	mu        sync.RWMutex
	registry  *identity.Registry
	ledger    *ledger.Ledger
	sessionID string

	today      model.Date
	seen       map[string]struct{}
	count      int
	sessionLog []model.AttendanceRecord
}

// NewState returns an empty state for the given process session.
func NewState(sessionID string) *State {
	return &State{
		registry:  identity.NewRegistry(nil),
		ledger:    ledger.New(),
		sessionID: sessionID,
		seen:      make(map[string]struct{}),
	}
}

// Restore replaces identities and ledger with a loaded snapshot. Visitors
// already recorded for the date of now are counted again so a restart
// does not reset today's counter.
func (s *State) Restore(snap *model.Snapshot, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry = identity.NewRegistry(snap.Identities)
	s.ledger = ledger.FromHistory(snap.History)
	s.sessionLog = nil
	s.resetDay(model.DateOf(now))
	for _, rec := range s.ledger.Query(s.today) {
		s.markSeen(rec.Label)
	}
}

// Snapshot returns a copy of everything that is persisted.
func (s *State) Snapshot() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &model.Snapshot{
		Identities: s.registry.Identities(),
		History:    s.ledger.History(),
	}
}

// Rollover starts a new counting day when now falls after the current
// one. It reports whether the day changed.
func (s *State) Rollover(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := model.DateOf(now)
	if today == s.today {
		return false
	}
	s.resetDay(today)
	return true
}

// Observe runs one detected embedding through the matcher and records a
// first sighting of the day in the ledger. Timestamps are kept to whole
// seconds, the resolution of the persisted format.
func (s *State) Observe(probe model.Embedding, now time.Time) model.Sighting {
	s.mu.Lock()
	defer s.mu.Unlock()

	now = now.Truncate(time.Second)
	today := model.DateOf(now)
	if today != s.today {
		s.resetDay(today)
	}

	res := s.registry.Match(probe, today)
	sighting := model.Sighting{
		Label:     res.Label(),
		Timestamp: now,
		New:       res.Status == identity.New,
	}

	switch res.Status {
	case identity.New:
		sighting.Counted = true
	case identity.Matched:
		if s.registry.At(res.Index).LastSeen != today {
			s.registry.Touch(res.Index, today)
			sighting.Counted = true
		}
	}

	if sighting.Counted {
		s.ledger.Record(today, sighting.Label, now, s.sessionID)
		s.sessionLog = append(s.sessionLog, model.AttendanceRecord{
			Label:     sighting.Label,
			Timestamp: now,
			Session:   s.sessionID,
		})
		s.markSeen(sighting.Label)
	}
	sighting.Count = s.count
	return sighting
}

// Count returns the number of visitors counted on the current day.
func (s *State) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Today returns the date the counter belongs to.
func (s *State) Today() model.Date {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.today
}

// Seen reports whether label was counted on the current day.
func (s *State) Seen(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[label]
	return ok
}

// KnownCount returns the number of known identities.
func (s *State) KnownCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Len()
}

// History returns the ledger records of a date, empty when there are none.
func (s *State) History(day model.Date) []model.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Query(day)
}

// Dates returns the dates with at least one record.
func (s *State) Dates() []model.Date {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger.Dates()
}

// SessionLog returns the sightings counted since this process started.
func (s *State) SessionLog() []model.AttendanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.AttendanceRecord(nil), s.sessionLog...)
}

// SessionID returns the id stamped on records of this run.
func (s *State) SessionID() string {
	return s.sessionID
}

func (s *State) resetDay(day model.Date) {
	s.today = day
	s.seen = make(map[string]struct{})
	s.count = 0
}

func (s *State) markSeen(label string) {
	if _, ok := s.seen[label]; ok {
		return
	}
	s.seen[label] = struct{}{}
	s.count++
}
