// Package identity decides whether a face embedding belongs to a known
// identity or starts a new one.
package identity

import (
	"math"

	"facecounter/internal/model"
)

// Tolerance is the maximum Euclidean distance at which two dlib
// descriptors are treated as the same person.
const Tolerance = 0.6

// Status tells whether a probe matched an existing identity.
type Status int

const (
	// New means the probe was appended as a new identity.
	New Status = iota
	// Matched means the probe matched an existing identity.
	Matched
)

func (s Status) String() string {
	if s == New {
		return "new"
	}
	return "matched"
}

// Result is the outcome of Registry.Match.
type Result struct {
	Status Status
	// Index is the position of the identity in the registry.
	Index int
	ID    int
}

// Label returns the display label of the matched or created identity.
func (r Result) Label() string {
	return model.LabelFor(r.ID)
}

// Distance returns the Euclidean distance between two embeddings.
func Distance(a, b model.Embedding) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// FirstMatch returns the index of the first known identity within
// Tolerance of probe, or -1. Earlier entries win even when a later one
// is closer.
func FirstMatch(known []model.KnownIdentity, probe model.Embedding) int {
	for i := range known {
		if Distance(known[i].Embedding, probe) <= Tolerance {
			return i
		}
	}
	return -1
}

// Registry is the ordered sequence of known identities.
type Registry struct {
	known  []model.KnownIdentity
	nextID int
}

// NewRegistry builds a registry from persisted identities, keeping their order.
func NewRegistry(known []model.KnownIdentity) *Registry {
	r := &Registry{
		known:  make([]model.KnownIdentity, len(known)),
		nextID: 1,
	}
	copy(r.known, known)
	for _, k := range r.known {
		if k.ID >= r.nextID {
			r.nextID = k.ID + 1
		}
	}
	return r
}

// Match looks probe up; when nothing matches, probe is appended as a new
// identity last seen on today.
func (r *Registry) Match(probe model.Embedding, today model.Date) Result {
	if i := FirstMatch(r.known, probe); i >= 0 {
		return Result{Status: Matched, Index: i, ID: r.known[i].ID}
	}

	id := r.nextID
	r.nextID++
	r.known = append(r.known, model.KnownIdentity{
		ID:        id,
		Embedding: probe,
		LastSeen:  today,
	})
	return Result{Status: New, Index: len(r.known) - 1, ID: id}
}

// At returns the identity at index i.
func (r *Registry) At(i int) model.KnownIdentity {
	return r.known[i]
}

// Touch sets the last seen date of the identity at index i.
func (r *Registry) Touch(i int, day model.Date) {
	r.known[i].LastSeen = day
}

// Len returns the number of known identities.
func (r *Registry) Len() int {
	return len(r.known)
}

// Identities returns a copy of the known identities in match order.
func (r *Registry) Identities() []model.KnownIdentity {
	out := make([]model.KnownIdentity, len(r.known))
	copy(out, r.known)
	return out
}
