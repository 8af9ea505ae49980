package model

import "fmt"

// EmbeddingSize is the length of a dlib face descriptor.
const EmbeddingSize = 128

// Embedding is a face descriptor produced by the encoder.
type Embedding [EmbeddingSize]float32

// KnownIdentity is a face seen at least once.
type KnownIdentity struct {
	ID        int       `json:"id"`
	Embedding Embedding `json:"embedding"`
	LastSeen  Date      `json:"last_seen"`
}

// Label returns the display label, e.g. "Face_3".
func (k KnownIdentity) Label() string {
	return LabelFor(k.ID)
}

// LabelFor builds the display label for an identity id.
func LabelFor(id int) string {
	return fmt.Sprintf("Face_%d", id)
}
