package model

import "image"

// Face is one detection: bounding box in frame pixels and its embedding.
type Face struct {
	Box       image.Rectangle
	Embedding Embedding
}

// FaceMark is what gets drawn onto an outgoing frame.
type FaceMark struct {
	Box     image.Rectangle
	Label   string
	Counted bool
}
