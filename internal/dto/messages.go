package dto

// Websocket message types.
const (
	MessageFrame    = "frame"
	MessageSighting = "sighting"
	MessageCount    = "count"
)

// FrameMessage carries one annotated frame as base64 JPEG.
type FrameMessage struct {
	Type  string `json:"type"`
	Image string `json:"image"`
}

// SightingMessage announces a counted visitor.
type SightingMessage struct {
	Type      string `json:"type"`
	Label     string `json:"label"`
	Timestamp string `json:"timestamp"`
	Count     int    `json:"count"`
}

// CountMessage carries the counter after a day rollover.
type CountMessage struct {
	Type  string `json:"type"`
	Date  string `json:"date"`
	Count int    `json:"count"`
}
