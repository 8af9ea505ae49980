package service

import (
	"time"

	"facecounter/internal/model"
)

// Frame is one captured image. The concrete type belongs to the frame source.
type Frame interface {
	Close() error
}

// FrameSource yields frames from a capture device. Read blocks until a
// frame is available; ok is false when no frame could be read.
type FrameSource interface {
	Read() (frame Frame, ok bool)
	Close() error
}

// FaceDetector finds faces in a frame and encodes each one.
type FaceDetector interface {
	Detect(frame Frame) ([]model.Face, error)
}

// FrameAnnotator draws face marks onto a frame and returns it as JPEG.
type FrameAnnotator interface {
	Annotate(frame Frame, marks []model.FaceMark) ([]byte, error)
}

// Presenter receives annotated frames, counted sightings and the counter
// reset that happens when a new day starts.
type Presenter interface {
	ShowFrame(jpeg []byte)
	ShowSighting(sighting model.Sighting)
	ShowCount(day model.Date, count int)
}

// SnapshotSink stores the frame of a counted sighting.
type SnapshotSink interface {
	AddImage(jpeg []byte, label string, ts time.Time)
}
