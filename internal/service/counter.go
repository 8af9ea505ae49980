package service

import (
	"context"
	"time"

	"facecounter/internal/attendance"
	"facecounter/internal/logger"
	"facecounter/internal/model"
)

// Counter runs the counting loop: read a frame, detect faces, match them
// against the known identities and push the annotated frame to presenters.
type Counter struct {
	state      *attendance.State
	source     FrameSource
	detector   FaceDetector
	annotator  FrameAnnotator
	presenters []Presenter
	snapshots  SnapshotSink
	interval   time.Duration
	logger     *logger.Logger
	now        func() time.Time

	skipped int
}

// NewCounter creates a Counter ticking every interval.
func NewCounter(state *attendance.State, source FrameSource, detector FaceDetector, annotator FrameAnnotator, interval time.Duration, logger *logger.Logger) *Counter {
	return &Counter{
		state:     state,
		source:    source,
		detector:  detector,
		annotator: annotator,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// AddPresenter registers a presenter. Call before Run.
func (c *Counter) AddPresenter(p Presenter) {
	c.presenters = append(c.presenters, p)
}

// SetSnapshotSink sets where frames of counted sightings go. Call before Run.
func (c *Counter) SetSnapshotSink(s SnapshotSink) {
	c.snapshots = s
}

// Skipped returns how many ticks had no frame.
func (c *Counter) Skipped() int {
	return c.skipped
}

// Run ticks until ctx is cancelled. Ticks that run long cause the
// following ones to be dropped.
func (c *Counter) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("🎬 Counting loop started, tick every %v", c.interval)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Counting loop stopped (%d ticks without a frame)", c.skipped)
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick processes a single frame. The day rolls over first, so the counter
// resets at midnight even when nobody is in front of the camera.
func (c *Counter) Tick() {
	if now := c.now(); c.state.Rollover(now) {
		day := model.DateOf(now)
		c.logger.Info("📅 New day %s, counter reset", day)
		for _, p := range c.presenters {
			p.ShowCount(day, 0)
		}
	}

	frame, ok := c.source.Read()
	if !ok {
		c.skipped++
		c.logger.Debug("No frame available (%d skipped)", c.skipped)
		return
	}
	defer frame.Close()

	faces, err := c.detector.Detect(frame)
	if err != nil {
		c.logger.Error("Error detecting faces: %v", err)
		return
	}

	now := c.now()
	marks := make([]model.FaceMark, 0, len(faces))
	var counted []model.Sighting
	for _, f := range faces {
		sighting := c.state.Observe(f.Embedding, now)
		marks = append(marks, model.FaceMark{
			Box:     f.Box,
			Label:   sighting.Label,
			Counted: sighting.Counted,
		})
		if sighting.Counted {
			counted = append(counted, sighting)
			c.logger.Info("👤 %s counted at %s (today: %d)", sighting.Label, now.Format(model.TimestampLayout), sighting.Count)
		}
	}

	img, err := c.annotator.Annotate(frame, marks)
	if err != nil {
		c.logger.Error("Error annotating frame: %v", err)
	}

	if img != nil {
		for _, p := range c.presenters {
			p.ShowFrame(img)
		}
	}

	for _, s := range counted {
		for _, p := range c.presenters {
			p.ShowSighting(s)
		}
		if c.snapshots != nil && img != nil {
			c.snapshots.AddImage(img, s.Label, s.Timestamp)
		}
	}
}
