package service

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facecounter/internal/attendance"
	"facecounter/internal/logger"
	"facecounter/internal/model"
)

type fakeFrame struct {
	closed bool
}

func (f *fakeFrame) Close() error {
	f.closed = true
	return nil
}

type fakeSource struct {
	frames []*fakeFrame
	reads  int
}

func (s *fakeSource) Read() (Frame, bool) {
	s.reads++
	if len(s.frames) == 0 {
		return nil, false
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, true
}

func (s *fakeSource) Close() error { return nil }

// loopSource always has a frame.
type loopSource struct{}

func (loopSource) Read() (Frame, bool) { return &fakeFrame{}, true }
func (loopSource) Close() error        { return nil }

type fakeDetector struct {
	faces [][]model.Face
	err   error
}

func (d *fakeDetector) Detect(Frame) ([]model.Face, error) {
	if d.err != nil {
		return nil, d.err
	}
	if len(d.faces) == 0 {
		return nil, nil
	}
	f := d.faces[0]
	d.faces = d.faces[1:]
	return f, nil
}

type fakeAnnotator struct {
	marks [][]model.FaceMark
}

func (a *fakeAnnotator) Annotate(_ Frame, marks []model.FaceMark) ([]byte, error) {
	a.marks = append(a.marks, marks)
	return []byte("jpeg"), nil
}

type recordingPresenter struct {
	mu        sync.Mutex
	frames    int
	sightings []model.Sighting
	resets    []model.Date
}

func (p *recordingPresenter) ShowFrame([]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames++
}

func (p *recordingPresenter) ShowSighting(s model.Sighting) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sightings = append(p.sightings, s)
}

func (p *recordingPresenter) ShowCount(day model.Date, _ int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, day)
}

func (p *recordingPresenter) frameCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frames
}

type recordingSink struct {
	labels []string
}

func (s *recordingSink) AddImage(_ []byte, label string, _ time.Time) {
	s.labels = append(s.labels, label)
}

func face(v float32, x int) model.Face {
	var e model.Embedding
	e[0] = v
	return model.Face{Box: image.Rect(x, 0, x+50, 50), Embedding: e}
}

var noon = time.Date(2025, time.March, 3, 12, 0, 0, 0, time.Local)

func newTestCounter(source FrameSource, detector FaceDetector) (*Counter, *attendance.State, *fakeAnnotator, *recordingPresenter) {
	state := attendance.NewState("run-1")
	state.Restore(model.NewSnapshot(), noon)
	annotator := &fakeAnnotator{}
	presenter := &recordingPresenter{}

	c := NewCounter(state, source, detector, annotator, time.Millisecond, logger.NewNop())
	c.now = func() time.Time { return noon }
	c.AddPresenter(presenter)
	return c, state, annotator, presenter
}

func TestTick_NoFrameIsSkipped(t *testing.T) {
	source := &fakeSource{}
	c, state, annotator, presenter := newTestCounter(source, &fakeDetector{})

	c.Tick()

	assert.Equal(t, 1, c.Skipped())
	assert.Empty(t, annotator.marks)
	assert.Zero(t, presenter.frameCount())
	assert.Zero(t, state.Count())
}

func TestTick_TwoNovelFaces(t *testing.T) {
	frame := &fakeFrame{}
	source := &fakeSource{frames: []*fakeFrame{frame}}
	detector := &fakeDetector{faces: [][]model.Face{{face(0, 0), face(5, 100)}}}
	c, state, annotator, presenter := newTestCounter(source, detector)
	sink := &recordingSink{}
	c.SetSnapshotSink(sink)

	c.Tick()

	assert.Equal(t, 2, state.Count())
	assert.Equal(t, 2, state.KnownCount())
	records := state.History(model.DateOf(noon))
	require.Len(t, records, 2)
	assert.Equal(t, "Face_1", records[0].Label)
	assert.Equal(t, "Face_2", records[1].Label)

	require.Len(t, annotator.marks, 1)
	assert.Equal(t, []model.FaceMark{
		{Box: image.Rect(0, 0, 50, 50), Label: "Face_1", Counted: true},
		{Box: image.Rect(100, 0, 150, 50), Label: "Face_2", Counted: true},
	}, annotator.marks[0])

	assert.Equal(t, 1, presenter.frameCount())
	require.Len(t, presenter.sightings, 2)
	assert.Equal(t, 2, presenter.sightings[1].Count)
	assert.Equal(t, []string{"Face_1", "Face_2"}, sink.labels)
	assert.True(t, frame.closed)
}

func TestTick_SameFaceTwiceCountsOnce(t *testing.T) {
	source := &fakeSource{frames: []*fakeFrame{{}, {}}}
	detector := &fakeDetector{faces: [][]model.Face{{face(0, 0)}, {face(0.1, 0)}}}
	c, state, annotator, presenter := newTestCounter(source, detector)

	c.Tick()
	c.Tick()

	assert.Equal(t, 1, state.Count())
	assert.Len(t, state.History(model.DateOf(noon)), 1)
	require.Len(t, annotator.marks, 2)
	assert.False(t, annotator.marks[1][0].Counted)
	assert.Equal(t, "Face_1", annotator.marks[1][0].Label)
	assert.Equal(t, 2, presenter.frameCount())
	assert.Len(t, presenter.sightings, 1)
}

func TestTick_DetectorErrorSkipsTick(t *testing.T) {
	frame := &fakeFrame{}
	source := &fakeSource{frames: []*fakeFrame{frame}}
	c, state, annotator, presenter := newTestCounter(source, &fakeDetector{err: errors.New("boom")})

	c.Tick()

	assert.Zero(t, state.Count())
	assert.Empty(t, annotator.marks)
	assert.Zero(t, presenter.frameCount())
	assert.True(t, frame.closed)
}

func TestTick_NoFacesStillPresentsFrame(t *testing.T) {
	source := &fakeSource{frames: []*fakeFrame{{}}}
	c, state, annotator, presenter := newTestCounter(source, &fakeDetector{})

	c.Tick()

	assert.Zero(t, state.Count())
	require.Len(t, annotator.marks, 1)
	assert.Empty(t, annotator.marks[0])
	assert.Equal(t, 1, presenter.frameCount())
}

func TestRun_StopsOnCancel(t *testing.T) {
	c, _, _, presenter := newTestCounter(loopSource{}, &fakeDetector{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return presenter.frameCount() > 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTick_NewDayResetsCountWithoutFrame(t *testing.T) {
	source := &fakeSource{frames: []*fakeFrame{{}}}
	detector := &fakeDetector{faces: [][]model.Face{{face(0, 0)}}}
	c, state, _, presenter := newTestCounter(source, detector)
	c.Tick()
	require.Equal(t, 1, state.Count())

	nextDay := noon.Add(24 * time.Hour)
	c.now = func() time.Time { return nextDay }
	c.Tick()

	assert.Equal(t, 1, c.Skipped())
	assert.Zero(t, state.Count())
	assert.Equal(t, model.DateOf(nextDay), state.Today())
	assert.Equal(t, []model.Date{model.DateOf(nextDay)}, presenter.resets)

	c.Tick()
	assert.Len(t, presenter.resets, 1)
}
