package camera

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"gocv.io/x/gocv"

	"facecounter/internal/logger"
	"facecounter/internal/model"
)

// WindowPresenter shows annotated frames in a local OpenCV window.
// HighGUI calls must stay on one OS thread, so all drawing happens in Run.
type WindowPresenter struct {
	title  string
	frames chan []byte
	count  atomic.Int64
	logger *logger.Logger
}

// NewWindowPresenter creates a presenter; nothing is shown until Run.
func NewWindowPresenter(title string, logger *logger.Logger) *WindowPresenter {
	return &WindowPresenter{
		title:  title,
		frames: make(chan []byte, 1),
		logger: logger,
	}
}

// ShowFrame queues a frame. The frame is dropped if the window is busy.
func (w *WindowPresenter) ShowFrame(jpeg []byte) {
	select {
	case w.frames <- jpeg:
	default:
	}
}

// ShowSighting updates the counter shown in the window title.
func (w *WindowPresenter) ShowSighting(s model.Sighting) {
	w.count.Store(int64(s.Count))
}

// ShowCount resets the counter shown in the window title.
func (w *WindowPresenter) ShowCount(_ model.Date, count int) {
	w.count.Store(int64(count))
}

// Run owns the window until ctx is cancelled or the window is closed with Esc.
func (w *WindowPresenter) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	window := gocv.NewWindow(w.title)
	defer window.Close()

	shown := int64(-1)
	for {
		select {
		case <-ctx.Done():
			return
		case img := <-w.frames:
			mat, err := gocv.IMDecode(img, gocv.IMReadColor)
			if err != nil {
				w.logger.Error("Failed to decode frame for window: %v", err)
				continue
			}
			if count := w.count.Load(); count != shown {
				window.SetWindowTitle(fmt.Sprintf("%s - today: %d", w.title, count))
				shown = count
			}
			window.IMShow(mat)
			mat.Close()
			if window.WaitKey(1) == 27 {
				w.logger.Info("Preview window closed")
				return
			}
		}
	}
}
