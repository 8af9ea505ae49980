package camera

import (
	"fmt"

	"gocv.io/x/gocv"

	"facecounter/internal/logger"
	"facecounter/internal/service"
)

// Frame is a captured BGR image.
type Frame struct {
	Mat gocv.Mat
}

// Close releases the underlying Mat.
func (f *Frame) Close() error {
	return f.Mat.Close()
}

// Camera reads frames from an OpenCV capture device.
type Camera struct {
	capture *gocv.VideoCapture
	device  interface{}
	logger  *logger.Logger
}

// Open opens a capture device by index or by path/URL and requests the
// given frame size. A zero width or height keeps the device default.
func Open(device interface{}, width, height int, logger *logger.Logger) (*Camera, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture device %v: %w", device, err)
	}

	if width > 0 && height > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(height))
	}
	logger.Info("📷 Camera %v opened: %d x %d", device,
		int(capture.Get(gocv.VideoCaptureFrameWidth)), int(capture.Get(gocv.VideoCaptureFrameHeight)))

	return &Camera{capture: capture, device: device, logger: logger}, nil
}

// Read grabs the next frame. It blocks until the device delivers one.
func (c *Camera) Read() (service.Frame, bool) {
	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		return nil, false
	}
	return &Frame{Mat: mat}, true
}

// Close releases the capture device.
func (c *Camera) Close() error {
	if err := c.capture.Close(); err != nil {
		return fmt.Errorf("failed to release capture device %v: %w", c.device, err)
	}
	c.logger.Info("Camera %v released", c.device)
	return nil
}
