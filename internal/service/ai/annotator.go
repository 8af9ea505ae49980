package ai

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"facecounter/internal/model"
	"facecounter/internal/service"
	"facecounter/internal/service/camera"
)

var (
	green = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	blue  = color.RGBA{R: 0, G: 128, B: 255, A: 0}
)

// Annotator draws face boxes and labels onto camera frames.
type Annotator struct{}

// Annotate draws the marks onto a copy of the frame and returns it as JPEG.
// Faces counted on this frame are drawn green, already counted ones blue.
func (Annotator) Annotate(frame service.Frame, marks []model.FaceMark) ([]byte, error) {
	f, ok := frame.(*camera.Frame)
	if !ok {
		return nil, ErrUnsupportedFrame
	}

	mat := f.Mat.Clone()
	defer mat.Close()

	for _, m := range marks {
		c := blue
		if m.Counted {
			c = green
		}

		if err := gocv.Rectangle(&mat, m.Box, c, 2); err != nil {
			return nil, fmt.Errorf("failed to draw rectangle: %v", err)
		}

		pt := image.Pt(m.Box.Min.X, m.Box.Min.Y-5)
		if err := gocv.PutText(&mat, m.Label, pt, gocv.FontHersheySimplex, 0.5, c, 1); err != nil {
			return nil, fmt.Errorf("failed to draw text: %v", err)
		}
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	finalImage := make([]byte, len(buf.GetBytes()))
	copy(finalImage, buf.GetBytes())
	return finalImage, nil
}
