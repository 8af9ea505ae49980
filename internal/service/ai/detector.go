package ai

import (
	"errors"
	"fmt"
	"image"
	"sync"

	face "github.com/Kagami/go-face"
	"gocv.io/x/gocv"

	"facecounter/internal/config"
	"facecounter/internal/logger"
	"facecounter/internal/model"
	"facecounter/internal/service"
	"facecounter/internal/service/camera"
)

var (
	// ErrUnsupportedFrame is returned for frames not produced by the camera package.
	ErrUnsupportedFrame = errors.New("unsupported frame type")
	// ErrModelNotLoaded is returned after the recognizer has been closed.
	ErrModelNotLoaded = errors.New("face models not loaded")
)

// DetectorService finds faces with dlib and computes their 128-d descriptors.
type DetectorService struct {
	rec    *face.Recognizer
	cnn    bool
	scale  float64
	mu     sync.Mutex
	logger *logger.Logger
}

// NewDetectorService loads the dlib models from cfg.ModelsDir. The directory
// must hold shape_predictor_5_face_landmarks.dat and
// dlib_face_recognition_resnet_model_v1.dat, plus mmod_human_face_detector.dat
// when the cnn detector is selected.
func NewDetectorService(cfg *config.Config, logger *logger.Logger) (*DetectorService, error) {
	rec, err := face.NewRecognizer(cfg.ModelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load face models from %s: %w", cfg.ModelsDir, err)
	}

	scale := cfg.DetectScale
	if scale <= 0 {
		scale = 1
	}

	logger.Info("Face detector initialized (%s, scale %.2f)", cfg.DetectorModel, scale)
	return &DetectorService{
		rec:    rec,
		cnn:    cfg.DetectorModel == config.DetectorCNN,
		scale:  scale,
		logger: logger,
	}, nil
}

// Detect returns every face in the frame with its box in frame coordinates.
func (s *DetectorService) Detect(frame service.Frame) ([]model.Face, error) {
	f, ok := frame.(*camera.Frame)
	if !ok {
		return nil, ErrUnsupportedFrame
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec == nil {
		return nil, ErrModelNotLoaded
	}

	src := f.Mat
	if s.scale != 1 {
		small := gocv.NewMat()
		defer small.Close()
		gocv.Resize(f.Mat, &small, image.Point{}, s.scale, s.scale, gocv.InterpolationLinear)
		if small.Empty() {
			return nil, fmt.Errorf("failed to resize frame")
		}
		src = small
	}

	// go-face only accepts encoded JPEG.
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, src)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	var found []face.Face
	if s.cnn {
		found, err = s.rec.RecognizeCNN(buf.GetBytes())
	} else {
		found, err = s.rec.Recognize(buf.GetBytes())
	}
	if err != nil {
		return nil, fmt.Errorf("face recognition failed: %w", err)
	}

	faces := make([]model.Face, 0, len(found))
	for _, fc := range found {
		faces = append(faces, model.Face{
			Box:       unscale(fc.Rectangle, s.scale),
			Embedding: model.Embedding(fc.Descriptor),
		})
	}
	if len(faces) > 0 {
		s.logger.Debug("Detected %d face(s)", len(faces))
	}
	return faces, nil
}

// Close releases the dlib models.
func (s *DetectorService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec != nil {
		s.rec.Close()
		s.rec = nil
	}
}

func unscale(r image.Rectangle, scale float64) image.Rectangle {
	if scale == 1 {
		return r
	}
	return image.Rect(
		int(float64(r.Min.X)/scale),
		int(float64(r.Min.Y)/scale),
		int(float64(r.Max.X)/scale),
		int(float64(r.Max.Y)/scale),
	)
}
