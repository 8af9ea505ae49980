package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"facecounter/internal/config"
	"facecounter/internal/logger"
)

// SnapshotTimeLayout prefixes every snapshot file name.
const SnapshotTimeLayout = "2006-01-02_15-04-05.000"

type bufferedImage struct {
	Timestamp time.Time
	Label     string
	Data      []byte
}

// BufferService buffers snapshots of counted sightings in memory and
// periodically flushes them to disk.
type BufferService struct {
	imagesDir     string
	limit         int
	flushInterval time.Duration
	images        []bufferedImage
	dropped       int
	mu            sync.Mutex
	logger        *logger.Logger
}

// NewBufferService creates a new BufferService writing to cfg.SnapshotDirectory.
func NewBufferService(cfg *config.Config, logger *logger.Logger) *BufferService {
	return &BufferService{
		imagesDir:     cfg.SnapshotDirectory,
		limit:         cfg.SnapshotLimit,
		flushInterval: time.Duration(cfg.SnapshotFlushInterval) * time.Second,
		images:        make([]bufferedImage, 0),
		logger:        logger,
	}
}

// Dir returns the snapshot directory.
func (s *BufferService) Dir() string {
	return s.imagesDir
}

// Run flushes the buffer on every interval until ctx is cancelled, then
// flushes once more.
func (s *BufferService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.FlushImages()
			return
		case <-ticker.C:
			s.FlushImages()
		}
	}
}

// AddImage buffers a snapshot. Images beyond the limit are dropped until
// the next flush.
func (s *BufferService) AddImage(imageData []byte, label string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.images) >= s.limit {
		s.dropped++
		return
	}

	data := make([]byte, len(imageData))
	copy(data, imageData)
	s.images = append(s.images, bufferedImage{Timestamp: ts, Label: label, Data: data})
	s.logger.Debug("Snapshot buffer: %d/%d", len(s.images), s.limit)
}

// FlushImages writes buffered images to disk and resets the buffer.
func (s *BufferService) FlushImages() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped > 0 {
		s.logger.Warning("Snapshot buffer full, dropped %d snapshot(s)", s.dropped)
		s.dropped = 0
	}

	if len(s.images) == 0 {
		return 0
	}

	if err := os.MkdirAll(s.imagesDir, 0755); err != nil {
		s.logger.Error("Error creating directory: %v", err)
		return 0
	}

	savedCount := 0
	for _, image := range s.images {
		filename := SnapshotName(image.Label, image.Timestamp)
		if err := os.WriteFile(filepath.Join(s.imagesDir, filename), image.Data, 0644); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", filename, err)
			continue
		}
		savedCount++
	}

	s.logger.Info("Flushed %d snapshot(s) to disk", savedCount)
	s.images = s.images[:0]
	return savedCount
}

// SnapshotName builds the file name of a snapshot.
func SnapshotName(label string, ts time.Time) string {
	return fmt.Sprintf("%s_%s.jpg", ts.Format(SnapshotTimeLayout), label)
}

// ParseSnapshotName splits a snapshot file name into label and timestamp.
func ParseSnapshotName(name string) (string, time.Time, error) {
	base := strings.TrimSuffix(name, ".jpg")
	if base == name || len(base) < len(SnapshotTimeLayout)+2 || base[len(SnapshotTimeLayout)] != '_' {
		return "", time.Time{}, fmt.Errorf("not a snapshot name: %q", name)
	}

	ts, err := time.ParseInLocation(SnapshotTimeLayout, base[:len(SnapshotTimeLayout)], time.Local)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("not a snapshot name: %q: %w", name, err)
	}
	return base[len(SnapshotTimeLayout)+1:], ts, nil
}
