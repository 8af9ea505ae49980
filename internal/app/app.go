package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"facecounter/internal/attendance"
	"facecounter/internal/config"
	"facecounter/internal/logger"
	"facecounter/internal/repository"
	"facecounter/internal/route"
	"facecounter/internal/service"
	"facecounter/internal/service/ai"
	"facecounter/internal/service/camera"
	"facecounter/internal/service/storage"
	"facecounter/internal/service/websocket"
)

// ShutdownTimeout bounds the HTTP server shutdown.
const ShutdownTimeout = 5 * time.Second

type App struct {
	config        *config.Config
	logger        *logger.Logger
	store         repository.StateStore
	state         *attendance.State
	camera        *camera.Camera
	detector      *ai.DetectorService
	hubService    *websocket.HubService
	bufferService *storage.BufferService
	window        *camera.WindowPresenter
	counter       *service.Counter
	server        *http.Server
}

// NewApp loads the persisted state and opens the face models and the camera.
// A corrupt state resource is an error; it is left as it is on disk.
func NewApp(cfg *config.Config, logger *logger.Logger) (*App, error) {
	store, state, err := loadState(cfg, logger)
	if err != nil {
		return nil, err
	}

	detector, err := ai.NewDetectorService(cfg, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	cam, err := camera.Open(cfg.Device(), cfg.FrameWidth, cfg.FrameHeight, logger)
	if err != nil {
		detector.Close()
		store.Close()
		return nil, err
	}

	hub := websocket.NewHubService(logger)
	counter := service.NewCounter(state, cam, detector, ai.Annotator{}, cfg.TickInterval(), logger)
	counter.AddPresenter(websocket.NewPresenter(hub, logger))

	a := &App{
		config:     cfg,
		logger:     logger,
		store:      store,
		state:      state,
		camera:     cam,
		detector:   detector,
		hubService: hub,
		counter:    counter,
	}

	if cfg.ShowWindow {
		a.window = camera.NewWindowPresenter("facecounter", logger)
		counter.AddPresenter(a.window)
	}
	if cfg.SnapshotDirectory != "" {
		a.bufferService = storage.NewBufferService(cfg, logger)
		counter.SetSnapshotSink(a.bufferService)
	}

	a.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: route.SetupRoutes(state, hub, cfg, logger),
	}
	return a, nil
}

// loadState opens the configured store and restores the application state from it.
func loadState(cfg *config.Config, logger *logger.Logger) (repository.StateStore, *attendance.State, error) {
	store, err := repository.OpenStateStore(cfg.StateBackend, cfg.StatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}

	snap, err := store.Load()
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load state from %s: %w", cfg.StatePath, err)
	}

	state := attendance.NewState(uuid.NewString())
	state.Restore(snap, time.Now())
	logger.Info("State loaded from %s (%s): %d known faces, %d counted today",
		cfg.StatePath, cfg.StateBackend, state.KnownCount(), state.Count())
	return store, state, nil
}

// Run serves until ctx is cancelled or the HTTP server fails, then shuts
// everything down in order: counting loop, camera, background services,
// state save, store, HTTP server.
func (a *App) Run(ctx context.Context) error {
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	bgCtx, cancelBg := context.WithCancel(context.Background())

	var loopWG, bgWG sync.WaitGroup

	bgWG.Add(1)
	go func() {
		defer bgWG.Done()
		a.hubService.Run(bgCtx)
	}()

	if a.bufferService != nil {
		bgWG.Add(1)
		go func() {
			defer bgWG.Done()
			a.bufferService.Run(bgCtx)
		}()
	}

	if a.config.AutosaveInterval > 0 {
		bgWG.Add(1)
		go func() {
			defer bgWG.Done()
			a.autosave(bgCtx, time.Duration(a.config.AutosaveInterval)*time.Second)
		}()
	}

	if a.window != nil {
		bgWG.Add(1)
		go func() {
			defer bgWG.Done()
			a.window.Run(bgCtx)
		}()
	}

	loopWG.Add(1)
	go func() {
		defer loopWG.Done()
		a.counter.Run(loopCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	a.logger.Info("🚀 Face counter")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("💾 State: %s (%s)", a.config.StatePath, a.config.StateBackend)
	if a.bufferService != nil {
		a.logger.Info("📁 Snapshots: %s", a.bufferService.Dir())
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server failed: %w", err)
		a.logger.Error("%v", runErr)
	}

	cancelLoop()
	loopWG.Wait()

	if err := a.camera.Close(); err != nil {
		a.logger.Error("%v", err)
	}
	a.detector.Close()

	cancelBg()
	bgWG.Wait()

	if err := a.save(); err != nil {
		a.logger.Error("State not saved, changes since the last save are lost: %v", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("Failed to close state store: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown: %v", err)
	}

	return runErr
}

// autosave writes the whole state every interval until ctx is cancelled.
func (a *App) autosave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.save(); err != nil {
				a.logger.Error("Autosave failed: %v", err)
			}
		}
	}
}

func (a *App) save() error {
	return saveState(a.store, a.state, a.logger)
}

func saveState(store repository.StateStore, state *attendance.State, logger *logger.Logger) error {
	snap := state.Snapshot()
	if err := store.Save(snap); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	records := 0
	for _, day := range snap.History {
		records += len(day)
	}
	logger.Info("State saved: %d known faces, %d records over %d days", len(snap.Identities), records, len(snap.History))
	return nil
}
