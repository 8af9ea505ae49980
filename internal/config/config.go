package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// State backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Detector models understood by the face service.
const (
	DetectorHOG = "hog"
	DetectorCNN = "cnn"
)

type Config struct {
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`

	CameraDevice   string  `yaml:"camera_device"`
	FrameWidth     int     `yaml:"frame_width"`
	FrameHeight    int     `yaml:"frame_height"`
	TickIntervalMs int     `yaml:"tick_interval_ms"`
	ModelsDir      string  `yaml:"models_dir"`
	DetectorModel  string  `yaml:"detector_model"` // hog or cnn
	DetectScale    float64 `yaml:"detect_scale"`   // frames are resized by this factor before detection
	ShowWindow     bool    `yaml:"show_window"`

	StateBackend     string `yaml:"state_backend"` // sqlite or file
	StatePath        string `yaml:"state_path"`
	AutosaveInterval int    `yaml:"autosave_interval"` // seconds, 0 disables

	SnapshotDirectory     string `yaml:"snapshot_dir"` // empty disables snapshots
	SnapshotLimit         int    `yaml:"snapshot_limit"`
	SnapshotFlushInterval int    `yaml:"snapshot_flush_interval"` // seconds

	LogDirectory string `yaml:"log_dir"`
	Debug        bool   `yaml:"debug"`
}

// Load reads .env (optional), then the YAML file named by CONFIG_FILE
// (optional), then environment variables. Later sources win.
func Load() (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Port:                  8080,
		Password:              "facecounter",
		CameraDevice:          "0",
		FrameWidth:            640,
		FrameHeight:           480,
		TickIntervalMs:        30,
		ModelsDir:             filepath.Join(".", "models"),
		DetectorModel:         DetectorHOG,
		DetectScale:           1.0,
		StateBackend:          BackendSQLite,
		StatePath:             filepath.Join(".", "data", "attendance.db"),
		AutosaveInterval:      0,
		SnapshotLimit:         20,
		SnapshotFlushInterval: 30,
		LogDirectory:          filepath.Join(".", "logs"),
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvAsInt("PORT", c.Port)
	c.Password = getEnv("PASSWORD", c.Password)
	c.CameraDevice = getEnv("CAMERA_DEVICE", c.CameraDevice)
	c.FrameWidth = getEnvAsInt("FRAME_WIDTH", c.FrameWidth)
	c.FrameHeight = getEnvAsInt("FRAME_HEIGHT", c.FrameHeight)
	c.TickIntervalMs = getEnvAsInt("TICK_INTERVAL_MS", c.TickIntervalMs)
	c.ModelsDir = getEnv("MODELS_DIR", c.ModelsDir)
	c.DetectorModel = strings.ToLower(getEnv("DETECTOR_MODEL", c.DetectorModel))
	c.DetectScale = getEnvAsFloat("DETECT_SCALE", c.DetectScale)
	c.ShowWindow = getEnvAsBool("SHOW_WINDOW", c.ShowWindow)
	c.StateBackend = strings.ToLower(getEnv("STATE_BACKEND", c.StateBackend))
	c.StatePath = getEnv("STATE_PATH", c.StatePath)
	c.AutosaveInterval = getEnvAsInt("AUTOSAVE_INTERVAL", c.AutosaveInterval)
	c.SnapshotDirectory = getEnv("SNAPSHOT_DIR", c.SnapshotDirectory)
	c.SnapshotLimit = getEnvAsInt("SNAPSHOT_LIMIT", c.SnapshotLimit)
	c.SnapshotFlushInterval = getEnvAsInt("SNAPSHOT_FLUSH_INTERVAL", c.SnapshotFlushInterval)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.Debug = getEnvAsBool("DEBUG", c.Debug)
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.StateBackend {
	case BackendSQLite, BackendFile:
	default:
		return fmt.Errorf("unknown state backend %q", c.StateBackend)
	}
	switch c.DetectorModel {
	case DetectorHOG, DetectorCNN:
	default:
		return fmt.Errorf("unknown detector model %q", c.DetectorModel)
	}
	if c.DetectScale <= 0 || c.DetectScale > 1 {
		return fmt.Errorf("detect scale must be in (0, 1], got %v", c.DetectScale)
	}
	if c.TickIntervalMs <= 0 {
		return fmt.Errorf("tick interval must be positive, got %d", c.TickIntervalMs)
	}
	if c.AutosaveInterval < 0 {
		return fmt.Errorf("autosave interval must not be negative, got %d", c.AutosaveInterval)
	}
	if c.SnapshotDirectory != "" && (c.SnapshotLimit <= 0 || c.SnapshotFlushInterval <= 0) {
		return fmt.Errorf("snapshot limit and flush interval must be positive")
	}
	return nil
}

// TickInterval is the counting loop period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMs) * time.Millisecond
}

// Device returns the camera as an index when numeric, otherwise as a
// path or URL, the two forms OpenCV accepts.
func (c *Config) Device() interface{} {
	if id, err := strconv.Atoi(c.CameraDevice); err == nil {
		return id
	}
	return c.CameraDevice
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
