package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort               = 8080
	defaultDataDir            = "data"
	defaultMaxConcurrentTasks = 3
	defaultViewportWidth      = 1280
	defaultViewportHeight     = 800
	defaultSnapThreshold      = 20
	defaultWindowWidth        = 640
	defaultWindowHeight       = 480
	defaultMinWindowWidth     = 240
	defaultMinWindowHeight    = 160
	defaultRevokeDelaySec     = 30
)

// Viewport describes the logical desktop area windows are clamped against.
type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config describes runtime configuration for the service.
type Config struct {
	Port               int      `yaml:"port"`
	DataDir            string   `yaml:"data_dir"`
	MaxConcurrentTasks int      `yaml:"max_concurrent_tasks"`
	Viewport           Viewport `yaml:"viewport"`
	SnapThreshold      int      `yaml:"snap_threshold"`
	WindowWidth        int      `yaml:"window_width"`
	WindowHeight       int      `yaml:"window_height"`
	MinWindowWidth     int      `yaml:"min_window_width"`
	MinWindowHeight    int      `yaml:"min_window_height"`
	RevokeDelaySec     int      `yaml:"revoke_delay_sec"`
}

// Default returns sane defaults for a local shell instance.
func Default() Config {
	return Config{
		Port:               defaultPort,
		DataDir:            defaultDataDir,
		MaxConcurrentTasks: defaultMaxConcurrentTasks,
		Viewport:           Viewport{Width: defaultViewportWidth, Height: defaultViewportHeight},
		SnapThreshold:      defaultSnapThreshold,
		WindowWidth:        defaultWindowWidth,
		WindowHeight:       defaultWindowHeight,
		MinWindowWidth:     defaultMinWindowWidth,
		MinWindowHeight:    defaultMinWindowHeight,
		RevokeDelaySec:     defaultRevokeDelaySec,
	}
}

// RevokeDelay returns the staged-export revocation delay as a duration.
func (c Config) RevokeDelay() time.Duration {
	return time.Duration(c.RevokeDelaySec) * time.Second
}

// Load reads YAML config from the provided path. If the file does not exist
// or is empty, defaults are returned with no error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	fileData, err := os.ReadFile(path) //nolint:gosec // config path is controlled by deployment
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if len(fileData) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(fileData, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	// basic normalization
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir
	}
	if cfg.Viewport.Width <= 0 {
		cfg.Viewport.Width = defaultViewportWidth
	}
	if cfg.Viewport.Height <= 0 {
		cfg.Viewport.Height = defaultViewportHeight
	}
	if cfg.WindowWidth <= 0 {
		cfg.WindowWidth = defaultWindowWidth
	}
	if cfg.WindowHeight <= 0 {
		cfg.WindowHeight = defaultWindowHeight
	}
	if cfg.MinWindowWidth <= 0 {
		cfg.MinWindowWidth = defaultMinWindowWidth
	}
	if cfg.MinWindowHeight <= 0 {
		cfg.MinWindowHeight = defaultMinWindowHeight
	}
	if cfg.RevokeDelaySec <= 0 {
		cfg.RevokeDelaySec = defaultRevokeDelaySec
	}
	// validate explicitly: values < 1 are not allowed
	if cfg.MaxConcurrentTasks < 1 {
		return cfg, fmt.Errorf("invalid max_concurrent_tasks: %d (must be >= 1)", cfg.MaxConcurrentTasks)
	}
	if cfg.SnapThreshold < 0 {
		return cfg, fmt.Errorf("invalid snap_threshold: %d (must be >= 0)", cfg.SnapThreshold)
	}
	if cfg.SnapThreshold == 0 {
		cfg.SnapThreshold = defaultSnapThreshold
	}
	return cfg, nil
}
