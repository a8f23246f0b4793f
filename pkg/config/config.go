// Package config loads and validates the engine configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paneshell/paneshell/pkg/model"
)

// Defaults applied to zero-value fields after loading.
const (
	DefaultMaxConcurrentViews = 20
	DefaultDebounce           = 250 * time.Millisecond
	DefaultAutosaveDelay      = 2 * time.Second
	DefaultSaveTimeout        = 5 * time.Second
	DefaultMaxSaveAttempts    = 4
	DefaultSampleInterval     = 5 * time.Second
	DefaultResponseThreshold  = 200.0 // ms
	DefaultHistorySize        = 60
	DefaultRecoveryCooldown   = 30 * time.Second
	DefaultPasteOffset        = 2
)

// Config holds all tunables for the orchestration engine.
type Config struct {
	// MaxConcurrentViews caps the number of views per layout. Mutations
	// beyond the cap are rejected, not truncated.
	MaxConcurrentViews int `yaml:"max_concurrent_views"`

	// Debounce is the settle window for viewport resize bursts.
	Debounce time.Duration `yaml:"debounce"`

	// DefaultBreakpoint is used when no viewport measurement is available.
	DefaultBreakpoint model.Breakpoint `yaml:"default_breakpoint"`

	// AutosaveDelay is the quiet period after the last dirty mutation
	// before a save is attempted.
	AutosaveDelay time.Duration `yaml:"autosave_delay"`

	// SaveTimeout bounds each persistence attempt.
	SaveTimeout time.Duration `yaml:"save_timeout"`

	// MaxSaveAttempts bounds autosave retries (with exponential backoff).
	MaxSaveAttempts int `yaml:"max_save_attempts"`

	// SampleInterval is the performance sampling period.
	SampleInterval time.Duration `yaml:"sample_interval"`

	// ResponseThresholdMs triggers optimization recommendations when the
	// rolling mean response time exceeds it.
	ResponseThresholdMs float64 `yaml:"response_threshold_ms"`

	// HistorySize bounds the rolling performance snapshot history.
	HistorySize int `yaml:"history_size"`

	// RecoveryCooldown is how long recovery mode persists after the last
	// recorded critical error.
	RecoveryCooldown time.Duration `yaml:"recovery_cooldown"`

	// PasteOffset shifts pasted views so they never exactly overlap
	// their source.
	PasteOffset int `yaml:"paste_offset"`

	// DBPath locates the layout database. Empty means the per-user default.
	DBPath string `yaml:"db_path"`

	// SpoolPath locates the remote-update spool file tailed by the syncer.
	SpoolPath string `yaml:"spool_path"`
}

// Default returns a config with every field at its default.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the config from path. A missing file is not an error: the
// defaults are returned so the shell works out of the box.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "paneshell.yaml")
	}
	return filepath.Join(dir, "paneshell", "config.yaml")
}

func (c *Config) applyDefaults() {
	if c.MaxConcurrentViews == 0 {
		c.MaxConcurrentViews = DefaultMaxConcurrentViews
	}
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	}
	if c.DefaultBreakpoint == "" {
		c.DefaultBreakpoint = model.BreakpointDesktop
	}
	if c.AutosaveDelay == 0 {
		c.AutosaveDelay = DefaultAutosaveDelay
	}
	if c.SaveTimeout == 0 {
		c.SaveTimeout = DefaultSaveTimeout
	}
	if c.MaxSaveAttempts == 0 {
		c.MaxSaveAttempts = DefaultMaxSaveAttempts
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = DefaultSampleInterval
	}
	if c.ResponseThresholdMs == 0 {
		c.ResponseThresholdMs = DefaultResponseThreshold
	}
	if c.HistorySize == 0 {
		c.HistorySize = DefaultHistorySize
	}
	if c.RecoveryCooldown == 0 {
		c.RecoveryCooldown = DefaultRecoveryCooldown
	}
	if c.PasteOffset == 0 {
		c.PasteOffset = DefaultPasteOffset
	}
}

// Validate checks that loaded values are usable.
func (c *Config) Validate() error {
	if c.MaxConcurrentViews < 1 {
		return fmt.Errorf("max_concurrent_views must be at least 1, got %d", c.MaxConcurrentViews)
	}
	if !c.DefaultBreakpoint.IsValid() {
		return fmt.Errorf("invalid default_breakpoint: %s", c.DefaultBreakpoint)
	}
	if c.MaxSaveAttempts < 1 {
		return fmt.Errorf("max_save_attempts must be at least 1, got %d", c.MaxSaveAttempts)
	}
	if c.Debounce < 0 || c.AutosaveDelay < 0 || c.SampleInterval < 0 {
		return fmt.Errorf("intervals cannot be negative")
	}
	return nil
}
