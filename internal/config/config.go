// Package config loads settings from defaults, a YAML file, a .env file and
// environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/progress/internal/store"
	"github.com/example/progress/pkg/models"
)

// EnvStore names the environment variable that overrides the store path or DSN.
const EnvStore = "PROGRESS_STORE"

const appDir = "progress"

// Config holds all settings.
type Config struct {
	Store      StoreConfig  `yaml:"store"`
	Milestones []int        `yaml:"milestones"`
	Review     ReviewConfig `yaml:"review"`
	Remind     RemindConfig `yaml:"remind"`
	Log        LogConfig    `yaml:"log"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `yaml:"backend"` // json, sqlite or postgres
	Path    string `yaml:"path"`    // json and sqlite
	DSN     string `yaml:"dsn"`     // postgres
}

// ReviewConfig tunes the review rule.
type ReviewConfig struct {
	MaxIntervalDays int `yaml:"max_interval_days"` // 0 = uncapped
}

// RemindConfig controls the reminder loop.
type RemindConfig struct {
	Every     time.Duration `yaml:"every"`
	StartHour int           `yaml:"start_hour"`
	EndHour   int           `yaml:"end_hour"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Store:      StoreConfig{Backend: store.BackendJSON},
		Milestones: append([]int(nil), models.DefaultMilestones...),
		Remind: RemindConfig{
			Every:     time.Hour,
			StartHour: 8,
			EndHour:   22,
		},
		Log: LogConfig{Level: "info"},
	}
}

// DefaultDir returns <UserConfigDir>/progress.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, appDir)
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads the config file at path (defaults when it does not exist),
// then loads .env from the working directory and applies environment
// overrides. Variables already set in the environment win over .env.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvStore); v != "" {
		if c.Store.Backend == store.BackendPostgres {
			c.Store.DSN = v
		} else {
			c.Store.Path = v
		}
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendJSON, store.BackendSQLite, store.BackendPostgres:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	for _, m := range c.Milestones {
		if m <= 0 {
			return fmt.Errorf("milestone thresholds must be positive, got %d", m)
		}
	}
	if c.Review.MaxIntervalDays < 0 {
		return fmt.Errorf("review.max_interval_days must not be negative")
	}
	if c.Remind.StartHour < 0 || c.Remind.StartHour > 23 || c.Remind.EndHour < 0 || c.Remind.EndHour > 23 {
		return fmt.Errorf("remind hours must be within 0..23")
	}
	return nil
}

// StoreLocation returns the file path or DSN the configured backend should
// open, falling back to the default state file.
func (c *Config) StoreLocation() string {
	if c.Store.Backend == store.BackendPostgres {
		return c.Store.DSN
	}
	if c.Store.Path != "" {
		return c.Store.Path
	}
	name := "state.json"
	if c.Store.Backend == store.BackendSQLite {
		name = "state.db"
	}
	return filepath.Join(DefaultDir(), name)
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
