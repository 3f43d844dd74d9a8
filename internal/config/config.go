package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	RecurrencePerTemplate = "per_template"
	RecurrencePerRecord   = "per_record"
)

type Config struct {
	DataDir    string           `yaml:"data_dir" json:"data_dir"`
	Storage    StorageConfig    `yaml:"storage" json:"storage"`
	Recurrence RecurrenceConfig `yaml:"recurrence" json:"recurrence"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry" json:"telemetry"`
}

type StorageConfig struct {
	Backend    string `yaml:"backend" json:"backend"`
	FileName   string `yaml:"file_name" json:"file_name"`
	SQLiteName string `yaml:"sqlite_name" json:"sqlite_name"`
}

type RecurrenceConfig struct {
	Mode string `yaml:"mode" json:"mode"`
}

type MetricsConfig struct {
	StreakLookbackDays int `yaml:"streak_lookback_days" json:"streak_lookback_days"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type TelemetryConfig struct {
	Enabled *bool `yaml:"enabled" json:"enabled,omitempty"`
}

// ActivityEnabled defaults to true when the key is absent.
func (t TelemetryConfig) ActivityEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

func Default() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// DefaultDataDir is ~/.lifetracker, or ./data when there is no home directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "data"
	}
	return filepath.Join(home, ".lifetracker")
}

func (s *StorageConfig) ApplyDefaults() {
	if s.Backend == "" {
		s.Backend = BackendFile
	}
	if s.FileName == "" {
		s.FileName = "blocks.json"
	}
	if s.SQLiteName == "" {
		s.SQLiteName = "blocks.db"
	}
}

func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = DefaultDataDir()
	}
	c.Storage.ApplyDefaults()
	if c.Recurrence.Mode == "" {
		c.Recurrence.Mode = RecurrencePerTemplate
	}
	if c.Metrics.StreakLookbackDays <= 0 {
		c.Metrics.StreakLookbackDays = 365
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("storage.backend: unknown backend %q", c.Storage.Backend)
	}
	switch c.Recurrence.Mode {
	case RecurrencePerTemplate, RecurrencePerRecord:
	default:
		return fmt.Errorf("recurrence.mode: unknown mode %q", c.Recurrence.Mode)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	return nil
}

// Load reads a YAML config file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var r Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}
	r.ApplyDefaults()
	return &r, nil
}
