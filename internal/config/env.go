package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides config values from environment variables.
// Unset or malformed variables leave the current value alone.
func (c *Config) ApplyEnv() {
	if val := getEnv("LIFETRACKER_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := getEnv("LIFETRACKER_STORAGE"); val != "" {
		c.Storage.Backend = strings.ToLower(val)
	}
	if val := getEnv("LIFETRACKER_RECURRENCE_MODE"); val != "" {
		c.Recurrence.Mode = strings.ToLower(val)
	}
	if val := getEnvInt("LIFETRACKER_STREAK_LOOKBACK_DAYS"); val > 0 {
		c.Metrics.StreakLookbackDays = val
	}
	if val := getEnv("LIFETRACKER_TELEMETRY"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Telemetry.Enabled = &b
		}
	}
	if val := getEnv("LOG_LEVEL"); val != "" {
		c.Logging.Level = strings.ToLower(val)
	}
	if val := getEnv("LOG_FORMAT"); val != "" {
		c.Logging.Format = strings.ToLower(val)
	}
}

// FromEnv loads the config file at path and applies environment overrides.
func FromEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnvInt(key string) int {
	val := getEnv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}
