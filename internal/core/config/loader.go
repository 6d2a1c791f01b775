package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.Booking.FindAttempts == 0 {
		cfg.Booking.FindAttempts = 5
	}
	if cfg.Booking.FindInterval == 0 {
		cfg.Booking.FindInterval = 5 * time.Second
	}
	if cfg.Booking.BookAttempts == 0 {
		cfg.Booking.BookAttempts = 5
	}
	if cfg.Booking.BookInterval == 0 {
		cfg.Booking.BookInterval = 3 * time.Second
	}
	if cfg.Booking.RateLimitWait == 0 {
		cfg.Booking.RateLimitWait = 30 * time.Second
	}
	if cfg.Preferences.Backend == "" {
		cfg.Preferences.Backend = "file"
	}
	if cfg.Preferences.Dir == "" {
		cfg.Preferences.Dir = "preferences"
	}
}
