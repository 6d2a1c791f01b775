package config

import (
	"github.com/vietddude/slotbot/internal/booking/engine"
	"github.com/vietddude/slotbot/internal/infra/cowin"
	"github.com/vietddude/slotbot/internal/infra/prefs"
	redisclient "github.com/vietddude/slotbot/internal/infra/redis"
	"github.com/vietddude/slotbot/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server      ServerConfig       `yaml:"server"`
	API         cowin.Config       `yaml:"api"`
	Booking     engine.Config      `yaml:"booking"`
	Preferences prefs.Config       `yaml:"preferences"`
	Redis       redisclient.Config `yaml:"redis"`
	Database    postgres.Config    `yaml:"database"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds the health/metrics endpoint settings. Port 0
// disables the server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}
