// Package prefs persists per-beneficiary booking preferences. The core
// only reads and writes whole Preference records; it never interprets
// the storage format.
package prefs

import (
	"context"

	"github.com/vietddude/slotbot/internal/core/domain"
)

// Store is the preference persistence contract, keyed by beneficiary
// reference id.
type Store interface {
	// Load returns the stored preference. The second return is false
	// when none exists.
	Load(ctx context.Context, beneficiaryID string) (domain.Preference, bool, error)
	Save(ctx context.Context, beneficiaryID string, pref domain.Preference) error
	Delete(ctx context.Context, beneficiaryID string) error
}

// Config selects and configures the store backend.
type Config struct {
	Backend string `yaml:"backend"` // file, redis
	Dir     string `yaml:"dir"`
}
