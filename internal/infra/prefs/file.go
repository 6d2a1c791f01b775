package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vietddude/slotbot/internal/core/domain"
)

// FileStore keeps one JSON file per beneficiary under a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed preference store rooted at dir.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "preferences"
	}
	return &FileStore{dir: dir}
}

func (s *FileStore) path(beneficiaryID string) string {
	return filepath.Join(s.dir, beneficiaryID+".json")
}

// Load reads the preference file for the beneficiary, if present.
func (s *FileStore) Load(ctx context.Context, beneficiaryID string) (domain.Preference, bool, error) {
	data, err := os.ReadFile(s.path(beneficiaryID))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Preference{}, false, nil
	}
	if err != nil {
		return domain.Preference{}, false, fmt.Errorf("load preference: %w", err)
	}

	var pref domain.Preference
	if err := json.Unmarshal(data, &pref); err != nil {
		return domain.Preference{}, false, fmt.Errorf("load preference: %w", err)
	}
	return pref, true, nil
}

// Save writes the preference file, creating the directory on demand.
func (s *FileStore) Save(ctx context.Context, beneficiaryID string, pref domain.Preference) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	data, err := json.MarshalIndent(pref, "", "  ")
	if err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	if err := os.WriteFile(s.path(beneficiaryID), data, 0o644); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

// Delete removes the preference file. Deleting a missing file is not
// an error.
func (s *FileStore) Delete(ctx context.Context, beneficiaryID string) error {
	err := os.Remove(s.path(beneficiaryID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}
