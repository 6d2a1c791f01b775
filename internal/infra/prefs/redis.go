package prefs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietddude/slotbot/internal/core/domain"
	redisclient "github.com/vietddude/slotbot/internal/infra/redis"
)

// RedisStore keeps one JSON record per beneficiary in Redis.
type RedisStore struct {
	client *redisclient.Client
}

// NewRedisStore creates a Redis-backed preference store.
func NewRedisStore(client *redisclient.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(beneficiaryID string) string {
	return "prefs:" + beneficiaryID
}

// Load reads the stored preference for the beneficiary, if present.
func (s *RedisStore) Load(ctx context.Context, beneficiaryID string) (domain.Preference, bool, error) {
	raw, found, err := s.client.Get(ctx, key(beneficiaryID))
	if err != nil {
		return domain.Preference{}, false, fmt.Errorf("load preference: %w", err)
	}
	if !found {
		return domain.Preference{}, false, nil
	}

	var pref domain.Preference
	if err := json.Unmarshal([]byte(raw), &pref); err != nil {
		return domain.Preference{}, false, fmt.Errorf("load preference: %w", err)
	}
	return pref, true, nil
}

// Save stores the preference record.
func (s *RedisStore) Save(ctx context.Context, beneficiaryID string, pref domain.Preference) error {
	data, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	if err := s.client.Set(ctx, key(beneficiaryID), string(data)); err != nil {
		return fmt.Errorf("save preference: %w", err)
	}
	return nil
}

// Delete removes the preference record.
func (s *RedisStore) Delete(ctx context.Context, beneficiaryID string) error {
	if err := s.client.Del(ctx, key(beneficiaryID)); err != nil {
		return fmt.Errorf("delete preference: %w", err)
	}
	return nil
}
