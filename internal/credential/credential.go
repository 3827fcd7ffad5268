// Package credential keeps the Gemini API key in the key/value store.
package credential

import (
	"fmt"

	"github.com/mrbaitop40-blip/veo/internal/genai"
)

const storageKey = "gemini-api-key"

// KVStore is the persistence surface the vault needs.
type KVStore interface {
	GetValue(key string) (string, bool, error)
	SetValue(key, value string) error
	DeleteValue(key string) error
}

// Service stores and serves the API key. It satisfies genai.KeySource.
type Service struct {
	kv KVStore
}

func NewService(kv KVStore) *Service {
	return &Service{kv: kv}
}

// APIKey returns the stored key, or genai.ErrAPIKeyMissing when none is
// configured.
func (s *Service) APIKey() (string, error) {
	key, ok, err := s.kv.GetValue(storageKey)
	if err != nil {
		return "", fmt.Errorf("credential: read key: %w", err)
	}
	if !ok || key == "" {
		return "", genai.ErrAPIKeyMissing
	}
	return key, nil
}

// Set stores the key.
func (s *Service) Set(key string) error {
	if key == "" {
		return fmt.Errorf("credential: empty key")
	}
	if err := s.kv.SetValue(storageKey, key); err != nil {
		return fmt.Errorf("credential: store key: %w", err)
	}
	return nil
}

// Clear removes the stored key.
func (s *Service) Clear() error {
	if err := s.kv.DeleteValue(storageKey); err != nil {
		return fmt.Errorf("credential: clear key: %w", err)
	}
	return nil
}

// Configured reports whether a non-empty key is stored.
func (s *Service) Configured() (bool, error) {
	key, ok, err := s.kv.GetValue(storageKey)
	if err != nil {
		return false, fmt.Errorf("credential: read key: %w", err)
	}
	return ok && key != "", nil
}
