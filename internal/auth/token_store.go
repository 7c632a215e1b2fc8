package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

const DefaultTokenKey = "access_token"

// TokenStore owns the storage slot holding the raw bearer credential.
type TokenStore struct {
	store domain.KeyValueStore
	key   string
	log   *logrus.Logger
}

// NewTokenStore returns a store backed by kv. A nil kv behaves like an
// environment without persistent storage: Get always reports no token.
func NewTokenStore(kv domain.KeyValueStore, key string, logger *logrus.Logger) *TokenStore {
	if key == "" {
		key = DefaultTokenKey
	}
	return &TokenStore{store: kv, key: key, log: logger}
}

func (s *TokenStore) Save(ctx context.Context, token string) error {
	if s.store == nil {
		return errors.New("no persistent storage available for the credential")
	}
	if token == "" {
		return fmt.Errorf("refusing to save empty credential: %w", domain.ErrInvalidCredential)
	}
	if err := s.store.Set(ctx, s.key, token); err != nil {
		s.log.Errorf("TokenStore: Failed to persist credential: %v", err)
		return fmt.Errorf("failed to persist credential: %w", err)
	}
	s.log.Debugf("TokenStore: Saved credential %s...", token[:min(10, len(token))])
	return nil
}

// Get returns the stored credential. Storage read failures are logged and
// reported as an absent token.
func (s *TokenStore) Get(ctx context.Context) (string, bool) {
	if s.store == nil {
		return "", false
	}
	token, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		s.log.Warnf("TokenStore: Failed to read credential, treating as absent: %v", err)
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func (s *TokenStore) Remove(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Remove(ctx, s.key); err != nil {
		s.log.Errorf("TokenStore: Failed to remove credential: %v", err)
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	s.log.Debug("TokenStore: Credential removed")
	return nil
}
