package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var _ domain.KeyValueStore = (*SealedStore)(nil)

// SealedStore encrypts values with NaCl secretbox before handing them to the
// wrapped store. Keys are stored in the clear.
type SealedStore struct {
	inner domain.KeyValueStore
	key   [32]byte
}

func NewSealedStore(inner domain.KeyValueStore, key *[32]byte) *SealedStore {
	s := &SealedStore{inner: inner}
	copy(s.key[:], key[:])
	return s
}

func (s *SealedStore) Get(ctx context.Context, key string) (string, bool, error) {
	sealed, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	if err != nil || len(raw) < nonceSize {
		return "", false, fmt.Errorf("storage key %q cannot be opened with the configured key: %w", key, domain.ErrUnreadableValue)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	opened, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return "", false, fmt.Errorf("storage key %q cannot be opened with the configured key: %w", key, domain.ErrUnreadableValue)
	}
	return string(opened), true, nil
}

func (s *SealedStore) Set(ctx context.Context, key, value string) error {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &s.key)
	return s.inner.Set(ctx, key, base64.RawStdEncoding.EncodeToString(sealed))
}

func (s *SealedStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}
