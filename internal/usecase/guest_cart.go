package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/sirupsen/logrus"
)

const DefaultGuestCartKey = "guest_cart"

// GuestCartRepository keeps the guest cart as a JSON array under a single key.
type GuestCartRepository struct {
	kv  domain.KeyValueStore
	key string
	log *logrus.Logger
}

func NewGuestCartRepository(kv domain.KeyValueStore, key string, logger *logrus.Logger) *GuestCartRepository {
	if key == "" {
		key = DefaultGuestCartKey
	}
	return &GuestCartRepository{kv: kv, key: key, log: logger}
}

// Read returns the stored lines, normalized. An absent, unreadable or
// unparseable value reads as an empty cart; only storage failures are reported.
func (r *GuestCartRepository) Read(ctx context.Context) ([]domain.CartLine, error) {
	if r.kv == nil {
		return []domain.CartLine{}, nil
	}
	raw, ok, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, domain.ErrUnreadableValue) {
		r.log.Warnf("GuestCart: Ignoring unreadable guest cart under %q: %v", r.key, err)
		return []domain.CartLine{}, nil
	}
	if err != nil {
		return []domain.CartLine{}, fmt.Errorf("failed to read guest cart: %w", err)
	}
	if !ok || raw == "" {
		return []domain.CartLine{}, nil
	}
	var lines []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		r.log.Warnf("GuestCart: Ignoring unparseable guest cart under %q: %v", r.key, err)
		return []domain.CartLine{}, nil
	}
	return NormalizeLines(lines), nil
}

func (r *GuestCartRepository) Write(ctx context.Context, lines []domain.CartLine) error {
	if r.kv == nil {
		return nil
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	payload, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode guest cart: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, string(payload)); err != nil {
		return fmt.Errorf("failed to write guest cart: %w", err)
	}
	return nil
}

// Clear removes the guest cart entirely. Clearing an absent cart is not an error.
func (r *GuestCartRepository) Clear(ctx context.Context) error {
	if r.kv == nil {
		return nil
	}
	if err := r.kv.Remove(ctx, r.key); err != nil {
		return fmt.Errorf("failed to clear guest cart: %w", err)
	}
	return nil
}
