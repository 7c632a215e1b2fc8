package auth

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// IdentityResolver derives the current user from the stored credential. It never
// caches: every call reads storage and the clock again.
type IdentityResolver struct {
	tokens  *TokenStore
	now     func() time.Time
	log     *logrus.Logger
	expired atomic.Bool
}

type ResolverOption func(*IdentityResolver)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *IdentityResolver) { r.now = now }
}

func NewIdentityResolver(tokens *TokenStore, logger *logrus.Logger, opts ...ResolverOption) *IdentityResolver {
	r := &IdentityResolver{
		tokens: tokens,
		now:    time.Now,
		log:    logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the identity carried by the stored credential, or nil for a
// guest. Undecodable and expired credentials are purged from storage.
func (r *IdentityResolver) Resolve(ctx context.Context) *domain.Identity {
	token, ok := r.tokens.Get(ctx)
	if !ok {
		return nil
	}

	identity, err := DecodeIdentity(token, r.now())
	if err == nil {
		return identity
	}

	if errors.Is(err, domain.ErrExpiredCredential) {
		r.log.Warnf("Resolver: Credential expired, removing it: %v", err)
		r.expired.Store(true)
	} else {
		r.log.Errorf("Resolver: Failed to decode credential, removing it: %v", err)
	}
	if rmErr := r.tokens.Remove(ctx); rmErr != nil {
		r.log.Errorf("Resolver: Could not purge rejected credential: %v", rmErr)
	}
	return nil
}

// Decode checks a credential against the resolver's clock without touching storage.
func (r *IdentityResolver) Decode(token string) (*domain.Identity, error) {
	return DecodeIdentity(token, r.now())
}

// ConsumeExpired reports whether an expiry was detected since the last call.
func (r *IdentityResolver) ConsumeExpired() bool {
	return r.expired.Swap(false)
}

// DecodeIdentity reads the claims of a JWT without verifying its signature; the
// backend does verification. It fails with domain.ErrInvalidCredential when the
// token cannot be decoded or has no subject, and with domain.ErrExpiredCredential
// when exp is at or before now.
func DecodeIdentity(token string, now time.Time) (*domain.Identity, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredential, err)
	}

	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: expired at %s", domain.ErrExpiredCredential, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject claim", domain.ErrInvalidCredential)
	}
	return &domain.Identity{ID: claims.Subject}, nil
}
