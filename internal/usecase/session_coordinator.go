package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/events"
	"github.com/sirupsen/logrus"
)

// CredentialStore persists the raw access token.
type CredentialStore interface {
	Save(ctx context.Context, token string) error
	Get(ctx context.Context) (string, bool)
	Remove(ctx context.Context) error
}

// ExpiringIdentitySource additionally decodes a credential before it is stored
// and reports, once, that the last resolve discarded an expired credential.
type ExpiringIdentitySource interface {
	IdentitySource
	Decode(token string) (*domain.Identity, error)
	ConsumeExpired() bool
}

type SessionOptions struct {
	// KeepGuestCartOnMergeFailure leaves the guest cart in place when the
	// login merge fails so the next login retries it.
	KeepGuestCartOnMergeFailure bool
}

var _ domain.SessionCoordinator = (*sessionCoordinator)(nil)

type sessionCoordinator struct {
	tokens   CredentialStore
	resolver ExpiringIdentitySource
	guest    *GuestCartRepository
	cart     domain.CartAPI
	auth     domain.AuthAPI
	bus      *events.Bus
	log      *logrus.Logger
	opts     SessionOptions

	expired atomic.Bool
}

func NewSessionCoordinator(
	tokens CredentialStore,
	resolver ExpiringIdentitySource,
	guest *GuestCartRepository,
	cart domain.CartAPI,
	auth domain.AuthAPI,
	bus *events.Bus,
	logger *logrus.Logger,
	opts SessionOptions,
) domain.SessionCoordinator {
	return &sessionCoordinator{
		tokens:   tokens,
		resolver: resolver,
		guest:    guest,
		cart:     cart,
		auth:     auth,
		bus:      bus,
		log:      logger,
		opts:     opts,
	}
}

func (c *sessionCoordinator) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	token, err := c.auth.Login(ctx, email, password)
	if err != nil {
		c.log.Warnf("Session: Login rejected: %v", err)
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return c.OnLogin(ctx, token)
}

func (c *sessionCoordinator) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Profile, error) {
	profile, err := c.auth.Signup(ctx, req)
	if err != nil {
		c.log.Warnf("Session: Signup failed: %v", err)
		return nil, fmt.Errorf("signup failed: %w", err)
	}
	return profile, nil
}

// OnLogin stores token, folds the guest cart into the server cart and
// announces the new identity. Merge failures do not fail the login. A token
// that does not decode to a live identity is rejected before anything changes.
func (c *sessionCoordinator) OnLogin(ctx context.Context, token string) (*domain.Identity, error) {
	identity, err := c.resolver.Decode(token)
	if err != nil {
		c.log.Warnf("Session: Rejecting login token: %v", err)
		return nil, fmt.Errorf("login token rejected: %w", err)
	}

	if err := c.tokens.Save(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store credential: %w", err)
	}

	lines, err := c.guest.Read(ctx)
	if err != nil {
		c.log.Warnf("Session: Could not read guest cart for merge: %v", err)
	}

	var mergeErr error
	if len(lines) > 0 {
		items := MergeItems(lines)
		mergeErr = c.cart.MergeCart(ctx, token, items)
		if mergeErr != nil {
			c.log.Warnf("Session: Merging %d guest lines failed: %v", len(items), mergeErr)
		} else {
			c.log.Infof("Session: Merged %d guest lines into server cart", len(items))
		}
	}

	if mergeErr != nil && c.opts.KeepGuestCartOnMergeFailure {
		c.log.Infof("Session: Keeping guest cart for a later merge")
	} else if err := c.guest.Clear(ctx); err != nil {
		c.log.Warnf("Session: %v", err)
	}

	c.expired.Store(false)
	c.log.Infof("Session: User %s signed in", identity.ID)
	c.bus.Publish(events.SessionChanged, identity)
	return identity, nil
}

// OnLogout snapshots the server cart into the guest cart, then drops the credential.
// The snapshot is best effort; only failing to remove the credential is reported.
func (c *sessionCoordinator) OnLogout(ctx context.Context) error {
	if _, ok := c.tokens.Get(ctx); ok {
		records, err := c.cart.FetchCart(ctx)
		if err != nil {
			c.log.Warnf("Session: Cart snapshot skipped, fetch failed: %v", err)
		} else {
			lines := NormalizeRemoteCart(records)
			if err := c.guest.Write(ctx, lines); err != nil {
				c.log.Warnf("Session: Cart snapshot not stored: %v", err)
			} else {
				c.log.Infof("Session: Snapshotted %d server lines into guest cart", len(lines))
			}
		}
	}

	if err := c.tokens.Remove(ctx); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	c.expired.Store(false)
	c.log.Infof("Session: Signed out")
	c.bus.Publish(events.SessionChanged, (*domain.Identity)(nil))
	return nil
}

// Identity recomputes the identity from storage. A credential found expired
// moves the session to guest and is announced once on events.SessionExpired.
func (c *sessionCoordinator) Identity(ctx context.Context) *domain.Identity {
	identity := c.resolver.Resolve(ctx)
	if identity == nil && c.consumeExpiry() {
		c.bus.Publish(events.SessionChanged, (*domain.Identity)(nil))
	}
	return identity
}

// Profile fetches the signed-in user's profile from the backend.
func (c *sessionCoordinator) Profile(ctx context.Context) (*domain.Profile, error) {
	if c.Identity(ctx) == nil {
		return nil, domain.ErrNotAuthenticated
	}
	profile, err := c.auth.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return profile, nil
}

func (c *sessionCoordinator) State(ctx context.Context) domain.SessionState {
	if c.Identity(ctx) != nil {
		return domain.StateAuthenticated
	}
	return domain.StateGuest
}

func (c *sessionCoordinator) ConsumeExpired() bool {
	return c.expired.Swap(false)
}

func (c *sessionCoordinator) Subscribe(handler func(*domain.Identity)) func() {
	return c.bus.Subscribe(events.SessionChanged, func(e events.Event) {
		identity, _ := e.Payload.(*domain.Identity)
		handler(identity)
	})
}

func (c *sessionCoordinator) consumeExpiry() bool {
	if !c.resolver.ConsumeExpired() {
		return false
	}
	c.expired.Store(true)
	c.log.Warnf("Session: Credential expired, continuing as guest")
	c.bus.Publish(events.SessionExpired, nil)
	return true
}
