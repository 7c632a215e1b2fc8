package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnLoginMergesGuestCartOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.guest.Write(ctx, []domain.CartLine{{ID: "p1", Quantity: 2, Price: 10, Stock: 5}}))
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	var announced []*domain.Identity
	coordinator.Subscribe(func(id *domain.Identity) { announced = append(announced, id) })

	token := mintToken(t, "u1", fixedNow.Add(time.Hour))
	identity, err := coordinator.OnLogin(ctx, token)

	require.NoError(t, err)
	assert.Equal(t, &domain.Identity{ID: "u1"}, identity)
	require.Len(t, h.remote.merges, 1)
	assert.Equal(t, token, h.remote.merges[0].Token)
	assert.Equal(t, []domain.MergeItem{{ItemID: "p1", Quantity: 2}}, h.remote.merges[0].Items)

	_, ok, err := h.kv.Get(ctx, DefaultGuestCartKey)
	require.NoError(t, err)
	assert.False(t, ok, "guest cart is cleared after login")

	stored, ok := h.tokens.Get(ctx)
	assert.True(t, ok)
	assert.Equal(t, token, stored)
	assert.Equal(t, []*domain.Identity{{ID: "u1"}}, announced)
	assert.Equal(t, domain.StateAuthenticated, coordinator.State(ctx))
}

func TestOnLoginWithEmptyGuestCartSkipsMerge(t *testing.T) {
	h := newHarness(t)
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	_, err := coordinator.OnLogin(context.Background(), mintToken(t, "u1", fixedNow.Add(time.Hour)))

	require.NoError(t, err)
	assert.Empty(t, h.remote.merges)
}

func TestOnLoginSwallowsMergeFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.guest.Write(ctx, []domain.CartLine{{ID: "p1", Quantity: 1, Stock: 5}}))
	h.remote.mergeErr = &domain.RemoteError{Op: "CartClient.MergeCart", StatusCode: 500, Message: "boom"}
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	identity, err := coordinator.OnLogin(ctx, mintToken(t, "u1", fixedNow.Add(time.Hour)))

	require.NoError(t, err)
	assert.Equal(t, "u1", identity.ID)
	lines, err := h.guest.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestOnLoginKeepsGuestCartWhenConfigured(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	guestLines := []domain.CartLine{{ID: "p1", Name: "Mug", Quantity: 1, Stock: 5}}
	require.NoError(t, h.guest.Write(ctx, guestLines))
	h.remote.mergeErr = errors.New("offline")
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{KeepGuestCartOnMergeFailure: true})

	_, err := coordinator.OnLogin(ctx, mintToken(t, "u1", fixedNow.Add(time.Hour)))
	require.NoError(t, err)

	lines, err := h.guest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, guestLines, lines)

	h.remote.mergeErr = nil
	_, err = coordinator.OnLogin(ctx, mintToken(t, "u1", fixedNow.Add(time.Hour)))
	require.NoError(t, err)
	assert.Len(t, h.remote.merges, 2)
	lines, err = h.guest.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestOnLoginRejectsUndecodableToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	guestLines := []domain.CartLine{{ID: "p1", Name: "Mug", Quantity: 2, Stock: 5}}
	require.NoError(t, h.guest.Write(ctx, guestLines))
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	var announced int
	coordinator.Subscribe(func(*domain.Identity) { announced++ })

	identity, err := coordinator.OnLogin(ctx, "not-a-jwt")

	assert.Nil(t, identity)
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	_, ok := h.tokens.Get(ctx)
	assert.False(t, ok)
	assert.Empty(t, h.remote.merges)
	assert.Zero(t, announced)
	stored, err := h.guest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, guestLines, stored)
	assert.Equal(t, domain.StateGuest, coordinator.State(ctx))
}

func TestOnLoginRejectsExpiredTokenBeforeMerging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	guestLines := []domain.CartLine{{ID: "p1", Name: "Mug", Quantity: 1, Stock: 5}}
	require.NoError(t, h.guest.Write(ctx, guestLines))
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	identity, err := coordinator.OnLogin(ctx, mintToken(t, "u1", fixedNow.Add(-time.Minute)))

	assert.Nil(t, identity)
	assert.ErrorIs(t, err, domain.ErrExpiredCredential)
	_, ok := h.tokens.Get(ctx)
	assert.False(t, ok)
	assert.Empty(t, h.remote.calls)
	stored, err := h.guest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, guestLines, stored)
	assert.False(t, coordinator.ConsumeExpired(), "a rejected login is not a session expiry")
}

func TestOnLogoutSnapshotsServerCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "u1")
	require.NoError(t, h.guest.Write(ctx, []domain.CartLine{{ID: "stale", Quantity: 1}}))
	h.remote.setRecords(domain.RemoteCartRecord{"item_id": "p2", "name": "Shirt", "price": 20, "quantity": 1, "stock": 3})
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	var announced []*domain.Identity
	coordinator.Subscribe(func(id *domain.Identity) { announced = append(announced, id) })

	require.NoError(t, coordinator.OnLogout(ctx))

	raw, ok, err := h.kv.Get(ctx, DefaultGuestCartKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"p2","name":"Shirt","image":"","price":20,"quantity":1,"stock":3}]`, raw)

	_, ok = h.tokens.Get(ctx)
	assert.False(t, ok, "credential is removed")
	assert.Equal(t, []*domain.Identity{nil}, announced)
	assert.Nil(t, coordinator.Identity(ctx))
}

func TestOnLogoutSwallowsSnapshotFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "u1")
	previous := []domain.CartLine{{ID: "p9", Name: "Hat", Quantity: 1, Stock: 2}}
	require.NoError(t, h.guest.Write(ctx, previous))
	h.remote.fetchErr = errors.New("connection reset")
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	require.NoError(t, coordinator.OnLogout(ctx))

	_, ok := h.tokens.Get(ctx)
	assert.False(t, ok)
	lines, err := h.guest.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, previous, lines)
}

func TestOnLogoutAsGuestSkipsSnapshot(t *testing.T) {
	h := newHarness(t)
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	require.NoError(t, coordinator.OnLogout(context.Background()))
	assert.Zero(t, h.remote.fetches())
}

func TestExpiredCredentialIsAnnouncedOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.tokens.Save(ctx, mintToken(t, "u1", fixedNow.Add(-time.Second))))
	coordinator := h.coordinator(&fakeAuthAPI{}, SessionOptions{})

	expiredEvents := 0
	h.bus.Subscribe(events.SessionExpired, func(events.Event) { expiredEvents++ })

	assert.Nil(t, coordinator.Identity(ctx))
	assert.Equal(t, domain.StateGuest, coordinator.State(ctx))
	assert.Equal(t, 1, expiredEvents)

	_, ok := h.tokens.Get(ctx)
	assert.False(t, ok)
	assert.True(t, coordinator.ConsumeExpired())
	assert.False(t, coordinator.ConsumeExpired())
}

func TestLoginDelegatesToAuthAPI(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	authAPI := &fakeAuthAPI{token: mintToken(t, "u7", fixedNow.Add(time.Hour))}
	coordinator := h.coordinator(authAPI, SessionOptions{})

	identity, err := coordinator.Login(ctx, "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u7", identity.ID)

	authAPI.loginErr = &domain.RemoteError{Op: "AuthClient.Login", StatusCode: 401, Message: "invalid credentials"}
	_, err = coordinator.Login(ctx, "a@b.c", "wrong")
	assert.True(t, domain.IsUnauthorized(err))

	profile, err := coordinator.Signup(ctx, domain.SignupRequest{Email: "n@b.c", Password: "pw", Username: "neo"})
	require.NoError(t, err)
	assert.Equal(t, "neo", profile.Username)
}

func TestProfileRequiresSignedInUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	authAPI := &fakeAuthAPI{profile: &domain.Profile{ID: "u1", Email: "a@b.c"}}
	coordinator := h.coordinator(authAPI, SessionOptions{})

	_, err := coordinator.Profile(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
	assert.Zero(t, authAPI.meCalls)

	h.signIn(t, "u1")
	profile, err := coordinator.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", profile.Email)

	authAPI.meErr = &domain.RemoteError{Op: "AuthClient.Me", StatusCode: 502}
	_, err = coordinator.Profile(ctx)
	assert.ErrorIs(t, err, domain.ErrRemoteCall)
}
