package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/auth"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/events"
	"github.com/AkshadGawde/Astrape-Ecommerce/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type mergeCall struct {
	Token string
	Items []domain.MergeItem
}

// fakeCartAPI behaves like a small server-side cart keyed by item_id.
type fakeCartAPI struct {
	mu         sync.Mutex
	records    []domain.RemoteCartRecord
	fetchGate  chan struct{}
	fetchErr   error
	addErr     error
	updateErr  error
	removeErr  error
	mergeErr   error
	fetchCount int
	calls      []string
	merges     []mergeCall
}

var _ domain.CartAPI = (*fakeCartAPI)(nil)

func (f *fakeCartAPI) FetchCart(ctx context.Context) ([]domain.RemoteCartRecord, error) {
	f.mu.Lock()
	gate := f.fetchGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCount++
	f.calls = append(f.calls, "fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]domain.RemoteCartRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeCartAPI) AddItem(_ context.Context, itemID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "add:"+itemID)
	if f.addErr != nil {
		return f.addErr
	}
	for _, r := range f.records {
		if r["item_id"] == itemID {
			r["quantity"] = r["quantity"].(int) + quantity
			return nil
		}
	}
	f.records = append(f.records, domain.RemoteCartRecord{"item_id": itemID, "quantity": quantity, "stock": 10})
	return nil
}

func (f *fakeCartAPI) UpdateItem(_ context.Context, itemID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "update:"+itemID)
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, r := range f.records {
		if r["item_id"] == itemID {
			r["quantity"] = quantity
		}
	}
	return nil
}

func (f *fakeCartAPI) RemoveItem(_ context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "remove:"+itemID)
	if f.removeErr != nil {
		return f.removeErr
	}
	kept := f.records[:0]
	for _, r := range f.records {
		if r["item_id"] != itemID {
			kept = append(kept, r)
		}
	}
	f.records = kept
	return nil
}

func (f *fakeCartAPI) MergeCart(_ context.Context, token string, items []domain.MergeItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "merge")
	f.merges = append(f.merges, mergeCall{Token: token, Items: items})
	return f.mergeErr
}

func (f *fakeCartAPI) setFetchGate(gate chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchGate = gate
}

func (f *fakeCartAPI) setRecords(records ...domain.RemoteCartRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
}

func (f *fakeCartAPI) quantityOf(itemID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r["item_id"] == itemID {
			return r["quantity"].(int)
		}
	}
	return 0
}

func (f *fakeCartAPI) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCount
}

type fakeAuthAPI struct {
	token    string
	loginErr error
	meErr    error
	profile  *domain.Profile
	meCalls  int
}

var _ domain.AuthAPI = (*fakeAuthAPI)(nil)

func (f *fakeAuthAPI) Login(context.Context, string, string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

func (f *fakeAuthAPI) Signup(_ context.Context, req domain.SignupRequest) (*domain.Profile, error) {
	if f.profile != nil {
		return f.profile, nil
	}
	return &domain.Profile{ID: "new", Email: req.Email, Username: req.Username}, nil
}

func (f *fakeAuthAPI) Me(context.Context) (*domain.Profile, error) {
	f.meCalls++
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.profile, nil
}

// harness wires the real token store, resolver and guest repository over memory storage.
type harness struct {
	kv       *storage.MemoryStore
	tokens   *auth.TokenStore
	resolver *auth.IdentityResolver
	guest    *GuestCartRepository
	remote   *fakeCartAPI
	bus      *events.Bus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := storage.NewMemoryStore()
	tokens := auth.NewTokenStore(kv, auth.DefaultTokenKey, quietLogger())
	return &harness{
		kv:       kv,
		tokens:   tokens,
		resolver: auth.NewIdentityResolver(tokens, quietLogger(), auth.WithClock(func() time.Time { return fixedNow })),
		guest:    NewGuestCartRepository(kv, DefaultGuestCartKey, quietLogger()),
		remote:   &fakeCartAPI{},
		bus:      events.NewBus(),
	}
}

func (h *harness) cartStore(t *testing.T) domain.CartStore {
	t.Helper()
	store := NewCartStore(h.resolver, h.remote, h.guest, h.bus, time.Second, quietLogger())
	t.Cleanup(store.Close)
	return store
}

func (h *harness) coordinator(authAPI domain.AuthAPI, opts SessionOptions) domain.SessionCoordinator {
	return NewSessionCoordinator(h.tokens, h.resolver, h.guest, h.remote, authAPI, h.bus, quietLogger(), opts)
}

func mintToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// signIn stores a valid credential directly, bypassing the login flow.
func (h *harness) signIn(t *testing.T, subject string) string {
	t.Helper()
	token := mintToken(t, subject, fixedNow.Add(time.Hour))
	require.NoError(t, h.tokens.Save(context.Background(), token))
	return token
}
