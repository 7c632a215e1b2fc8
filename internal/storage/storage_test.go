package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/AkshadGawde/Astrape-Ecommerce/internal/domain"
	"github.com/AkshadGawde/Astrape-Ecommerce/pkg/db"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// exerciseStore runs the get/set/remove contract against any implementation.
func exerciseStore(t *testing.T, store domain.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "guest_cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "guest_cart", `[{"id":"p1"}]`))
	require.NoError(t, store.Set(ctx, "access_token", "tok"))

	value, ok, err := store.Get(ctx, "guest_cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"p1"}]`, value)

	require.NoError(t, store.Set(ctx, "guest_cart", "[]"))
	value, _, err = store.Get(ctx, "guest_cart")
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	require.NoError(t, store.Remove(ctx, "access_token"))
	require.NoError(t, store.Remove(ctx, "access_token"))
	_, ok, err = store.Get(ctx, "access_token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store, err := NewFileStore(path, quietLogger())
	require.NoError(t, err)

	exerciseStore(t, store)

	reopened, err := NewFileStore(path, quietLogger())
	require.NoError(t, err)
	value, ok, err := reopened.Get(context.Background(), "guest_cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)
}

func TestFileStoreTreatsCorruptFileAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewFileStore(path, quietLogger())
	require.NoError(t, err)

	_, ok, err := store.Get(context.Background(), "guest_cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(context.Background(), "guest_cart", "[]"))
	value, ok, err := store.Get(context.Background(), "guest_cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)
}

func TestSealedStore(t *testing.T) {
	inner := NewMemoryStore()
	key := &[32]byte{1, 2, 3}
	sealed := NewSealedStore(inner, key)

	exerciseStore(t, sealed)

	require.NoError(t, sealed.Set(context.Background(), "access_token", "secret-token"))
	raw, ok, err := inner.Get(context.Background(), "access_token")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "secret-token")

	other := NewSealedStore(inner, &[32]byte{9})
	_, ok, err = other.Get(context.Background(), "access_token")
	require.ErrorIs(t, err, domain.ErrUnreadableValue)
	assert.False(t, ok)
}

func TestPostgresStoreIntegration(t *testing.T) {
	dsn := os.Getenv("STOREFRONT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DATABASE_URL not set; skipping postgres storage integration test")
	}

	database, err := db.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	store := NewPostgresStore(database, "test-"+t.Name(), quietLogger())
	require.NoError(t, store.EnsureSchema(context.Background()))
	t.Cleanup(func() {
		store.Remove(context.Background(), "guest_cart")
		store.Remove(context.Background(), "access_token")
	})

	exerciseStore(t, store)
}
