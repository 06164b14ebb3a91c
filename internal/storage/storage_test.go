package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()

	s, err := Open(context.Background(), "file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "token", "t1"))
	v, err := s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "t1", v)

	require.NoError(t, s.Set(ctx, "token", "t2"))
	v, err = s.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "t2", v)

	require.NoError(t, s.Remove(ctx, "token"))
	_, err = s.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Remove(ctx, "missing"))
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	exerciseStore(t, NewMemoryStore())
}

func TestGormStore_SQLite(t *testing.T) {
	t.Parallel()

	s := newSQLiteStore(t)
	require.NoError(t, s.Ping(context.Background()))
	exerciseStore(t, s)
}

func TestGormStore_Postgres(t *testing.T) {
	dsn := os.Getenv("STOREFRONT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DATABASE_URL is required for tests")
	}

	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.DB.Exec("DELETE FROM storefront_kv")
		_ = s.Close()
	})

	exerciseStore(t, s)
}

func TestNamespace_IsolatesClients(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := NewMemoryStore()
	a := Namespace(backend, "client-a")
	b := Namespace(backend, "client-b")

	require.NoError(t, a.Set(ctx, "token", "ta"))
	require.NoError(t, b.Set(ctx, "token", "tb"))

	v, err := a.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "ta", v)

	require.NoError(t, b.Remove(ctx, "token"))
	_, err = b.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)

	v, err = backend.Get(ctx, "client-a:token")
	require.NoError(t, err)
	assert.Equal(t, "ta", v)
}

func TestOpen_EmptyDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "")
	require.Error(t, err)
}
