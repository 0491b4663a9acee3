package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dnsforyou/idgw/internal/config"
	"github.com/dnsforyou/idgw/internal/observability"
)

func newTestRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(config.StoreConfig{
		Address:   mr.Addr(),
		KeyPrefix: "test:user:",
	}, observability.NewZapLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_PutGet(t *testing.T) {
	s := newTestRedisStore(t)

	user := UserProjection{
		ID:        "u1",
		Username:  "bob",
		Email:     "bob@example.com",
		FirstName: "Bob",
		LastName:  "Builder",
		Enabled:   true,
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Put(context.Background(), user))

	got, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestRedisStore_GetMissing(t *testing.T) {
	s := newTestRedisStore(t)

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_PutReplaces(t *testing.T) {
	s := newTestRedisStore(t)

	require.NoError(t, s.Put(context.Background(), UserProjection{ID: "u1", Email: "old@example.com"}))
	require.NoError(t, s.Put(context.Background(), UserProjection{ID: "u1", Email: "new@example.com"}))

	got, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)
}

func TestRedisStore_PutRequiresID(t *testing.T) {
	s := newTestRedisStore(t)

	require.Error(t, s.Put(context.Background(), UserProjection{Username: "bob"}))
}

func TestRedisStore_Delete(t *testing.T) {
	s := newTestRedisStore(t)

	require.NoError(t, s.Put(context.Background(), UserProjection{ID: "u1"}))
	require.NoError(t, s.Delete(context.Background(), "u1"))

	_, err := s.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing projection is not an error.
	require.NoError(t, s.Delete(context.Background(), "u1"))
}

func TestNewRedisStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStore(config.StoreConfig{
		Address:     "127.0.0.1:1",
		DialTimeout: config.Duration(100 * time.Millisecond),
	}, observability.NopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis connection failed")
}
