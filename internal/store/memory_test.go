package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	s := NewMemoryStore()

	user := UserProjection{ID: "u1", Username: "bob"}
	require.NoError(t, s.Put(context.Background(), user))

	got, err := s.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, user, got)

	require.NoError(t, s.Delete(context.Background(), "u1"))
	_, err = s.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Put(context.Background(), UserProjection{ID: "u1", Username: "bob"})
				_, _ = s.Get(context.Background(), "u1")
				_ = s.Delete(context.Background(), "u1")
			}
		}()
	}
	wg.Wait()

	require.NoError(t, s.Close())
}
