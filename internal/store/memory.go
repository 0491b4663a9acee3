package store

import (
	"context"
	"sync"
)

// memoryStore implements Store with an in-process map. Used when no Redis
// backend is configured and in tests.
type memoryStore struct {
	mu    sync.RWMutex
	users map[string]UserProjection
}

// NewMemoryStore returns an in-memory projection store.
func NewMemoryStore() Store {
	return &memoryStore{
		users: make(map[string]UserProjection),
	}
}

// Put inserts or replaces the projection.
func (s *memoryStore) Put(_ context.Context, user UserProjection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

// Get returns the projection for the given id, or ErrNotFound.
func (s *memoryStore) Get(_ context.Context, id string) (UserProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return UserProjection{}, ErrNotFound
	}
	return user, nil
}

// Delete removes the projection.
func (s *memoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *memoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *memoryStore) Close() error {
	return nil
}
