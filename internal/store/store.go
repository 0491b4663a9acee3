package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no projection exists for the given user id.
var ErrNotFound = errors.New("user projection not found")

// UserProjection is the locally persisted view of a provider user.
type UserProjection struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Enabled   bool      `json:"enabled"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Store persists user projections keyed by user id.
type Store interface {
	// Put inserts or replaces the projection.
	Put(ctx context.Context, user UserProjection) error

	// Get returns the projection for the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (UserProjection, error)

	// Delete removes the projection. Deleting a missing projection is not an
	// error.
	Delete(ctx context.Context, id string) error

	// Ping verifies the backend connection.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
