package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dnsforyou/idgw/internal/config"
	"github.com/dnsforyou/idgw/internal/observability"
)

// defaultKeyPrefix namespaces projection keys when none is configured.
const defaultKeyPrefix = "idgw:user:"

// redisStore implements Store on a Redis backend. Projections are stored as
// JSON without expiry; they live until the user is deleted.
type redisStore struct {
	client    *redis.Client
	keyPrefix string
	logger    observability.Logger
}

// NewRedisStore connects to Redis and returns a projection store. The
// connection is verified with a ping before use.
func NewRedisStore(cfg config.StoreConfig, logger observability.Logger) (Store, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout.Duration()
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	logger.Info("redis projection store initialized",
		observability.String("address", cfg.Address),
		observability.String("keyPrefix", keyPrefix),
	)

	return &redisStore{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}, nil
}

func (s *redisStore) key(id string) string {
	return s.keyPrefix + id
}

// Put inserts or replaces the projection.
func (s *redisStore) Put(ctx context.Context, user UserProjection) error {
	if user.ID == "" {
		return errors.New("user projection id is required")
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user projection: %w", err)
	}

	if err := s.client.Set(ctx, s.key(user.ID), payload, 0).Err(); err != nil {
		s.logger.Error("projection put failed",
			observability.String("userId", user.ID),
			observability.Error(err),
		)
		return err
	}
	return nil
}

// Get returns the projection for the given id, or ErrNotFound.
func (s *redisStore) Get(ctx context.Context, id string) (UserProjection, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return UserProjection{}, ErrNotFound
	}
	if err != nil {
		s.logger.Error("projection get failed",
			observability.String("userId", id),
			observability.Error(err),
		)
		return UserProjection{}, err
	}

	var user UserProjection
	if err := json.Unmarshal(data, &user); err != nil {
		return UserProjection{}, fmt.Errorf("failed to decode user projection: %w", err)
	}
	return user, nil
}

// Delete removes the projection.
func (s *redisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		s.logger.Error("projection delete failed",
			observability.String("userId", id),
			observability.Error(err),
		)
		return err
	}
	return nil
}

// Ping verifies the Redis connection.
func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *redisStore) Close() error {
	return s.client.Close()
}
