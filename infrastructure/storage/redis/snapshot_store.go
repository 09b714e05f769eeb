package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/oversight/domain/state"
)

// SnapshotStore is a Redis-backed implementation of state.Store.
type SnapshotStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewSnapshotStore creates a Redis snapshot store with the given
// configuration. The connection is verified at construction.
func NewSnapshotStore(cfg Config, opts ...ConfigOption) (*SnapshotStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(state.ErrStoreUnavailable, err)
	}

	return &SnapshotStore{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewSnapshotStoreFromClient creates a store from an existing Redis client.
func NewSnapshotStoreFromClient(client *redis.Client, keyPrefix string) *SnapshotStore {
	return &SnapshotStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// key returns the prefixed storage key.
func (s *SnapshotStore) key() string {
	return s.keyPrefix + state.StorageKey
}

// Save persists the snapshot, replacing any prior one.
func (s *SnapshotStore) Save(ctx context.Context, snapshot state.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", state.ErrStoreUnavailable, err)
	}
	return nil
}

// Load returns the persisted snapshot, or found=false if none exists.
func (s *SnapshotStore) Load(ctx context.Context) (state.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return state.Snapshot{}, false, err
	}

	data, err := s.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return state.Snapshot{}, false, nil
		}
		return state.Snapshot{}, false, fmt.Errorf("%w: %v", state.ErrStoreUnavailable, err)
	}

	var snapshot state.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return state.Snapshot{}, false, fmt.Errorf("%w: %v", state.ErrMalformedSnapshot, err)
	}
	return snapshot, true, nil
}

// Close closes the Redis connection.
func (s *SnapshotStore) Close() error {
	return s.client.Close()
}

// Ensure SnapshotStore implements state.Store
var _ state.Store = (*SnapshotStore)(nil)
