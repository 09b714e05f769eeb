package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/felixgeelhaar/oversight/domain/state"
)

// SnapshotStore is a BadgerDB-backed implementation of state.Store.
type SnapshotStore struct {
	db        *badger.DB
	keyPrefix string
}

// NewSnapshotStore creates a BadgerDB snapshot store with the given
// configuration.
func NewSnapshotStore(cfg Config, opts ...Option) (*SnapshotStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	return &SnapshotStore{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// NewSnapshotStoreFromDB creates a snapshot store from an existing database.
func NewSnapshotStoreFromDB(db *badger.DB, keyPrefix string) *SnapshotStore {
	return &SnapshotStore{
		db:        db,
		keyPrefix: keyPrefix,
	}
}

// key returns the prefixed storage key.
func (s *SnapshotStore) key() []byte {
	return []byte(s.keyPrefix + state.StorageKey)
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

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key(), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", state.ErrStoreUnavailable, err)
	}
	return nil
}

// Load returns the persisted snapshot, or found=false if none exists.
func (s *SnapshotStore) Load(ctx context.Context) (state.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return state.Snapshot{}, false, err
	}

	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key())
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
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

// Close closes the database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Ensure SnapshotStore implements state.Store
var _ state.Store = (*SnapshotStore)(nil)
