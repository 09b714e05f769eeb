// Package memory provides in-memory implementations of the snapshot store
// and sync transport, used in tests and single-process deployments.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/felixgeelhaar/oversight/domain/state"
)

// SnapshotStore is an in-memory implementation of state.Store.
type SnapshotStore struct {
	data  []byte
	found bool
	mu    sync.RWMutex
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
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

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.found = true
	return nil
}

// Load returns the persisted snapshot, or found=false if none exists.
func (s *SnapshotStore) Load(ctx context.Context) (state.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return state.Snapshot{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.found {
		return state.Snapshot{}, false, nil
	}

	var snapshot state.Snapshot
	if err := json.Unmarshal(s.data, &snapshot); err != nil {
		return state.Snapshot{}, false, state.ErrMalformedSnapshot
	}
	return snapshot, true, nil
}

// Close releases the store.
func (s *SnapshotStore) Close() error {
	return nil
}

// Ensure SnapshotStore implements state.Store
var _ state.Store = (*SnapshotStore)(nil)
