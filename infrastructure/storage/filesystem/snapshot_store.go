// Package filesystem provides the file-backed snapshot store and the
// fsnotify-based storage-event sync channel.
package filesystem

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/felixgeelhaar/oversight/domain/state"
)

// SnapshotStore implements state.Store on the local filesystem. The snapshot
// lives in a single JSON file named after the storage key; writes go through
// a temp-file rename so observers never see a partial snapshot.
type SnapshotStore struct {
	dir  string
	path string

	// lastWritten lets the watcher distinguish this context's own writes
	// from writes made by other contexts sharing the state directory.
	lastWritten []byte
	mu          sync.Mutex
}

// NewSnapshotStore creates a file-backed snapshot store rooted at dir.
func NewSnapshotStore(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	return &SnapshotStore{
		dir:  dir,
		path: filepath.Join(dir, state.StorageKey+".json"),
	}, nil
}

// Path returns the snapshot file path.
func (s *SnapshotStore) Path() string {
	return s.path
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

	tmp, err := os.CreateTemp(s.dir, state.StorageKey+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", state.ErrStoreUnavailable, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.lastWritten = data
	return nil
}

// Load returns the persisted snapshot, or found=false if none exists.
func (s *SnapshotStore) Load(ctx context.Context) (state.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return state.Snapshot{}, false, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
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

// Close releases the store.
func (s *SnapshotStore) Close() error {
	return nil
}

// wroteLocally reports whether the given file contents are this context's
// own most recent write.
func (s *SnapshotStore) wroteLocally(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWritten != nil && bytes.Equal(s.lastWritten, data)
}

// Ensure SnapshotStore implements state.Store
var _ state.Store = (*SnapshotStore)(nil)
