// Package sqlite provides a SQLite-backed snapshot store that keeps an
// append-only history of snapshots alongside the latest state.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/felixgeelhaar/oversight/domain/state"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	key          TEXT NOT NULL,
	data         TEXT NOT NULL,
	last_updated TEXT,
	created_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_snapshots_key_seq ON snapshots (key, seq DESC);
`

// SnapshotStore is a SQLite-backed implementation of state.Store. Every
// Save appends a row; Load returns the newest one. The history is queryable
// for audit but is not part of the state.Store contract.
type SnapshotStore struct {
	db *sql.DB
}

// NewSnapshotStore opens (and if necessary initializes) the database at path.
// Use ":memory:" for an ephemeral store.
func NewSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrStoreUnavailable, err)
	}

	// A single writer keeps snapshot appends strictly ordered.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Save appends the snapshot as the new latest state.
func (s *SnapshotStore) Save(ctx context.Context, snapshot state.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, data, last_updated) VALUES (?, ?, ?)`,
		state.StorageKey, string(data), snapshot.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", state.ErrStoreUnavailable, err)
	}
	return nil
}

// Load returns the most recently saved snapshot, or found=false if none
// exists.
func (s *SnapshotStore) Load(ctx context.Context) (state.Snapshot, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE key = ? ORDER BY seq DESC LIMIT 1`,
		state.StorageKey,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return state.Snapshot{}, false, nil
		}
		return state.Snapshot{}, false, fmt.Errorf("%w: %v", state.ErrStoreUnavailable, err)
	}

	var snapshot state.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return state.Snapshot{}, false, fmt.Errorf("%w: %v", state.ErrMalformedSnapshot, err)
	}
	return snapshot, true, nil
}

// History returns up to limit snapshots, newest first.
func (s *SnapshotStore) History(ctx context.Context, limit int) ([]state.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM snapshots WHERE key = ? ORDER BY seq DESC LIMIT ?`,
		state.StorageKey, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", state.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []state.Snapshot
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var snapshot state.Snapshot
		if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
			return nil, fmt.Errorf("%w: %v", state.ErrMalformedSnapshot, err)
		}
		out = append(out, snapshot)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Ensure SnapshotStore implements state.Store
var _ state.Store = (*SnapshotStore)(nil)
