// Package state provides the replicated engine state model and the
// synchronization contracts it travels through.
package state

import (
	"time"

	"github.com/felixgeelhaar/oversight/domain/action"
)

// StorageKey is the fixed key the snapshot is persisted under in every
// durable store backend.
const StorageKey = "watcher_state"

// ChannelName is the fixed broadcast channel state updates travel on.
const ChannelName = "watcher_sync"

// Snapshot is the full engine state at one point in time. It is the single
// replicated unit: synchronization always ships and applies whole snapshots,
// never field-level deltas.
type Snapshot struct {
	Action      *action.Record `json:"action,omitempty"`
	Status      action.Status  `json:"status"`
	IsLoading   bool           `json:"is_loading"`
	Error       string         `json:"error,omitempty"`
	LastUpdated string         `json:"last_updated,omitempty"`
	Logs        []string       `json:"logs"`
}

// Initial returns the state of a fresh engine with nothing loaded.
func Initial() Snapshot {
	return Snapshot{
		Status: action.StatusIdle,
		Logs:   []string{},
	}
}

// Clone returns a deep copy of the snapshot. Records are value types, so the
// only pointers to duplicate are the record itself and the log slice.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Action != nil {
		rec := *s.Action
		out.Action = &rec
	}
	out.Logs = make([]string, len(s.Logs))
	copy(out.Logs, s.Logs)
	return out
}

// Timestamp returns the current time in the ISO-8601 form used for
// LastUpdated, record timestamps, and log lines.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
