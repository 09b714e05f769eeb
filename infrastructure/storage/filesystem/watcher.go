package filesystem

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/felixgeelhaar/oversight/domain/state"
	"github.com/felixgeelhaar/oversight/infrastructure/logging"
)

// Watcher is the storage-event sync channel: it observes snapshot writes
// made by other contexts sharing the state directory and delivers them as
// state-update messages. It is the passive fallback next to the broadcast
// transport and works without any broker.
//
// The publish side of this channel is the store's Save itself, so Publish
// is a no-op; the watcher only receives.
type Watcher struct {
	store   *SnapshotStore
	fsw     *fsnotify.Watcher
	handler func(state.Message)
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewWatcher creates a storage watcher for the given store.
func NewWatcher(store *SnapshotStore) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: the atomic rename replaces the
	// file inode on every save.
	if err := fsw.Add(store.dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		store: store,
		fsw:   fsw,
		done:  make(chan struct{}),
	}, nil
}

// Publish is a no-op: persisting through the snapshot store is the publish
// side of the storage channel.
func (w *Watcher) Publish(ctx context.Context, msg state.Message) error {
	return ctx.Err()
}

// Receive registers the handler and starts observing storage changes.
func (w *Watcher) Receive(ctx context.Context, handler func(state.Message)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return state.ErrTransportClosed
	}
	w.handler = handler
	if w.started {
		return nil
	}
	w.started = true

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// loop drains fsnotify events until the watcher is closed.
func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn().
				Add(logging.Channel("storage")).
				Add(logging.Err(err)).
				Msg("storage watcher error")
		}
	}
}

// handleEvent turns a snapshot file change into a state-update message.
func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Name != w.store.path {
		return
	}
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
		return
	}

	data, err := os.ReadFile(w.store.path)
	if err != nil {
		// The file can vanish mid-rename; the next event carries the
		// final state.
		return
	}

	// Ignore this context's own writes, like the browser storage event
	// that never fires in the writing tab.
	if w.store.wroteLocally(data) {
		return
	}

	var snapshot state.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		logging.Warn().
			Add(logging.Channel("storage")).
			Add(logging.Err(state.ErrMalformedSnapshot)).
			Msg("ignoring malformed snapshot write")
		return
	}

	w.mu.Lock()
	handler := w.handler
	w.mu.Unlock()
	if handler == nil {
		return
	}

	handler(state.Message{
		Type:      state.MessageTypeStateUpdate,
		State:     snapshot,
		Timestamp: snapshot.LastUpdated,
	})
}

// Close stops observing and releases the fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

// Ensure Watcher implements state.Transport
var _ state.Transport = (*Watcher)(nil)
