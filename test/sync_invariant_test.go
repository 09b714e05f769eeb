// Package test contains the cross-engine invariant suite for the watcher.
package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/oversight/application"
	"github.com/felixgeelhaar/oversight/domain/action"
	"github.com/felixgeelhaar/oversight/domain/state"
	"github.com/felixgeelhaar/oversight/infrastructure/fetch"
	"github.com/felixgeelhaar/oversight/infrastructure/storage/filesystem"
	"github.com/felixgeelhaar/oversight/infrastructure/storage/memory"
)

func newEngine(t *testing.T, opts ...application.Option) *application.Engine {
	t.Helper()
	opts = append([]application.Option{
		application.WithFetcher(fetch.NewSimulator(fetch.WithDelay(0))),
	}, opts...)
	e, err := application.NewEngineWithOptions(context.Background(), opts...)
	if err != nil {
		t.Fatalf("NewEngineWithOptions() error = %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// =============================================================================
// Invariant 1: Broadcast convergence
// A load completed in one context is visible in every other context on the
// same channel before the loading call returns.
// =============================================================================

func TestInvariant_BroadcastConvergence(t *testing.T) {
	bus := memory.NewBus()
	a := newEngine(t, application.WithOrigin("a"), application.WithBroadcast(bus.Connect()))
	b := newEngine(t, application.WithOrigin("b"), application.WithBroadcast(bus.Connect()))
	c := newEngine(t, application.WithOrigin("c"), application.WithBroadcast(bus.Connect()))

	if err := a.LoadAction(context.Background(), "REF-2024-A7K", "alice"); err != nil {
		t.Fatal(err)
	}

	want := a.GetState()
	for name, e := range map[string]*application.Engine{"b": b, "c": c} {
		got := e.GetState()
		if got.Status != action.StatusDisplayed {
			t.Errorf("%s: Status = %q, want displayed", name, got.Status)
		}
		if got.Action == nil || got.Action.ActionID != want.Action.ActionID {
			t.Errorf("%s: Action = %+v, want the record loaded by a", name, got.Action)
		}
	}
}

// =============================================================================
// Invariant 2: Last write wins
// When two contexts load different records, every context converges on
// whichever update it observed last; no state is merged.
// =============================================================================

func TestInvariant_LastWriteWins(t *testing.T) {
	bus := memory.NewBus()
	a := newEngine(t, application.WithOrigin("a"), application.WithBroadcast(bus.Connect()))
	b := newEngine(t, application.WithOrigin("b"), application.WithBroadcast(bus.Connect()))

	ctx := context.Background()
	if err := a.LoadAction(ctx, "REF-2024-A7K", ""); err != nil {
		t.Fatal(err)
	}
	if err := b.LoadAction(ctx, "PAY-5M8-Q1N", ""); err != nil {
		t.Fatal(err)
	}

	// b's load was the last write; a must have replaced its state wholesale.
	got := a.GetState()
	if got.Action == nil || got.Action.ReferenceID != "PAY-5M8-Q1N" {
		t.Errorf("a.Action = %+v, want b's record", got.Action)
	}
	if got.Action.ActionID != b.GetState().Action.ActionID {
		t.Error("a holds a merged record instead of b's snapshot")
	}
}

// =============================================================================
// Invariant 3: Storage-channel fallback
// Without a broadcast channel, contexts sharing a state directory still
// converge through durable-store change observation.
// =============================================================================

func TestInvariant_StorageChannelFallback(t *testing.T) {
	dir := t.TempDir()

	storeA, err := filesystem.NewSnapshotStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	storeB, err := filesystem.NewSnapshotStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	watcherB, err := filesystem.NewWatcher(storeB)
	if err != nil {
		t.Fatal(err)
	}

	a := newEngine(t, application.WithOrigin("a"), application.WithStore(storeA))
	b := newEngine(t, application.WithOrigin("b"),
		application.WithStore(storeB), application.WithStorageEvents(watcherB))

	if err := a.LoadAction(context.Background(), "ESC-3T6-R9W", ""); err != nil {
		t.Fatal(err)
	}

	converged := waitUntil(t, 2*time.Second, func() bool {
		got := b.GetState()
		return got.Status == action.StatusDisplayed &&
			got.Action != nil && got.Action.ReferenceID == "ESC-3T6-R9W"
	})
	if !converged {
		t.Fatalf("b never observed a's write: %+v", b.GetState())
	}
}

// =============================================================================
// Invariant 4: Restart persistence
// Persisted state outlives the engine; a new engine on the same store
// restores it.
// =============================================================================

func TestInvariant_RestartPersistence(t *testing.T) {
	dir := t.TempDir()

	store, err := filesystem.NewSnapshotStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	first := newEngine(t, application.WithStore(store))
	if err := first.LoadAction(context.Background(), "ACT-9X2-P4L", ""); err != nil {
		t.Fatal(err)
	}
	wantID := first.GetState().Action.ActionID
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := filesystem.NewSnapshotStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	second := newEngine(t, application.WithStore(reopened))

	got := second.GetState()
	if got.Status != action.StatusDisplayed || got.Action == nil || got.Action.ActionID != wantID {
		t.Errorf("restored state = %+v, want the persisted load", got)
	}
}

// =============================================================================
// Invariant 5: Sync failures stay out of user-visible state
// A broken sync channel is logged and swallowed; the load still completes
// and Snapshot.Error stays empty.
// =============================================================================

type brokenTransport struct{}

func (brokenTransport) Publish(ctx context.Context, msg state.Message) error {
	return errors.New("broker unreachable")
}

func (brokenTransport) Receive(ctx context.Context, handler func(state.Message)) error {
	return nil
}

func (brokenTransport) Close() error { return nil }

func TestInvariant_SyncErrorsNeverSurface(t *testing.T) {
	e := newEngine(t, application.WithBroadcast(brokenTransport{}))

	if err := e.LoadAction(context.Background(), "CTR-1A2-B3C", ""); err != nil {
		t.Fatalf("LoadAction() error = %v, sync failures must not fail the load", err)
	}

	got := e.GetState()
	if got.Status != action.StatusDisplayed {
		t.Errorf("Status = %q, want displayed", got.Status)
	}
	if got.Error != "" {
		t.Errorf("Error = %q, sync failures must never surface here", got.Error)
	}
}
