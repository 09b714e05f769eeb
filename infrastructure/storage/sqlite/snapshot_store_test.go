package sqlite

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/oversight/domain/action"
	"github.com/felixgeelhaar/oversight/domain/state"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(":memory:")
	if err != nil {
		t.Fatalf("NewSnapshotStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSnapshotStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, found, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if found {
		t.Error("Load() before any save should report not found")
	}

	snap := state.Snapshot{
		Status:      action.StatusDisplayed,
		Action:      &action.Record{ReferenceID: "PAY-5M8-Q1N", Type: action.TypePaymentSettlement},
		LastUpdated: "2026-03-03T00:00:00Z",
		Logs:        []string{"loaded"},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, found, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !found {
		t.Fatal("Load() should find the saved snapshot")
	}
	if got.Action == nil || got.Action.Type != action.TypePaymentSettlement {
		t.Errorf("Load().Action = %+v", got.Action)
	}
}

func TestSnapshotStore_LoadReturnsNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, logs := range [][]string{{"first"}, {"second"}, {"third"}} {
		if err := store.Save(ctx, state.Snapshot{Status: action.StatusIdle, Logs: logs}); err != nil {
			t.Fatal(err)
		}
	}

	got, _, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Logs) != 1 || got.Logs[0] != "third" {
		t.Errorf("Load().Logs = %v, want newest save", got.Logs)
	}
}

func TestSnapshotStore_History(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, logs := range [][]string{{"first"}, {"second"}, {"third"}} {
		if err := store.Save(ctx, state.Snapshot{Status: action.StatusIdle, Logs: logs}); err != nil {
			t.Fatal(err)
		}
	}

	history, err := store.History(ctx, 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("History() returned %d snapshots, want 2", len(history))
	}
	if history[0].Logs[0] != "third" || history[1].Logs[0] != "second" {
		t.Errorf("History() order = [%v, %v], want newest first", history[0].Logs, history[1].Logs)
	}
}
