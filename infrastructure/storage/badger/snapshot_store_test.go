package badger

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/oversight/domain/action"
	"github.com/felixgeelhaar/oversight/domain/state"
)

func newTestStore(t *testing.T) *SnapshotStore {
	t.Helper()
	store, err := NewSnapshotStore(Config{}, WithInMemory())
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
		Action:      &action.Record{ReferenceID: "ACT-9X2-P4L", Type: action.TypeFundTransfer},
		LastUpdated: "2026-01-01T00:00:00Z",
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
	if got.Action == nil || got.Action.Type != action.TypeFundTransfer {
		t.Errorf("Load().Action = %+v", got.Action)
	}
}

func TestSnapshotStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, state.Snapshot{Status: action.StatusDisplayed, Logs: []string{"a"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx, state.Snapshot{Status: action.StatusIdle, Logs: []string{}}); err != nil {
		t.Fatal(err)
	}

	got, _, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != action.StatusIdle {
		t.Errorf("Load().Status = %q, want idle", got.Status)
	}
}

func TestSnapshotStore_KeyPrefix(t *testing.T) {
	store, err := NewSnapshotStore(Config{}, WithInMemory(), WithKeyPrefix("tabA:"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if string(store.key()) != "tabA:"+state.StorageKey {
		t.Errorf("key() = %q", store.key())
	}
}
