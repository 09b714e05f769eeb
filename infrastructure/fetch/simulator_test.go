package fetch

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/felixgeelhaar/oversight/domain/action"
)

func newFast(t *testing.T) *Simulator {
	t.Helper()
	return NewSimulator(WithDelay(0))
}

func TestSimulator_FetchTypes(t *testing.T) {
	tests := []struct {
		referenceID string
		expected    action.Type
	}{
		{"REF-2024-A7K", action.TypeVerificationCheck},
		{"ACT-9X2-P4L", action.TypeFundTransfer},
		{"PAY-5M8-Q1N", action.TypePaymentSettlement},
		{"ESC-3T6-R9W", action.TypeEscrowHold},
		{"CTR-1A2-B3C", action.TypeContractExecution},
	}

	for _, tt := range tests {
		t.Run(tt.referenceID, func(t *testing.T) {
			rec, err := newFast(t).Fetch(context.Background(), tt.referenceID, "")
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if rec.Type != tt.expected {
				t.Errorf("Type = %q, want %q", rec.Type, tt.expected)
			}
			if rec.ReferenceID != tt.referenceID {
				t.Errorf("ReferenceID = %q, want %q", rec.ReferenceID, tt.referenceID)
			}
		})
	}
}

func TestSimulator_ActionID(t *testing.T) {
	// Non-REF references keep their own ID as the action ID.
	rec, err := newFast(t).Fetch(context.Background(), "ACT-9X2-P4L", "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.ActionID != "ACT-9X2-P4L" {
		t.Errorf("ActionID = %q, want reference reused", rec.ActionID)
	}

	// REF references get a freshly generated ACT identifier.
	rec, err = newFast(t).Fetch(context.Background(), "REF-2024-A7K", "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.ActionID == "REF-2024-A7K" {
		t.Error("ActionID should not reuse a REF reference")
	}
	if !regexp.MustCompile(`^ACT-[A-Z0-9]+-[A-Z0-9]+$`).MatchString(rec.ActionID) {
		t.Errorf("generated ActionID %q does not match the ACT family", rec.ActionID)
	}
}

func TestSimulator_Evidence(t *testing.T) {
	rec, err := newFast(t).Fetch(context.Background(), "PAY-5M8-Q1N", "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	ev := rec.Evidence
	prefixed := []struct {
		name, value, prefix string
	}{
		{"Log", ev.Log, "LOG-"},
		{"Snapshot", ev.Snapshot, "SNAP-"},
		{"FreezeID", ev.FreezeID, "FRZ-"},
		{"ReleaseID", ev.ReleaseID, "REL-"},
	}
	for _, p := range prefixed {
		if !regexp.MustCompile("^" + p.prefix + "[A-Z0-9]{8}$").MatchString(p.value) {
			t.Errorf("Evidence.%s = %q, want %s<8 alnum>", p.name, p.value, p.prefix)
		}
	}

	if ev.Hooks.Governance != action.HookStatusActive ||
		ev.Hooks.Risk != action.HookStatusActive ||
		ev.Hooks.Compliance != action.HookStatusActive {
		t.Errorf("Hooks = %+v, want all active", ev.Hooks)
	}
	if ev.VerifiedVia != action.VerificationDomain {
		t.Errorf("VerifiedVia = %q, want %q", ev.VerifiedVia, action.VerificationDomain)
	}
	if ev.VerifiedAt == "" {
		t.Error("VerifiedAt should be set")
	}
}

func TestSimulator_MasksActor(t *testing.T) {
	rec, err := newFast(t).Fetch(context.Background(), "ESC-3T6-R9W", "johndoe123")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.ExecutedBy != "joh***23" {
		t.Errorf("ExecutedBy = %q, want joh***23", rec.ExecutedBy)
	}

	rec, err = newFast(t).Fetch(context.Background(), "ESC-3T6-R9W", "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.ExecutedBy != "" {
		t.Errorf("ExecutedBy = %q, want empty for anonymous load", rec.ExecutedBy)
	}
}

func TestSimulator_ContextCancellation(t *testing.T) {
	s := NewSimulator(WithDelay(5 * time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.Fetch(ctx, "REF-2024-A7K", "")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Fetch() error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Fetch() blocked %v after cancellation", elapsed)
	}
}

func TestSimulator_Clock(t *testing.T) {
	s := NewSimulator(WithDelay(0), WithClock(func() string { return "2026-01-02T03:04:05Z" }))
	rec, err := s.Fetch(context.Background(), "CTR-1A2-B3C", "")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if rec.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("Timestamp = %q, want injected clock value", rec.Timestamp)
	}
	if rec.Evidence.VerifiedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("VerifiedAt = %q, want injected clock value", rec.Evidence.VerifiedAt)
	}
}
