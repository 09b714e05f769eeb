// Package fetch provides the simulated action record retrieval backend.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/oversight/domain/action"
	"github.com/felixgeelhaar/oversight/domain/state"
)

// Simulator fabricates action records after a fixed latency. It stands in
// for the real retrieval backend, which is out of scope for this core.
type Simulator struct {
	delay time.Duration
	now   func() string
}

// Option configures the simulator.
type Option func(*Simulator)

// WithDelay sets the simulated retrieval latency.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) {
		s.delay = d
	}
}

// WithClock overrides the timestamp source (tests).
func WithClock(now func() string) Option {
	return func(s *Simulator) {
		s.now = now
	}
}

// NewSimulator creates a simulator with a one second default latency.
func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{
		delay: 1 * time.Second,
		now:   state.Timestamp,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch fabricates the record for a reference ID after the configured
// latency. The sleep is context-aware so a timed-out attempt returns early.
func (s *Simulator) Fetch(ctx context.Context, referenceID, actor string) (action.Record, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return action.Record{}, ctx.Err()
		case <-timer.C:
		}
	}

	now := s.now()

	rec := action.Record{
		ReferenceID: referenceID,
		ActionID:    deriveActionID(referenceID),
		Type:        action.TypeForReference(referenceID),
		Status:      action.StatusVerified,
		Timestamp:   now,
		Evidence:    generateEvidence(now),
		OriginApp:   action.OriginApp,
		VerifiedBy:  action.VerifiedBy,
	}
	if actor != "" {
		rec.ExecutedBy = action.MaskIdentity(actor)
	}

	return rec, nil
}

// deriveActionID reuses the reference ID as the action ID except for the REF
// family, which names a reference rather than an action and needs a fresh
// ACT identifier.
func deriveActionID(referenceID string) string {
	if action.Prefix(referenceID) != "REF" {
		return referenceID
	}
	return "ACT-" + randomSuffix() + "-" + randomSuffix()
}

// generateEvidence fabricates the evidence bundle: four random-suffixed
// identifiers, the always-active hook manifest, and the fixed verification
// domain.
func generateEvidence(now string) action.Evidence {
	return action.Evidence{
		Log:       "LOG-" + randomSuffix(),
		Snapshot:  "SNAP-" + randomSuffix(),
		FreezeID:  "FRZ-" + randomSuffix(),
		ReleaseID: "REL-" + randomSuffix(),
		Hooks: action.HookManifest{
			Governance: action.HookStatusActive,
			Risk:       action.HookStatusActive,
			Compliance: action.HookStatusActive,
		},
		VerifiedVia: action.VerificationDomain,
		VerifiedAt:  now,
	}
}

// randomSuffix returns an eight-character uppercase alphanumeric identifier
// segment.
func randomSuffix() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return id[:8]
}

// Ensure Simulator implements action.Fetcher
var _ action.Fetcher = (*Simulator)(nil)
