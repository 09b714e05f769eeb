package action

import "context"

// Fetcher retrieves the action record behind a validated reference ID.
// The production core only ships a simulated implementation; the interface
// exists so a real backend can replace it without touching the engine.
type Fetcher interface {
	// Fetch retrieves the record for a reference ID. The actor identity, if
	// non-empty, is masked into the record's ExecutedBy field.
	Fetch(ctx context.Context, referenceID, actor string) (Record, error)
}
