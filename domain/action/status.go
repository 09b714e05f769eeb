// Package action provides the core domain model for oversight action records.
package action

// Status represents a phase of the one-action load workflow.
// Statuses are identified by stable strings, not behavioral definitions.
type Status string

// Canonical workflow statuses.
const (
	StatusIdle      Status = "idle"      // Nothing loaded
	StatusFetching  Status = "fetching"  // Retrieval in flight
	StatusFetched   Status = "fetched"   // Reference validated, record located
	StatusVerified  Status = "verified"  // Evidence bundle verified
	StatusDisplayed Status = "displayed" // Record loaded and visible
	StatusFailed    Status = "failed"    // Terminal failure
)

// IsTerminal returns true if this is a terminal status (displayed or failed).
func (s Status) IsTerminal() bool {
	return s == StatusDisplayed || s == StatusFailed
}

// IsValid returns true if the status is a recognized canonical status.
func (s Status) IsValid() bool {
	switch s {
	case StatusIdle, StatusFetching, StatusFetched, StatusVerified, StatusDisplayed, StatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// AllStatuses returns all canonical statuses.
func AllStatuses() []Status {
	return []Status{
		StatusIdle,
		StatusFetching,
		StatusFetched,
		StatusVerified,
		StatusDisplayed,
		StatusFailed,
	}
}
