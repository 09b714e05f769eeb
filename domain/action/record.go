package action

// Type classifies the financial action behind a reference ID.
type Type string

// Canonical action types, selected by reference prefix.
const (
	TypeVerificationCheck Type = "verification_check"
	TypeFundTransfer      Type = "fund_transfer"
	TypePaymentSettlement Type = "payment_settlement"
	TypeEscrowHold        Type = "escrow_hold"
	TypeContractExecution Type = "contract_execution"
)

// Fixed descriptive values attached to every simulated record.
const (
	// OriginApp identifies the application that produced the record.
	OriginApp = "oversight-console"

	// VerifiedBy names the network that vouches for the record.
	VerifiedBy = "pi-network"

	// VerificationDomain is the domain the evidence bundle is verified against.
	VerificationDomain = "verify.pi-network.io"

	// HookStatusActive is the fixed status reported for every oversight hook.
	HookStatusActive = "active"
)

// HookManifest reports the oversight hooks attached to an action.
// In the simulated core every hook is always active.
type HookManifest struct {
	Governance string `json:"governance"`
	Risk       string `json:"risk"`
	Compliance string `json:"compliance"`
}

// Evidence is the generated bundle of identifiers attached to a record.
type Evidence struct {
	Log         string       `json:"log"`
	Snapshot    string       `json:"snapshot"`
	FreezeID    string       `json:"freeze_id"`
	ReleaseID   string       `json:"release_id"`
	Hooks       HookManifest `json:"hooks"`
	VerifiedVia string       `json:"verified_via"`
	VerifiedAt  string       `json:"verified_at"`
}

// Record is the simulated financial-action entity a user loads and views.
// A Record is immutable once constructed; the auto-refresh ticker replaces
// it wholesale with a shallow copy carrying a fresh timestamp.
type Record struct {
	ReferenceID string   `json:"reference_id"`
	ActionID    string   `json:"action_id"`
	Type        Type     `json:"type"`
	Status      Status   `json:"status"`
	Timestamp   string   `json:"timestamp"`
	Evidence    Evidence `json:"evidence"`
	ExecutedBy  string   `json:"executed_by,omitempty"`
	OriginApp   string   `json:"origin_app"`
	VerifiedBy  string   `json:"verified_by"`
}

// WithTimestamp returns a copy of the record carrying the given timestamp.
func (r Record) WithTimestamp(ts string) Record {
	r.Timestamp = ts
	return r
}
