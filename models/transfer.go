package models

import "time"

// TransferStatus is the persisted status of a Transfer. Verified and
// Rejected are terminal.
type TransferStatus string

const (
	TransferPending  TransferStatus = "PENDING"
	TransferVerified TransferStatus = "VERIFIED"
	TransferRejected TransferStatus = "REJECTED"
)

func (s TransferStatus) IsTerminal() bool {
	return s == TransferVerified || s == TransferRejected
}

// VerificationDetails is the buyer's attestation of what was observed at
// handoff.
type VerificationDetails struct {
	Observed   AssetAttributes `json:"observed"`
	VerifiedBy string          `json:"verified_by"`
	Comment    string          `json:"comment,omitempty"`
	ObservedAt time.Time       `json:"observed_at"`
}

// Transfer is a two-party ownership handoff of one asset.
type Transfer struct {
	ID          string         `json:"id"`
	AssetID     string         `json:"asset_id"`
	FromOwnerID string         `json:"from_owner_id"`
	ToOwnerID   string         `json:"to_owner_id"`
	Status      TransferStatus `json:"status"`

	// Expected holds the attributes declared by the seller at initiation.
	Expected            AssetAttributes      `json:"expected"`
	VerificationDetails *VerificationDetails `json:"verification_details,omitempty"`
	RejectionReason     string               `json:"rejection_reason,omitempty"`

	InitiatedAt time.Time  `json:"initiated_at"`
	VerifiedAt  *time.Time `json:"verified_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`

	Version int64 `json:"version"`
}

func (t *Transfer) TableName() string {
	return "transfers"
}

func (t Transfer) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// TransferTransition is one committed step of a transfer together with the
// outbox entry that replays it remotely. Ownership is flipped locally in the
// same write when FlipOwnership is set.
type TransferTransition struct {
	Transfer      Transfer
	Outbox        SyncItem
	FlipOwnership bool
}
