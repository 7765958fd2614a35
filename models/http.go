package models

// InitiateTransferRequest starts a handoff of a locally known asset.
type InitiateTransferRequest struct {
	// AssetID is the asset being handed over. The current owner of the
	// local asset becomes the seller.
	AssetID string `json:"asset_id"`

	// ToOwnerID is the buyer. Required and different from the seller.
	ToOwnerID string `json:"to_owner_id"`

	// Expected overrides the attributes the buyer is checked against. When
	// empty the attributes of the local asset are used.
	Expected *AssetAttributes `json:"expected,omitempty"`
}

// RejectTransferRequest cancels a pending transfer.
type RejectTransferRequest struct {
	Reason string `json:"reason"`
}

// ErrorResponse is the body of every failed local API call.
type ErrorResponse struct {
	// Error is the user-facing message of the error kind.
	Error string `json:"error"`

	// Reason is the machine-readable reason, when the error has one.
	Reason string `json:"reason,omitempty"`

	// TraceID correlates the response with the client log.
	TraceID string `json:"trace_id,omitempty"`
}

// ActionResponse acknowledges a command that has no other result.
type ActionResponse struct {
	Status string `json:"status"`
}
