package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrUnknownSyncType is returned when a payload is decoded for a sync type
// that has no payload variant.
var ErrUnknownSyncType = errors.New("unknown sync type")

// Payload is the closed set of remote mutations. Only the variants declared
// in this file implement it.
type Payload interface {
	// SyncType returns the sync type the variant belongs to.
	SyncType() SyncType

	// EntityVersion returns the local version of the entity carried by the
	// payload. It is compared against the remote version on conflicts.
	EntityVersion() int64

	// WithVersion returns a copy of the payload rebased onto version.
	WithVersion(version int64) Payload

	isPayload()
}

type AssetCreatePayload struct {
	Asset Asset `json:"asset"`
}

type AssetUpdatePayload struct {
	Asset Asset `json:"asset"`
}

type AssetDeletePayload struct {
	AssetID string `json:"asset_id"`
	Version int64  `json:"version"`
}

type TransferCreatePayload struct {
	Transfer Transfer `json:"transfer"`
}

// TransferVerifyPayload flips ownership of Transfer.AssetID to
// Transfer.ToOwnerID on the remote authority.
type TransferVerifyPayload struct {
	Transfer Transfer `json:"transfer"`
}

type TransferRejectPayload struct {
	Transfer Transfer `json:"transfer"`
}

type PaymentConfirmPayload struct {
	PaymentID   string    `json:"payment_id"`
	TransferID  string    `json:"transfer_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Reference   string    `json:"reference"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

type NoteUpsertPayload struct {
	Note Note `json:"note"`
}

type MessageSendPayload struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	SentAt         time.Time `json:"sent_at"`
}

func (AssetCreatePayload) SyncType() SyncType    { return SyncAssetCreate }
func (AssetUpdatePayload) SyncType() SyncType    { return SyncAssetUpdate }
func (AssetDeletePayload) SyncType() SyncType    { return SyncAssetDelete }
func (TransferCreatePayload) SyncType() SyncType { return SyncTransferCreate }
func (TransferVerifyPayload) SyncType() SyncType { return SyncTransferVerify }
func (TransferRejectPayload) SyncType() SyncType { return SyncTransferReject }
func (PaymentConfirmPayload) SyncType() SyncType { return SyncPaymentConfirm }
func (NoteUpsertPayload) SyncType() SyncType     { return SyncNoteUpsert }
func (MessageSendPayload) SyncType() SyncType    { return SyncMessageSend }

func (p AssetCreatePayload) EntityVersion() int64    { return p.Asset.Version }
func (p AssetUpdatePayload) EntityVersion() int64    { return p.Asset.Version }
func (p AssetDeletePayload) EntityVersion() int64    { return p.Version }
func (p TransferCreatePayload) EntityVersion() int64 { return p.Transfer.Version }
func (p TransferVerifyPayload) EntityVersion() int64 { return p.Transfer.Version }
func (p TransferRejectPayload) EntityVersion() int64 { return p.Transfer.Version }
func (PaymentConfirmPayload) EntityVersion() int64   { return 1 }
func (p NoteUpsertPayload) EntityVersion() int64     { return p.Note.Version }
func (MessageSendPayload) EntityVersion() int64      { return 1 }

func (p AssetCreatePayload) WithVersion(v int64) Payload {
	p.Asset.Version = v
	return p
}

func (p AssetUpdatePayload) WithVersion(v int64) Payload {
	p.Asset.Version = v
	return p
}

func (p AssetDeletePayload) WithVersion(v int64) Payload {
	p.Version = v
	return p
}

func (p TransferCreatePayload) WithVersion(v int64) Payload {
	p.Transfer.Version = v
	return p
}

func (p TransferVerifyPayload) WithVersion(v int64) Payload {
	p.Transfer.Version = v
	return p
}

func (p TransferRejectPayload) WithVersion(v int64) Payload {
	p.Transfer.Version = v
	return p
}

// payments and messages are append-only and carry no version
func (p PaymentConfirmPayload) WithVersion(int64) Payload { return p }

func (p NoteUpsertPayload) WithVersion(v int64) Payload {
	p.Note.Version = v
	return p
}

func (p MessageSendPayload) WithVersion(int64) Payload { return p }

func (AssetCreatePayload) isPayload()    {}
func (AssetUpdatePayload) isPayload()    {}
func (AssetDeletePayload) isPayload()    {}
func (TransferCreatePayload) isPayload() {}
func (TransferVerifyPayload) isPayload() {}
func (TransferRejectPayload) isPayload() {}
func (PaymentConfirmPayload) isPayload() {}
func (NoteUpsertPayload) isPayload()     {}
func (MessageSendPayload) isPayload()    {}

// EncodePayload serialises p. The sync type is stored next to the payload by
// the caller (outbox column, SyncItem.Type) and is required to decode it.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, errors.New("nil payload")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.SyncType(), err)
	}
	return data, nil
}

// DecodePayload restores the payload variant for t from data.
func DecodePayload(t SyncType, data []byte) (Payload, error) {
	switch t {
	case SyncAssetCreate:
		return decodeAs[AssetCreatePayload](t, data)
	case SyncAssetUpdate:
		return decodeAs[AssetUpdatePayload](t, data)
	case SyncAssetDelete:
		return decodeAs[AssetDeletePayload](t, data)
	case SyncTransferCreate:
		return decodeAs[TransferCreatePayload](t, data)
	case SyncTransferVerify:
		return decodeAs[TransferVerifyPayload](t, data)
	case SyncTransferReject:
		return decodeAs[TransferRejectPayload](t, data)
	case SyncPaymentConfirm:
		return decodeAs[PaymentConfirmPayload](t, data)
	case SyncNoteUpsert:
		return decodeAs[NoteUpsertPayload](t, data)
	case SyncMessageSend:
		return decodeAs[MessageSendPayload](t, data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSyncType, t)
	}
}

func decodeAs[T Payload](t SyncType, data []byte) (Payload, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}
