// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncType names one kind of remote mutation. Every SyncType has exactly one
// payload variant and one remote authority call.
type SyncType string

const (
	SyncAssetCreate    SyncType = "ASSET_CREATE"
	SyncAssetUpdate    SyncType = "ASSET_UPDATE"
	SyncAssetDelete    SyncType = "ASSET_DELETE"
	SyncTransferCreate SyncType = "TRANSFER_CREATE"
	SyncTransferVerify SyncType = "TRANSFER_VERIFY"
	SyncTransferReject SyncType = "TRANSFER_REJECT"
	SyncPaymentConfirm SyncType = "PAYMENT_CONFIRM"
	SyncNoteUpsert     SyncType = "NOTE_UPSERT"
	SyncMessageSend    SyncType = "MESSAGE_SEND"
)

// EntityCategory groups sync types that touch the same kind of entity.
// Categories are synced by independent passes and carry the conflict
// sensitivity of the entity.
type EntityCategory string

const (
	CategoryAsset    EntityCategory = "asset"
	CategoryTransfer EntityCategory = "transfer"
	CategoryPayment  EntityCategory = "payment"
	CategoryNote     EntityCategory = "note"
	CategoryMessage  EntityCategory = "message"
)

// AllCategories lists every entity category in a stable order.
var AllCategories = []EntityCategory{
	CategoryTransfer,
	CategoryPayment,
	CategoryAsset,
	CategoryMessage,
	CategoryNote,
}

type syncTypeInfo struct {
	category EntityCategory
	priority SyncPriority
}

var syncTypes = map[SyncType]syncTypeInfo{
	SyncAssetCreate:    {CategoryAsset, PriorityHigh},
	SyncAssetUpdate:    {CategoryAsset, PriorityMedium},
	SyncAssetDelete:    {CategoryAsset, PriorityHigh},
	SyncTransferCreate: {CategoryTransfer, PriorityCritical},
	SyncTransferVerify: {CategoryTransfer, PriorityCritical},
	SyncTransferReject: {CategoryTransfer, PriorityCritical},
	SyncPaymentConfirm: {CategoryPayment, PriorityCritical},
	SyncNoteUpsert:     {CategoryNote, PriorityLow},
	SyncMessageSend:    {CategoryMessage, PriorityMedium},
}

// Valid reports whether t is a known sync type.
func (t SyncType) Valid() bool {
	_, ok := syncTypes[t]
	return ok
}

// Category returns the entity category of t, or "" for unknown types.
func (t SyncType) Category() EntityCategory {
	return syncTypes[t].category
}

// DefaultPriority returns the priority a fresh item of type t is queued with.
func (t SyncType) DefaultPriority() SyncPriority {
	return syncTypes[t].priority
}

// SyncKey identifies the queue slot of an item: one live intent per entity
// and sync type.
type SyncKey struct {
	EntityID string
	Type     SyncType
}

func (k SyncKey) String() string {
	return fmt.Sprintf("%s/%s", k.Type, k.EntityID)
}

// SyncItem is one pending remote mutation for one entity.
type SyncItem struct {
	// OutboxID identifies the durable outbox row backing this item. It is also
	// sent to the remote authority as the idempotency key.
	OutboxID string `json:"outbox_id"`

	EntityID string       `json:"entity_id"`
	Type     SyncType     `json:"type"`
	Payload  Payload      `json:"-"`
	Priority SyncPriority `json:"priority"`

	RetryCount    uint32    `json:"retry_count"`
	CreatedAt     time.Time `json:"created_at"`
	NextAttemptAt time.Time `json:"next_attempt_at,omitzero"`
	LastError     string    `json:"last_error,omitempty"`
}

// NewSyncItem builds an item for payload with the default priority of its
// sync type.
func NewSyncItem(outboxID, entityID string, payload Payload, now time.Time) SyncItem {
	t := payload.SyncType()
	return SyncItem{
		OutboxID:  outboxID,
		EntityID:  entityID,
		Type:      t,
		Payload:   payload,
		Priority:  t.DefaultPriority(),
		CreatedAt: now,
	}
}

func (i SyncItem) Key() SyncKey {
	return SyncKey{EntityID: i.EntityID, Type: i.Type}
}

func (i SyncItem) Category() EntityCategory {
	return i.Type.Category()
}

// MarshalJSON adds the encoded payload next to the item fields.
func (i SyncItem) MarshalJSON() ([]byte, error) {
	type plain SyncItem
	var raw json.RawMessage
	if i.Payload != nil {
		encoded, err := EncodePayload(i.Payload)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return json.Marshal(struct {
		plain
		Payload json.RawMessage `json:"payload,omitempty"`
	}{plain: plain(i), Payload: raw})
}

// DeadLetter is a permanently failed item kept for diagnostics. It is never
// retried automatically.
type DeadLetter struct {
	OutboxID   string          `json:"outbox_id"`
	EntityID   string          `json:"entity_id"`
	Type       SyncType        `json:"type"`
	Priority   SyncPriority    `json:"priority"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount uint32          `json:"retry_count"`
	CreatedAt  time.Time       `json:"created_at"`
	FailedAt   time.Time       `json:"failed_at"`
	ErrorKind  string          `json:"error_kind"`
	Error      string          `json:"error"`
}

// SyncStats is observation-only state maintained by the orchestrator.
type SyncStats struct {
	IsActive          bool       `json:"is_active"`
	State             string     `json:"state"`
	Strategy          string     `json:"strategy"`
	Halted            bool       `json:"halted"`
	LastSyncStarted   *time.Time `json:"last_sync_started,omitempty"`
	LastSyncCompleted *time.Time `json:"last_sync_completed,omitempty"`
	SuccessfulSyncs   uint64     `json:"successful_syncs"`
	FailedSyncs       uint64     `json:"failed_syncs"`
	DeadLetters       uint64     `json:"dead_letters"`
	LastError         string     `json:"last_error,omitempty"`
}
