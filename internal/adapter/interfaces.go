// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the outbound transports of the client: the remote
// authority that accepts synced mutations and the notification service that
// tells the other party of a transfer about its outcome.
//
// Every failure is returned as an [app.Error] so the sync engine can decide
// between retrying, resolving a conflict and dead-lettering without knowing
// about HTTP. Status codes are mapped by mapHTTPError.
package adapter

import (
	"context"

	"github.com/MKhiriev/go-herd-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// RemoteAuthority is the source of truth for assets, ownership and
// transfers. There is one call per sync type. idempotencyKey is the outbox id
// of the item being pushed; the authority applies a replayed key once.
//
// On success each call returns the record as stored by the authority. A
// version conflict is returned as an [app.Error] with reason
// version_conflict carrying the remote record when the authority sent one.
type RemoteAuthority interface {
	PushAssetCreate(ctx context.Context, idempotencyKey string, p models.AssetCreatePayload) (models.VersionedRecord, error)
	PushAssetUpdate(ctx context.Context, idempotencyKey string, p models.AssetUpdatePayload) (models.VersionedRecord, error)
	PushAssetDelete(ctx context.Context, idempotencyKey string, p models.AssetDeletePayload) (models.VersionedRecord, error)

	PushTransferCreate(ctx context.Context, idempotencyKey string, p models.TransferCreatePayload) (models.VersionedRecord, error)
	PushTransferVerify(ctx context.Context, idempotencyKey string, p models.TransferVerifyPayload) (models.VersionedRecord, error)
	PushTransferReject(ctx context.Context, idempotencyKey string, p models.TransferRejectPayload) (models.VersionedRecord, error)

	PushPaymentConfirm(ctx context.Context, idempotencyKey string, p models.PaymentConfirmPayload) (models.VersionedRecord, error)
	PushNote(ctx context.Context, idempotencyKey string, p models.NoteUpsertPayload) (models.VersionedRecord, error)
	PushMessage(ctx context.Context, idempotencyKey string, p models.MessageSendPayload) (models.VersionedRecord, error)

	// FetchRecord returns the authority's current record of an entity. It is
	// used when a conflict response did not carry the remote record.
	FetchRecord(ctx context.Context, category models.EntityCategory, entityID string) (models.VersionedRecord, error)
}

// Notifier tells the counterparty of a transfer that it reached a terminal
// state. Delivery is best effort.
type Notifier interface {
	NotifyTransfer(ctx context.Context, transfer models.Transfer) error
}
