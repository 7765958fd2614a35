package service

import (
	"context"

	"github.com/MKhiriev/go-herd-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AssetService edits the local registry. Every change is committed together
// with its outbox entry and synced later.
type AssetService interface {
	Create(ctx context.Context, asset models.Asset) (models.Asset, error)
	Update(ctx context.Context, asset models.Asset) (models.Asset, error)
	Delete(ctx context.Context, assetID string) error
	Get(ctx context.Context, assetID string) (models.Asset, error)
}

type NoteService interface {
	Upsert(ctx context.Context, note models.Note) (models.Note, error)
}

type PaymentService interface {
	ConfirmPayment(ctx context.Context, payment models.PaymentConfirmPayload) (models.SyncItem, error)
}

type MessageService interface {
	Send(ctx context.Context, msg models.MessageSendPayload) (models.SyncItem, error)
}

// TransferService runs ownership handoffs.
type TransferService interface {
	// Initiate opens a pending transfer of a local asset.
	Initiate(ctx context.Context, req models.InitiateTransferRequest) (models.Transfer, error)

	// Verify completes a pending transfer. The observed attributes must
	// match the expected ones within tolerance.
	Verify(ctx context.Context, transferID string, details models.VerificationDetails) (models.Transfer, error)

	// Reject cancels a pending transfer.
	Reject(ctx context.Context, transferID, reason string) (models.Transfer, error)

	Get(ctx context.Context, transferID string) (models.Transfer, error)
}

// TransferServiceWrapper decorates a TransferService, e.g. with request
// validation.
type TransferServiceWrapper interface {
	Wrap(TransferService) TransferService
}

// SyncService is the control surface of the sync engine.
type SyncService interface {
	Enqueue(item models.SyncItem)
	ForceSyncNow() error
	Resume()
	Stats() models.SyncStats
	SubscribeStats(ctx context.Context) <-chan models.SyncStats
	ResetStats()
	Queue() []models.SyncItem
	DeadLetters(ctx context.Context) ([]models.DeadLetter, error)
}
