package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-herd-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// Transactor runs a unit of work in one database transaction. Repository
// calls made with the context handed to fn are part of the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OutboxRepository is the durable record of pending remote mutations. It is
// unique on (entity id, sync type): appending a newer intent replaces the
// pending one, including its id.
type OutboxRepository interface {
	Append(ctx context.Context, item models.SyncItem) error
	Remove(ctx context.Context, outboxID string) error
	ListPending(ctx context.Context, filter models.PrioritySet) ([]models.SyncItem, error)
	MarkRetry(ctx context.Context, outboxID string, retryCount uint32, nextAttemptAt time.Time, lastError string) error
	Rebase(ctx context.Context, item models.SyncItem) error
	DeadLetter(ctx context.Context, item models.SyncItem, failedAt time.Time, errorKind, errorMessage string) error
	ListDeadLetters(ctx context.Context) ([]models.DeadLetter, error)
}

// AssetRepository stores the local view of assets.
type AssetRepository interface {
	SaveAsset(ctx context.Context, asset models.Asset) error
	GetAsset(ctx context.Context, assetID string) (models.Asset, error)
	SetOwner(ctx context.Context, assetID, ownerID string, updatedAt time.Time) error
}

// TransferRepository stores transfers. WriteTransition persists a state
// change together with its outbox entry (and the ownership flip of a
// verification) in one transaction. At most one transfer per asset is
// pending.
type TransferRepository interface {
	SaveTransfer(ctx context.Context, transfer models.Transfer) error
	GetTransfer(ctx context.Context, transferID string) (models.Transfer, error)
	PendingTransferForAsset(ctx context.Context, assetID string) (models.Transfer, error)
	WriteTransition(ctx context.Context, transition models.TransferTransition) error
}

// NoteRepository stores asset notes.
type NoteRepository interface {
	SaveNote(ctx context.Context, note models.Note) error
	GetNote(ctx context.Context, noteID string) (models.Note, error)
}

// RemoteApplier writes the authority's version of an entity into the local
// store after a conflict was resolved in the authority's favour.
type RemoteApplier interface {
	ApplyRemote(ctx context.Context, record models.VersionedRecord) error
}
