package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/models"
)

var transferColumns = []string{
	"id", "asset_id", "from_owner_id", "to_owner_id", "status", "expected",
	"verification", "rejection_reason", "initiated_at", "verified_at", "rejected_at", "version",
}

const transferUpsert = `ON CONFLICT (id) DO UPDATE SET
	status = excluded.status,
	verification = excluded.verification,
	rejection_reason = excluded.rejection_reason,
	verified_at = excluded.verified_at,
	rejected_at = excluded.rejected_at,
	version = excluded.version`

type transferRepository struct {
	db     *DB
	assets AssetRepository
	outbox OutboxRepository
	logger *logger.Logger
}

// NewTransferRepository constructs a [TransferRepository]. Transitions are
// written through assets and outbox inside one transaction of db.
func NewTransferRepository(db *DB, assets AssetRepository, outbox OutboxRepository, logger *logger.Logger) TransferRepository {
	return &transferRepository{db: db, assets: assets, outbox: outbox, logger: logger}
}

// SaveTransfer inserts the transfer or updates its mutable columns.
func (r *transferRepository) SaveTransfer(ctx context.Context, transfer models.Transfer) error {
	expected, err := encodeJSONColumn(transfer.Expected)
	if err != nil {
		return err
	}

	var verification sql.NullString
	if transfer.VerificationDetails != nil {
		encoded, err := encodeJSONColumn(transfer.VerificationDetails)
		if err != nil {
			return err
		}
		verification = sql.NullString{String: encoded, Valid: true}
	}

	insert := r.db.builder.Insert(transfer.TableName()).
		Columns(transferColumns...).
		Values(
			transfer.ID, transfer.AssetID, transfer.FromOwnerID, transfer.ToOwnerID, string(transfer.Status),
			expected, verification, transfer.RejectionReason, transfer.InitiatedAt.UTC(),
			nullTimePtr(transfer.VerifiedAt), nullTimePtr(transfer.RejectedAt), transfer.Version,
		).
		Suffix(transferUpsert)

	if _, err := r.db.exec(ctx, insert); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "transferRepository.SaveTransfer").
			Str("transfer_id", transfer.ID).
			Msg("failed to save transfer")
		return err
	}

	return nil
}

func (r *transferRepository) GetTransfer(ctx context.Context, transferID string) (models.Transfer, error) {
	sel := r.db.builder.Select(transferColumns...).
		From((&models.Transfer{}).TableName()).
		Where(sq.Eq{"id": transferID})

	t, err := r.scanTransfer(ctx, sel)
	if err != nil && !errors.Is(err, ErrTransferNotFound) {
		logger.FromContext(ctx).Err(err).
			Str("func", "transferRepository.GetTransfer").
			Str("transfer_id", transferID).
			Msg("failed to read transfer")
	}
	return t, err
}

// PendingTransferForAsset returns the open transfer of an asset, or
// ErrTransferNotFound when there is none.
func (r *transferRepository) PendingTransferForAsset(ctx context.Context, assetID string) (models.Transfer, error) {
	sel := r.db.builder.Select(transferColumns...).
		From((&models.Transfer{}).TableName()).
		Where(sq.Eq{"asset_id": assetID, "status": string(models.TransferPending)}).
		Limit(1)

	t, err := r.scanTransfer(ctx, sel)
	if err != nil && !errors.Is(err, ErrTransferNotFound) {
		logger.FromContext(ctx).Err(err).
			Str("func", "transferRepository.PendingTransferForAsset").
			Str("asset_id", assetID).
			Msg("failed to read pending transfer")
	}
	return t, err
}

func (r *transferRepository) scanTransfer(ctx context.Context, sel sq.SelectBuilder) (models.Transfer, error) {
	row, err := r.db.queryRow(ctx, sel)
	if err != nil {
		return models.Transfer{}, err
	}

	var (
		t            models.Transfer
		status       string
		expected     string
		verification sql.NullString
		verifiedAt   sql.NullTime
		rejectedAt   sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.AssetID, &t.FromOwnerID, &t.ToOwnerID, &status, &expected,
		&verification, &t.RejectionReason, &t.InitiatedAt, &verifiedAt, &rejectedAt, &t.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transfer{}, ErrTransferNotFound
		}
		return models.Transfer{}, r.db.classify(ErrScanningRow, err)
	}

	t.Status = models.TransferStatus(status)
	if err := decodeJSONColumn(expected, &t.Expected); err != nil {
		return models.Transfer{}, err
	}
	if verification.Valid {
		t.VerificationDetails = new(models.VerificationDetails)
		if err := decodeJSONColumn(verification.String, t.VerificationDetails); err != nil {
			return models.Transfer{}, err
		}
	}
	if verifiedAt.Valid {
		t.VerifiedAt = &verifiedAt.Time
	}
	if rejectedAt.Valid {
		t.RejectedAt = &rejectedAt.Time
	}

	return t, nil
}

// WriteTransition commits the transfer row, the ownership flip and the outbox
// entry together. Nothing is written when any step fails.
//
// A second pending transfer of the same asset is refused by the unique index
// on pending transfers; a flip is refused when the asset no longer belongs to
// the seller. Both surface as invalid-state errors.
func (r *transferRepository) WriteTransition(ctx context.Context, transition models.TransferTransition) error {
	t := transition.Transfer

	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		if err := r.SaveTransfer(ctx, t); err != nil {
			if errors.Is(err, ErrUniqueViolation) {
				return app.Wrap(app.ReasonInvalidState, ErrPendingTransferExists, "asset %s already has a pending transfer", t.AssetID)
			}
			return err
		}

		if transition.FlipOwnership {
			if err := r.flipOwner(ctx, t); err != nil {
				return err
			}
		}

		return r.outbox.Append(ctx, transition.Outbox)
	})
}

func (r *transferRepository) flipOwner(ctx context.Context, t models.Transfer) error {
	log := logger.FromContext(ctx)

	asset, err := r.assets.GetAsset(ctx, t.AssetID)
	switch {
	case errors.Is(err, ErrAssetNotFound):
		// the buyer's device may not hold the asset yet
		log.Debug().
			Str("func", "transferRepository.WriteTransition").
			Str("asset_id", t.AssetID).
			Msg("asset not stored locally, ownership flip skipped")
		return nil
	case err != nil:
		return err
	}

	if asset.OwnerID != t.FromOwnerID {
		log.Error().
			Str("func", "transferRepository.WriteTransition").
			Str("asset_id", t.AssetID).
			Str("owner_id", asset.OwnerID).
			Str("from_owner_id", t.FromOwnerID).
			Msg("asset changed hands since the transfer was initiated")
		return app.Wrap(app.ReasonInvalidState, ErrOwnershipChanged, "asset %s is owned by %s, not %s", t.AssetID, asset.OwnerID, t.FromOwnerID)
	}

	err = r.assets.SetOwner(ctx, t.AssetID, t.ToOwnerID, transferTime(t))
	if errors.Is(err, ErrAssetNotFound) {
		return nil
	}
	return err
}

func transferTime(t models.Transfer) time.Time {
	switch {
	case t.VerifiedAt != nil:
		return *t.VerifiedAt
	case t.RejectedAt != nil:
		return *t.RejectedAt
	default:
		return t.InitiatedAt
	}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return nullTime(*t)
}
