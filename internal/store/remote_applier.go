package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/models"
)

type remoteApplier struct {
	db        *DB
	assets    AssetRepository
	transfers TransferRepository
	notes     NoteRepository
	logger    *logger.Logger
}

// NewRemoteApplier constructs a [RemoteApplier] writing through the given
// repositories.
func NewRemoteApplier(db *DB, assets AssetRepository, transfers TransferRepository, notes NoteRepository, logger *logger.Logger) RemoteApplier {
	return &remoteApplier{db: db, assets: assets, transfers: transfers, notes: notes, logger: logger}
}

// ApplyRemote replaces the local entity with record.Data. Payments and
// messages are append-only and have no local copy to replace. A transfer
// that is terminal locally is never moved back by a remote record.
func (a *remoteApplier) ApplyRemote(ctx context.Context, record models.VersionedRecord) error {
	log := logger.FromContext(ctx)

	switch record.Category {
	case models.CategoryAsset:
		var asset models.Asset
		if err := json.Unmarshal(record.Data, &asset); err != nil {
			return app.Wrap(app.ReasonMalformedPayload, err, "remote asset %s", record.EntityID)
		}
		asset.Version = record.Version
		return a.assets.SaveAsset(ctx, asset)

	case models.CategoryTransfer:
		var remote models.Transfer
		if err := json.Unmarshal(record.Data, &remote); err != nil {
			return app.Wrap(app.ReasonMalformedPayload, err, "remote transfer %s", record.EntityID)
		}
		remote.Version = record.Version

		return a.db.WithinTx(ctx, func(ctx context.Context) error {
			local, err := a.transfers.GetTransfer(ctx, remote.ID)
			switch {
			case errors.Is(err, ErrTransferNotFound):
			case err != nil:
				return err
			case local.IsTerminal() && local.Status != remote.Status:
				log.Warn().
					Str("func", "remoteApplier.ApplyRemote").
					Str("transfer_id", remote.ID).
					Str("local_status", string(local.Status)).
					Str("remote_status", string(remote.Status)).
					Msg("remote transfer would regress a terminal local transfer, keeping local")
				return nil
			}
			return a.transfers.SaveTransfer(ctx, remote)
		})

	case models.CategoryNote:
		var note models.Note
		if err := json.Unmarshal(record.Data, &note); err != nil {
			return app.Wrap(app.ReasonMalformedPayload, err, "remote note %s", record.EntityID)
		}
		note.Version = record.Version
		return a.notes.SaveNote(ctx, note)

	case models.CategoryPayment, models.CategoryMessage:
		return nil
	}

	return app.New(app.ReasonMalformedPayload, "unknown category %q", record.Category)
}
