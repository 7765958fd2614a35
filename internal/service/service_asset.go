package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/models"
)

type assetService struct {
	assets store.AssetRepository
	writer outboxWriter

	logger *logger.Logger
}

func NewAssetService(storages *store.ClientStorages, engine Enqueuer, ids IDGenerator, logger *logger.Logger) AssetService {
	return &assetService{
		assets: storages.Assets,
		writer: newOutboxWriter(storages.Transactor, storages.Outbox, engine, ids),
		logger: logger,
	}
}

func (s *assetService) Create(ctx context.Context, asset models.Asset) (models.Asset, error) {
	if strings.TrimSpace(asset.OwnerID) == "" {
		return models.Asset{}, app.Wrap(app.ReasonMalformedPayload, ErrValidationNoOwnerID, "invalid asset")
	}
	if asset.ID == "" {
		asset.ID = s.writer.ids.Generate()
	}

	_, err := s.writer.write(ctx, asset.ID, func(ctx context.Context, now time.Time) (models.Payload, error) {
		asset.Version = 1
		asset.Deleted = false
		asset.UpdatedAt = now
		if err := s.assets.SaveAsset(ctx, asset); err != nil {
			return nil, err
		}
		return models.AssetCreatePayload{Asset: asset}, nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "assetService.Create").Str("asset_id", asset.ID).Msg("failed to create asset")
		return models.Asset{}, err
	}
	return asset, nil
}

// Update replaces the descriptive fields of an asset. Ownership only moves
// through transfers, so the stored owner is kept.
func (s *assetService) Update(ctx context.Context, asset models.Asset) (models.Asset, error) {
	if asset.ID == "" {
		return models.Asset{}, app.Wrap(app.ReasonMalformedPayload, ErrValidationNoAssetID, "invalid asset")
	}

	var updated models.Asset
	_, err := s.writer.write(ctx, asset.ID, func(ctx context.Context, now time.Time) (models.Payload, error) {
		current, err := s.assets.GetAsset(ctx, asset.ID)
		if err != nil {
			return nil, fmt.Errorf("load asset %s: %w", asset.ID, err)
		}
		if current.Deleted {
			return nil, app.InvalidState("update", "deleted asset")
		}

		updated = current
		updated.Name = asset.Name
		updated.Species = asset.Species
		updated.Attributes = asset.Attributes
		updated.Version = current.Version + 1
		updated.UpdatedAt = now
		if err = s.assets.SaveAsset(ctx, updated); err != nil {
			return nil, err
		}
		return models.AssetUpdatePayload{Asset: updated}, nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "assetService.Update").Str("asset_id", asset.ID).Msg("failed to update asset")
		return models.Asset{}, err
	}
	return updated, nil
}

// Delete marks an asset as deleted. The row is kept so pending transfers
// and conflicts can still refer to it.
func (s *assetService) Delete(ctx context.Context, assetID string) error {
	if assetID == "" {
		return app.Wrap(app.ReasonMalformedPayload, ErrValidationNoAssetID, "invalid asset")
	}

	_, err := s.writer.write(ctx, assetID, func(ctx context.Context, now time.Time) (models.Payload, error) {
		current, err := s.assets.GetAsset(ctx, assetID)
		if err != nil {
			return nil, fmt.Errorf("load asset %s: %w", assetID, err)
		}
		if current.Deleted {
			return nil, app.InvalidState("delete", "deleted asset")
		}

		current.Deleted = true
		current.Version++
		current.UpdatedAt = now
		if err = s.assets.SaveAsset(ctx, current); err != nil {
			return nil, err
		}
		return models.AssetDeletePayload{AssetID: assetID, Version: current.Version}, nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "assetService.Delete").Str("asset_id", assetID).Msg("failed to delete asset")
	}
	return err
}

func (s *assetService) Get(ctx context.Context, assetID string) (models.Asset, error) {
	return s.assets.GetAsset(ctx, assetID)
}
