package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/models"
)

var assetColumns = []string{"id", "owner_id", "name", "species", "attributes", "version", "deleted", "updated_at"}

const assetUpsert = `ON CONFLICT (id) DO UPDATE SET
	owner_id = excluded.owner_id,
	name = excluded.name,
	species = excluded.species,
	attributes = excluded.attributes,
	version = excluded.version,
	deleted = excluded.deleted,
	updated_at = excluded.updated_at`

type assetRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewAssetRepository constructs an [AssetRepository] over db.
func NewAssetRepository(db *DB, logger *logger.Logger) AssetRepository {
	return &assetRepository{db: db, logger: logger}
}

// SaveAsset inserts or replaces the asset row.
func (r *assetRepository) SaveAsset(ctx context.Context, asset models.Asset) error {
	log := logger.FromContext(ctx)

	attributes, err := encodeJSONColumn(asset.Attributes)
	if err != nil {
		return err
	}

	insert := r.db.builder.Insert(asset.TableName()).
		Columns(assetColumns...).
		Values(asset.ID, asset.OwnerID, asset.Name, asset.Species, attributes,
			asset.Version, asset.Deleted, asset.UpdatedAt.UTC()).
		Suffix(assetUpsert)

	if _, err := r.db.exec(ctx, insert); err != nil {
		log.Err(err).Str("func", "assetRepository.SaveAsset").Str("asset_id", asset.ID).Msg("failed to save asset")
		return err
	}

	return nil
}

// GetAsset returns the asset with assetID, including soft-deleted ones.
func (r *assetRepository) GetAsset(ctx context.Context, assetID string) (models.Asset, error) {
	sel := r.db.builder.Select(assetColumns...).
		From((&models.Asset{}).TableName()).
		Where(sq.Eq{"id": assetID})

	row, err := r.db.queryRow(ctx, sel)
	if err != nil {
		return models.Asset{}, err
	}

	var (
		asset      models.Asset
		attributes string
	)
	if err := row.Scan(&asset.ID, &asset.OwnerID, &asset.Name, &asset.Species, &attributes,
		&asset.Version, &asset.Deleted, &asset.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Asset{}, ErrAssetNotFound
		}
		logger.FromContext(ctx).Err(err).
			Str("func", "assetRepository.GetAsset").
			Str("asset_id", assetID).
			Msg("failed to scan asset row")
		return models.Asset{}, r.db.classify(ErrScanningRow, err)
	}

	if err := decodeJSONColumn(attributes, &asset.Attributes); err != nil {
		return models.Asset{}, err
	}

	return asset, nil
}

// SetOwner records a local ownership change without touching the version;
// the authority assigns the next version when it applies the transfer.
func (r *assetRepository) SetOwner(ctx context.Context, assetID, ownerID string, updatedAt time.Time) error {
	upd := r.db.builder.Update((&models.Asset{}).TableName()).
		Set("owner_id", ownerID).
		Set("updated_at", updatedAt.UTC()).
		Where(sq.Eq{"id": assetID})

	affected, err := r.db.exec(ctx, upd)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "assetRepository.SetOwner").
			Str("asset_id", assetID).
			Msg("failed to set asset owner")
		return err
	}
	if affected == 0 {
		return ErrAssetNotFound
	}

	return nil
}
