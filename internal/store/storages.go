package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
)

// ClientStorages groups the repositories of the local store so they can be
// passed to the service layer as one value.
type ClientStorages struct {
	DB            *DB
	Transactor    Transactor
	Outbox        OutboxRepository
	Assets        AssetRepository
	Transfers     TransferRepository
	Notes         NoteRepository
	RemoteApplier RemoteApplier
}

// NewClientStorages opens the store named by cfg.DB.DSN (SQLite file or
// PostgreSQL URL), applies pending migrations and wires the repositories.
func NewClientStorages(ctx context.Context, cfg config.ClientStorage, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Msg("creating new storages...")

	db, err := NewConnect(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return NewClientStoragesFromDB(db, logger), nil
}

// NewClientStoragesFromDB wires the repositories over an open connection.
func NewClientStoragesFromDB(db *DB, logger *logger.Logger) *ClientStorages {
	outbox := NewOutboxRepository(db, logger)
	assets := NewAssetRepository(db, logger)
	notes := NewNoteRepository(db, logger)
	transfers := NewTransferRepository(db, assets, outbox, logger)

	return &ClientStorages{
		DB:            db,
		Transactor:    db,
		Outbox:        outbox,
		Assets:        assets,
		Transfers:     transfers,
		Notes:         notes,
		RemoteApplier: NewRemoteApplier(db, assets, transfers, notes, logger),
	}
}

// Close releases the database connection.
func (s *ClientStorages) Close() error {
	return s.DB.Close()
}
