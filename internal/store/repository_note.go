package store

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/models"
)

var noteColumns = []string{"id", "asset_id", "body", "version", "updated_at"}

type noteRepository struct {
	db     *DB
	logger *logger.Logger
}

func NewNoteRepository(db *DB, logger *logger.Logger) NoteRepository {
	return &noteRepository{db: db, logger: logger}
}

func (r *noteRepository) SaveNote(ctx context.Context, note models.Note) error {
	insert := r.db.builder.Insert(note.TableName()).
		Columns(noteColumns...).
		Values(note.ID, note.AssetID, note.Body, note.Version, note.UpdatedAt.UTC()).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
	asset_id = excluded.asset_id,
	body = excluded.body,
	version = excluded.version,
	updated_at = excluded.updated_at`)

	if _, err := r.db.exec(ctx, insert); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "noteRepository.SaveNote").Str("note_id", note.ID).Msg("failed to save note")
		return err
	}
	return nil
}

func (r *noteRepository) GetNote(ctx context.Context, noteID string) (models.Note, error) {
	sel := r.db.builder.Select(noteColumns...).
		From((&models.Note{}).TableName()).
		Where(sq.Eq{"id": noteID})

	row, err := r.db.queryRow(ctx, sel)
	if err != nil {
		return models.Note{}, err
	}

	var note models.Note
	if err := row.Scan(&note.ID, &note.AssetID, &note.Body, &note.Version, &note.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Note{}, ErrNoteNotFound
		}
		return models.Note{}, r.db.classify(ErrScanningRow, err)
	}

	return note, nil
}
