package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/models"
)

type noteService struct {
	notes  store.NoteRepository
	writer outboxWriter

	logger *logger.Logger
}

func NewNoteService(storages *store.ClientStorages, engine Enqueuer, ids IDGenerator, logger *logger.Logger) NoteService {
	return &noteService{
		notes:  storages.Notes,
		writer: newOutboxWriter(storages.Transactor, storages.Outbox, engine, ids),
		logger: logger,
	}
}

// Upsert creates a note or replaces its body, bumping the version.
func (s *noteService) Upsert(ctx context.Context, note models.Note) (models.Note, error) {
	if note.AssetID == "" {
		return models.Note{}, app.Wrap(app.ReasonMalformedPayload, ErrValidationNoAssetID, "invalid note")
	}
	if strings.TrimSpace(note.Body) == "" {
		return models.Note{}, app.Wrap(app.ReasonMalformedPayload, ErrValidationNoNoteBody, "invalid note")
	}
	if note.ID == "" {
		note.ID = s.writer.ids.Generate()
	}

	_, err := s.writer.write(ctx, note.ID, func(ctx context.Context, now time.Time) (models.Payload, error) {
		current, err := s.notes.GetNote(ctx, note.ID)
		switch {
		case errors.Is(err, store.ErrNoteNotFound):
			note.Version = 1
		case err != nil:
			return nil, err
		default:
			note.Version = current.Version + 1
		}

		note.UpdatedAt = now
		if err = s.notes.SaveNote(ctx, note); err != nil {
			return nil, err
		}
		return models.NoteUpsertPayload{Note: note}, nil
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "noteService.Upsert").Str("note_id", note.ID).Msg("failed to save note")
		return models.Note{}, err
	}
	return note, nil
}
