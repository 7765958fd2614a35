package service

import (
	"context"
	"strings"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/models"
)

type messageService struct {
	writer outboxWriter

	logger *logger.Logger
}

func NewMessageService(storages *store.ClientStorages, engine Enqueuer, ids IDGenerator, logger *logger.Logger) MessageService {
	return &messageService{
		writer: newOutboxWriter(storages.Transactor, storages.Outbox, engine, ids),
		logger: logger,
	}
}

func (s *messageService) Send(ctx context.Context, msg models.MessageSendPayload) (models.SyncItem, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return models.SyncItem{}, app.Wrap(app.ReasonMalformedPayload, ErrValidationNoMessage, "invalid message")
	}
	if msg.MessageID == "" {
		msg.MessageID = s.writer.ids.Generate()
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = s.writer.now().UTC()
	}

	item, err := s.writer.enqueueOnly(ctx, msg.MessageID, msg)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "messageService.Send").Str("message_id", msg.MessageID).Msg("failed to queue message")
	}
	return item, err
}
