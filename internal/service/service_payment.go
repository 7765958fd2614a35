package service

import (
	"context"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/models"
)

type paymentService struct {
	writer outboxWriter

	logger *logger.Logger
}

func NewPaymentService(storages *store.ClientStorages, engine Enqueuer, ids IDGenerator, logger *logger.Logger) PaymentService {
	return &paymentService{
		writer: newOutboxWriter(storages.Transactor, storages.Outbox, engine, ids),
		logger: logger,
	}
}

// ConfirmPayment records a payment confirmation for the authority. Payments
// are not stored locally.
func (s *paymentService) ConfirmPayment(ctx context.Context, payment models.PaymentConfirmPayload) (models.SyncItem, error) {
	if payment.PaymentID == "" || payment.TransferID == "" {
		return models.SyncItem{}, app.Wrap(app.ReasonMalformedPayload, ErrValidationNoPayment, "invalid payment")
	}
	if payment.ConfirmedAt.IsZero() {
		payment.ConfirmedAt = s.writer.now().UTC()
	}

	item, err := s.writer.enqueueOnly(ctx, payment.PaymentID, payment)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "paymentService.ConfirmPayment").Str("payment_id", payment.PaymentID).Msg("failed to record payment confirmation")
	}
	return item, err
}
