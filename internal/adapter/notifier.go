package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

type transferNotification struct {
	TransferID  string                `json:"transfer_id"`
	AssetID     string                `json:"asset_id"`
	FromOwnerID string                `json:"from_owner_id"`
	ToOwnerID   string                `json:"to_owner_id"`
	Status      models.TransferStatus `json:"status"`
	Reason      string                `json:"reason,omitempty"`
	OccurredAt  time.Time             `json:"occurred_at"`
	DeviceID    string                `json:"device_id"`
}

type httpNotifier struct {
	client   *utils.HTTPClient
	deviceID string
	logger   *logger.Logger
}

// NewHTTPNotifier constructs a [Notifier] posting to the notification
// service at adapterCfg.NotifyAddress.
func NewHTTPNotifier(adapterCfg config.ClientAdapter, appCfg config.ClientApp, logger *logger.Logger) (Notifier, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.NotifyAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid notify address: %w", err)
	}

	return &httpNotifier{
		client:   utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout, appCfg.AuthToken),
		deviceID: appCfg.DeviceID,
		logger:   logger,
	}, nil
}

// NotifyTransfer implements [Notifier]: POST /api/v1/notifications/transfers.
func (n *httpNotifier) NotifyTransfer(ctx context.Context, transfer models.Transfer) error {
	occurredAt := transfer.InitiatedAt
	switch {
	case transfer.VerifiedAt != nil:
		occurredAt = *transfer.VerifiedAt
	case transfer.RejectedAt != nil:
		occurredAt = *transfer.RejectedAt
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(transferNotification{
			TransferID:  transfer.ID,
			AssetID:     transfer.AssetID,
			FromOwnerID: transfer.FromOwnerID,
			ToOwnerID:   transfer.ToOwnerID,
			Status:      transfer.Status,
			Reason:      transfer.RejectionReason,
			OccurredAt:  occurredAt,
			DeviceID:    n.deviceID,
		}).
		Post("/api/v1/notifications/transfers")
	if err != nil {
		return mapTransportError(err)
	}

	return mapHTTPError(resp)
}
