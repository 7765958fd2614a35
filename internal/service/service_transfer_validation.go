package service

import (
	"context"
	"errors"
	"strings"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/models"
)

var (
	ErrValidationNoTransferID = errors.New("no transfer ID was given")
	ErrValidationNoVerifier   = errors.New("verified_by is required")
	ErrValidationNoReason     = errors.New("a rejection reason is required")
)

// TransferValidationService checks request shape before a transfer command
// reaches the state machines.
type TransferValidationService struct {
	inner TransferService
}

func NewTransferValidationService() TransferServiceWrapper {
	return &TransferValidationService{}
}

func (v *TransferValidationService) Initiate(ctx context.Context, req models.InitiateTransferRequest) (models.Transfer, error) {
	if strings.TrimSpace(req.AssetID) == "" {
		return models.Transfer{}, invalid(ErrValidationNoAssetID)
	}
	if strings.TrimSpace(req.ToOwnerID) == "" {
		return models.Transfer{}, invalid(ErrValidationNoOwnerID)
	}
	return v.inner.Initiate(ctx, req)
}

func (v *TransferValidationService) Verify(ctx context.Context, transferID string, details models.VerificationDetails) (models.Transfer, error) {
	if strings.TrimSpace(transferID) == "" {
		return models.Transfer{}, invalid(ErrValidationNoTransferID)
	}
	if strings.TrimSpace(details.VerifiedBy) == "" {
		return models.Transfer{}, invalid(ErrValidationNoVerifier)
	}
	return v.inner.Verify(ctx, transferID, details)
}

func (v *TransferValidationService) Reject(ctx context.Context, transferID, reason string) (models.Transfer, error) {
	if strings.TrimSpace(transferID) == "" {
		return models.Transfer{}, invalid(ErrValidationNoTransferID)
	}
	if strings.TrimSpace(reason) == "" {
		return models.Transfer{}, invalid(ErrValidationNoReason)
	}
	return v.inner.Reject(ctx, transferID, reason)
}

func (v *TransferValidationService) Get(ctx context.Context, transferID string) (models.Transfer, error) {
	if strings.TrimSpace(transferID) == "" {
		return models.Transfer{}, invalid(ErrValidationNoTransferID)
	}
	return v.inner.Get(ctx, transferID)
}

func (v *TransferValidationService) Wrap(inner TransferService) TransferService {
	v.inner = inner
	return v
}

func invalid(err error) error {
	return app.Wrap(app.ReasonMalformedPayload, err, "invalid request")
}
