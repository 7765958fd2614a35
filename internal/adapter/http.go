package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerDeviceID       = "X-Device-ID"
)

type httpRemoteAuthority struct {
	client   *utils.HTTPClient
	deviceID string

	logger *logger.Logger
}

// NewHTTPRemoteAuthority constructs an HTTP/REST implementation of
// [RemoteAuthority]. The base URL comes from adapterCfg.HTTPAddress and the
// bearer token from appCfg.AuthToken.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPRemoteAuthority(adapterCfg config.ClientAdapter, appCfg config.ClientApp, logger *logger.Logger) (RemoteAuthority, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &httpRemoteAuthority{
		client:   utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout, appCfg.AuthToken),
		deviceID: appCfg.DeviceID,
		logger:   logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// PushAssetCreate implements [RemoteAuthority]: POST /api/v1/assets.
func (h *httpRemoteAuthority) PushAssetCreate(ctx context.Context, idempotencyKey string, p models.AssetCreatePayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodPost,
		path:     "/api/v1/assets",
		key:      idempotencyKey,
		category: models.CategoryAsset,
		entityID: p.Asset.ID,
		version:  p.Asset.Version,
		body:     p.Asset,
	})
}

// PushAssetUpdate implements [RemoteAuthority]: PUT /api/v1/assets/{id}. The
// asset version is the optimistic-lock token.
func (h *httpRemoteAuthority) PushAssetUpdate(ctx context.Context, idempotencyKey string, p models.AssetUpdatePayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodPut,
		path:     "/api/v1/assets/{id}",
		key:      idempotencyKey,
		category: models.CategoryAsset,
		entityID: p.Asset.ID,
		version:  p.Asset.Version,
		body:     p.Asset,
	})
}

// PushAssetDelete implements [RemoteAuthority]: DELETE /api/v1/assets/{id}.
func (h *httpRemoteAuthority) PushAssetDelete(ctx context.Context, idempotencyKey string, p models.AssetDeletePayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodDelete,
		path:     "/api/v1/assets/{id}",
		key:      idempotencyKey,
		category: models.CategoryAsset,
		entityID: p.AssetID,
		version:  p.Version,
		body:     p,
	})
}

// PushTransferCreate implements [RemoteAuthority]: POST /api/v1/transfers.
func (h *httpRemoteAuthority) PushTransferCreate(ctx context.Context, idempotencyKey string, p models.TransferCreatePayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodPost,
		path:     "/api/v1/transfers",
		key:      idempotencyKey,
		category: models.CategoryTransfer,
		entityID: p.Transfer.ID,
		version:  p.Transfer.Version,
		body:     p.Transfer,
	})
}

// PushTransferVerify implements [RemoteAuthority]:
// POST /api/v1/transfers/{id}/verify. The authority flips ownership of the
// asset when it accepts the call.
func (h *httpRemoteAuthority) PushTransferVerify(ctx context.Context, idempotencyKey string, p models.TransferVerifyPayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodPost,
		path:     "/api/v1/transfers/{id}/verify",
		key:      idempotencyKey,
		category: models.CategoryTransfer,
		entityID: p.Transfer.ID,
		version:  p.Transfer.Version,
		body:     p.Transfer,
	})
}

// PushTransferReject implements [RemoteAuthority]:
// POST /api/v1/transfers/{id}/reject.
func (h *httpRemoteAuthority) PushTransferReject(ctx context.Context, idempotencyKey string, p models.TransferRejectPayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodPost,
		path:     "/api/v1/transfers/{id}/reject",
		key:      idempotencyKey,
		category: models.CategoryTransfer,
		entityID: p.Transfer.ID,
		version:  p.Transfer.Version,
		body:     p.Transfer,
	})
}

// PushPaymentConfirm implements [RemoteAuthority]:
// POST /api/v1/payments/{id}/confirm.
func (h *httpRemoteAuthority) PushPaymentConfirm(ctx context.Context, idempotencyKey string, p models.PaymentConfirmPayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodPost,
		path:     "/api/v1/payments/{id}/confirm",
		key:      idempotencyKey,
		category: models.CategoryPayment,
		entityID: p.PaymentID,
		version:  p.EntityVersion(),
		body:     p,
	})
}

// PushNote implements [RemoteAuthority]: PUT /api/v1/notes/{id}.
func (h *httpRemoteAuthority) PushNote(ctx context.Context, idempotencyKey string, p models.NoteUpsertPayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodPut,
		path:     "/api/v1/notes/{id}",
		key:      idempotencyKey,
		category: models.CategoryNote,
		entityID: p.Note.ID,
		version:  p.Note.Version,
		body:     p.Note,
	})
}

// PushMessage implements [RemoteAuthority]: POST /api/v1/messages.
func (h *httpRemoteAuthority) PushMessage(ctx context.Context, idempotencyKey string, p models.MessageSendPayload) (models.VersionedRecord, error) {
	return h.push(ctx, pushRequest{
		method:   http.MethodPost,
		path:     "/api/v1/messages",
		key:      idempotencyKey,
		category: models.CategoryMessage,
		entityID: p.MessageID,
		version:  p.EntityVersion(),
		body:     p,
	})
}

// FetchRecord implements [RemoteAuthority]:
// GET /api/v1/records/{category}/{id}.
func (h *httpRemoteAuthority) FetchRecord(ctx context.Context, category models.EntityCategory, entityID string) (models.VersionedRecord, error) {
	log := logger.FromContext(ctx)

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader(headerDeviceID, h.deviceID).
		SetPathParam("category", string(category)).
		SetPathParam("id", entityID).
		Get("/api/v1/records/{category}/{id}")
	if err != nil {
		log.Err(err).Str("func", "httpRemoteAuthority.FetchRecord").Str("entity_id", entityID).Msg("fetch record request failed")
		return models.VersionedRecord{}, mapTransportError(err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.VersionedRecord{}, err
	}

	var record models.VersionedRecord
	if err = json.Unmarshal(resp.Body(), &record); err != nil {
		return models.VersionedRecord{}, fmt.Errorf("decode record response: %w", err)
	}
	if record.EntityID == "" {
		record.EntityID = entityID
	}
	if record.Category == "" {
		record.Category = category
	}

	return record, nil
}

type pushRequest struct {
	method   string
	path     string
	key      string
	category models.EntityCategory
	entityID string
	version  int64
	body     any
}

// push sends one mutation. A 2xx response without a decodable record is
// still a success: the authority applied the mutation, so the local view
// of the record is returned.
func (h *httpRemoteAuthority) push(ctx context.Context, pr pushRequest) (models.VersionedRecord, error) {
	log := logger.FromContext(ctx)

	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader(headerIdempotencyKey, pr.key).
		SetHeader(headerDeviceID, h.deviceID).
		SetPathParam("id", pr.entityID).
		SetBody(pr.body).
		Execute(pr.method, pr.path)
	if err != nil {
		log.Err(err).
			Str("func", "httpRemoteAuthority.push").
			Str("path", pr.path).
			Str("idempotency_key", pr.key).
			Msg("push request failed")
		return models.VersionedRecord{}, mapTransportError(err)
	}
	if err = mapHTTPError(resp); err != nil {
		log.Debug().Err(err).
			Str("func", "httpRemoteAuthority.push").
			Str("path", pr.path).
			Int("status", resp.StatusCode()).
			Msg("authority rejected push")
		return models.VersionedRecord{}, err
	}

	local := models.VersionedRecord{EntityID: pr.entityID, Category: pr.category, Version: pr.version}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		return local, nil
	}

	var record models.VersionedRecord
	if err = json.Unmarshal(body, &record); err != nil {
		log.Warn().Err(err).
			Str("func", "httpRemoteAuthority.push").
			Str("path", pr.path).
			Msg("undecodable push response, using local record")
		return local, nil
	}
	if record.EntityID == "" {
		record.EntityID = pr.entityID
	}
	if record.Category == "" {
		record.Category = pr.category
	}

	return record, nil
}
