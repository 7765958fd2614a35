package service

import (
	"context"
	"encoding/json"

	"github.com/MKhiriev/go-herd-keeper/internal/adapter"
	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// dispatch sends item to the authority call of its sync type. The outbox id
// is the idempotency key.
func dispatch(ctx context.Context, authority adapter.RemoteAuthority, item models.SyncItem) (models.VersionedRecord, error) {
	key := item.OutboxID

	switch p := item.Payload.(type) {
	case models.AssetCreatePayload:
		return authority.PushAssetCreate(ctx, key, p)
	case models.AssetUpdatePayload:
		return authority.PushAssetUpdate(ctx, key, p)
	case models.AssetDeletePayload:
		return authority.PushAssetDelete(ctx, key, p)
	case models.TransferCreatePayload:
		return authority.PushTransferCreate(ctx, key, p)
	case models.TransferVerifyPayload:
		return authority.PushTransferVerify(ctx, key, p)
	case models.TransferRejectPayload:
		return authority.PushTransferReject(ctx, key, p)
	case models.PaymentConfirmPayload:
		return authority.PushPaymentConfirm(ctx, key, p)
	case models.NoteUpsertPayload:
		return authority.PushNote(ctx, key, p)
	case models.MessageSendPayload:
		return authority.PushMessage(ctx, key, p)
	}

	return models.VersionedRecord{}, app.New(app.ReasonMalformedPayload, "no handler for %s item %s", item.Type, item.OutboxID)
}

// contentOf returns the entity a payload carries, the value whose content
// hash is compared on conflicts.
func contentOf(p models.Payload) any {
	switch v := p.(type) {
	case models.AssetCreatePayload:
		return v.Asset
	case models.AssetUpdatePayload:
		return v.Asset
	case models.TransferCreatePayload:
		return v.Transfer
	case models.TransferVerifyPayload:
		return v.Transfer
	case models.TransferRejectPayload:
		return v.Transfer
	case models.NoteUpsertPayload:
		return v.Note
	}
	return p
}

// localRecord builds the comparable view of the change carried by item.
func localRecord(hasher *utils.ContentHasher, item models.SyncItem) models.VersionedRecord {
	content := contentOf(item.Payload)
	data, _ := json.Marshal(content)
	hash, _ := hasher.SumJSON(content)

	return models.VersionedRecord{
		EntityID: item.EntityID,
		Category: item.Category(),
		Version:  item.Payload.EntityVersion(),
		Hash:     hash,
		Data:     data,
	}
}

// withRemoteHash fills remote.Hash from remote.Data when the authority sent
// none. The data is decoded into the entity type first so both sides hash
// the same encoding.
func withRemoteHash(hasher *utils.ContentHasher, item models.SyncItem, remote models.VersionedRecord) models.VersionedRecord {
	if remote.Hash != "" || len(remote.Data) == 0 {
		return remote
	}

	var (
		content any
		err     error
	)
	switch contentOf(item.Payload).(type) {
	case models.Asset:
		content, err = decodeAs[models.Asset](remote.Data)
	case models.Transfer:
		content, err = decodeAs[models.Transfer](remote.Data)
	case models.Note:
		content, err = decodeAs[models.Note](remote.Data)
	default:
		var decoded models.Payload
		decoded, err = models.DecodePayload(item.Type, remote.Data)
		content = decoded
	}
	if err != nil {
		return remote
	}

	if hash, err := hasher.SumJSON(content); err == nil {
		remote.Hash = hash
	}
	return remote
}

func decodeAs[T any](data []byte) (T, error) {
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// rebasedPayload returns the payload to re-send after a conflict was settled
// with AcceptLocal or Merge.
func rebasedPayload(item models.SyncItem, res Resolution) (models.Payload, error) {
	if res.Kind == Merge && len(res.Record.Data) > 0 {
		merged, err := mergedPayload(item, res.Record.Data)
		if err != nil {
			return nil, app.Wrap(app.ReasonMalformedPayload, err, "merge result of %s", item.OutboxID)
		}
		return merged.WithVersion(res.Record.Version), nil
	}
	return item.Payload.WithVersion(res.Record.Version), nil
}

// mergedPayload wraps merged entity data into the payload variant of item.
func mergedPayload(item models.SyncItem, data []byte) (models.Payload, error) {
	switch item.Payload.(type) {
	case models.AssetCreatePayload:
		a, err := decodeAs[models.Asset](data)
		return models.AssetCreatePayload{Asset: a}, err
	case models.AssetUpdatePayload:
		a, err := decodeAs[models.Asset](data)
		return models.AssetUpdatePayload{Asset: a}, err
	case models.NoteUpsertPayload:
		n, err := decodeAs[models.Note](data)
		return models.NoteUpsertPayload{Note: n}, err
	}
	return models.DecodePayload(item.Type, data)
}
