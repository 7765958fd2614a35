package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// outboxWriter pairs a local write with its outbox entry and hands the
// entry to the sync engine once the transaction committed.
type outboxWriter struct {
	tx     store.Transactor
	outbox store.OutboxRepository
	engine Enqueuer
	ids    IDGenerator
	now    func() time.Time
}

func newOutboxWriter(tx store.Transactor, outbox store.OutboxRepository, engine Enqueuer, ids IDGenerator) outboxWriter {
	return outboxWriter{tx: tx, outbox: outbox, engine: engine, ids: ids, now: time.Now}
}

// write runs local inside a transaction and appends an outbox item for the
// payload it returns.
func (w outboxWriter) write(ctx context.Context, entityID string, local func(ctx context.Context, now time.Time) (models.Payload, error)) (models.SyncItem, error) {
	now := w.now().UTC()

	var item models.SyncItem
	err := w.tx.WithinTx(ctx, func(ctx context.Context) error {
		payload, err := local(ctx, now)
		if err != nil {
			return err
		}

		item = models.NewSyncItem(w.ids.Generate(), entityID, payload, now)
		return w.outbox.Append(ctx, item)
	})
	if err != nil {
		return models.SyncItem{}, err
	}

	w.engine.Enqueue(item)
	return item, nil
}

// enqueueOnly appends an item with no local write.
func (w outboxWriter) enqueueOnly(ctx context.Context, entityID string, payload models.Payload) (models.SyncItem, error) {
	return w.write(ctx, entityID, func(context.Context, time.Time) (models.Payload, error) {
		return payload, nil
	})
}
