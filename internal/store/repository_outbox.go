package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/models"
)

const (
	outboxTable      = "outbox"
	deadLettersTable = "dead_letters"
)

var outboxColumns = []string{
	"id", "entity_id", "sync_type", "priority", "payload",
	"retry_count", "created_at", "next_attempt_at", "last_error",
}

var deadLetterColumns = []string{
	"id", "entity_id", "sync_type", "priority", "payload",
	"retry_count", "created_at", "failed_at", "error_kind", "error",
}

// outboxUpsert replaces the pending intent of the same entity and sync type.
const outboxUpsert = `ON CONFLICT (entity_id, sync_type) DO UPDATE SET
	id = excluded.id,
	priority = excluded.priority,
	payload = excluded.payload,
	retry_count = excluded.retry_count,
	created_at = excluded.created_at,
	next_attempt_at = excluded.next_attempt_at,
	last_error = excluded.last_error`

type outboxRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewOutboxRepository constructs an [OutboxRepository] over db.
func NewOutboxRepository(db *DB, logger *logger.Logger) OutboxRepository {
	return &outboxRepository{db: db, logger: logger}
}

// Append stores item, replacing a pending row with the same entity id and
// sync type.
func (r *outboxRepository) Append(ctx context.Context, item models.SyncItem) error {
	log := logger.FromContext(ctx)

	payload, err := models.EncodePayload(item.Payload)
	if err != nil {
		log.Err(err).Str("func", "outboxRepository.Append").Str("outbox_id", item.OutboxID).Msg("failed to encode payload")
		return app.Wrap(app.ReasonMalformedPayload, err, "outbox item %s", item.OutboxID)
	}

	insert := r.db.builder.Insert(outboxTable).
		Columns(outboxColumns...).
		Values(
			item.OutboxID, item.EntityID, string(item.Type), int(item.Priority), string(payload),
			int64(item.RetryCount), item.CreatedAt.UTC(), nullTime(item.NextAttemptAt), item.LastError,
		).
		Suffix(outboxUpsert)

	if _, err := r.db.exec(ctx, insert); err != nil {
		log.Err(err).
			Str("func", "outboxRepository.Append").
			Str("outbox_id", item.OutboxID).
			Str("entity_id", item.EntityID).
			Str("sync_type", string(item.Type)).
			Msg("failed to append outbox item")
		return err
	}

	return nil
}

// Remove deletes the row with outboxID. Removing a row that was already
// replaced by a newer intent is a no-op, so the newer intent survives.
func (r *outboxRepository) Remove(ctx context.Context, outboxID string) error {
	del := r.db.builder.Delete(outboxTable).Where(sq.Eq{"id": outboxID})

	if _, err := r.db.exec(ctx, del); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "outboxRepository.Remove").
			Str("outbox_id", outboxID).
			Msg("failed to remove outbox item")
		return err
	}

	return nil
}

// ListPending returns the pending items whose priority is in filter, highest
// priority first and oldest first within a priority. Rows whose payload can
// no longer be decoded are moved to the dead letters.
func (r *outboxRepository) ListPending(ctx context.Context, filter models.PrioritySet) ([]models.SyncItem, error) {
	log := logger.FromContext(ctx)

	if filter.IsEmpty() {
		return []models.SyncItem{}, nil
	}

	priorities := make([]int, 0, len(models.AllPriorities))
	for _, p := range filter.Priorities() {
		priorities = append(priorities, int(p))
	}

	sel := r.db.builder.Select(outboxColumns...).
		From(outboxTable).
		Where(sq.Eq{"priority": priorities}).
		OrderBy("priority DESC", "created_at ASC", "id ASC")

	rows, err := r.db.query(ctx, sel)
	if err != nil {
		log.Err(err).Str("func", "outboxRepository.ListPending").Msg("failed to query outbox")
		return nil, err
	}
	defer rows.Close()

	type brokenRow struct {
		item    models.SyncItem
		payload string
		err     error
	}

	items := make([]models.SyncItem, 0, 32)
	var broken []brokenRow

	for rows.Next() {
		var (
			item        models.SyncItem
			syncType    string
			priority    int
			payload     string
			retryCount  int64
			nextAttempt sql.NullTime
		)

		if err := rows.Scan(&item.OutboxID, &item.EntityID, &syncType, &priority, &payload,
			&retryCount, &item.CreatedAt, &nextAttempt, &item.LastError); err != nil {
			log.Err(err).Str("func", "outboxRepository.ListPending").Msg("failed to scan outbox row")
			return nil, r.db.classify(ErrScanningRow, err)
		}

		item.Type = models.SyncType(syncType)
		item.Priority = models.SyncPriority(priority)
		item.RetryCount = uint32(retryCount)
		if nextAttempt.Valid {
			item.NextAttemptAt = nextAttempt.Time
		}

		decoded, err := models.DecodePayload(item.Type, []byte(payload))
		if err != nil {
			broken = append(broken, brokenRow{item: item, payload: payload, err: err})
			continue
		}
		item.Payload = decoded

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "outboxRepository.ListPending").Msg("error occurred during rows iteration")
		return nil, r.db.classify(ErrScanningRows, err)
	}
	rows.Close()

	for _, b := range broken {
		log.Error().Err(b.err).
			Str("func", "outboxRepository.ListPending").
			Str("outbox_id", b.item.OutboxID).
			Str("sync_type", string(b.item.Type)).
			Msg("undecodable outbox payload moved to dead letters")

		payload := json.RawMessage(b.payload)
		if !json.Valid(payload) {
			quoted, _ := json.Marshal(b.payload)
			payload = quoted
		}
		if err := r.deadLetter(ctx, b.item, payload, time.Now().UTC(),
			app.KindValidation.String(), b.err.Error()); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// MarkRetry records a failed attempt. It returns [ErrOutboxItemNotFound] when
// the row was replaced by a newer intent in the meantime.
func (r *outboxRepository) MarkRetry(ctx context.Context, outboxID string, retryCount uint32, nextAttemptAt time.Time, lastError string) error {
	upd := r.db.builder.Update(outboxTable).
		Set("retry_count", int64(retryCount)).
		Set("next_attempt_at", nullTime(nextAttemptAt)).
		Set("last_error", lastError).
		Where(sq.Eq{"id": outboxID})

	affected, err := r.db.exec(ctx, upd)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "outboxRepository.MarkRetry").
			Str("outbox_id", outboxID).
			Msg("failed to record retry")
		return err
	}
	if affected == 0 {
		return ErrOutboxItemNotFound
	}

	return nil
}

// Rebase rewrites the payload and retry state of the row with item.OutboxID
// after a conflict was resolved in favour of the local change. Like
// MarkRetry it returns [ErrOutboxItemNotFound] when a newer intent replaced
// the row.
func (r *outboxRepository) Rebase(ctx context.Context, item models.SyncItem) error {
	payload, err := models.EncodePayload(item.Payload)
	if err != nil {
		return app.Wrap(app.ReasonMalformedPayload, err, "outbox item %s", item.OutboxID)
	}

	upd := r.db.builder.Update(outboxTable).
		Set("payload", string(payload)).
		Set("retry_count", int64(item.RetryCount)).
		Set("next_attempt_at", nullTime(item.NextAttemptAt)).
		Set("last_error", item.LastError).
		Where(sq.Eq{"id": item.OutboxID})

	affected, err := r.db.exec(ctx, upd)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "outboxRepository.Rebase").
			Str("outbox_id", item.OutboxID).
			Msg("failed to rebase outbox item")
		return err
	}
	if affected == 0 {
		return ErrOutboxItemNotFound
	}

	return nil
}

// DeadLetter moves item to the dead letters. Recording the same outbox id
// twice keeps the first record.
func (r *outboxRepository) DeadLetter(ctx context.Context, item models.SyncItem, failedAt time.Time, errorKind, errorMessage string) error {
	var payload json.RawMessage = []byte("null")
	if item.Payload != nil {
		encoded, err := models.EncodePayload(item.Payload)
		if err != nil {
			return app.Wrap(app.ReasonMalformedPayload, err, "dead letter %s", item.OutboxID)
		}
		payload = encoded
	}

	return r.deadLetter(ctx, item, payload, failedAt, errorKind, errorMessage)
}

func (r *outboxRepository) deadLetter(ctx context.Context, item models.SyncItem, payload json.RawMessage, failedAt time.Time, errorKind, errorMessage string) error {
	return r.db.WithinTx(ctx, func(ctx context.Context) error {
		insert := r.db.builder.Insert(deadLettersTable).
			Columns(deadLetterColumns...).
			Values(
				item.OutboxID, item.EntityID, string(item.Type), int(item.Priority), string(payload),
				int64(item.RetryCount), item.CreatedAt.UTC(), failedAt.UTC(), errorKind, errorMessage,
			).
			Suffix("ON CONFLICT (id) DO NOTHING")

		if _, err := r.db.exec(ctx, insert); err != nil {
			logger.FromContext(ctx).Err(err).
				Str("func", "outboxRepository.DeadLetter").
				Str("outbox_id", item.OutboxID).
				Msg("failed to insert dead letter")
			return err
		}

		return r.Remove(ctx, item.OutboxID)
	})
}

// ListDeadLetters returns every dead letter, most recent failure first.
func (r *outboxRepository) ListDeadLetters(ctx context.Context) ([]models.DeadLetter, error) {
	log := logger.FromContext(ctx)

	sel := r.db.builder.Select(deadLetterColumns...).
		From(deadLettersTable).
		OrderBy("failed_at DESC", "id ASC")

	rows, err := r.db.query(ctx, sel)
	if err != nil {
		log.Err(err).Str("func", "outboxRepository.ListDeadLetters").Msg("failed to query dead letters")
		return nil, err
	}
	defer rows.Close()

	letters := make([]models.DeadLetter, 0, 8)
	for rows.Next() {
		var (
			dl         models.DeadLetter
			syncType   string
			priority   int
			payload    string
			retryCount int64
		)
		if err := rows.Scan(&dl.OutboxID, &dl.EntityID, &syncType, &priority, &payload,
			&retryCount, &dl.CreatedAt, &dl.FailedAt, &dl.ErrorKind, &dl.Error); err != nil {
			log.Err(err).Str("func", "outboxRepository.ListDeadLetters").Msg("failed to scan dead letter row")
			return nil, r.db.classify(ErrScanningRow, err)
		}

		dl.Type = models.SyncType(syncType)
		dl.Priority = models.SyncPriority(priority)
		dl.RetryCount = uint32(retryCount)
		dl.Payload = json.RawMessage(payload)
		letters = append(letters, dl)
	}

	if err := rows.Err(); err != nil {
		return nil, r.db.classify(ErrScanningRows, err)
	}

	return letters, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func encodeJSONColumn(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncodingColumn, err)
	}
	return string(data), nil
}

func decodeJSONColumn(data string, v any) error {
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("%w: %w", ErrEncodingColumn, err)
	}
	return nil
}
