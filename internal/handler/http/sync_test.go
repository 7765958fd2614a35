package http

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-herd-keeper/internal/service"
	"github.com/MKhiriev/go-herd-keeper/models"
)

func TestGetStats(t *testing.T) {
	api := newTestAPI(t)
	stats := models.SyncStats{State: "IDLE", Strategy: "AGGRESSIVE", SuccessfulSyncs: 4, DeadLetters: 1}
	api.sync.EXPECT().Stats().Return(stats)

	rr := api.do(http.MethodGet, "/api/sync/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, stats, decodeBody[models.SyncStats](t, rr))
}

func TestResetStats(t *testing.T) {
	api := newTestAPI(t)
	gomock.InOrder(
		api.sync.EXPECT().ResetStats(),
		api.sync.EXPECT().Stats().Return(models.SyncStats{State: "IDLE"}),
	)

	rr := api.do(http.MethodPost, "/api/sync/stats/reset", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, uint64(0), decodeBody[models.SyncStats](t, rr).SuccessfulSyncs)
}

func TestSyncNow(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"accepted", nil, http.StatusAccepted},
		{"offline", service.ErrOffline, http.StatusServiceUnavailable},
		{"halted", service.ErrSyncHalted, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			api.sync.EXPECT().ForceSyncNow().Return(tt.err)

			rr := api.do(http.MethodPost, "/api/sync/now", "")
			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.err != nil {
				assert.Equal(t, tt.err.Error(), decodeBody[models.ErrorResponse](t, rr).Error)
			}
		})
	}
}

func TestResume(t *testing.T) {
	api := newTestAPI(t)
	api.sync.EXPECT().Resume()

	rr := api.do(http.MethodPost, "/api/sync/resume", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "resumed", decodeBody[models.ActionResponse](t, rr).Status)
}

func TestGetQueue(t *testing.T) {
	t.Run("empty queue is an empty list", func(t *testing.T) {
		api := newTestAPI(t)
		api.sync.EXPECT().Queue().Return(nil)

		rr := api.do(http.MethodGet, "/api/sync/queue", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("items", func(t *testing.T) {
		api := newTestAPI(t)
		now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
		item := models.NewSyncItem("ob-1", "note-1", models.NoteUpsertPayload{Note: models.Note{ID: "note-1", Body: "x", Version: 1}}, now)
		api.sync.EXPECT().Queue().Return([]models.SyncItem{item})

		rr := api.do(http.MethodGet, "/api/sync/queue", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"outbox_id":"ob-1"`)
		assert.Contains(t, rr.Body.String(), `"NOTE_UPSERT"`)
	})
}

func TestGetDeadLetters(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		api := newTestAPI(t)
		dl := models.DeadLetter{OutboxID: "ob-9", EntityID: "asset-1", Type: models.SyncAssetUpdate, ErrorKind: "client", Error: "rejected"}
		api.sync.EXPECT().DeadLetters(gomock.Any()).Return([]models.DeadLetter{dl}, nil)

		rr := api.do(http.MethodGet, "/api/sync/dead-letters", "")
		require.Equal(t, http.StatusOK, rr.Code)
		got := decodeBody[[]models.DeadLetter](t, rr)
		require.Len(t, got, 1)
		assert.Equal(t, "ob-9", got[0].OutboxID)
		assert.Equal(t, "client", got[0].ErrorKind)
	})

	t.Run("store failure", func(t *testing.T) {
		api := newTestAPI(t)
		api.sync.EXPECT().DeadLetters(gomock.Any()).Return(nil, errors.New("db closed"))

		rr := api.do(http.MethodGet, "/api/sync/dead-letters", "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
