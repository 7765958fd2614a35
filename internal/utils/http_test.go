package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-herd-keeper/models"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		status   int
		wantBody string
	}{
		{
			name:     "stats",
			data:     models.SyncStats{State: "IDLE", Strategy: "AGGRESSIVE", SuccessfulSyncs: 3},
			status:   http.StatusOK,
			wantBody: `{"is_active":false,"state":"IDLE","strategy":"AGGRESSIVE","halted":false,"successful_syncs":3,"failed_syncs":0,"dead_letters":0}`,
		},
		{
			name:     "accepted action",
			data:     models.ActionResponse{Status: "sync requested"},
			status:   http.StatusAccepted,
			wantBody: `{"status":"sync requested"}`,
		},
		{
			name:     "empty queue",
			data:     []models.SyncItem{},
			status:   http.StatusOK,
			wantBody: `[]`,
		},
		{
			name:     "nil",
			data:     nil,
			status:   http.StatusOK,
			wantBody: `null`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			n, err := WriteJSON(w, tt.data, tt.status)

			require.NoError(t, err)
			assert.Equal(t, len(tt.wantBody), n)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestWriteJSON_Unmarshalable(t *testing.T) {
	w := httptest.NewRecorder()

	_, err := WriteJSON(w, make(chan models.NetworkStatus), http.StatusOK)

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
