package http

import (
	"net/http"

	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, h.sync.Stats(), http.StatusOK)
}

func (h *Handler) resetStats(w http.ResponseWriter, r *http.Request) {
	h.sync.ResetStats()
	logger.FromRequest(r).Info().Msg("sync stats reset")
	utils.WriteJSON(w, h.sync.Stats(), http.StatusOK)
}

func (h *Handler) syncNow(w http.ResponseWriter, r *http.Request) {
	if err := h.sync.ForceSyncNow(); err != nil {
		writeError(w, r, "*Handler.syncNow", err)
		return
	}
	utils.WriteJSON(w, models.ActionResponse{Status: "sync requested"}, http.StatusAccepted)
}

func (h *Handler) resume(w http.ResponseWriter, r *http.Request) {
	h.sync.Resume()
	logger.FromRequest(r).Info().Msg("sync resumed by operator")
	utils.WriteJSON(w, models.ActionResponse{Status: "resumed"}, http.StatusOK)
}

func (h *Handler) getQueue(w http.ResponseWriter, r *http.Request) {
	items := h.sync.Queue()
	if items == nil {
		items = []models.SyncItem{}
	}
	utils.WriteJSON(w, items, http.StatusOK)
}

func (h *Handler) getDeadLetters(w http.ResponseWriter, r *http.Request) {
	deadLetters, err := h.sync.DeadLetters(r.Context())
	if err != nil {
		writeError(w, r, "*Handler.getDeadLetters", err)
		return
	}
	if deadLetters == nil {
		deadLetters = []models.DeadLetter{}
	}
	utils.WriteJSON(w, deadLetters, http.StatusOK)
}
