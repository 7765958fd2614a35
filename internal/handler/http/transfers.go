package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

func (h *Handler) initiateTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.InitiateTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.initiateTransfer", err)
		return
	}

	transfer, err := h.transfers.Initiate(r.Context(), req)
	if err != nil {
		writeError(w, r, "*Handler.initiateTransfer", err)
		return
	}

	logger.FromRequest(r).Info().Str("transfer_id", transfer.ID).Msg("transfer initiated via local API")
	utils.WriteJSON(w, transfer, http.StatusCreated)
}

func (h *Handler) getTransfer(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.transfers.Get(r.Context(), chi.URLParam(r, "transferID"))
	if err != nil {
		writeError(w, r, "*Handler.getTransfer", err)
		return
	}
	utils.WriteJSON(w, transfer, http.StatusOK)
}

func (h *Handler) verifyTransfer(w http.ResponseWriter, r *http.Request) {
	var details models.VerificationDetails
	if err := decodeJSON(r, &details); err != nil {
		writeError(w, r, "*Handler.verifyTransfer", err)
		return
	}

	transfer, err := h.transfers.Verify(r.Context(), chi.URLParam(r, "transferID"), details)
	if err != nil {
		writeError(w, r, "*Handler.verifyTransfer", err)
		return
	}
	utils.WriteJSON(w, transfer, http.StatusOK)
}

func (h *Handler) rejectTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.RejectTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, "*Handler.rejectTransfer", err)
		return
	}

	transfer, err := h.transfers.Reject(r.Context(), chi.URLParam(r, "transferID"), req.Reason)
	if err != nil {
		writeError(w, r, "*Handler.rejectTransfer", err)
		return
	}
	utils.WriteJSON(w, transfer, http.StatusOK)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return nil
}
