package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/service"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

var errorStatusMap = map[error]int{
	ErrInvalidJSON: http.StatusBadRequest,

	service.ErrSyncHalted: http.StatusConflict,
	service.ErrOffline:    http.StatusServiceUnavailable,

	store.ErrTransferNotFound: http.StatusNotFound,
	store.ErrAssetNotFound:    http.StatusNotFound,
}

var kindStatusMap = map[app.Kind]int{
	app.KindValidation: http.StatusBadRequest,
	app.KindState:      http.StatusConflict,
	app.KindConflict:   http.StatusConflict,
	app.KindNetwork:    http.StatusBadGateway,
	app.KindClient:     http.StatusBadGateway,
	app.KindStorage:    http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	if status, ok := kindStatusMap[app.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeError logs err and answers with its status and an ErrorResponse.
func writeError(w http.ResponseWriter, r *http.Request, funcName string, err error) {
	status := statusFromError(err)

	log := logger.FromRequest(r)
	event := log.Warn()
	if status >= http.StatusInternalServerError {
		event = log.Error()
	}
	event.Err(err).Str("func", funcName).Int("status", status).Msg("request failed")

	resp := models.ErrorResponse{
		Error:  app.MessageFor(err),
		Reason: string(app.ReasonOf(err)),
	}
	switch {
	case service.IsNotFound(err):
		resp.Error = app.MsgTransferNotFound
	case app.KindOf(err) == app.KindUnknown && status != http.StatusInternalServerError:
		resp.Error = err.Error()
	}
	if traceID, ok := utils.GetTraceIDFromContext(r.Context()); ok {
		resp.TraceID = traceID
	}

	utils.WriteJSON(w, resp, status)
}
