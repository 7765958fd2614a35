package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// conflictBody is the 409 response of the authority.
type conflictBody struct {
	Message string                  `json:"message"`
	Remote  *models.VersionedRecord `json:"remote"`
}

// mapHTTPError translates a non-2xx response into the error taxonomy.
func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}

	switch code {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return app.New(app.ReasonBadRequest, "%s", body)
	case http.StatusUnauthorized:
		return app.New(app.ReasonUnauthorized, "%s", body)
	case http.StatusForbidden:
		return app.New(app.ReasonForbidden, "%s", body)
	case http.StatusNotFound, http.StatusGone:
		return app.New(app.ReasonNotFound, "%s", body)
	case http.StatusConflict:
		var cb conflictBody
		if err := json.Unmarshal(resp.Body(), &cb); err == nil && cb.Remote != nil {
			if cb.Message != "" {
				return app.NewVersionConflict(cb.Remote, "%s", cb.Message)
			}
			return app.NewVersionConflict(cb.Remote, "remote holds version %d", cb.Remote.Version)
		}
		return app.NewVersionConflict(nil, "%s", body)
	case http.StatusPreconditionFailed, http.StatusLocked:
		return app.New(app.ReasonConcurrentModification, "%s", body)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return app.New(app.ReasonTimeout, "%s", body)
	case http.StatusTooManyRequests:
		return app.New(app.ReasonRateLimited, "%s", body)
	}

	if code >= http.StatusInternalServerError {
		return app.New(app.ReasonServerError, "http %d: %s", code, body)
	}
	return app.New(app.ReasonBadRequest, "http %d: %s", code, body)
}

// mapTransportError translates a failure to reach the authority. A cancelled
// context is returned unchanged: cancellation is not a sync failure.
func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return app.Wrap(app.ReasonTimeout, err, "request timed out")
	}

	return app.Wrap(app.ReasonNoConnection, err, "authority unreachable")
}
