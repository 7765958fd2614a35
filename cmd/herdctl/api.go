package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-herd-keeper/models"
)

var errClientUnreachable = errors.New("herd client is not reachable")

// apiClient is a thin resty wrapper over the diagnostics API.
type apiClient struct {
	client *resty.Client
}

func newAPIClient(address string, timeout time.Duration) *apiClient {
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return &apiClient{
		client: resty.New().
			SetBaseURL(strings.TrimRight(address, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

func (a *apiClient) get(ctx context.Context, path string, result any) error {
	return a.do(ctx, resty.MethodGet, path, nil, result)
}

func (a *apiClient) post(ctx context.Context, path string, body, result any) error {
	return a.do(ctx, resty.MethodPost, path, body, result)
}

func (a *apiClient) do(ctx context.Context, method, path string, body, result any) error {
	var apiErr models.ErrorResponse

	req := a.client.R().SetContext(ctx).SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%w: %w", errClientUnreachable, err)
	}
	if resp.IsError() {
		return &apiError{status: resp.StatusCode(), body: apiErr}
	}
	return nil
}

// apiError is a non-2xx answer of the diagnostics API.
type apiError struct {
	status int
	body   models.ErrorResponse
}

func (e *apiError) Error() string {
	msg := e.body.Error
	if msg == "" {
		msg = "request failed"
	}
	if e.body.Reason != "" {
		msg += " (" + e.body.Reason + ")"
	}
	if e.body.TraceID != "" {
		msg += " [trace " + e.body.TraceID + "]"
	}
	return fmt.Sprintf("%d: %s", e.status, msg)
}
