package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around resty.Client shared by the remote
// authority client, the notifier and herdctl.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns a client for baseURL with JSON defaults and the
// given per-request timeout. A non-empty token is sent as a bearer token.
// Retries are left to the caller: the sync engine owns its retry policy.
func NewHTTPClient(baseURL string, timeout time.Duration, token string) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)

	if token != "" {
		client.SetAuthToken(token)
	}

	return &HTTPClient{Client: client}
}
