// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"net/url"
	"strings"
)

// validate checks the merged [StructuredConfig]. Only values that cannot be
// fixed by the client projection are rejected here.
func (cfg *StructuredConfig) validate() error {
	if cfg.Workers.RetryMaxDelay != 0 && cfg.Workers.RetryMaxDelay < cfg.Workers.RetryBaseDelay {
		return ErrInvalidWorkerConfigs
	}
	return nil
}

func (cfg *ClientConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, ":memory:") {
		return ErrInvalidStorageConfigs
	}

	if !isHTTPURL(cfg.Adapter.HTTPAddress) || cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}
	if cfg.Adapter.NotifyAddress != "" && !isHTTPURL(cfg.Adapter.NotifyAddress) {
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.RetryBaseDelay <= 0 ||
		cfg.Workers.RetryMaxDelay < cfg.Workers.RetryBaseDelay {
		return ErrInvalidWorkerConfigs
	}

	if cfg.App.HashKey == "" || cfg.App.DeviceID == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.Diagnostics.HTTPAddress != "" {
		var addr NetAddress
		if err := addr.Set(cfg.Diagnostics.HTTPAddress); err != nil {
			return ErrInvalidDiagnosticsConfigs
		}
	}

	return nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
