// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-herd-keeper client. It is populated by merging values from environment
// variables, command-line flags, and an optional config file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds identity settings of this device.
	App App `envPrefix:"APP_"`

	// Storage holds the local database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter holds the addresses of the remote authority and the
	// notification service.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds the sync engine timing settings.
	Workers Workers `envPrefix:"WORKERS_"`

	// Network holds the connectivity monitor settings.
	Network Network `envPrefix:"NETWORK_"`

	// Diagnostics holds the local HTTP API settings.
	Diagnostics Diagnostics `envPrefix:"DIAGNOSTICS_"`

	// Log holds log output settings.
	Log Log `envPrefix:"LOG_"`

	// FilePath is the optional path to a JSON or YAML configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	FilePath string `env:"CONFIG"`
}

// App holds application-level values that identify this device.
type App struct {
	// HashKey keys the BLAKE2b content hashes used for conflict detection.
	// Env: APP_HASH_KEY
	HashKey string `env:"HASH_KEY"`

	// AuthToken is the bearer token presented to the remote authority. Its
	// subject identifies the local owner.
	// Env: APP_AUTH_TOKEN
	AuthToken string `env:"AUTH_TOKEN"`

	// DeviceID is sent with every push. When empty, the subject of
	// AuthToken is used.
	// Env: APP_DEVICE_ID
	DeviceID string `env:"DEVICE_ID"`
}

// Storage groups the configuration of the local persistence backend.
type Storage struct {
	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local database.
type DB struct {
	// DSN is either a SQLite file path or a "postgres://" URL.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Adapter holds settings of outbound integrations.
type Adapter struct {
	// HTTPAddress is the base URL of the remote authority
	// (e.g. "https://registry.example.org").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// NotifyAddress is the base URL of the notification service. When
	// empty, notifications are sent to HTTPAddress.
	// Env: ADAPTER_NOTIFY_ADDRESS
	NotifyAddress string `env:"NOTIFY_ADDRESS"`

	// RequestTimeout bounds a single outbound request. The sync strategy may
	// lower it further on good connections.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Workers holds sync engine timing settings.
type Workers struct {
	// SyncInterval is the period of the outbox scan.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// RetryBaseDelay is the first retry backoff.
	// Env: WORKERS_RETRY_BASE_DELAY
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY"`

	// RetryMaxDelay caps the retry backoff.
	// Env: WORKERS_RETRY_MAX_DELAY
	RetryMaxDelay time.Duration `env:"RETRY_MAX_DELAY"`
}

// Network holds connectivity monitor settings.
type Network struct {
	// StatusFile is a JSON file kept up to date by the platform with the
	// current connection status. When empty, the device is assumed to be
	// online with unknown quality.
	// Env: NETWORK_STATUS_FILE
	StatusFile string `env:"STATUS_FILE"`
}

// Diagnostics holds settings of the local HTTP API.
type Diagnostics struct {
	// HTTPAddress is the listen address in "host:port" format.
	// Env: DIAGNOSTICS_ADDRESS
	HTTPAddress string `env:"ADDRESS"`
}

// Log holds log output settings.
type Log struct {
	// Dir is the directory of the log file. Empty means next to the
	// executable.
	// Env: LOG_DIR
	Dir string `env:"DIR"`
}

// Defaults applied after every other source.
const (
	DefaultRequestTimeout     = 30 * time.Second
	DefaultSyncInterval       = time.Minute
	DefaultRetryBaseDelay     = time.Second
	DefaultRetryMaxDelay      = 5 * time.Minute
	DefaultDiagnosticsAddress = "127.0.0.1:7420"
)

func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		Adapter: Adapter{RequestTimeout: DefaultRequestTimeout},
		Workers: Workers{
			SyncInterval:   DefaultSyncInterval,
			RetryBaseDelay: DefaultRetryBaseDelay,
			RetryMaxDelay:  DefaultRetryMaxDelay,
		},
		Diagnostics: Diagnostics{HTTPAddress: DefaultDiagnosticsAddress},
	}
}

// GetStructuredConfig loads and merges the configuration from all sources.
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withFile().
		withDefaults().
		build()
}
