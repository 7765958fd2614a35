package config

import (
	"fmt"
	"time"

	"github.com/MKhiriev/go-herd-keeper/internal/utils"
)

// ClientApp holds identity settings of the device.
type ClientApp struct {
	// HashKey keys content hashes.
	HashKey string
	// AuthToken is the bearer token for the remote authority.
	AuthToken string
	// DeviceID identifies this device to the authority.
	DeviceID string
}

// ClientAdapter holds the outbound transport settings.
type ClientAdapter struct {
	// HTTPAddress is the remote authority base URL.
	HTTPAddress string
	// NotifyAddress is the notification service base URL.
	NotifyAddress string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
}

// ClientDB contains local database connection settings.
type ClientDB struct {
	// DSN is the SQLite path or PostgreSQL URL.
	DSN string
}

// ClientStorage groups client storage backend settings.
type ClientStorage struct {
	DB ClientDB
}

// ClientWorkers contains sync engine timing settings.
type ClientWorkers struct {
	SyncInterval   time.Duration
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

// ClientNetwork contains connectivity monitor settings.
type ClientNetwork struct {
	StatusFile string
}

// ClientDiagnostics contains local API settings. An empty address disables
// the API.
type ClientDiagnostics struct {
	HTTPAddress string
}

// ClientConfig is the validated client runtime configuration assembled from
// [StructuredConfig].
type ClientConfig struct {
	App         ClientApp
	Adapter     ClientAdapter
	Storage     ClientStorage
	Workers     ClientWorkers
	Network     ClientNetwork
	Diagnostics ClientDiagnostics
	LogDir      string
}

// GetClientConfig builds and validates the client config from the merged
// structured configuration.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	return NewClientConfig(cfg)
}

// NewClientConfig projects cfg onto the client view. A missing device id is
// taken from the subject of the auth token.
func NewClientConfig(cfg *StructuredConfig) (*ClientConfig, error) {
	deviceID := cfg.App.DeviceID
	if deviceID == "" && cfg.App.AuthToken != "" {
		subject, err := utils.TokenSubject(cfg.App.AuthToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAppConfigs, err)
		}
		deviceID = subject
	}

	notifyAddress := cfg.Adapter.NotifyAddress
	if notifyAddress == "" {
		notifyAddress = cfg.Adapter.HTTPAddress
	}

	clientCfg := &ClientConfig{
		App: ClientApp{
			HashKey:   cfg.App.HashKey,
			AuthToken: cfg.App.AuthToken,
			DeviceID:  deviceID,
		},
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			NotifyAddress:  notifyAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
		},
		Storage: ClientStorage{
			DB: ClientDB{
				DSN: cfg.Storage.DB.DSN,
			},
		},
		Workers: ClientWorkers{
			SyncInterval:   cfg.Workers.SyncInterval,
			RetryBaseDelay: cfg.Workers.RetryBaseDelay,
			RetryMaxDelay:  cfg.Workers.RetryMaxDelay,
		},
		Network:     ClientNetwork{StatusFile: cfg.Network.StatusFile},
		Diagnostics: ClientDiagnostics{HTTPAddress: cfg.Diagnostics.HTTPAddress},
		LogDir:      cfg.Log.Dir,
	}

	return clientCfg, clientCfg.validate()
}
