package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// structuredFileConfig is the on-disk layout of the config file.
type structuredFileConfig struct {
	App struct {
		HashKey   string `json:"hash_key" yaml:"hash_key"`
		AuthToken string `json:"auth_token" yaml:"auth_token"`
		DeviceID  string `json:"device_id" yaml:"device_id"`
	} `json:"app" yaml:"app"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn" yaml:"dsn"`
		} `json:"db" yaml:"db"`
	} `json:"storage" yaml:"storage"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address" yaml:"http_address"`
		NotifyAddress  string   `json:"notify_address" yaml:"notify_address"`
		RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
	} `json:"adapter" yaml:"adapter"`

	Workers struct {
		SyncInterval   Duration `json:"sync_interval" yaml:"sync_interval"`
		RetryBaseDelay Duration `json:"retry_base_delay" yaml:"retry_base_delay"`
		RetryMaxDelay  Duration `json:"retry_max_delay" yaml:"retry_max_delay"`
	} `json:"workers" yaml:"workers"`

	Network struct {
		StatusFile string `json:"status_file" yaml:"status_file"`
	} `json:"network" yaml:"network"`

	Diagnostics struct {
		HTTPAddress string `json:"http_address" yaml:"http_address"`
	} `json:"diagnostics" yaml:"diagnostics"`

	Log struct {
		Dir string `json:"dir" yaml:"dir"`
	} `json:"log" yaml:"log"`
}

// parseFile reads a JSON (.json) or YAML (.yaml, .yml) config file.
func parseFile(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var fileCfg structuredFileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("error decoding yaml configs: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFile, path)
	}

	return &StructuredConfig{
		App: App{
			HashKey:   fileCfg.App.HashKey,
			AuthToken: fileCfg.App.AuthToken,
			DeviceID:  fileCfg.App.DeviceID,
		},
		Storage: Storage{
			DB: DB{DSN: fileCfg.Storage.DB.DSN},
		},
		Adapter: Adapter{
			HTTPAddress:    fileCfg.Adapter.HTTPAddress,
			NotifyAddress:  fileCfg.Adapter.NotifyAddress,
			RequestTimeout: time.Duration(fileCfg.Adapter.RequestTimeout),
		},
		Workers: Workers{
			SyncInterval:   time.Duration(fileCfg.Workers.SyncInterval),
			RetryBaseDelay: time.Duration(fileCfg.Workers.RetryBaseDelay),
			RetryMaxDelay:  time.Duration(fileCfg.Workers.RetryMaxDelay),
		},
		Network:     Network{StatusFile: fileCfg.Network.StatusFile},
		Diagnostics: Diagnostics{HTTPAddress: fileCfg.Diagnostics.HTTPAddress},
		Log:         Log{Dir: fileCfg.Log.Dir},
	}, nil
}

// Duration is a time.Duration that decodes from strings like "1h" or "30s"
// as well as from integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*d = Duration(n)
		return nil
	}

	tmp, err := time.ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(tmp)
	return nil
}
