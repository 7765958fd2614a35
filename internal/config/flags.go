package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags from the process arguments.
//
// Flags:
//
//	-a diagnostics API address in format [host]:[port]
//	-s remote authority base URL
//	-notify-address notification service base URL
//	-d database DSN
//	-c/-config JSON or YAML file path with configs
//	-hash-key content hash key
//	-auth-token bearer token for the remote authority
//	-device-id device identifier
//	-request-timeout request timeout (e.g. "30s", "1m")
//	-sync-interval outbox scan interval
//	-retry-base-delay first retry backoff
//	-retry-max-delay retry backoff cap
//	-network-status-file connection status file
//	-log-dir log file directory
func ParseFlags() (*StructuredConfig, error) {
	var diagnosticsAddress NetAddress
	var authorityAddress, notifyAddress string
	var databaseDSN string
	var configPath string
	var hashKey, authToken, deviceID string
	var requestTimeout, syncInterval, retryBase, retryMax time.Duration
	var statusFile, logDir string

	fs := flag.CommandLine
	fs.Var(&diagnosticsAddress, "a", "Diagnostics API address host:port")
	fs.StringVar(&authorityAddress, "s", "", "Remote authority base URL")
	fs.StringVar(&notifyAddress, "notify-address", "", "Notification service base URL")
	fs.StringVar(&databaseDSN, "d", "", "Database DSN")
	fs.StringVar(&configPath, "c", "", "Config file path")
	fs.StringVar(&configPath, "config", "", "Config file path (alias)")
	fs.StringVar(&hashKey, "hash-key", "", "Content hash key")
	fs.StringVar(&authToken, "auth-token", "", "Bearer token for the remote authority")
	fs.StringVar(&deviceID, "device-id", "", "Device identifier")
	fs.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	fs.DurationVar(&syncInterval, "sync-interval", 0, "Outbox scan interval")
	fs.DurationVar(&retryBase, "retry-base-delay", 0, "First retry backoff")
	fs.DurationVar(&retryMax, "retry-max-delay", 0, "Retry backoff cap")
	fs.StringVar(&statusFile, "network-status-file", "", "Connection status file")
	fs.StringVar(&logDir, "log-dir", "", "Log file directory")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, err
	}

	return &StructuredConfig{
		App: App{
			HashKey:   hashKey,
			AuthToken: authToken,
			DeviceID:  deviceID,
		},
		Storage: Storage{
			DB: DB{DSN: databaseDSN},
		},
		Adapter: Adapter{
			HTTPAddress:    authorityAddress,
			NotifyAddress:  notifyAddress,
			RequestTimeout: requestTimeout,
		},
		Workers: Workers{
			SyncInterval:   syncInterval,
			RetryBaseDelay: retryBase,
			RetryMaxDelay:  retryMax,
		},
		Network:     Network{StatusFile: statusFile},
		Diagnostics: Diagnostics{HTTPAddress: diagnosticsAddress.String()},
		Log:         Log{Dir: logDir},
		FilePath:    configPath,
	}, nil
}

// String returns a canonical host:port string for a NetAddress.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range and checks IP correctness unless host is
// "localhost".
func (a *NetAddress) Set(s string) error {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return errors.New("need address in a form `host:port`")
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host != "" && !strings.EqualFold(host, "localhost") && net.ParseIP(host) == nil {
		return errors.New("incorrect IP-address provided")
	}

	a.Host = host
	a.Port = port
	return nil
}
