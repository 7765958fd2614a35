package server

import "context"

// Server defines the lifecycle contract of the servers in this package.
type Server interface {
	// Run serves requests until ctx is done, then shuts down gracefully.
	// It returns nil on a clean shutdown.
	Run(ctx context.Context) error

	// Addr returns the address the server listens on once it started.
	Addr() string
}
