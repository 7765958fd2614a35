// Package workers runs the long-lived background loops of the client:
// the sync orchestrator, the network monitor and the diagnostics server.
package workers

import "context"

// Worker is a background loop. Run blocks until ctx is done or the worker
// fails, and returns nil on a clean shutdown.
//
// Example implementation:
//
//	type ticker struct{}
//
//	func (t *ticker) Run(ctx context.Context) error {
//	    <-ctx.Done()
//	    return nil
//	}
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc adapts a plain function to Worker.
type WorkerFunc func(ctx context.Context) error

func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}
