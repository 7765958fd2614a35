package workers

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-herd-keeper/internal/logger"
)

type named struct {
	name   string
	worker Worker
}

// Workers runs a set of workers together. The first failure cancels the
// others.
type Workers struct {
	workers []named
	logger  *logger.Logger
}

func NewWorkers(logger *logger.Logger) *Workers {
	return &Workers{logger: logger.WithComponent("workers")}
}

// Add registers w under name. Nil workers are skipped.
func (w *Workers) Add(name string, worker Worker) *Workers {
	if worker != nil {
		w.workers = append(w.workers, named{name: name, worker: worker})
	}
	return w
}

// Names lists the registered workers in order.
func (w *Workers) Names() []string {
	names := make([]string, 0, len(w.workers))
	for _, nw := range w.workers {
		names = append(names, nw.name)
	}
	return names
}

// Run starts every worker and blocks until all of them returned.
func (w *Workers) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, nw := range w.workers {
		g.Go(func() error {
			w.logger.Info().Str("worker", nw.name).Msg("worker started")

			if err := nw.worker.Run(ctx); err != nil {
				w.logger.Err(err).Str("func", "Workers.Run").Str("worker", nw.name).Msg("worker failed")
				return fmt.Errorf("worker %s: %w", nw.name, err)
			}

			w.logger.Info().Str("worker", nw.name).Msg("worker stopped")
			return nil
		})
	}

	return g.Wait()
}
