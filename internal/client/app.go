package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-herd-keeper/internal/adapter"
	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/handler"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/network"
	"github.com/MKhiriev/go-herd-keeper/internal/server"
	"github.com/MKhiriev/go-herd-keeper/internal/service"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/internal/workers"
	"github.com/MKhiriev/go-herd-keeper/models"
)

type App struct {
	storages *store.ClientStorages
	services *service.ClientServices
	workers  *workers.Workers

	logger *logger.Logger
}

// NewApp wires the client from cfg. The returned App owns the local store
// and closes it when Run returns.
func NewApp(ctx context.Context, cfg *config.ClientConfig, logger *logger.Logger) (*App, error) {
	authority, err := adapter.NewHTTPRemoteAuthority(cfg.Adapter, cfg.App, logger)
	if err != nil {
		return nil, fmt.Errorf("create remote authority adapter: %w", err)
	}

	var notifier adapter.Notifier
	if cfg.Adapter.NotifyAddress != "" {
		if notifier, err = adapter.NewHTTPNotifier(cfg.Adapter, cfg.App, logger); err != nil {
			return nil, fmt.Errorf("create notifier: %w", err)
		}
	}

	storages, err := store.NewClientStorages(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	monitor := newMonitor(cfg.Network, logger)

	services := service.NewClientServices(service.ClientDeps{
		Storages:  storages,
		Authority: authority,
		Notifier:  notifier,
		Monitor:   monitor,
	}, cfg, logger)

	ws := workers.NewWorkers(logger).
		Add("network-monitor", monitor).
		Add("sync-orchestrator", services.Orchestrator)

	if cfg.Diagnostics.HTTPAddress != "" {
		srv, err := newDiagnosticsServer(services, cfg.Diagnostics, logger)
		if err != nil {
			storages.Close()
			return nil, err
		}
		ws.Add("diagnostics-server", srv)
	}

	return &App{
		storages: storages,
		services: services,
		workers:  ws,
		logger:   logger,
	}, nil
}

// Run blocks until ctx is done or a worker fails. Pending transfer
// notifications are awaited before the store is closed.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info().Msg("client started")

	runErr := a.workers.Run(ctx)

	a.services.Coordinator.Wait()
	closeErr := a.storages.Close()

	a.logger.Info().Msg("client stopped")
	return errors.Join(runErr, closeErr)
}

// newMonitor watches the status file written by the platform's network
// reporter. Without one the device is assumed to be on a good link.
func newMonitor(cfg config.ClientNetwork, logger *logger.Logger) network.Monitor {
	if cfg.StatusFile != "" {
		return network.NewFileMonitor(cfg.StatusFile, logger)
	}
	return network.NewStaticMonitor(models.NetworkStatus{Connected: true, Quality: models.QualityGood})
}

func newDiagnosticsServer(services *service.ClientServices, cfg config.ClientDiagnostics, logger *logger.Logger) (server.Server, error) {
	handlers, err := handler.NewHandlers(services, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create handlers: %w", err)
	}

	srv, err := server.NewServer(handlers, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create diagnostics server: %w", err)
	}
	return srv, nil
}
