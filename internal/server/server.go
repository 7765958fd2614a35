package server

import (
	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/handler"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
)

// NewServer builds the diagnostics server for handlers.
func NewServer(handlers *handler.Handlers, cfg config.ClientDiagnostics, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")

	if handlers == nil || handlers.HTTP == nil || cfg.HTTPAddress == "" {
		return nil, errDiagnosticsDisabled
	}

	return newHTTPServer(handlers.HTTP.Init(), cfg.HTTPAddress, logger.WithComponent("diagnostics")), nil
}
