package handler

import (
	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/handler/http"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.ClientServices, cfg config.ClientDiagnostics, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{HTTP: http.NewHandler(services, logger)}, nil
}
