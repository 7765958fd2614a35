package http

import (
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/service"
)

type Handler struct {
	sync      service.SyncService
	transfers service.TransferService

	logger *logger.Logger
}

func NewHandler(services *service.ClientServices, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		sync:      services.SyncService,
		transfers: services.TransferService,
		logger:    logger,
	}
}
