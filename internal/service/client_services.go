package service

import (
	"github.com/MKhiriev/go-herd-keeper/internal/adapter"
	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/network"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
)

// ClientServices groups the services of the client process.
type ClientServices struct {
	Orchestrator *SyncOrchestrator
	Coordinator  *TransferCoordinator

	SyncService     SyncService
	TransferService TransferService
	AssetService    AssetService
	NoteService     NoteService
	PaymentService  PaymentService
	MessageService  MessageService
}

// ClientDeps are the outbound collaborators of the services.
type ClientDeps struct {
	Storages  *store.ClientStorages
	Authority adapter.RemoteAuthority
	Notifier  adapter.Notifier
	Monitor   network.Monitor
}

func NewClientServices(deps ClientDeps, cfg *config.ClientConfig, logger *logger.Logger) *ClientServices {
	ids := utils.NewUUIDGenerator()

	orchestrator := NewSyncOrchestrator(OrchestratorDeps{
		Queue:     NewSyncQueue(),
		Outbox:    deps.Storages.Outbox,
		Applier:   deps.Storages.RemoteApplier,
		Authority: deps.Authority,
		Monitor:   deps.Monitor,
		Resolver:  NewConflictResolver(),
		Hasher:    utils.NewContentHasher(cfg.App.HashKey),
	}, NewRetryPolicy(cfg.Workers.RetryBaseDelay, cfg.Workers.RetryMaxDelay), cfg.Workers.SyncInterval, logger)

	coordinator := NewTransferCoordinator(deps.Storages.Assets, deps.Storages.Transfers, orchestrator, deps.Notifier, ids, logger)

	return &ClientServices{
		Orchestrator:    orchestrator,
		Coordinator:     coordinator,
		SyncService:     orchestrator,
		TransferService: NewTransferValidationService().Wrap(coordinator),
		AssetService:    NewAssetService(deps.Storages, orchestrator, ids, logger),
		NoteService:     NewNoteService(deps.Storages, orchestrator, ids, logger),
		PaymentService:  NewPaymentService(deps.Storages, orchestrator, ids, logger),
		MessageService:  NewMessageService(deps.Storages, orchestrator, ids, logger),
	}
}
