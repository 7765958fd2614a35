package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/MKhiriev/go-herd-keeper/internal/adapter"
	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// Enqueuer is the hot path into the sync engine.
type Enqueuer interface {
	Enqueue(item models.SyncItem)
}

// TransferCoordinator owns one state machine per transfer.
//
// Machines are created on Initiate and rebuilt from the store on first use
// after a restart. Committed transitions are handed to the sync engine right
// away; the other party is notified in the background once a transfer ends.
type TransferCoordinator struct {
	mu       sync.Mutex
	machines map[string]*TransferStateMachine

	assets    store.AssetRepository
	transfers store.TransferRepository
	engine    Enqueuer
	notifier  adapter.Notifier
	ids       IDGenerator

	notifications sync.WaitGroup
	logger        *logger.Logger
}

func NewTransferCoordinator(assets store.AssetRepository, transfers store.TransferRepository, engine Enqueuer, notifier adapter.Notifier, ids IDGenerator, logger *logger.Logger) *TransferCoordinator {
	return &TransferCoordinator{
		machines:  make(map[string]*TransferStateMachine),
		assets:    assets,
		transfers: transfers,
		engine:    engine,
		notifier:  notifier,
		ids:       ids,
		logger:    logger.WithComponent("transfers"),
	}
}

// Initiate opens a transfer of a local asset to another owner.
func (c *TransferCoordinator) Initiate(ctx context.Context, req models.InitiateTransferRequest) (models.Transfer, error) {
	log := logger.FromContext(ctx)

	req.AssetID = strings.TrimSpace(req.AssetID)
	req.ToOwnerID = strings.TrimSpace(req.ToOwnerID)
	if req.AssetID == "" || req.ToOwnerID == "" {
		return models.Transfer{}, app.New(app.ReasonMalformedPayload, "asset_id and to_owner_id are required")
	}

	asset, err := c.assets.GetAsset(ctx, req.AssetID)
	if err != nil {
		return models.Transfer{}, fmt.Errorf("load asset %s: %w", req.AssetID, err)
	}
	if asset.Deleted {
		return models.Transfer{}, app.InvalidState("initiate", "deleted asset")
	}
	if asset.OwnerID == req.ToOwnerID {
		return models.Transfer{}, app.New(app.ReasonMalformedPayload, "asset %s is already owned by %s", asset.ID, req.ToOwnerID)
	}

	expected := asset.Attributes
	if req.Expected != nil {
		expected = *req.Expected
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, m := range c.machines {
		if t := m.Transfer(); t.AssetID == asset.ID && m.State() == MachinePending {
			return models.Transfer{}, app.New(app.ReasonInvalidState, "asset %s already has pending transfer %s", asset.ID, id)
		}
	}

	// machines are only kept for transfers touched since start
	pending, err := c.transfers.PendingTransferForAsset(ctx, asset.ID)
	switch {
	case err == nil:
		return models.Transfer{}, app.Wrap(app.ReasonInvalidState, store.ErrPendingTransferExists, "asset %s already has pending transfer %s", asset.ID, pending.ID)
	case !errors.Is(err, store.ErrTransferNotFound):
		log.Err(err).Str("func", "TransferCoordinator.Initiate").Str("asset_id", asset.ID).Msg("failed to look up pending transfer")
		return models.Transfer{}, err
	}

	machine := NewTransferStateMachine(c.transfers, c.ids)
	tr, err := machine.Initiate(ctx, models.Transfer{
		ID:          c.ids.Generate(),
		AssetID:     asset.ID,
		FromOwnerID: asset.OwnerID,
		ToOwnerID:   req.ToOwnerID,
		Expected:    expected,
	})
	if err != nil {
		log.Err(err).Str("func", "TransferCoordinator.Initiate").Str("asset_id", asset.ID).Msg("failed to initiate transfer")
		return models.Transfer{}, err
	}

	c.machines[tr.Transfer.ID] = machine
	c.engine.Enqueue(tr.Outbox)

	log.Info().Str("transfer_id", tr.Transfer.ID).Str("asset_id", asset.ID).Msg("transfer initiated")
	return tr.Transfer, nil
}

// Verify completes a pending transfer after checking what the buyer
// observed against the declared attributes. A mismatch leaves the transfer
// pending.
func (c *TransferCoordinator) Verify(ctx context.Context, transferID string, details models.VerificationDetails) (models.Transfer, error) {
	machine, err := c.machine(ctx, transferID)
	if err != nil {
		return models.Transfer{}, err
	}

	if state := machine.State(); state != MachinePending {
		return models.Transfer{}, app.InvalidState("verify", state.String())
	}
	if err = CheckTolerance(machine.Transfer().Expected, details.Observed); err != nil {
		return models.Transfer{}, err
	}

	tr, err := machine.Verify(ctx, details)
	if err != nil {
		return models.Transfer{}, err
	}

	c.settle(ctx, tr)
	return tr.Transfer, nil
}

// Reject cancels a pending transfer.
func (c *TransferCoordinator) Reject(ctx context.Context, transferID, reason string) (models.Transfer, error) {
	machine, err := c.machine(ctx, transferID)
	if err != nil {
		return models.Transfer{}, err
	}

	tr, err := machine.Reject(ctx, reason)
	if err != nil {
		return models.Transfer{}, err
	}

	c.settle(ctx, tr)
	return tr.Transfer, nil
}

// Get returns the current state of a transfer.
func (c *TransferCoordinator) Get(ctx context.Context, transferID string) (models.Transfer, error) {
	machine, err := c.machine(ctx, transferID)
	if err != nil {
		return models.Transfer{}, err
	}
	return machine.Transfer(), nil
}

// Discard forgets the machine of a transfer. The persisted transfer is kept.
func (c *TransferCoordinator) Discard(transferID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.machines, transferID)
}

// Wait blocks until every notification in flight has finished.
func (c *TransferCoordinator) Wait() {
	c.notifications.Wait()
}

func (c *TransferCoordinator) machine(ctx context.Context, transferID string) (*TransferStateMachine, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.machines[transferID]; ok {
		return m, nil
	}

	transfer, err := c.transfers.GetTransfer(ctx, transferID)
	if err != nil {
		return nil, fmt.Errorf("load transfer %s: %w", transferID, err)
	}

	m := Restore(transfer, c.transfers, c.ids)
	c.machines[transferID] = m
	return m, nil
}

func (c *TransferCoordinator) settle(ctx context.Context, tr models.TransferTransition) {
	log := logger.FromContext(ctx)

	c.engine.Enqueue(tr.Outbox)
	log.Info().
		Str("transfer_id", tr.Transfer.ID).
		Str("status", string(tr.Transfer.Status)).
		Msg("transfer settled")

	if c.notifier == nil || !tr.Transfer.IsTerminal() {
		return
	}

	c.notifications.Add(1)
	go func(transfer models.Transfer) {
		defer c.notifications.Done()

		if err := c.notifier.NotifyTransfer(context.WithoutCancel(ctx), transfer); err != nil {
			c.logger.Warn().Err(err).
				Str("func", "TransferCoordinator.settle").
				Str("transfer_id", transfer.ID).
				Msg("transfer notification failed")
		}
	}(tr.Transfer)
}

// IsNotFound reports whether err means an unknown asset or transfer.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrTransferNotFound) || errors.Is(err, store.ErrAssetNotFound)
}
