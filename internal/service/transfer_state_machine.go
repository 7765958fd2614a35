package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// MachineState is the in-memory state of one transfer.
type MachineState uint8

const (
	MachineIdle MachineState = iota
	MachinePending
	MachineVerified
	MachineRejected
)

func (s MachineState) String() string {
	switch s {
	case MachineIdle:
		return "IDLE"
	case MachinePending:
		return "PENDING"
	case MachineVerified:
		return "VERIFIED"
	case MachineRejected:
		return "REJECTED"
	}
	return fmt.Sprintf("MachineState(%d)", uint8(s))
}

func (s MachineState) IsTerminal() bool {
	return s == MachineVerified || s == MachineRejected
}

// TransitionWriter persists a transfer transition and its outbox entry
// atomically. store.TransferRepository satisfies it.
type TransitionWriter interface {
	WriteTransition(ctx context.Context, transition models.TransferTransition) error
}

// TransferStateMachine drives one transfer through
// Idle → Pending → Verified | Rejected.
//
// Transitions are serialised by a mutex. The state only moves after the
// writer committed the transition, so a failed write leaves the machine
// where it was.
type TransferStateMachine struct {
	mu       sync.Mutex
	state    MachineState
	transfer models.Transfer

	writer TransitionWriter
	ids    IDGenerator
	now    func() time.Time
	feed   *utils.Broadcaster[MachineState]
}

// IDGenerator produces outbox ids.
type IDGenerator interface {
	Generate() string
}

func NewTransferStateMachine(writer TransitionWriter, ids IDGenerator) *TransferStateMachine {
	m := &TransferStateMachine{
		writer: writer,
		ids:    ids,
		now:    time.Now,
		feed:   utils.NewBroadcaster[MachineState](),
	}
	m.feed.Publish(MachineIdle)
	return m
}

// Restore rebuilds a machine from a persisted transfer.
func Restore(transfer models.Transfer, writer TransitionWriter, ids IDGenerator) *TransferStateMachine {
	m := NewTransferStateMachine(writer, ids)
	m.transfer = transfer
	m.state = stateOf(transfer.Status)
	m.feed.Publish(m.state)
	return m
}

func stateOf(status models.TransferStatus) MachineState {
	switch status {
	case models.TransferPending:
		return MachinePending
	case models.TransferVerified:
		return MachineVerified
	case models.TransferRejected:
		return MachineRejected
	}
	return MachineIdle
}

// Initiate records a new pending transfer. Only allowed from Idle.
func (m *TransferStateMachine) Initiate(ctx context.Context, transfer models.Transfer) (models.TransferTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MachineIdle {
		return models.TransferTransition{}, app.InvalidState("initiate", m.state.String())
	}

	now := m.now().UTC()
	transfer.Status = models.TransferPending
	transfer.Version = 1
	transfer.InitiatedAt = now
	transfer.VerificationDetails = nil
	transfer.VerifiedAt = nil
	transfer.RejectedAt = nil
	transfer.RejectionReason = ""

	tr := models.TransferTransition{
		Transfer: transfer,
		Outbox:   models.NewSyncItem(m.ids.Generate(), transfer.ID, models.TransferCreatePayload{Transfer: transfer}, now),
	}
	return m.commit(ctx, tr, MachinePending)
}

// Verify completes a pending transfer and flips ownership of the asset.
func (m *TransferStateMachine) Verify(ctx context.Context, details models.VerificationDetails) (models.TransferTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MachinePending {
		return models.TransferTransition{}, app.InvalidState("verify", m.state.String())
	}

	now := m.now().UTC()
	if details.ObservedAt.IsZero() {
		details.ObservedAt = now
	}

	transfer := m.transfer
	transfer.Status = models.TransferVerified
	transfer.Version++
	transfer.VerificationDetails = &details
	transfer.VerifiedAt = &now

	tr := models.TransferTransition{
		Transfer:      transfer,
		Outbox:        models.NewSyncItem(m.ids.Generate(), transfer.ID, models.TransferVerifyPayload{Transfer: transfer}, now),
		FlipOwnership: true,
	}
	return m.commit(ctx, tr, MachineVerified)
}

// Reject cancels a pending transfer. Ownership is untouched.
func (m *TransferStateMachine) Reject(ctx context.Context, reason string) (models.TransferTransition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != MachinePending {
		return models.TransferTransition{}, app.InvalidState("reject", m.state.String())
	}

	now := m.now().UTC()
	transfer := m.transfer
	transfer.Status = models.TransferRejected
	transfer.Version++
	transfer.RejectionReason = reason
	transfer.RejectedAt = &now

	tr := models.TransferTransition{
		Transfer: transfer,
		Outbox:   models.NewSyncItem(m.ids.Generate(), transfer.ID, models.TransferRejectPayload{Transfer: transfer}, now),
	}
	return m.commit(ctx, tr, MachineRejected)
}

func (m *TransferStateMachine) commit(ctx context.Context, tr models.TransferTransition, next MachineState) (models.TransferTransition, error) {
	if err := m.writer.WriteTransition(ctx, tr); err != nil {
		return models.TransferTransition{}, err
	}

	m.transfer = tr.Transfer
	m.state = next
	m.feed.Publish(next)
	return tr, nil
}

// Reset returns the machine to Idle from any state. Nothing is persisted.
func (m *TransferStateMachine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = MachineIdle
	m.transfer = models.Transfer{}
	m.feed.Publish(MachineIdle)
}

func (m *TransferStateMachine) State() MachineState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transfer returns the last committed transfer.
func (m *TransferStateMachine) Transfer() models.Transfer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transfer
}

// Subscribe streams state changes, starting with the current state, until
// ctx is done.
func (m *TransferStateMachine) Subscribe(ctx context.Context) <-chan MachineState {
	return m.feed.Subscribe(ctx)
}
