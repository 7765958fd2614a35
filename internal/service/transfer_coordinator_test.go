// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/config"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/mock"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// ─────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────

// fakeRegistry is an in-memory local store: assets, transfers and the
// outbox entries written with transitions.
type fakeRegistry struct {
	mu        sync.Mutex
	assets    map[string]models.Asset
	transfers map[string]models.Transfer
	outbox    []models.SyncItem
}

func newFakeRegistry(assets ...models.Asset) *fakeRegistry {
	r := &fakeRegistry{
		assets:    make(map[string]models.Asset),
		transfers: make(map[string]models.Transfer),
	}
	for _, a := range assets {
		r.assets[a.ID] = a
	}
	return r
}

func (r *fakeRegistry) SaveAsset(_ context.Context, asset models.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assets[asset.ID] = asset
	return nil
}

func (r *fakeRegistry) GetAsset(_ context.Context, assetID string) (models.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[assetID]
	if !ok {
		return models.Asset{}, store.ErrAssetNotFound
	}
	return a, nil
}

func (r *fakeRegistry) SetOwner(_ context.Context, assetID, ownerID string, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[assetID]
	if !ok {
		return store.ErrAssetNotFound
	}
	a.OwnerID = ownerID
	a.UpdatedAt = updatedAt
	r.assets[assetID] = a
	return nil
}

func (r *fakeRegistry) SaveTransfer(_ context.Context, transfer models.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transfers[transfer.ID] = transfer
	return nil
}

func (r *fakeRegistry) GetTransfer(_ context.Context, transferID string) (models.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tr, ok := r.transfers[transferID]
	if !ok {
		return models.Transfer{}, store.ErrTransferNotFound
	}
	return tr, nil
}

func (r *fakeRegistry) PendingTransferForAsset(_ context.Context, assetID string) (models.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tr := range r.transfers {
		if tr.AssetID == assetID && tr.Status == models.TransferPending {
			return tr, nil
		}
	}
	return models.Transfer{}, store.ErrTransferNotFound
}

// WriteTransition applies the same guards as the SQL store: one pending
// transfer per asset and no flip of an asset the seller no longer owns.
func (r *fakeRegistry) WriteTransition(ctx context.Context, tr models.TransferTransition) error {
	if tr.Transfer.Status == models.TransferPending {
		if other, err := r.PendingTransferForAsset(ctx, tr.Transfer.AssetID); err == nil && other.ID != tr.Transfer.ID {
			return app.Wrap(app.ReasonInvalidState, store.ErrPendingTransferExists, "pending transfer %s", other.ID)
		}
	}
	if tr.FlipOwnership {
		if owner := r.owner(tr.Transfer.AssetID); owner != "" && owner != tr.Transfer.FromOwnerID {
			return app.Wrap(app.ReasonInvalidState, store.ErrOwnershipChanged, "owned by %s", owner)
		}
	}
	if err := r.SaveTransfer(ctx, tr.Transfer); err != nil {
		return err
	}
	if tr.FlipOwnership {
		if err := r.SetOwner(ctx, tr.Transfer.AssetID, tr.Transfer.ToOwnerID, testNow); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outbox = append(r.outbox, tr.Outbox)
	return nil
}

func (r *fakeRegistry) outboxOfType(t models.SyncType) []models.SyncItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SyncItem
	for _, item := range r.outbox {
		if item.Type == t {
			out = append(out, item)
		}
	}
	return out
}

func (r *fakeRegistry) owner(assetID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assets[assetID].OwnerID
}

type recordingEnqueuer struct {
	mu    sync.Mutex
	items []models.SyncItem
}

func (e *recordingEnqueuer) Enqueue(item models.SyncItem) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.items = append(e.items, item)
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

var herdAsset = models.Asset{
	ID:         "asset-x",
	OwnerID:    "owner-a",
	Name:       "Bella",
	Attributes: declared,
	Version:    3,
}

func newTestCoordinator(t *testing.T) (*TransferCoordinator, *fakeRegistry, *recordingEnqueuer, *mock.MockNotifier) {
	t.Helper()
	ctrl := gomock.NewController(t)
	notifier := mock.NewMockNotifier(ctrl)
	registry := newFakeRegistry(herdAsset)
	engine := &recordingEnqueuer{}

	c := NewTransferCoordinator(registry, registry, engine, notifier, &seqIDs{}, logger.Nop())
	t.Cleanup(c.Wait)
	return c, registry, engine, notifier
}

func matchingDetails() models.VerificationDetails {
	return models.VerificationDetails{Observed: declared, VerifiedBy: "owner-b"}
}

// ── Scenarios ─────────────────────────────────────────────────────────────────

func TestTransferCoordinator_InitiateAndVerify(t *testing.T) {
	c, registry, engine, notifier := newTestCoordinator(t)
	ctx := context.Background()

	notified := make(chan models.Transfer, 1)
	notifier.EXPECT().NotifyTransfer(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tr models.Transfer) error {
		notified <- tr
		return nil
	}).Times(1)

	tr, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	require.NoError(t, err)
	assert.Equal(t, models.TransferPending, tr.Status)
	assert.Equal(t, "owner-a", tr.FromOwnerID)
	assert.Equal(t, declared, tr.Expected)
	assert.Equal(t, "owner-a", registry.owner("asset-x"))

	verified, err := c.Verify(ctx, tr.ID, matchingDetails())
	require.NoError(t, err)
	assert.Equal(t, models.TransferVerified, verified.Status)
	assert.Equal(t, "owner-b", registry.owner("asset-x"))

	verifies := registry.outboxOfType(models.SyncTransferVerify)
	require.Len(t, verifies, 1)
	assert.Equal(t, models.PriorityCritical, verifies[0].Priority)

	require.Len(t, engine.items, 2)
	assert.Equal(t, models.SyncTransferCreate, engine.items[0].Type)
	assert.Equal(t, models.SyncTransferVerify, engine.items[1].Type)

	select {
	case n := <-notified:
		assert.Equal(t, tr.ID, n.ID)
		assert.Equal(t, models.TransferVerified, n.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not called")
	}
}

func TestTransferCoordinator_InitiateAndReject(t *testing.T) {
	c, registry, _, notifier := newTestCoordinator(t)
	ctx := context.Background()
	notifier.EXPECT().NotifyTransfer(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	tr, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	require.NoError(t, err)

	rejected, err := c.Reject(ctx, tr.ID, "limping")
	require.NoError(t, err)
	assert.Equal(t, models.TransferRejected, rejected.Status)
	assert.Equal(t, "owner-a", registry.owner("asset-x"))
	assert.Empty(t, registry.outboxOfType(models.SyncTransferVerify))
	assert.Len(t, registry.outboxOfType(models.SyncTransferReject), 1)
}

func TestTransferCoordinator_ConcurrentVerify(t *testing.T) {
	c, registry, _, notifier := newTestCoordinator(t)
	ctx := context.Background()
	notifier.EXPECT().NotifyTransfer(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	tr, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = c.Verify(ctx, tr.ID, matchingDetails())
		}()
	}
	close(start)
	wg.Wait()

	var ok, invalid int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, app.ErrInvalidState):
			invalid++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, invalid)
	assert.Len(t, registry.outboxOfType(models.SyncTransferVerify), 1)
}

// ── Verification ──────────────────────────────────────────────────────────────

func TestTransferCoordinator_Verify_MismatchKeepsPending(t *testing.T) {
	c, registry, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	tr, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	require.NoError(t, err)

	details := matchingDetails()
	details.Observed.WeightKg = 300

	_, err = c.Verify(ctx, tr.ID, details)
	require.Error(t, err)
	assert.Equal(t, app.KindValidation, app.KindOf(err))

	got, err := c.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransferPending, got.Status)
	assert.Equal(t, "owner-a", registry.owner("asset-x"))
}

func TestTransferCoordinator_Verify_ExpectedOverride(t *testing.T) {
	c, _, _, notifier := newTestCoordinator(t)
	ctx := context.Background()
	notifier.EXPECT().NotifyTransfer(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	expected := models.AssetAttributes{Color: "black"}
	tr, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b", Expected: &expected})
	require.NoError(t, err)

	_, err = c.Verify(ctx, tr.ID, matchingDetails())
	require.Error(t, err)

	_, err = c.Verify(ctx, tr.ID, models.VerificationDetails{Observed: models.AssetAttributes{Color: "Black"}, VerifiedBy: "owner-b"})
	require.NoError(t, err)
}

func TestTransferCoordinator_NotifierFailureIsIgnored(t *testing.T) {
	c, _, _, notifier := newTestCoordinator(t)
	ctx := context.Background()
	notifier.EXPECT().NotifyTransfer(gomock.Any(), gomock.Any()).Return(app.New(app.ReasonServerError, "down")).Times(1)

	tr, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	require.NoError(t, err)

	_, err = c.Reject(ctx, tr.ID, "no show")
	require.NoError(t, err)
}

// ── Initiate validation ───────────────────────────────────────────────────────

func TestTransferCoordinator_Initiate_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown asset", func(t *testing.T) {
		c, _, _, _ := newTestCoordinator(t)
		_, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "nope", ToOwnerID: "owner-b"})
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
	})

	t.Run("same owner", func(t *testing.T) {
		c, _, _, _ := newTestCoordinator(t)
		_, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-a"})
		assert.Equal(t, app.KindValidation, app.KindOf(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		c, _, _, _ := newTestCoordinator(t)
		_, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: " "})
		assert.Equal(t, app.KindValidation, app.KindOf(err))
	})

	t.Run("second pending transfer", func(t *testing.T) {
		c, _, _, _ := newTestCoordinator(t)
		_, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
		require.NoError(t, err)
		_, err = c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-c"})
		assert.ErrorIs(t, err, app.ErrInvalidState)
	})

	t.Run("deleted asset", func(t *testing.T) {
		c, registry, _, _ := newTestCoordinator(t)
		deleted := herdAsset
		deleted.Deleted = true
		require.NoError(t, registry.SaveAsset(ctx, deleted))
		_, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
		assert.ErrorIs(t, err, app.ErrInvalidState)
	})
}

func TestTransferCoordinator_PendingTransferSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	c, registry, _, _ := newTestCoordinator(t)

	first, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	require.NoError(t, err)

	restarted := NewTransferCoordinator(registry, registry, &recordingEnqueuer{}, nil, &seqIDs{}, logger.Nop())
	_, err = restarted.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-c"})
	assert.ErrorIs(t, err, app.ErrInvalidState)
	assert.ErrorIs(t, err, store.ErrPendingTransferExists)

	c.Discard(first.ID)
	_, err = c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-c"})
	assert.ErrorIs(t, err, store.ErrPendingTransferExists)
}

func TestTransferCoordinator_Initiate_PendingLookupFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	transfers := mock.NewMockTransferRepository(ctrl)
	registry := newFakeRegistry(herdAsset)
	c := NewTransferCoordinator(registry, transfers, &recordingEnqueuer{}, nil, &seqIDs{}, logger.Nop())

	boom := errors.New("disk gone")
	transfers.EXPECT().PendingTransferForAsset(gomock.Any(), "asset-x").Return(models.Transfer{}, boom)

	_, err := c.Initiate(context.Background(), models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	assert.ErrorIs(t, err, boom)
}

func TestTransferCoordinator_Verify_RefusedWhenAssetChangedHands(t *testing.T) {
	c, registry, engine, _ := newTestCoordinator(t)
	ctx := context.Background()

	persisted := models.Transfer{
		ID: "tr-stale", AssetID: "asset-x", FromOwnerID: "owner-z", ToOwnerID: "owner-b",
		Status: models.TransferPending, Expected: declared, Version: 1, InitiatedAt: testNow,
	}
	require.NoError(t, registry.SaveTransfer(ctx, persisted))

	_, err := c.Verify(ctx, "tr-stale", matchingDetails())
	assert.ErrorIs(t, err, app.ErrInvalidState)
	assert.ErrorIs(t, err, store.ErrOwnershipChanged)

	got, err := c.Get(ctx, "tr-stale")
	require.NoError(t, err)
	assert.Equal(t, models.TransferPending, got.Status)
	assert.Equal(t, "owner-a", registry.owner("asset-x"))
	assert.Empty(t, engine.items)
}

// ── Local store ───────────────────────────────────────────────────────────────

func TestTransferCoordinator_SQLiteRestartKeepsOneOwner(t *testing.T) {
	ctx := context.Background()
	storages, err := store.NewClientStorages(ctx, config.ClientStorage{
		DB: config.ClientDB{DSN: filepath.Join(t.TempDir(), "herd.db")},
	}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { storages.Close() })

	asset := herdAsset
	asset.UpdatedAt = testNow
	require.NoError(t, storages.Assets.SaveAsset(ctx, asset))

	ids := &seqIDs{}
	before := NewTransferCoordinator(storages.Assets, storages.Transfers, &recordingEnqueuer{}, nil, ids, logger.Nop())
	first, err := before.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	require.NoError(t, err)

	after := NewTransferCoordinator(storages.Assets, storages.Transfers, &recordingEnqueuer{}, nil, ids, logger.Nop())
	_, err = after.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-c"})
	require.ErrorIs(t, err, store.ErrPendingTransferExists)

	// the index holds even when the in-memory guards are bypassed
	err = storages.Transfers.WriteTransition(ctx, models.TransferTransition{
		Transfer: models.Transfer{
			ID: "tr-rogue", AssetID: "asset-x", FromOwnerID: "owner-a", ToOwnerID: "owner-c",
			Status: models.TransferPending, Version: 1, InitiatedAt: testNow,
		},
		Outbox: models.NewSyncItem("ob-rogue", "tr-rogue", models.TransferCreatePayload{}, testNow),
	})
	require.ErrorIs(t, err, store.ErrPendingTransferExists)
	assert.ErrorIs(t, err, app.ErrInvalidState)

	verified, err := after.Verify(ctx, first.ID, matchingDetails())
	require.NoError(t, err)
	assert.Equal(t, models.TransferVerified, verified.Status)

	got, err := storages.Assets.GetAsset(ctx, "asset-x")
	require.NoError(t, err)
	assert.Equal(t, "owner-b", got.OwnerID)

	// a stale verification for the old owner cannot flip the asset again
	verifiedAt := testNow.Add(time.Hour)
	err = storages.Transfers.WriteTransition(ctx, models.TransferTransition{
		Transfer: models.Transfer{
			ID: "tr-stale", AssetID: "asset-x", FromOwnerID: "owner-a", ToOwnerID: "owner-c",
			Status: models.TransferVerified, Version: 2, InitiatedAt: testNow, VerifiedAt: &verifiedAt,
		},
		Outbox:        models.NewSyncItem("ob-stale", "tr-stale", models.TransferVerifyPayload{}, verifiedAt),
		FlipOwnership: true,
	})
	require.ErrorIs(t, err, store.ErrOwnershipChanged)

	got, err = storages.Assets.GetAsset(ctx, "asset-x")
	require.NoError(t, err)
	assert.Equal(t, "owner-b", got.OwnerID)
	_, err = storages.Transfers.GetTransfer(ctx, "tr-stale")
	assert.ErrorIs(t, err, store.ErrTransferNotFound)
}

// ── Get / recovery ────────────────────────────────────────────────────────────

func TestTransferCoordinator_RestoresFromStore(t *testing.T) {
	c, registry, _, notifier := newTestCoordinator(t)
	ctx := context.Background()
	notifier.EXPECT().NotifyTransfer(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	persisted := models.Transfer{
		ID: "tr-old", AssetID: "asset-x", FromOwnerID: "owner-a", ToOwnerID: "owner-b",
		Status: models.TransferPending, Expected: declared, Version: 1, InitiatedAt: testNow,
	}
	require.NoError(t, registry.SaveTransfer(ctx, persisted))

	got, err := c.Get(ctx, "tr-old")
	require.NoError(t, err)
	assert.Equal(t, persisted, got)

	verified, err := c.Verify(ctx, "tr-old", matchingDetails())
	require.NoError(t, err)
	assert.Equal(t, int64(2), verified.Version)
	assert.Equal(t, "owner-b", registry.owner("asset-x"))
}

func TestTransferCoordinator_GetUnknown(t *testing.T) {
	c, _, _, _ := newTestCoordinator(t)
	_, err := c.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestTransferCoordinator_Discard(t *testing.T) {
	c, registry, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	tr, err := c.Initiate(ctx, models.InitiateTransferRequest{AssetID: "asset-x", ToOwnerID: "owner-b"})
	require.NoError(t, err)

	c.Discard(tr.ID)

	got, err := c.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, registry.transfers[tr.ID], got)
}

// ── Validation wrapper ────────────────────────────────────────────────────────

func TestTransferValidationService(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mock.NewMockTransferService(ctrl)
	svc := NewTransferValidationService().Wrap(inner)
	ctx := context.Background()

	_, err := svc.Initiate(ctx, models.InitiateTransferRequest{ToOwnerID: "b"})
	assert.ErrorIs(t, err, ErrValidationNoAssetID)

	_, err = svc.Verify(ctx, "tr-1", models.VerificationDetails{})
	assert.ErrorIs(t, err, ErrValidationNoVerifier)
	assert.Equal(t, app.KindValidation, app.KindOf(err))

	_, err = svc.Reject(ctx, "tr-1", "  ")
	assert.ErrorIs(t, err, ErrValidationNoReason)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, ErrValidationNoTransferID)

	want := models.Transfer{ID: "tr-1", Status: models.TransferRejected}
	inner.EXPECT().Reject(ctx, "tr-1", "late").Return(want, nil)
	got, err := svc.Reject(ctx, "tr-1", "late")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
