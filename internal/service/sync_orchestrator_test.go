// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/network"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// ─────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────

type fakeOutbox struct {
	mu          sync.Mutex
	items       map[string]models.SyncItem
	removed     []string
	rebased     []models.SyncItem
	deadLetters map[string]int
	kinds       map[string]string

	listErr   error
	removeErr error
}

func newFakeOutbox(items ...models.SyncItem) *fakeOutbox {
	o := &fakeOutbox{
		items:       make(map[string]models.SyncItem),
		deadLetters: make(map[string]int),
		kinds:       make(map[string]string),
	}
	for _, item := range items {
		o.items[item.OutboxID] = item
	}
	return o
}

func (o *fakeOutbox) Append(_ context.Context, item models.SyncItem) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, existing := range o.items {
		if existing.Key() == item.Key() {
			delete(o.items, id)
		}
	}
	o.items[item.OutboxID] = item
	return nil
}

func (o *fakeOutbox) Remove(_ context.Context, outboxID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.removeErr != nil {
		return o.removeErr
	}
	delete(o.items, outboxID)
	o.removed = append(o.removed, outboxID)
	return nil
}

func (o *fakeOutbox) ListPending(_ context.Context, filter models.PrioritySet) ([]models.SyncItem, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.listErr != nil {
		return nil, o.listErr
	}
	var out []models.SyncItem
	for _, item := range o.items {
		if filter.Has(item.Priority) {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b models.SyncItem) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (o *fakeOutbox) MarkRetry(_ context.Context, outboxID string, retryCount uint32, nextAttemptAt time.Time, lastError string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	item, ok := o.items[outboxID]
	if !ok {
		return store.ErrOutboxItemNotFound
	}
	item.RetryCount = retryCount
	item.NextAttemptAt = nextAttemptAt
	item.LastError = lastError
	o.items[outboxID] = item
	return nil
}

func (o *fakeOutbox) Rebase(_ context.Context, item models.SyncItem) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.items[item.OutboxID]; !ok {
		return store.ErrOutboxItemNotFound
	}
	o.items[item.OutboxID] = item
	o.rebased = append(o.rebased, item)
	return nil
}

func (o *fakeOutbox) DeadLetter(_ context.Context, item models.SyncItem, _ time.Time, errorKind, _ string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.items, item.OutboxID)
	o.deadLetters[item.OutboxID]++
	o.kinds[item.OutboxID] = errorKind
	return nil
}

func (o *fakeOutbox) ListDeadLetters(context.Context) ([]models.DeadLetter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []models.DeadLetter
	for id := range o.deadLetters {
		out = append(out, models.DeadLetter{OutboxID: id, ErrorKind: o.kinds[id]})
	}
	return out, nil
}

func (o *fakeOutbox) removedIDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.removed)
}

func (o *fakeOutbox) deadLettered(id string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deadLetters[id]
}

type pushCall struct {
	key     string
	payload models.Payload
}

type fakeAuthority struct {
	mu    sync.Mutex
	calls []pushCall

	pushFn  func(ctx context.Context, key string, p models.Payload) (models.VersionedRecord, error)
	fetchFn func(ctx context.Context, category models.EntityCategory, entityID string) (models.VersionedRecord, error)
}

func (a *fakeAuthority) push(ctx context.Context, key string, p models.Payload) (models.VersionedRecord, error) {
	a.mu.Lock()
	a.calls = append(a.calls, pushCall{key: key, payload: p})
	fn := a.pushFn
	a.mu.Unlock()

	if fn != nil {
		return fn(ctx, key, p)
	}
	return models.VersionedRecord{Version: p.EntityVersion()}, nil
}

func (a *fakeAuthority) keys() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, len(a.calls))
	for i, c := range a.calls {
		keys[i] = c.key
	}
	return keys
}

func (a *fakeAuthority) PushAssetCreate(ctx context.Context, key string, p models.AssetCreatePayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) PushAssetUpdate(ctx context.Context, key string, p models.AssetUpdatePayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) PushAssetDelete(ctx context.Context, key string, p models.AssetDeletePayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) PushTransferCreate(ctx context.Context, key string, p models.TransferCreatePayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) PushTransferVerify(ctx context.Context, key string, p models.TransferVerifyPayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) PushTransferReject(ctx context.Context, key string, p models.TransferRejectPayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) PushPaymentConfirm(ctx context.Context, key string, p models.PaymentConfirmPayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) PushNote(ctx context.Context, key string, p models.NoteUpsertPayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) PushMessage(ctx context.Context, key string, p models.MessageSendPayload) (models.VersionedRecord, error) {
	return a.push(ctx, key, p)
}
func (a *fakeAuthority) FetchRecord(ctx context.Context, category models.EntityCategory, entityID string) (models.VersionedRecord, error) {
	if a.fetchFn != nil {
		return a.fetchFn(ctx, category, entityID)
	}
	return models.VersionedRecord{}, app.New(app.ReasonNotFound, "no record")
}

type fakeApplier struct {
	mu      sync.Mutex
	applied []models.VersionedRecord
}

func (f *fakeApplier) ApplyRemote(_ context.Context, record models.VersionedRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, record)
	return nil
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

var (
	excellentLink = models.NetworkStatus{Connected: true, Quality: models.QualityExcellent}
	veryPoorLink  = models.NetworkStatus{Connected: true, Quality: models.QualityVeryPoor}
	noLink        = models.NetworkStatus{Connected: false}
)

type orchestratorFixture struct {
	o         *SyncOrchestrator
	outbox    *fakeOutbox
	authority *fakeAuthority
	applier   *fakeApplier
	monitor   *network.StaticMonitor
}

func newOrchestratorFixture(t *testing.T, status models.NetworkStatus, items ...models.SyncItem) *orchestratorFixture {
	t.Helper()

	f := &orchestratorFixture{
		outbox:    newFakeOutbox(items...),
		authority: &fakeAuthority{},
		applier:   &fakeApplier{},
		monitor:   network.NewStaticMonitor(status),
	}

	queue := newTestQueue()
	f.o = NewSyncOrchestrator(OrchestratorDeps{
		Queue:     queue,
		Outbox:    f.outbox,
		Applier:   f.applier,
		Authority: f.authority,
		Monitor:   f.monitor,
		Hasher:    utils.NewContentHasher("test"),
	}, NewRetryPolicy(time.Second, time.Minute), time.Hour, logger.Nop())
	f.o.now = func() time.Time { return testNow }

	return f
}

func (f *orchestratorFixture) advance(d time.Duration) {
	now := testNow.Add(d)
	f.o.now = func() time.Time { return now }
	f.o.queue.now = func() time.Time { return now }
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func withItem(item models.SyncItem, mutate func(*models.SyncItem)) models.SyncItem {
	mutate(&item)
	return item
}

// ── Success path ──────────────────────────────────────────────────────────────

func TestOrchestrator_Cycle_Success(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, noteItem("n1", "note-1"))

	more, err := f.o.runCycle(testContext())
	require.NoError(t, err)
	assert.False(t, more)

	assert.Equal(t, []string{"n1"}, f.authority.keys())
	assert.Equal(t, []string{"n1"}, f.outbox.removedIDs())
	assert.True(t, f.o.queue.IsEmpty())
	assert.Zero(t, f.o.queue.InFlight())
	assert.Equal(t, uint64(1), f.o.Stats().SuccessfulSyncs)
}

func TestOrchestrator_Cycle_SameEntityInOrder(t *testing.T) {
	create := assetCreateItem("a1", "asset-1")
	update := withItem(assetUpdateItem("a1-upd", "asset-1", 2), func(i *models.SyncItem) { i.CreatedAt = testNow.Add(time.Second) })
	f := newOrchestratorFixture(t, excellentLink, update, create)

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a1-upd"}, f.authority.keys())
}

func TestOrchestrator_Cycle_HighTierFirst(t *testing.T) {
	msg := models.NewSyncItem("m1", "msg-1", models.MessageSendPayload{MessageID: "msg-1", Body: "hi"}, testNow)
	f := newOrchestratorFixture(t, excellentLink,
		noteItem("n1", "note-1"),
		msg,
		transferItem("t1", "transfer-1"),
		assetCreateItem("a1", "asset-1"),
	)

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	keys := f.authority.keys()
	require.Len(t, keys, 4)
	for _, high := range []string{"t1", "a1"} {
		for _, low := range []string{"m1", "n1"} {
			assert.Less(t, slices.Index(keys, high), slices.Index(keys, low), "%s before %s", high, low)
		}
	}
}

func TestOrchestrator_Cycle_StrategyLimitsEligibility(t *testing.T) {
	f := newOrchestratorFixture(t, veryPoorLink, noteItem("n1", "note-1"), transferItem("t1", "transfer-1"))

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	assert.Equal(t, []string{"t1"}, f.authority.keys())
	assert.True(t, f.o.queue.Has(models.SyncKey{EntityID: "note-1", Type: models.SyncNoteUpsert}))
}

func TestOrchestrator_Cycle_OfflineSendsNothing(t *testing.T) {
	f := newOrchestratorFixture(t, noLink, transferItem("t1", "transfer-1"))

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)
	assert.Empty(t, f.authority.keys())
}

func TestOrchestrator_Cycle_BatchSizeBudget(t *testing.T) {
	var items []models.SyncItem
	for i := range 7 {
		id := string(rune('a' + i))
		items = append(items, transferItem("t-"+id, "transfer-"+id))
	}
	f := newOrchestratorFixture(t, veryPoorLink, items...)

	more, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	assert.True(t, more)
	assert.Len(t, f.authority.keys(), 5)
	assert.Equal(t, 2, f.o.queue.Len())
	assert.Zero(t, f.o.queue.InFlight())
}

// ── Retries ───────────────────────────────────────────────────────────────────

func TestOrchestrator_Cycle_NetworkErrorSchedulesRetry(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, noteItem("n1", "note-1"))
	f.authority.pushFn = func(context.Context, string, models.Payload) (models.VersionedRecord, error) {
		return models.VersionedRecord{}, app.New(app.ReasonServerError, "503")
	}

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	stored := f.outbox.items["n1"]
	assert.Equal(t, uint32(1), stored.RetryCount)
	assert.Equal(t, testNow.Add(time.Second), stored.NextAttemptAt)

	queued := f.o.Queue()
	require.Len(t, queued, 1)
	assert.Equal(t, uint32(1), queued[0].RetryCount)
	assert.Zero(t, f.outbox.deadLettered("n1"))
	assert.Equal(t, uint64(1), f.o.Stats().FailedSyncs)

	at, ok := f.o.queue.NextReadyAt(models.AllPrioritySet())
	require.True(t, ok)
	assert.Equal(t, testNow.Add(time.Second), at)
}

func TestOrchestrator_RetryExhaustion_DeadLettersExactlyOnce(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, noteItem("n1", "note-1"))
	f.authority.pushFn = func(context.Context, string, models.Payload) (models.VersionedRecord, error) {
		return models.VersionedRecord{}, app.New(app.ReasonTimeout, "slow")
	}

	for i := range 4 {
		f.advance(time.Duration(i) * time.Hour)
		_, err := f.o.runCycle(testContext())
		require.NoError(t, err)
	}

	// LOW items get one retry: the first attempt and the retry reach the
	// authority, then the item is dead-lettered.
	assert.Len(t, f.authority.keys(), 2)
	assert.Equal(t, 1, f.outbox.deadLettered("n1"))
	assert.Equal(t, "network", f.outbox.kinds["n1"])
	assert.True(t, f.o.queue.IsEmpty())

	stats := f.o.Stats()
	assert.Equal(t, uint64(1), stats.DeadLetters)
	assert.Contains(t, stats.LastError, app.MsgNoConnection)
}

func TestOrchestrator_Cycle_ClientErrorDeadLetters(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, assetUpdateItem("a1", "asset-1", 2))
	f.authority.pushFn = func(context.Context, string, models.Payload) (models.VersionedRecord, error) {
		return models.VersionedRecord{}, app.New(app.ReasonForbidden, "not your asset")
	}

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	assert.Len(t, f.authority.keys(), 1)
	assert.Equal(t, 1, f.outbox.deadLettered("a1"))
	assert.Equal(t, "client", f.outbox.kinds["a1"])
}

func TestOrchestrator_Cycle_MalformedItemDeadLetters(t *testing.T) {
	broken := models.SyncItem{OutboxID: "x1", EntityID: "note-9", Type: models.SyncNoteUpsert, Priority: models.PriorityLow, CreatedAt: testNow}
	f := newOrchestratorFixture(t, excellentLink, broken)

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	assert.Empty(t, f.authority.keys())
	assert.Equal(t, "validation", f.outbox.kinds["x1"])
}

// ── Conflicts ─────────────────────────────────────────────────────────────────

func TestOrchestrator_Conflict_EventuallyConsistentRebasesAndResends(t *testing.T) {
	item := models.NewSyncItem("n1", "note-1", models.NoteUpsertPayload{Note: models.Note{ID: "note-1", Body: "local", Version: 3}}, testNow)
	f := newOrchestratorFixture(t, excellentLink, item)

	remote := models.VersionedRecord{EntityID: "note-1", Category: models.CategoryNote, Version: 3, Hash: "remote"}
	f.authority.pushFn = func(_ context.Context, _ string, p models.Payload) (models.VersionedRecord, error) {
		if p.EntityVersion() == 3 {
			return models.VersionedRecord{}, app.NewVersionConflict(&remote, "conflict")
		}
		return models.VersionedRecord{Version: p.EntityVersion()}, nil
	}

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	assert.Equal(t, []string{"n1", "n1"}, f.authority.keys())
	require.Len(t, f.outbox.rebased, 1)
	assert.Equal(t, int64(4), f.outbox.rebased[0].Payload.EntityVersion())
	assert.Equal(t, "local", f.outbox.rebased[0].Payload.(models.NoteUpsertPayload).Note.Body)
	assert.Equal(t, []string{"n1"}, f.outbox.removedIDs())
}

func TestOrchestrator_Conflict_RecurringEndsInDeadLetter(t *testing.T) {
	item := models.NewSyncItem("n1", "note-1", models.NoteUpsertPayload{Note: models.Note{ID: "note-1", Body: "local", Version: 3}}, testNow)
	f := newOrchestratorFixture(t, excellentLink, item)

	remote := models.VersionedRecord{EntityID: "note-1", Category: models.CategoryNote, Version: 3, Hash: "remote"}
	f.authority.pushFn = func(context.Context, string, models.Payload) (models.VersionedRecord, error) {
		return models.VersionedRecord{}, app.NewVersionConflict(&remote, "conflict")
	}

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	assert.Len(t, f.authority.keys(), 2)
	assert.Equal(t, 1, f.outbox.deadLettered("n1"))
	assert.Equal(t, "conflict", f.outbox.kinds["n1"])
}

func TestOrchestrator_Conflict_AcceptRemoteFetchesAndApplies(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, assetUpdateItem("a1", "asset-1", 2))

	remoteAsset := models.Asset{ID: "asset-1", OwnerID: "owner-2", Version: 5}
	data, err := json.Marshal(remoteAsset)
	require.NoError(t, err)

	f.authority.pushFn = func(context.Context, string, models.Payload) (models.VersionedRecord, error) {
		return models.VersionedRecord{}, app.New(app.ReasonConcurrentModification, "412")
	}
	f.authority.fetchFn = func(_ context.Context, category models.EntityCategory, entityID string) (models.VersionedRecord, error) {
		assert.Equal(t, models.CategoryAsset, category)
		assert.Equal(t, "asset-1", entityID)
		return models.VersionedRecord{EntityID: entityID, Version: 5, Data: data}, nil
	}

	_, err = f.o.runCycle(testContext())
	require.NoError(t, err)

	require.Len(t, f.applier.applied, 1)
	assert.Equal(t, int64(5), f.applier.applied[0].Version)
	assert.Equal(t, models.CategoryAsset, f.applier.applied[0].Category)
	assert.Equal(t, []string{"a1"}, f.outbox.removedIDs())
	assert.Zero(t, f.outbox.deadLettered("a1"))
}

func TestOrchestrator_Conflict_SensitiveIsUnresolvable(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, transferItem("t1", "transfer-1"))

	remote := models.VersionedRecord{EntityID: "transfer-1", Category: models.CategoryTransfer, Version: 1, Hash: "other"}
	f.authority.pushFn = func(context.Context, string, models.Payload) (models.VersionedRecord, error) {
		return models.VersionedRecord{}, app.NewVersionConflict(&remote, "conflict")
	}

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	assert.Len(t, f.authority.keys(), 1)
	assert.Equal(t, 1, f.outbox.deadLettered("t1"))
	assert.Equal(t, "conflict", f.outbox.kinds["t1"])
	assert.Empty(t, f.applier.applied)
}

// ── Cancellation ──────────────────────────────────────────────────────────────

func TestOrchestrator_Cycle_CancelledAttemptIsRequeuedUntouched(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, transferItem("t1", "transfer-1"))

	ctx, cancel := context.WithCancel(testContext())
	defer cancel()

	f.authority.pushFn = func(context.Context, string, models.Payload) (models.VersionedRecord, error) {
		cancel()
		return models.VersionedRecord{}, context.Canceled
	}

	_, err := f.o.runCycle(ctx)
	require.NoError(t, err)

	queued := f.o.Queue()
	require.Len(t, queued, 1)
	assert.Equal(t, "t1", queued[0].OutboxID)
	assert.Zero(t, queued[0].RetryCount)
	assert.Zero(t, f.outbox.items["t1"].RetryCount)
	assert.Zero(t, f.outbox.deadLettered("t1"))
	assert.Zero(t, f.o.Stats().FailedSyncs)
}

// ── Storage failures ──────────────────────────────────────────────────────────

func TestOrchestrator_StorageFailureHalts(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, transferItem("t1", "transfer-1"))
	f.outbox.removeErr = app.New(app.ReasonStorageFull, "disk full")

	ctx, ok := f.o.beginCycle(testContext())
	require.True(t, ok)

	more, err := f.o.runCycle(ctx)
	require.Error(t, err)
	f.o.endCycle(cycleResult{more: more, err: err})

	assert.True(t, f.o.Stats().Halted)
	assert.ErrorIs(t, f.o.ForceSyncNow(), ErrSyncHalted)
	assert.Equal(t, 1, f.o.queue.Len())

	_, ok = f.o.beginCycle(testContext())
	assert.False(t, ok)

	f.o.Resume()
	assert.False(t, f.o.Stats().Halted)
	assert.NoError(t, f.o.ForceSyncNow())
}

func TestOrchestrator_Cycle_ListPendingFatal(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink)
	f.outbox.listErr = app.New(app.ReasonCorruption, "malformed database")

	_, err := f.o.runCycle(testContext())
	assert.True(t, app.IsFatal(err))
}

func TestOrchestrator_Cycle_ListPendingTransientKeepsDraining(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink)
	f.outbox.listErr = app.New(app.ReasonServerError, "busy")
	f.o.Enqueue(noteItem("n1", "note-1"))

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, f.authority.keys())
}

// ── Supervisor loop ───────────────────────────────────────────────────────────

func runOrchestrator(t *testing.T, o *SyncOrchestrator) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(testContext())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("orchestrator did not stop")
		}
	})
	return cancel
}

func TestOrchestrator_Run_PausesOfflineAndSyncsOnReconnect(t *testing.T) {
	f := newOrchestratorFixture(t, noLink, transferItem("t1", "transfer-1"))
	f.o.now = time.Now
	f.o.queue.now = time.Now
	runOrchestrator(t, f.o)

	require.Eventually(t, func() bool { return f.o.State() == StatePaused }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, f.o.ForceSyncNow(), ErrOffline)
	assert.Empty(t, f.authority.keys())

	f.monitor.Set(excellentLink)

	require.Eventually(t, func() bool {
		return slices.Equal(f.outbox.removedIDs(), []string{"t1"})
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return f.o.State() == StateIdle }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, string(StrategyAggressive), f.o.Stats().Strategy)
}

func TestOrchestrator_Run_EnqueueWakesEngine(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink)
	f.o.now = time.Now
	f.o.queue.now = time.Now
	runOrchestrator(t, f.o)

	item := noteItem("n1", "note-1")
	require.NoError(t, f.outbox.Append(context.Background(), item))
	f.o.Enqueue(item)

	require.Eventually(t, func() bool {
		return slices.Equal(f.outbox.removedIDs(), []string{"n1"})
	}, 2*time.Second, 10*time.Millisecond)
}

// Connectivity drops while a transfer is being sent: the attempt is
// abandoned without counting as a failure and resent once the link is back.
func TestOrchestrator_Run_ConnectivityLossMidSync(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink)
	f.o.now = time.Now
	f.o.queue.now = time.Now

	started := make(chan struct{})
	var attempts sync.Mutex
	first := true
	f.authority.pushFn = func(ctx context.Context, _ string, p models.Payload) (models.VersionedRecord, error) {
		attempts.Lock()
		blocking := first
		first = false
		attempts.Unlock()

		if blocking {
			close(started)
			<-ctx.Done()
			return models.VersionedRecord{}, ctx.Err()
		}
		return models.VersionedRecord{Version: p.EntityVersion()}, nil
	}
	runOrchestrator(t, f.o)

	item := transferItem("t1", "transfer-1")
	require.NoError(t, f.outbox.Append(context.Background(), item))
	f.o.Enqueue(item)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("transfer was never sent")
	}

	f.monitor.Set(noLink)
	require.Eventually(t, func() bool {
		return f.o.State() == StatePaused && f.o.queue.Len() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, f.o.Queue()[0].RetryCount)
	assert.Zero(t, f.o.Stats().FailedSyncs)

	f.monitor.Set(excellentLink)
	require.Eventually(t, func() bool {
		return slices.Equal(f.outbox.removedIDs(), []string{"t1"})
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"t1", "t1"}, f.authority.keys())
	assert.Zero(t, f.outbox.deadLettered("t1"))
}

// ── Stats ─────────────────────────────────────────────────────────────────────

func TestOrchestrator_StatsFeedAndReset(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, noteItem("n1", "note-1"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := f.o.SubscribeStats(ctx)

	initial := <-feed
	assert.Equal(t, "IDLE", initial.State)
	assert.Equal(t, string(StrategyAggressive), initial.Strategy)

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	latest := <-feed
	assert.Equal(t, uint64(1), latest.SuccessfulSyncs)

	f.o.ResetStats()
	stats := f.o.Stats()
	assert.Zero(t, stats.SuccessfulSyncs)
	assert.Equal(t, string(StrategyAggressive), stats.Strategy)
}

func TestOrchestrator_DeadLetters(t *testing.T) {
	f := newOrchestratorFixture(t, excellentLink, assetUpdateItem("a1", "asset-1", 2))
	f.authority.pushFn = func(context.Context, string, models.Payload) (models.VersionedRecord, error) {
		return models.VersionedRecord{}, app.New(app.ReasonBadRequest, "no")
	}

	_, err := f.o.runCycle(testContext())
	require.NoError(t, err)

	letters, err := f.o.DeadLetters(context.Background())
	require.NoError(t, err)
	require.Len(t, letters, 1)
	assert.Equal(t, "a1", letters[0].OutboxID)
}
