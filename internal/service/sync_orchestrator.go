package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-herd-keeper/internal/adapter"
	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/internal/network"
	"github.com/MKhiriev/go-herd-keeper/internal/store"
	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// OrchestratorState is the state of the sync engine.
type OrchestratorState uint8

const (
	StateIdle OrchestratorState = iota
	StateSyncing
	StatePaused
)

func (s OrchestratorState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateSyncing:
		return "SYNCING"
	case StatePaused:
		return "PAUSED"
	}
	return fmt.Sprintf("OrchestratorState(%d)", uint8(s))
}

const defaultSyncInterval = time.Minute

// firstTier is drained before everything else in a cycle.
var firstTier = models.NewPrioritySet(models.PriorityCritical, models.PriorityHigh)

// OrchestratorDeps are the collaborators of the orchestrator.
type OrchestratorDeps struct {
	Queue     *SyncQueue
	Outbox    store.OutboxRepository
	Applier   store.RemoteApplier
	Authority adapter.RemoteAuthority
	Monitor   network.Monitor
	Resolver  *ConflictResolver
	Hasher    *utils.ContentHasher
}

// SyncOrchestrator drains the outbox to the remote authority.
//
// Run is the supervisor loop. It reacts to network changes, explicit
// ForceSyncNow calls, new items, retry timers and a periodic scan, and runs
// at most one cycle at a time. A cycle seeds the queue from the outbox and
// drains it in two tiers, CRITICAL and HIGH first, with one pass per entity
// category running concurrently.
type SyncOrchestrator struct {
	queue     *SyncQueue
	outbox    store.OutboxRepository
	applier   store.RemoteApplier
	authority adapter.RemoteAuthority
	monitor   network.Monitor
	resolver  *ConflictResolver
	hasher    *utils.ContentHasher
	retry     RetryPolicy
	interval  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	state       OrchestratorState
	halted      bool
	strategy    SyncStrategy
	cycleCancel context.CancelFunc
	stats       models.SyncStats

	statsFeed *utils.Broadcaster[models.SyncStats]
	forceCh   chan struct{}
	wakeCh    chan struct{}

	logger *logger.Logger
}

// NewSyncOrchestrator wires an orchestrator. A nil Queue, Resolver or Hasher
// is replaced by a fresh default.
func NewSyncOrchestrator(deps OrchestratorDeps, retry RetryPolicy, interval time.Duration, logger *logger.Logger) *SyncOrchestrator {
	if deps.Queue == nil {
		deps.Queue = NewSyncQueue()
	}
	if deps.Resolver == nil {
		deps.Resolver = NewConflictResolver()
	}
	if deps.Hasher == nil {
		deps.Hasher = utils.NewContentHasher("")
	}
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	o := &SyncOrchestrator{
		queue:     deps.Queue,
		outbox:    deps.Outbox,
		applier:   deps.Applier,
		authority: deps.Authority,
		monitor:   deps.Monitor,
		resolver:  deps.Resolver,
		hasher:    deps.Hasher,
		retry:     retry,
		interval:  interval,
		now:       time.Now,
		statsFeed: utils.NewBroadcaster[models.SyncStats](),
		forceCh:   make(chan struct{}, 1),
		wakeCh:    make(chan struct{}, 1),
		logger:    logger.WithComponent("sync"),
	}
	o.strategy = StrategyFor(deps.Monitor.Current())
	o.stats.State = StateIdle.String()
	o.stats.Strategy = string(o.strategy.Name)
	o.statsFeed.Publish(o.stats)
	return o
}

// Run supervises syncing until ctx is done. It returns nil on shutdown.
func (o *SyncOrchestrator) Run(ctx context.Context) error {
	ctx = o.logger.WithContext(ctx)

	netCh := o.monitor.Subscribe(ctx)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	retryTimer := time.NewTimer(time.Hour)
	retryTimer.Stop()
	defer retryTimer.Stop()

	var (
		running   bool
		rerun     bool
		cycleDone = make(chan cycleResult, 1)
	)

	start := func() {
		if running {
			rerun = true
			return
		}
		cycleCtx, ok := o.beginCycle(ctx)
		if !ok {
			return
		}
		running = true
		go func() {
			more, err := o.runCycle(cycleCtx)
			cycleDone <- cycleResult{more: more, err: err}
		}()
	}

	o.logger.Info().Str("func", "SyncOrchestrator.Run").Msg("sync orchestrator started")
	start()

	for {
		select {
		case <-ctx.Done():
			o.cancelCycle()
			if running {
				<-cycleDone
			}
			o.logger.Info().Str("func", "SyncOrchestrator.Run").Msg("sync orchestrator stopped")
			return nil

		case status, ok := <-netCh:
			if !ok {
				netCh = nil
				continue
			}
			if o.onNetwork(status) {
				start()
			}

		case <-o.forceCh:
			start()

		case <-o.wakeCh:
			start()

		case <-ticker.C:
			start()

		case <-retryTimer.C:
			start()

		case res := <-cycleDone:
			running = false
			o.endCycle(res)

			if at, ok := o.queue.NextReadyAt(o.currentStrategy().Eligible); ok {
				retryTimer.Reset(max(time.Until(at), time.Millisecond))
			}

			if rerun || res.more {
				rerun = false
				start()
			}
		}
	}
}

type cycleResult struct {
	more bool
	err  error
}

// beginCycle moves Idle to Syncing and returns the cycle context. It refuses
// while halted or paused.
func (o *SyncOrchestrator) beginCycle(ctx context.Context) (context.Context, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.halted || o.state != StateIdle {
		return nil, false
	}
	if o.strategy.Eligible.IsEmpty() {
		return nil, false
	}

	cycleCtx, cancel := context.WithCancel(ctx)
	o.cycleCancel = cancel
	o.setStateLocked(StateSyncing)

	started := o.now().UTC()
	o.stats.LastSyncStarted = &started
	o.publishLocked()

	return cycleCtx, true
}

func (o *SyncOrchestrator) endCycle(res cycleResult) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cycleCancel != nil {
		o.cycleCancel()
		o.cycleCancel = nil
	}

	if res.err != nil && app.IsFatal(res.err) {
		o.halted = true
		o.stats.Halted = true
		o.stats.LastError = app.MessageFor(res.err) + ": " + res.err.Error()
		o.logger.Error().Err(res.err).Str("func", "SyncOrchestrator.endCycle").Msg("local store failure, sync halted until resumed")
	}

	completed := o.now().UTC()
	o.stats.LastSyncCompleted = &completed

	if o.state == StateSyncing {
		o.setStateLocked(StateIdle)
	}
	o.publishLocked()
}

func (o *SyncOrchestrator) cancelCycle() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cycleCancel != nil {
		o.cycleCancel()
	}
}

// onNetwork records a network observation. Losing connectivity pauses the
// engine and cancels the running cycle; regaining it resumes. It reports
// whether a cycle should be started.
func (o *SyncOrchestrator) onNetwork(status models.NetworkStatus) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	prev := o.strategy
	o.strategy = StrategyFor(status)
	o.stats.Strategy = string(o.strategy.Name)

	log := o.logger.Info().
		Str("func", "SyncOrchestrator.onNetwork").
		Str("strategy", string(o.strategy.Name)).
		Str("quality", status.Quality.String()).
		Bool("metered", status.Metered)

	switch {
	case !status.Connected && o.state != StatePaused:
		if o.cycleCancel != nil {
			o.cycleCancel()
		}
		o.setStateLocked(StatePaused)
		log.Msg("connectivity lost, sync paused")
		o.publishLocked()
		return false

	case status.Connected && o.state == StatePaused:
		o.setStateLocked(StateIdle)
		log.Msg("connectivity restored")
		o.publishLocked()
		return true
	}

	o.publishLocked()
	return prev.Name != o.strategy.Name && status.Connected
}

// runCycle runs one sync cycle. It reports whether the attempt budget ran
// out with work left, and returns an error only for failures that must halt
// syncing.
func (o *SyncOrchestrator) runCycle(ctx context.Context) (more bool, err error) {
	log := logger.FromContext(ctx)
	strategy := o.currentStrategy()

	if strategy.Eligible.IsEmpty() {
		return false, nil
	}

	pending, err := o.outbox.ListPending(ctx, models.AllPrioritySet())
	switch {
	case err != nil && app.IsFatal(err):
		return false, err
	case err != nil && ctx.Err() == nil:
		log.Warn().Err(err).Str("func", "SyncOrchestrator.runCycle").Msg("outbox scan failed, draining queued items only")
	case err == nil:
		if n := o.queue.Seed(pending); n > 0 {
			log.Debug().Int("seeded", n).Msg("queue seeded from outbox")
		}
	}

	var budget atomic.Int64
	budget.Store(int64(strategy.BatchSize))

	tiers := []models.PrioritySet{
		strategy.Eligible.Intersect(firstTier),
		strategy.Eligible.Without(firstTier),
	}
	for _, tier := range tiers {
		if tier.IsEmpty() || ctx.Err() != nil {
			continue
		}
		if err := o.drainTier(ctx, tier, strategy, &budget); err != nil {
			return false, err
		}
	}

	if ctx.Err() != nil {
		return false, nil
	}

	if budget.Load() <= 0 {
		_, ready := o.peekReady(strategy.Eligible)
		return ready, nil
	}
	return false, nil
}

// drainTier runs one pass per entity category over tier.
func (o *SyncOrchestrator) drainTier(ctx context.Context, tier models.PrioritySet, strategy SyncStrategy, budget *atomic.Int64) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, category := range models.AllCategories {
		g.Go(func() error {
			return o.pass(gctx, category, tier, strategy, budget)
		})
	}

	return g.Wait()
}

// pass drains the items of one category until the tier is exhausted, the
// budget runs out or ctx is cancelled.
func (o *SyncOrchestrator) pass(ctx context.Context, category models.EntityCategory, tier models.PrioritySet, strategy SyncStrategy, budget *atomic.Int64) error {
	for ctx.Err() == nil && budget.Load() > 0 {
		item, ok := o.queue.DrainNextIn(category, tier)
		if !ok {
			return nil
		}
		if budget.Add(-1) < 0 {
			o.queue.Requeue(item)
			return nil
		}

		if err := o.process(ctx, item, strategy.RequestTimeout); err != nil {
			return err
		}
	}
	return nil
}

func (o *SyncOrchestrator) peekReady(eligible models.PrioritySet) (models.SyncItem, bool) {
	for _, item := range o.queue.Snapshot() {
		if eligible.Has(item.Priority) && !item.NextAttemptAt.After(o.now()) {
			return item, true
		}
	}
	return models.SyncItem{}, false
}

// process sends one item and settles its outcome. A cancelled cycle puts
// the item back untouched. Bookkeeping writes use a context detached from
// the cycle so a cancellation after the push does not lose the outcome.
func (o *SyncOrchestrator) process(ctx context.Context, item models.SyncItem, timeout time.Duration) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	_, err := dispatch(reqCtx, o.authority, item)
	cancel()

	bookCtx := context.WithoutCancel(ctx)

	switch {
	case err == nil:
		return o.onSuccess(bookCtx, item)
	case ctx.Err() != nil:
		o.queue.Requeue(item)
		logger.FromContext(ctx).Debug().
			Str("outbox_id", item.OutboxID).
			Msg("sync attempt cancelled, item requeued")
		return nil
	}

	return o.onFailure(ctx, bookCtx, item, err)
}

func (o *SyncOrchestrator) onSuccess(ctx context.Context, item models.SyncItem) error {
	if err := o.outbox.Remove(ctx, item.OutboxID); err != nil {
		if app.IsFatal(err) {
			o.queue.Requeue(item)
			return err
		}
		// the row is re-seeded and replayed under the same idempotency key
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "SyncOrchestrator.onSuccess").
			Str("outbox_id", item.OutboxID).
			Msg("synced item could not be removed from outbox")
	}
	o.queue.Complete(item)

	o.record(func(s *models.SyncStats) { s.SuccessfulSyncs++ })
	logger.FromContext(ctx).Debug().
		Str("outbox_id", item.OutboxID).
		Str("sync_type", string(item.Type)).
		Msg("item synced")
	return nil
}

func (o *SyncOrchestrator) onFailure(cycleCtx, ctx context.Context, item models.SyncItem, err error) error {
	log := logger.FromContext(ctx)

	switch app.KindOf(err) {
	case app.KindStorage:
		o.queue.Requeue(item)
		return err

	case app.KindNetwork:
		return o.scheduleRetry(ctx, item, err)

	case app.KindConflict:
		if errors.Is(err, app.ErrUnresolvableConflict) {
			return o.deadLetter(ctx, item, err)
		}
		return o.resolveConflict(cycleCtx, ctx, item, err)

	case app.KindState:
		log.Error().Err(err).Interface("item", item).Msg("invalid state reported for sync item")
	}

	return o.deadLetter(ctx, item, err)
}

func (o *SyncOrchestrator) scheduleRetry(ctx context.Context, item models.SyncItem, cause error) error {
	next, exhausted := o.retry.Next(item, o.now().UTC(), cause.Error())
	if exhausted {
		return o.deadLetter(ctx, next, cause)
	}

	if err := o.outbox.MarkRetry(ctx, next.OutboxID, next.RetryCount, next.NextAttemptAt, next.LastError); err != nil {
		if app.IsFatal(err) {
			o.queue.Requeue(item)
			return err
		}
		if !errors.Is(err, store.ErrOutboxItemNotFound) {
			logger.FromContext(ctx).Warn().Err(err).
				Str("func", "SyncOrchestrator.scheduleRetry").
				Str("outbox_id", item.OutboxID).
				Msg("failed to persist retry state")
		}
	}

	o.queue.Requeue(next)
	o.record(func(s *models.SyncStats) {
		s.FailedSyncs++
		s.LastError = cause.Error()
	})

	logger.FromContext(ctx).Info().
		Str("outbox_id", item.OutboxID).
		Uint32("retry_count", next.RetryCount).
		Time("next_attempt_at", next.NextAttemptAt).
		Err(cause).
		Msg("sync attempt failed, retry scheduled")
	return nil
}

// deadLetter moves item out of the outbox for good.
func (o *SyncOrchestrator) deadLetter(ctx context.Context, item models.SyncItem, cause error) error {
	err := o.outbox.DeadLetter(ctx, item, o.now().UTC(), app.KindOf(cause).String(), cause.Error())
	if err != nil {
		if app.IsFatal(err) {
			o.queue.Requeue(item)
			return err
		}
		logger.FromContext(ctx).Error().Err(err).
			Str("func", "SyncOrchestrator.deadLetter").
			Str("outbox_id", item.OutboxID).
			Msg("failed to record dead letter")
	}
	o.queue.Complete(item)

	o.record(func(s *models.SyncStats) {
		s.FailedSyncs++
		s.DeadLetters++
		s.LastError = app.MessageFor(cause) + ": " + cause.Error()
	})

	logger.FromContext(ctx).Error().Err(cause).
		Str("outbox_id", item.OutboxID).
		Str("entity_id", item.EntityID).
		Str("sync_type", string(item.Type)).
		Uint32("retry_count", item.RetryCount).
		Msg("sync item dead-lettered")
	return nil
}

// resolveConflict settles a version conflict reported for item.
func (o *SyncOrchestrator) resolveConflict(cycleCtx, ctx context.Context, item models.SyncItem, cause error) error {
	log := logger.FromContext(ctx)

	var remote models.VersionedRecord
	if r, ok := app.RemoteOf(cause); ok {
		remote = *r
	} else {
		fetched, err := o.authority.FetchRecord(cycleCtx, item.Category(), item.EntityID)
		switch {
		case err != nil && cycleCtx.Err() != nil:
			o.queue.Requeue(item)
			return nil
		case err != nil && app.KindOf(err) == app.KindConflict:
			return o.deadLetter(ctx, item, cause)
		case err != nil:
			return o.onFailure(cycleCtx, ctx, item, err)
		}
		remote = fetched
	}

	local := localRecord(o.hasher, item)
	remote = withRemoteHash(o.hasher, item, remote)
	res := o.resolver.Resolve(local, remote)

	log.Info().
		Str("outbox_id", item.OutboxID).
		Str("entity_id", item.EntityID).
		Int64("local_version", local.Version).
		Int64("remote_version", remote.Version).
		Str("resolution", res.Kind.String()).
		Msg("version conflict")

	switch res.Kind {
	case AcceptRemote:
		return o.acceptRemote(ctx, item, remote)

	case AcceptLocal, Merge:
		return o.resend(ctx, item, res, cause)
	}

	reason := res.Reason
	if reason == "" {
		reason = "conflict cannot be resolved automatically"
	}
	return o.deadLetter(ctx, item, app.Wrap(app.ReasonUnresolvableConflict, cause, "%s", reason))
}

func (o *SyncOrchestrator) acceptRemote(ctx context.Context, item models.SyncItem, remote models.VersionedRecord) error {
	if len(remote.Data) > 0 && o.applier != nil {
		if remote.Category == "" {
			remote.Category = item.Category()
		}
		if err := o.applier.ApplyRemote(ctx, remote); err != nil {
			if app.IsFatal(err) {
				o.queue.Requeue(item)
				return err
			}
			return o.deadLetter(ctx, item, err)
		}
	}

	if err := o.outbox.Remove(ctx, item.OutboxID); err != nil && app.IsFatal(err) {
		o.queue.Requeue(item)
		return err
	}
	o.queue.Complete(item)

	o.record(func(s *models.SyncStats) { s.SuccessfulSyncs++ })
	return nil
}

// resend rebases item onto the settled version and puts it back for an
// immediate attempt. Every resend counts against the retry budget of the
// item so a conflict that keeps recurring ends in the dead letters.
func (o *SyncOrchestrator) resend(ctx context.Context, item models.SyncItem, res Resolution, cause error) error {
	payload, err := rebasedPayload(item, res)
	if err != nil {
		return o.deadLetter(ctx, item, err)
	}

	next, exhausted := o.retry.Next(item, o.now().UTC(), cause.Error())
	if exhausted {
		return o.deadLetter(ctx, next, app.Wrap(app.ReasonUnresolvableConflict, cause, "conflict persisted after %d attempts", item.RetryCount))
	}
	next.Payload = payload
	next.NextAttemptAt = time.Time{}

	if err := o.outbox.Rebase(ctx, next); err != nil {
		switch {
		case app.IsFatal(err):
			o.queue.Requeue(item)
			return err
		case errors.Is(err, store.ErrOutboxItemNotFound):
			// superseded by a newer local change, which is sent instead
			o.queue.Complete(item)
			return nil
		default:
			logger.FromContext(ctx).Warn().Err(err).
				Str("func", "SyncOrchestrator.resend").
				Str("outbox_id", item.OutboxID).
				Msg("failed to persist rebased item")
		}
	}

	o.queue.Requeue(next)
	return nil
}

// Enqueue hands a freshly committed outbox item to the engine.
func (o *SyncOrchestrator) Enqueue(item models.SyncItem) {
	o.queue.Enqueue(item)
	signal(o.wakeCh)
}

// ForceSyncNow starts a cycle as soon as possible.
func (o *SyncOrchestrator) ForceSyncNow() error {
	o.mu.Lock()
	halted, state := o.halted, o.state
	o.mu.Unlock()

	switch {
	case halted:
		return ErrSyncHalted
	case state == StatePaused:
		return ErrOffline
	}

	signal(o.forceCh)
	return nil
}

// Resume clears a halt caused by a local store failure.
func (o *SyncOrchestrator) Resume() {
	o.mu.Lock()
	o.halted = false
	o.stats.Halted = false
	o.publishLocked()
	o.mu.Unlock()

	o.logger.Info().Str("func", "SyncOrchestrator.Resume").Msg("sync resumed")
	signal(o.forceCh)
}

func (o *SyncOrchestrator) State() OrchestratorState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *SyncOrchestrator) Stats() models.SyncStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stats
}

// SubscribeStats streams stats updates until ctx is done.
func (o *SyncOrchestrator) SubscribeStats(ctx context.Context) <-chan models.SyncStats {
	return o.statsFeed.Subscribe(ctx)
}

// ResetStats zeroes the counters. State, strategy and halt flag are kept.
func (o *SyncOrchestrator) ResetStats() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stats = models.SyncStats{
		IsActive: o.stats.IsActive,
		State:    o.stats.State,
		Strategy: o.stats.Strategy,
		Halted:   o.stats.Halted,
	}
	o.publishLocked()
}

// Queue returns the pending items in drain order.
func (o *SyncOrchestrator) Queue() []models.SyncItem {
	return o.queue.Snapshot()
}

// DeadLetters lists the permanently failed items.
func (o *SyncOrchestrator) DeadLetters(ctx context.Context) ([]models.DeadLetter, error) {
	return o.outbox.ListDeadLetters(ctx)
}

func (o *SyncOrchestrator) currentStrategy() SyncStrategy {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.strategy
}

func (o *SyncOrchestrator) record(update func(s *models.SyncStats)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	update(&o.stats)
	o.publishLocked()
}

func (o *SyncOrchestrator) setStateLocked(state OrchestratorState) {
	o.state = state
	o.stats.State = state.String()
	o.stats.IsActive = state == StateSyncing
}

func (o *SyncOrchestrator) publishLocked() {
	o.statsFeed.Publish(o.stats)
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
