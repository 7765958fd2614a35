package service

import (
	"slices"
	"sync"
	"time"

	"github.com/MKhiriev/go-herd-keeper/models"
)

type queueEntry struct {
	item models.SyncItem
	seq  uint64
}

// SyncQueue is the in-memory view of the outbox the orchestrator drains.
//
// There is at most one entry per (entity id, sync type); a newer intent
// replaces the older one and moves to the tail. Drained items are in flight
// until Complete or Requeue. An entity with an item in flight has nothing
// drained, and only the oldest entry of each entity is a candidate, so
// mutations of one entity reach the authority one at a time and in order.
type SyncQueue struct {
	mu       sync.Mutex
	seq      uint64
	entries  map[models.SyncKey]*queueEntry
	inFlight map[string]*queueEntry

	now func() time.Time
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{
		entries:  make(map[models.SyncKey]*queueEntry),
		inFlight: make(map[string]*queueEntry),
		now:      time.Now,
	}
}

// Enqueue adds item, replacing a queued item with the same key.
func (q *SyncQueue) Enqueue(item models.SyncItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	q.entries[item.Key()] = &queueEntry{item: item, seq: q.seq}
}

// Seed merges items read from the outbox. A seeded item only replaces a
// queued or in-flight item of the same key when it was created later, so a
// scan that raced with a hot-path Enqueue never brings back an older intent.
func (q *SyncQueue) Seed(items []models.SyncItem) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	added := 0
	for _, item := range items {
		if e, ok := q.entries[item.Key()]; ok && !supersedes(item, e.item) {
			continue
		}
		if e, ok := q.inFlight[item.EntityID]; ok && e.item.Key() == item.Key() && !supersedes(item, e.item) {
			continue
		}
		q.seq++
		q.entries[item.Key()] = &queueEntry{item: item, seq: q.seq}
		added++
	}
	return added
}

// supersedes reports whether candidate is a newer intent than current.
func supersedes(candidate, current models.SyncItem) bool {
	return candidate.OutboxID != current.OutboxID && candidate.CreatedAt.After(current.CreatedAt)
}

// DrainNext pops the next ready item whose priority is in eligible.
func (q *SyncQueue) DrainNext(eligible models.PrioritySet) (models.SyncItem, bool) {
	return q.drain(eligible, "")
}

// DrainNextIn is DrainNext restricted to one entity category.
func (q *SyncQueue) DrainNextIn(category models.EntityCategory, eligible models.PrioritySet) (models.SyncItem, bool) {
	return q.drain(eligible, category)
}

func (q *SyncQueue) drain(eligible models.PrioritySet, category models.EntityCategory) (models.SyncItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var best *queueEntry
	for _, e := range q.heads() {
		if !eligible.Has(e.item.Priority) {
			continue
		}
		if category != "" && e.item.Category() != category {
			continue
		}
		if e.item.NextAttemptAt.After(now) {
			continue
		}
		if best == nil || before(e, best) {
			best = e
		}
	}

	if best == nil {
		return models.SyncItem{}, false
	}

	delete(q.entries, best.item.Key())
	q.inFlight[best.item.EntityID] = best
	return best.item, true
}

// heads returns the oldest queued entry of every entity that has nothing
// in flight. The caller holds q.mu.
func (q *SyncQueue) heads() map[string]*queueEntry {
	heads := make(map[string]*queueEntry, len(q.entries))
	for _, e := range q.entries {
		if _, busy := q.inFlight[e.item.EntityID]; busy {
			continue
		}
		if h, ok := heads[e.item.EntityID]; !ok || e.seq < h.seq {
			heads[e.item.EntityID] = e
		}
	}
	return heads
}

// before orders entries by priority (highest first), then insertion order.
func before(a, b *queueEntry) bool {
	if a.item.Priority != b.item.Priority {
		return a.item.Priority > b.item.Priority
	}
	return a.seq < b.seq
}

// Complete releases the entity of a drained item. The item is gone for good.
func (q *SyncQueue) Complete(item models.SyncItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e, ok := q.inFlight[item.EntityID]; ok && e.item.OutboxID == item.OutboxID {
		delete(q.inFlight, item.EntityID)
	}
}

// Requeue puts a drained item back at its original position. If a newer
// intent for the same key arrived while it was in flight, the drained item
// is dropped in its favour.
func (q *SyncQueue) Requeue(item models.SyncItem) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.inFlight[item.EntityID]
	if !ok || e.item.OutboxID != item.OutboxID {
		return
	}
	delete(q.inFlight, item.EntityID)

	if _, superseded := q.entries[item.Key()]; superseded {
		return
	}
	q.entries[item.Key()] = &queueEntry{item: item, seq: e.seq}
}

// Has reports whether an item with key is queued (not counting in-flight
// items).
func (q *SyncQueue) Has(key models.SyncKey) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.entries[key]
	return ok
}

// IsEmpty reports whether nothing is queued. Items in flight do not count.
func (q *SyncQueue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *SyncQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// InFlight returns the number of drained, unfinished items.
func (q *SyncQueue) InFlight() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.inFlight)
}

// NextReadyAt returns the earliest future attempt time among eligible
// candidates that are waiting for a backoff to expire.
func (q *SyncQueue) NextReadyAt(eligible models.PrioritySet) (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	var next time.Time
	for _, e := range q.heads() {
		if !eligible.Has(e.item.Priority) || !e.item.NextAttemptAt.After(now) {
			continue
		}
		if next.IsZero() || e.item.NextAttemptAt.Before(next) {
			next = e.item.NextAttemptAt
		}
	}
	return next, !next.IsZero()
}

// Snapshot returns the queued items in drain order, ignoring readiness and
// per-entity blocking.
func (q *SyncQueue) Snapshot() []models.SyncItem {
	q.mu.Lock()
	entries := make([]*queueEntry, 0, len(q.entries))
	for _, e := range q.entries {
		entries = append(entries, e)
	}
	q.mu.Unlock()

	slices.SortFunc(entries, func(a, b *queueEntry) int {
		switch {
		case before(a, b):
			return -1
		case before(b, a):
			return 1
		}
		return 0
	})

	items := make([]models.SyncItem, len(entries))
	for i, e := range entries {
		items[i] = e.item
	}
	return items
}
