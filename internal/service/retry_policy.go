package service

import (
	"time"

	"github.com/MKhiriev/go-herd-keeper/models"
)

const (
	DefaultRetryBaseDelay = time.Second
	DefaultRetryMaxDelay  = 5 * time.Minute
)

var maxRetries = map[models.SyncPriority]uint32{
	models.PriorityCritical: 5,
	models.PriorityHigh:     3,
	models.PriorityMedium:   2,
	models.PriorityLow:      1,
}

// RetryPolicy schedules retries with exponential backoff
// base * 2^retryCount, capped at Max.
type RetryPolicy struct {
	Base time.Duration
	Max  time.Duration
}

// NewRetryPolicy returns a policy, substituting defaults for non-positive
// durations.
func NewRetryPolicy(base, maxDelay time.Duration) RetryPolicy {
	if base <= 0 {
		base = DefaultRetryBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultRetryMaxDelay
	}
	if maxDelay < base {
		maxDelay = base
	}
	return RetryPolicy{Base: base, Max: maxDelay}
}

// MaxRetries returns how many retries an item of priority p gets.
func MaxRetries(p models.SyncPriority) uint32 {
	return maxRetries[p]
}

// Backoff returns the delay before the retry that follows retryCount
// earlier retries.
func (p RetryPolicy) Backoff(retryCount uint32) time.Duration {
	delay := p.Base
	for range retryCount {
		if delay >= p.Max/2 {
			return p.Max
		}
		delay *= 2
	}
	return min(delay, p.Max)
}

// Next records one more failed attempt of item. It returns the item to
// requeue, or exhausted when the item has used up the retries of its
// priority and must be dead-lettered.
func (p RetryPolicy) Next(item models.SyncItem, now time.Time, cause string) (next models.SyncItem, exhausted bool) {
	next = item
	next.RetryCount = item.RetryCount + 1
	next.LastError = cause

	if next.RetryCount > MaxRetries(item.Priority) {
		return next, true
	}

	next.NextAttemptAt = now.Add(p.Backoff(item.RetryCount))
	return next, false
}
