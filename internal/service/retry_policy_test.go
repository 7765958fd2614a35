package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-herd-keeper/models"
)

func TestNewRetryPolicy_Defaults(t *testing.T) {
	p := NewRetryPolicy(0, 0)
	assert.Equal(t, DefaultRetryBaseDelay, p.Base)
	assert.Equal(t, DefaultRetryMaxDelay, p.Max)

	p = NewRetryPolicy(time.Minute, time.Second)
	assert.Equal(t, time.Minute, p.Max)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := NewRetryPolicy(time.Second, 10*time.Second)

	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
	assert.Equal(t, 8*time.Second, p.Backoff(3))
	assert.Equal(t, 10*time.Second, p.Backoff(4))
	assert.Equal(t, 10*time.Second, p.Backoff(63))
	assert.Equal(t, 10*time.Second, p.Backoff(1000))
}

func TestMaxRetries(t *testing.T) {
	assert.Equal(t, uint32(5), MaxRetries(models.PriorityCritical))
	assert.Equal(t, uint32(3), MaxRetries(models.PriorityHigh))
	assert.Equal(t, uint32(2), MaxRetries(models.PriorityMedium))
	assert.Equal(t, uint32(1), MaxRetries(models.PriorityLow))
}

func TestRetryPolicy_Next(t *testing.T) {
	p := NewRetryPolicy(time.Second, time.Minute)

	item := assetUpdateItem("a1", "asset-1", 2) // MEDIUM, 2 retries

	next, exhausted := p.Next(item, testNow, "boom")
	require.False(t, exhausted)
	assert.Equal(t, uint32(1), next.RetryCount)
	assert.Equal(t, testNow.Add(time.Second), next.NextAttemptAt)
	assert.Equal(t, "boom", next.LastError)

	next, exhausted = p.Next(next, testNow, "boom")
	require.False(t, exhausted)
	assert.Equal(t, uint32(2), next.RetryCount)
	assert.Equal(t, testNow.Add(2*time.Second), next.NextAttemptAt)

	next, exhausted = p.Next(next, testNow, "boom")
	assert.True(t, exhausted)
	assert.Equal(t, uint32(3), next.RetryCount)
}

func TestRetryPolicy_Next_CriticalGetsFiveRetries(t *testing.T) {
	p := NewRetryPolicy(time.Second, time.Minute)
	item := transferItem("t1", "transfer-1")

	for i := 0; i < 5; i++ {
		var exhausted bool
		item, exhausted = p.Next(item, testNow, "x")
		require.False(t, exhausted, "retry %d", i+1)
	}
	_, exhausted := p.Next(item, testNow, "x")
	assert.True(t, exhausted)
}
