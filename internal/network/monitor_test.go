package network

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-herd-keeper/internal/logger"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// ── quality ─────────────────────────────────────────────────────────────────

func TestQualityFromBandwidth(t *testing.T) {
	tests := []struct {
		down, up int
		want     models.ConnectionQuality
	}{
		{0, 0, models.QualityUnknown},
		{50, 0, models.QualityVeryPoor},
		{149, 100, models.QualityVeryPoor},
		{150, 50, models.QualityPoor},
		{500, 250, models.QualityFair},
		{5000, 249, models.QualityPoor},
		{2000, 1000, models.QualityGood},
		{10000, 5000, models.QualityExcellent},
		{50000, 20000, models.QualityExcellent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, QualityFromBandwidth(tt.down, tt.up), "down=%d up=%d", tt.down, tt.up)
	}
}

func TestQualityFromBandwidth_Monotonic(t *testing.T) {
	prev := models.QualityUnknown
	for kbps := 0; kbps <= 20000; kbps += 50 {
		q := QualityFromBandwidth(kbps, kbps/2)
		assert.GreaterOrEqual(t, q, prev, "kbps=%d", kbps)
		prev = q
	}
}

func TestNormalize_KeepsReportedQuality(t *testing.T) {
	now := time.Now()
	got := Normalize(models.NetworkStatus{Connected: true, Quality: models.QualityFair, DownstreamKbps: 50000, UpstreamKbps: 50000}, now)

	assert.Equal(t, models.QualityFair, got.Quality)
	assert.Equal(t, now, got.ObservedAt)
}

// ── static monitor ──────────────────────────────────────────────────────────

func TestStaticMonitor(t *testing.T) {
	m := NewStaticMonitor(models.NetworkStatus{Connected: true, DownstreamKbps: 3000, UpstreamKbps: 1500})
	assert.Equal(t, models.QualityGood, m.Current().Quality)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := m.Subscribe(ctx)

	first := <-ch
	assert.True(t, first.Connected)

	m.Set(models.NetworkStatus{Connected: false})
	second := <-ch
	assert.False(t, second.Connected)

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-ch
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestStaticMonitor_RunReturnsOnCancel(t *testing.T) {
	m := NewStaticMonitor(models.NetworkStatus{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, m.Run(ctx))
}

// ── file monitor ────────────────────────────────────────────────────────────

func writeStatus(t *testing.T, path, body string) {
	t.Helper()
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(body), 0o644))
	require.NoError(t, os.Rename(tmp, path))
}

func TestFileMonitor_MissingFileIsOffline(t *testing.T) {
	m := NewFileMonitor(filepath.Join(t.TempDir(), "status.json"), logger.Nop())
	assert.False(t, m.Current().Connected)
}

func TestFileMonitor_ReadsInitialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	writeStatus(t, path, `{"connected":true,"metered":true,"quality":"EXCELLENT"}`)

	m := NewFileMonitor(path, logger.Nop())
	got := m.Current()

	assert.True(t, got.Connected)
	assert.True(t, got.Metered)
	assert.Equal(t, models.QualityExcellent, got.Quality)
}

func TestFileMonitor_MalformedFileKeepsLastObservation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	writeStatus(t, path, `{"connected":true,"downstream_kbps":600,"upstream_kbps":300}`)

	m := NewFileMonitor(path, logger.Nop())
	require.Equal(t, models.QualityFair, m.Current().Quality)

	writeStatus(t, path, `{"connected":`)
	m.reload()

	assert.True(t, m.Current().Connected)
	assert.Equal(t, models.QualityFair, m.Current().Quality)
}

func TestFileMonitor_RunFollowsChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	writeStatus(t, path, `{"connected":false}`)

	m := NewFileMonitor(path, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	ch := m.Subscribe(ctx)
	<-ch

	require.Eventually(t, func() bool {
		writeStatus(t, path, `{"connected":true,"quality":"GOOD"}`)
		select {
		case s := <-ch:
			return s.Connected && s.Quality == models.QualityGood
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
