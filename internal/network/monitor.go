// Package network reports connectivity to the sync engine. A [Monitor]
// publishes [models.NetworkStatus] observations; the orchestrator picks its
// strategy from the latest one.
package network

import (
	"context"
	"time"

	"github.com/MKhiriev/go-herd-keeper/internal/utils"
	"github.com/MKhiriev/go-herd-keeper/models"
)

//go:generate mockgen -source=monitor.go -destination=../mock/network_mock.go -package=mock

// Monitor is a source of connectivity observations.
type Monitor interface {
	// Current returns the latest observation.
	Current() models.NetworkStatus

	// Subscribe returns a channel that receives the current observation and
	// every later change until ctx is done. Slow readers only see the most
	// recent observation.
	Subscribe(ctx context.Context) <-chan models.NetworkStatus

	// Run keeps the monitor up to date until ctx is done.
	Run(ctx context.Context) error
}

// Bandwidth thresholds in kbps, downstream and upstream. A link is
// classified by the highest class whose both thresholds it meets.
var qualityThresholds = []struct {
	quality    models.ConnectionQuality
	downstream int
	upstream   int
}{
	{models.QualityExcellent, 10000, 5000},
	{models.QualityGood, 2000, 1000},
	{models.QualityFair, 500, 250},
	{models.QualityPoor, 150, 50},
}

// QualityFromBandwidth classifies a link from its measured bandwidth. Any
// non-zero measurement below the POOR thresholds is VERY_POOR; no
// measurement at all is UNKNOWN.
func QualityFromBandwidth(downstreamKbps, upstreamKbps int) models.ConnectionQuality {
	if downstreamKbps <= 0 && upstreamKbps <= 0 {
		return models.QualityUnknown
	}

	for _, th := range qualityThresholds {
		if downstreamKbps >= th.downstream && upstreamKbps >= th.upstream {
			return th.quality
		}
	}

	return models.QualityVeryPoor
}

// Normalize fills Quality from the bandwidth fields when the reporter did
// not classify the link, and stamps ObservedAt.
func Normalize(status models.NetworkStatus, now time.Time) models.NetworkStatus {
	if status.Quality == models.QualityUnknown {
		status.Quality = QualityFromBandwidth(status.DownstreamKbps, status.UpstreamKbps)
	}
	if status.ObservedAt.IsZero() {
		status.ObservedAt = now
	}
	return status
}

// StaticMonitor reports whatever was last passed to Set. It backs
// deployments without a status reporter and tests.
type StaticMonitor struct {
	b *utils.Broadcaster[models.NetworkStatus]
}

// NewStaticMonitor returns a monitor reporting initial.
func NewStaticMonitor(initial models.NetworkStatus) *StaticMonitor {
	m := &StaticMonitor{b: utils.NewBroadcaster[models.NetworkStatus]()}
	m.Set(initial)
	return m
}

// Set publishes status to all subscribers.
func (m *StaticMonitor) Set(status models.NetworkStatus) {
	m.b.Publish(Normalize(status, time.Now().UTC()))
}

func (m *StaticMonitor) Current() models.NetworkStatus {
	status, _ := m.b.Latest()
	return status
}

func (m *StaticMonitor) Subscribe(ctx context.Context) <-chan models.NetworkStatus {
	return m.b.Subscribe(ctx)
}

// Run blocks until ctx is done.
func (m *StaticMonitor) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
