package service

import (
	"time"

	"github.com/MKhiriev/go-herd-keeper/models"
)

// StrategyName names one sync strategy.
type StrategyName string

const (
	StrategyOfflineOnly  StrategyName = "OFFLINE_ONLY"
	StrategyCriticalOnly StrategyName = "CRITICAL_ONLY"
	StrategyMinimal      StrategyName = "MINIMAL"
	StrategyConservative StrategyName = "CONSERVATIVE"
	StrategyAggressive   StrategyName = "AGGRESSIVE"
)

// SyncStrategy bounds one sync cycle: which priorities may be sent, how many
// attempts the cycle makes and how long one request may take.
type SyncStrategy struct {
	Name           StrategyName
	Eligible       models.PrioritySet
	BatchSize      int
	RequestTimeout time.Duration
}

var strategyEligible = map[StrategyName]models.PrioritySet{
	StrategyOfflineOnly:  models.NewPrioritySet(),
	StrategyCriticalOnly: models.NewPrioritySet(models.PriorityCritical),
	StrategyMinimal:      models.NewPrioritySet(models.PriorityCritical, models.PriorityHigh),
	StrategyConservative: models.NewPrioritySet(models.PriorityCritical, models.PriorityHigh, models.PriorityMedium),
	StrategyAggressive:   models.AllPrioritySet(),
}

type qualityLimits struct {
	batchSize int
	timeout   time.Duration
}

var limitsByQuality = map[models.ConnectionQuality]qualityLimits{
	models.QualityUnknown:   {5, 120 * time.Second},
	models.QualityVeryPoor:  {5, 120 * time.Second},
	models.QualityPoor:      {10, 90 * time.Second},
	models.QualityFair:      {25, 60 * time.Second},
	models.QualityGood:      {50, 30 * time.Second},
	models.QualityExcellent: {100, 10 * time.Second},
}

// SelectStrategy maps the current link to a strategy. Critical items stay
// eligible on every connected link, however poor or metered.
func SelectStrategy(connected bool, quality models.ConnectionQuality, metered bool) SyncStrategy {
	limits, ok := limitsByQuality[quality]
	if !ok {
		limits = limitsByQuality[models.QualityUnknown]
	}

	name := strategyName(connected, quality, metered)
	return SyncStrategy{
		Name:           name,
		Eligible:       strategyEligible[name],
		BatchSize:      limits.batchSize,
		RequestTimeout: limits.timeout,
	}
}

// StrategyFor is SelectStrategy applied to a monitor observation.
func StrategyFor(status models.NetworkStatus) SyncStrategy {
	return SelectStrategy(status.Connected, status.Quality, status.Metered)
}

func strategyName(connected bool, quality models.ConnectionQuality, metered bool) StrategyName {
	switch {
	case !connected:
		return StrategyOfflineOnly
	case quality <= models.QualityVeryPoor:
		return StrategyCriticalOnly
	case metered && quality < models.QualityGood:
		return StrategyCriticalOnly
	case metered:
		return StrategyMinimal
	case quality == models.QualityPoor:
		return StrategyMinimal
	case quality == models.QualityFair:
		return StrategyConservative
	default:
		return StrategyAggressive
	}
}
