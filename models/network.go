package models

import (
	"fmt"
	"time"
)

// ConnectionQuality is an ordered classification of the current link.
type ConnectionQuality uint8

const (
	QualityUnknown ConnectionQuality = iota
	QualityVeryPoor
	QualityPoor
	QualityFair
	QualityGood
	QualityExcellent
)

var qualityNames = [...]string{
	QualityUnknown:   "UNKNOWN",
	QualityVeryPoor:  "VERY_POOR",
	QualityPoor:      "POOR",
	QualityFair:      "FAIR",
	QualityGood:      "GOOD",
	QualityExcellent: "EXCELLENT",
}

func (q ConnectionQuality) String() string {
	if int(q) < len(qualityNames) {
		return qualityNames[q]
	}
	return fmt.Sprintf("ConnectionQuality(%d)", uint8(q))
}

func (q ConnectionQuality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

func (q *ConnectionQuality) UnmarshalText(text []byte) error {
	for i, name := range qualityNames {
		if name == string(text) {
			*q = ConnectionQuality(i)
			return nil
		}
	}
	return fmt.Errorf("unknown connection quality %q", text)
}

// NetworkStatus is one observation emitted by a network monitor.
type NetworkStatus struct {
	Connected      bool              `json:"connected"`
	Quality        ConnectionQuality `json:"quality"`
	Metered        bool              `json:"metered"`
	DownstreamKbps int               `json:"downstream_kbps,omitempty"`
	UpstreamKbps   int               `json:"upstream_kbps,omitempty"`
	ObservedAt     time.Time         `json:"observed_at"`
}
