package service

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/models"
)

// Verification tolerances.
const (
	weightTolerance    = 0.05
	priceTolerance     = 0.02
	ageToleranceMonths = 1
)

// CheckTolerance compares what the buyer observed with what the seller
// declared. Attributes the seller left empty are not checked. Every
// mismatch is reported in one validation error.
func CheckTolerance(expected, observed models.AssetAttributes) error {
	var mismatches []error

	if expected.Color != "" && !strings.EqualFold(strings.TrimSpace(expected.Color), strings.TrimSpace(observed.Color)) {
		mismatches = append(mismatches, fmt.Errorf("color %q, expected %q", observed.Color, expected.Color))
	}
	if expected.WeightKg > 0 && !withinRatio(observed.WeightKg, expected.WeightKg, weightTolerance) {
		mismatches = append(mismatches, fmt.Errorf("weight %.1fkg, expected %.1fkg ±5%%", observed.WeightKg, expected.WeightKg))
	}
	if expected.AgeMonths > 0 && abs(observed.AgeMonths-expected.AgeMonths) > ageToleranceMonths {
		mismatches = append(mismatches, fmt.Errorf("age %d months, expected %d ±%d", observed.AgeMonths, expected.AgeMonths, ageToleranceMonths))
	}
	if expected.PhotoRef != "" && observed.PhotoRef != expected.PhotoRef {
		mismatches = append(mismatches, fmt.Errorf("photo %q, expected %q", observed.PhotoRef, expected.PhotoRef))
	}
	if expected.Location != "" && !strings.EqualFold(strings.TrimSpace(expected.Location), strings.TrimSpace(observed.Location)) {
		mismatches = append(mismatches, fmt.Errorf("location %q, expected %q", observed.Location, expected.Location))
	}
	if expected.PriceCents > 0 && !withinRatio(float64(observed.PriceCents), float64(expected.PriceCents), priceTolerance) {
		mismatches = append(mismatches, fmt.Errorf("price %d, expected %d ±2%%", observed.PriceCents, expected.PriceCents))
	}

	if len(mismatches) == 0 {
		return nil
	}
	return app.Wrap(app.ReasonMalformedPayload, errors.Join(mismatches...), "observed attributes do not match the transfer")
}

func withinRatio(observed, expected, ratio float64) bool {
	return math.Abs(observed-expected) <= expected*ratio+1e-9
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
