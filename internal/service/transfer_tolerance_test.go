package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-herd-keeper/internal/app"
	"github.com/MKhiriev/go-herd-keeper/models"
)

var declared = models.AssetAttributes{
	Color:      "Brown",
	WeightKg:   450,
	AgeMonths:  24,
	PhotoRef:   "photo-1",
	Location:   "North Pasture",
	PriceCents: 150000,
}

func TestCheckTolerance(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *models.AssetAttributes)
		wantErr bool
	}{
		{"exact", func(a *models.AssetAttributes) {}, false},
		{"color case", func(a *models.AssetAttributes) { a.Color = "brown " }, false},
		{"weight +5%", func(a *models.AssetAttributes) { a.WeightKg = 472.5 }, false},
		{"weight -6%", func(a *models.AssetAttributes) { a.WeightKg = 423 }, true},
		{"age +1", func(a *models.AssetAttributes) { a.AgeMonths = 25 }, false},
		{"age -2", func(a *models.AssetAttributes) { a.AgeMonths = 22 }, true},
		{"photo differs", func(a *models.AssetAttributes) { a.PhotoRef = "photo-2" }, true},
		{"location case", func(a *models.AssetAttributes) { a.Location = "north pasture" }, false},
		{"location differs", func(a *models.AssetAttributes) { a.Location = "South" }, true},
		{"price +2%", func(a *models.AssetAttributes) { a.PriceCents = 153000 }, false},
		{"price +3%", func(a *models.AssetAttributes) { a.PriceCents = 154500 }, true},
		{"color differs", func(a *models.AssetAttributes) { a.Color = "Black" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed := declared
			tt.mutate(&observed)

			err := CheckTolerance(declared, observed)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, app.KindValidation, app.KindOf(err))
		})
	}
}

func TestCheckTolerance_EmptyExpectationsAreSkipped(t *testing.T) {
	assert.NoError(t, CheckTolerance(models.AssetAttributes{}, models.AssetAttributes{Color: "anything", WeightKg: 1}))
}

func TestCheckTolerance_ReportsEveryMismatch(t *testing.T) {
	err := CheckTolerance(declared, models.AssetAttributes{Color: "Black", WeightKg: 100, AgeMonths: 24, PhotoRef: "photo-1", Location: "North Pasture", PriceCents: 150000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "color")
	assert.Contains(t, err.Error(), "weight")
	assert.NotContains(t, err.Error(), "price")
}
