package models

import "time"

// AssetAttributes are the declared physical and commercial attributes of an
// asset. A buyer checks them when verifying a transfer.
type AssetAttributes struct {
	Color      string  `json:"color,omitempty"`
	WeightKg   float64 `json:"weight_kg,omitempty"`
	AgeMonths  int     `json:"age_months,omitempty"`
	PhotoRef   string  `json:"photo_ref,omitempty"`
	Location   string  `json:"location,omitempty"`
	PriceCents int64   `json:"price_cents,omitempty"`
}

// Asset is a registered animal owned by exactly one owner.
type Asset struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"owner_id"`
	Name       string          `json:"name"`
	Species    string          `json:"species,omitempty"`
	Attributes AssetAttributes `json:"attributes"`
	Version    int64           `json:"version"`
	Deleted    bool            `json:"deleted,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName returns the name of the database table associated with Asset.
func (a *Asset) TableName() string {
	return "assets"
}

// Note is a free-text annotation attached to an asset. Notes are
// eventually consistent: concurrent edits resolve in favour of the local one.
type Note struct {
	ID        string    `json:"id"`
	AssetID   string    `json:"asset_id"`
	Body      string    `json:"body"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Note) TableName() string {
	return "notes"
}
