package models

import "encoding/json"

// VersionedRecord is the comparable view of one entity used for conflict
// resolution: the version, a content hash and the encoded entity.
type VersionedRecord struct {
	EntityID string          `json:"entity_id"`
	Category EntityCategory  `json:"category"`
	Version  int64           `json:"version"`
	Hash     string          `json:"hash"`
	Data     json.RawMessage `json:"data,omitempty"`
}
