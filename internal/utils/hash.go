package utils

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ContentHasher computes keyed BLAKE2b-256 fingerprints of entity payloads.
// Two records with equal fingerprints carry the same content.
type ContentHasher struct {
	key []byte
}

// NewContentHasher returns a hasher keyed with hashKey. Keys longer than
// blake2b.Size are reduced to their BLAKE2b-256 digest first.
func NewContentHasher(hashKey string) *ContentHasher {
	key := []byte(hashKey)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &ContentHasher{key: key}
}

// Sum returns the hex-encoded fingerprint of data.
func (h *ContentHasher) Sum(data []byte) string {
	// New256 only fails for keys longer than blake2b.Size.
	hasher, _ := blake2b.New256(h.key)
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// SumJSON returns the fingerprint of the JSON encoding of v.
func (h *ContentHasher) SumJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("error encoding value for hashing: %w", err)
	}
	return h.Sum(data), nil
}
