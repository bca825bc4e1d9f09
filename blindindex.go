package piiguard

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Hasher computes blind indexes: deterministic HMAC-SHA256 digests of a
// value under a secret pepper. A blind index supports equality lookup only;
// it carries no ordering or prefix information.
//
// The pepper is independent of the encryption keys. Losing it invalidates
// every stored index but not the ciphertext. It is safe for concurrent use.
type Hasher struct {
	pepper []byte
}

// NewHasher creates a Hasher. An empty pepper is a configuration error.
func NewHasher(pepper string) (*Hasher, error) {
	if pepper == "" {
		return nil, ErrMissingPepper
	}
	return &Hasher{pepper: []byte(pepper)}, nil
}

// BlindIndex hashes raw under pepper and returns the storage encoding.
func BlindIndex(raw, pepper string) (string, error) {
	h, err := NewHasher(pepper)
	if err != nil {
		return "", err
	}
	return h.Hash(raw), nil
}

// Hash returns the base64-encoded HMAC-SHA256 of value.
func (h *Hasher) Hash(value string) string {
	return base64.StdEncoding.EncodeToString(h.HashBytes([]byte(value)))
}

// HashNormalized normalizes value before hashing.
//
// IMPORTANT: Use the SAME normalizer on both write and search.
func (h *Hasher) HashNormalized(value string, norm Normalizer) string {
	return h.Hash(norm(value))
}

// HashBytes returns the raw 32-byte HMAC-SHA256 of data.
// Returns nil if data is nil (NULL preservation).
func (h *Hasher) HashBytes(data []byte) []byte {
	if data == nil {
		return nil
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write(data)
	return mac.Sum(nil)
}

// Equal compares a stored index against a freshly computed one in constant time.
func (h *Hasher) Equal(stored, value string) bool {
	return hmac.Equal([]byte(stored), []byte(h.Hash(value)))
}
