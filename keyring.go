package piiguard

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// KeySize is the required length of every key in a KeyRing (AES-256).
const KeySize = 32

// maxKeyIDLen bounds version labels so they fit a one-byte length prefix.
const maxKeyIDLen = 255

// KeyRing maps key-version labels to 32-byte symmetric keys and marks one
// version as active. It is immutable after construction and safe for
// concurrent use.
//
// Rotation means deploying a configuration with a new active version while
// keeping every older version in the map, so historical ciphertext stays
// readable.
type KeyRing struct {
	keys     map[string]*[KeySize]byte
	versions []string // sorted
	active   string
	closed   atomic.Bool
}

// ParseKeyRing builds a KeyRing from a JSON object mapping version labels to
// base64-encoded 32-byte keys, e.g. {"v1":"...","v2":"..."}.
//
// Empty input, malformed JSON or base64, keys of the wrong length and an
// active label missing from the map are all configuration errors.
func ParseKeyRing(raw, active string) (*KeyRing, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrNoKeys
	}

	var encoded map[string]string
	if err := json.Unmarshal([]byte(raw), &encoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyEncoding, err)
	}

	keys := make(map[string][]byte, len(encoded))
	defer func() {
		for _, key := range keys {
			zero(key)
		}
	}()

	for _, version := range sortedMapKeys(encoded) {
		key, err := decodeKey(encoded[version])
		if err != nil {
			return nil, fmt.Errorf("%w: version %q: %v", ErrInvalidKeyEncoding, version, err)
		}
		keys[version] = key
	}

	return NewKeyRing(active, keys)
}

// NewKeyRing builds a KeyRing from raw keys. Keys are copied; the caller may
// zero the originals afterwards.
func NewKeyRing(active string, keys map[string][]byte) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	versions := sortedMapKeys(keys)
	for _, version := range versions {
		if len(version) == 0 || len(version) > maxKeyIDLen {
			return nil, ErrInvalidKeyID
		}
		if n := len(keys[version]); n != KeySize {
			return nil, fmt.Errorf("%w: version %q has %d bytes", ErrInvalidKeySize, version, n)
		}
	}

	if _, ok := keys[active]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrActiveKeyNotFound, active)
	}

	ring := &KeyRing{
		keys:     make(map[string]*[KeySize]byte, len(keys)),
		versions: versions,
		active:   active,
	}
	for version, key := range keys {
		var k [KeySize]byte
		copy(k[:], key)
		ring.keys[version] = &k
	}
	return ring, nil
}

// Active returns the version label used for new encryptions.
func (r *KeyRing) Active() string {
	return r.active
}

// Versions returns every loaded version label, sorted.
func (r *KeyRing) Versions() []string {
	out := make([]string, len(r.versions))
	copy(out, r.versions)
	return out
}

// Has reports whether version is present in the ring.
func (r *KeyRing) Has(version string) bool {
	_, ok := r.keys[version]
	return ok
}

// Resolve returns a copy of the key for version.
func (r *KeyRing) Resolve(version string) ([]byte, error) {
	k, err := r.key(version)
	if err != nil {
		return nil, err
	}
	out := make([]byte, KeySize)
	copy(out, k[:])
	return out, nil
}

// key returns the ring's own key array without copying.
func (r *KeyRing) key(version string) (*[KeySize]byte, error) {
	if r.closed.Load() {
		return nil, ErrKeyRingClosed
	}
	k, ok := r.keys[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyVersion, version)
	}
	return k, nil
}

// Close zeros all key material. Any later use returns ErrKeyRingClosed.
func (r *KeyRing) Close() {
	r.closed.Store(true)
	for _, k := range r.keys {
		zero(k[:])
	}
}

// decodeKey accepts standard or URL-safe base64, padded or not.
func decodeKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		key, err := enc.DecodeString(s)
		if err == nil {
			return key, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// sortedMapKeys returns map keys sorted alphabetically.
func sortedMapKeys[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
