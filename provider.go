package piiguard

import "fmt"

// KeyProvider is an interface for key retrieval from an external source.
// Implement it to load keys from HashiCorp Vault, a cloud KMS or another
// secrets manager instead of the process environment.
type KeyProvider interface {
	// GetKey retrieves the 32-byte key for a version label.
	GetKey(version string) ([]byte, error)

	// ActiveVersion returns the version label to use for new encryptions.
	ActiveVersion() string

	// Versions returns every version that must stay decryptable.
	Versions() []string
}

// NewKeyRingFromProvider fetches all versions from provider once and builds
// an immutable KeyRing from them.
func NewKeyRingFromProvider(provider KeyProvider) (*KeyRing, error) {
	versions := provider.Versions()
	if len(versions) == 0 {
		return nil, ErrNoKeys
	}

	keys := make(map[string][]byte, len(versions))
	defer func() {
		for _, key := range keys {
			zero(key)
		}
	}()

	for _, version := range versions {
		key, err := provider.GetKey(version)
		if err != nil {
			return nil, fmt.Errorf("fetch key %q: %w", version, err)
		}
		keys[version] = key
	}

	return NewKeyRing(provider.ActiveVersion(), keys)
}

// StaticKeyProvider is a simple in-memory implementation of KeyProvider.
// Useful for testing or deployments without external key management.
type StaticKeyProvider struct {
	keys   map[string][]byte
	active string
}

// NewStaticKeyProvider creates a StaticKeyProvider with the given keys.
// Keys are deep-copied to prevent external modification.
func NewStaticKeyProvider(active string, keys map[string][]byte) *StaticKeyProvider {
	keysCopy := make(map[string][]byte, len(keys))
	for id, key := range keys {
		keyCopy := make([]byte, len(key))
		copy(keyCopy, key)
		keysCopy[id] = keyCopy
	}
	return &StaticKeyProvider{
		keys:   keysCopy,
		active: active,
	}
}

// GetKey implements KeyProvider.
func (p *StaticKeyProvider) GetKey(version string) ([]byte, error) {
	key, ok := p.keys[version]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKeyVersion, version)
	}
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)
	return keyCopy, nil
}

// ActiveVersion implements KeyProvider.
func (p *StaticKeyProvider) ActiveVersion() string {
	return p.active
}

// Versions implements KeyProvider.
func (p *StaticKeyProvider) Versions() []string {
	return sortedMapKeys(p.keys)
}

// Close zeros out all key material from memory.
func (p *StaticKeyProvider) Close() {
	for _, key := range p.keys {
		zero(key)
	}
	p.keys = nil
}
