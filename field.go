package piiguard

import "fmt"

// EncryptedValue is the stored form of one encrypted field: the ciphertext
// column and the key-version column.
type EncryptedValue struct {
	Ciphertext string `json:"ciphertext"`
	KeyVersion string `json:"keyVersion"`
}

// FieldCodec encrypts and decrypts single named field values of named
// entities with AES-256-GCM. The entity and field names are bound into every
// ciphertext as associated data, so a value copied into another column or
// another entity fails to decrypt.
//
// It is stateless apart from the immutable key ring and safe for concurrent use.
type FieldCodec struct {
	ring *KeyRing
}

// NewFieldCodec creates a FieldCodec over ring.
func NewFieldCodec(ring *KeyRing) *FieldCodec {
	return &FieldCodec{ring: ring}
}

// KeyRing returns the ring the codec encrypts with.
func (c *FieldCodec) KeyRing() *KeyRing {
	return c.ring
}

// EncryptField encrypts raw under the active key version.
func (c *FieldCodec) EncryptField(entity, field, raw string) (EncryptedValue, error) {
	return c.EncryptFieldWithKey(c.ring.Active(), entity, field, raw)
}

// EncryptFieldWithKey encrypts raw under a specific key version.
func (c *FieldCodec) EncryptFieldWithKey(version, entity, field, raw string) (EncryptedValue, error) {
	aad, err := fieldAAD(entity, field)
	if err != nil {
		return EncryptedValue{}, err
	}

	key, err := c.ring.key(version)
	if err != nil {
		return EncryptedValue{}, err
	}

	aead, err := newAEAD(AlgorithmAESGCM, key)
	if err != nil {
		return EncryptedValue{}, err
	}

	nonce, err := generateNonce()
	if err != nil {
		return EncryptedValue{}, err
	}

	sealed := aead.Seal(nil, nonce, []byte(raw), aad)

	return EncryptedValue{
		Ciphertext: formatFieldCiphertext(nonce, sealed),
		KeyVersion: version,
	}, nil
}

// DecryptField decrypts a stored value of entity.field.
//
// It fails when the key version is missing or unknown, when the ciphertext is
// malformed, and when authentication fails (tampering, or a different entity
// or field asserted than was used to encrypt). It never returns partial output.
func (c *FieldCodec) DecryptField(entity, field string, v EncryptedValue) (string, error) {
	aad, err := fieldAAD(entity, field)
	if err != nil {
		return "", err
	}
	if v.KeyVersion == "" {
		return "", ErrIncompleteMetadata
	}

	key, err := c.ring.key(v.KeyVersion)
	if err != nil {
		return "", err
	}

	nonce, sealed, err := parseFieldCiphertext(v.Ciphertext)
	if err != nil {
		return "", err
	}

	aead, err := newAEAD(AlgorithmAESGCM, key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAuthenticationFailed, aad)
	}
	return string(plaintext), nil
}
