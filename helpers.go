package piiguard

// SealedField holds every persisted column of one sensitive attribute.
// A nil pointer is SQL NULL. It is replaced wholesale on every write.
type SealedField struct {
	Ciphertext      *string // e.g. kig_enc
	KeyVersion      *string // e.g. kig_key_version
	Hash            *string // e.g. kig_hash, searchable fields only
	LegacyPlaintext *string // e.g. kig, NULL once migration is complete
}

// EncryptedValue returns the ciphertext and key-version columns.
func (s SealedField) EncryptedValue() EncryptedValue {
	var v EncryptedValue
	if s.Ciphertext != nil {
		v.Ciphertext = *s.Ciphertext
	}
	if s.KeyVersion != nil {
		v.KeyVersion = *s.KeyVersion
	}
	return v
}

// IsEncrypted reports whether the ciphertext column is populated.
func (s SealedField) IsEncrypted() bool {
	return s.Ciphertext != nil
}

// IsNull reports whether every column is NULL.
func (s SealedField) IsNull() bool {
	return s.Ciphertext == nil && s.KeyVersion == nil && s.Hash == nil && s.LegacyPlaintext == nil
}

// EncryptFieldPtr encrypts a nullable value.
// Returns nil if raw is nil (NULL preservation).
func (c *FieldCodec) EncryptFieldPtr(entity, field string, raw *string) (*EncryptedValue, error) {
	if raw == nil {
		return nil, nil
	}
	v, err := c.EncryptField(entity, field, *raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DecryptFieldPtr decrypts a nullable stored value.
// Returns nil if v is nil (NULL preservation).
func (c *FieldCodec) DecryptFieldPtr(entity, field string, v *EncryptedValue) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, err := c.DecryptField(entity, field, *v)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func stringPtr(s string) *string {
	return &s
}
