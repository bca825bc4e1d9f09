package piiguard

import "fmt"

// NeedsRotation reports whether v was encrypted under a version other than
// the active one. Returns false for an empty key version.
func (c *FieldCodec) NeedsRotation(v EncryptedValue) bool {
	return v.KeyVersion != "" && v.KeyVersion != c.ring.Active()
}

// RotateField re-encrypts a stored value under the active key version.
// The old version must still be in the ring.
func (c *FieldCodec) RotateField(entity, field string, v EncryptedValue) (EncryptedValue, error) {
	plaintext, err := c.DecryptField(entity, field, v)
	if err != nil {
		return EncryptedValue{}, err
	}
	return c.EncryptField(entity, field, plaintext)
}

// NeedsRotation reports whether p was encrypted under a non-active key
// version or with a different algorithm than the codec now uses.
func (c *FileCodec) NeedsRotation(p *EncryptedFilePayload) bool {
	if p == nil || !p.IsEncrypted {
		return false
	}
	if p.KeyVersion != c.ring.Active() {
		return true
	}
	alg, err := ParseAlgorithm(p.Algorithm)
	return err != nil || alg != c.algorithm
}

// RotateFile re-encrypts a stored document under the active key version
// and the codec's current algorithm.
func (c *FileCodec) RotateFile(p *EncryptedFilePayload, documentType string) (*EncryptedFilePayload, error) {
	data, err := c.DecryptFile(p, documentType)
	if err != nil {
		return nil, err
	}
	return c.EncryptFile(data, documentType)
}

// ResealField rewrites a stored column set with the active key version, a
// fresh blind index and the current legacy plaintext policy. Rows that still
// hold only plaintext get encrypted, which makes it the per-row step of a
// migration or rotation job.
func (p *Protector) ResealField(entity, field string, stored SealedField) (SealedField, error) {
	plaintext, err := p.RevealField(entity, field, stored)
	if err != nil {
		return SealedField{}, err
	}
	sealed, err := p.ProtectField(entity, field, plaintext)
	if err != nil {
		return SealedField{}, fmt.Errorf("reseal %s.%s: %w", entity, field, err)
	}
	return sealed, nil
}
