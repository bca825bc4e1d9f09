package piiguard

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Service is the surface the storage layer calls as the last step of a write
// and the first step of a read.
type Service interface {
	ProtectField(entity, field string, raw *string) (SealedField, error)
	RevealField(entity, field string, stored SealedField) (*string, error)
	ProtectDocument(documentType string, data []byte) (*EncryptedFilePayload, error)
	OpenDocument(documentType string, p *EncryptedFilePayload) ([]byte, error)
}

// Protector wires the codecs, the hasher, the registry and the legacy
// plaintext switch into the write, read and search paths. It holds no
// mutable state besides the switch and is safe for concurrent use.
type Protector struct {
	fields          FieldCipher
	files           DocumentCipher
	hasher          *Hasher
	registry        *Registry
	legacy          *PlaintextSwitch
	fieldEncryption bool
	logger          logrus.FieldLogger
}

var _ Service = (*Protector)(nil)

// NewProtector creates a Protector.
//
// Field encryption requires a field codec, and a hasher when any protected
// field is searchable. File encryption in the registry requires a file codec.
func NewProtector(opts ...ProtectorOption) (*Protector, error) {
	p := &Protector{}
	for _, opt := range opts {
		opt(p)
	}

	if p.registry == nil {
		p.registry = NewRegistry()
	}
	if p.legacy == nil {
		p.legacy = NewPlaintextSwitch(LegacyRetain)
	}
	if p.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		p.logger = l
	}

	if p.fieldEncryption {
		if p.fields == nil {
			return nil, fmt.Errorf("%w: field encryption enabled without a field codec", ErrMissingCodec)
		}
		if p.hasher == nil && p.hasSearchableFields() {
			return nil, ErrMissingPepper
		}
	}
	if p.registry.FileEncryptionEnabled() && p.files == nil {
		return nil, fmt.Errorf("%w: file encryption enabled without a file codec", ErrMissingCodec)
	}

	return p, nil
}

func (p *Protector) hasSearchableFields() bool {
	for _, spec := range p.registry.ProtectedFields() {
		if spec.Searchable {
			return true
		}
	}
	return false
}

// Registry returns the sensitive-type registry.
func (p *Protector) Registry() *Registry {
	return p.registry
}

// PlaintextSwitch returns the legacy plaintext switch so operators can flip
// it at runtime.
func (p *Protector) PlaintextSwitch() *PlaintextSwitch {
	return p.legacy
}

// FieldEncryptionEnabled reports the field-encryption feature flag.
func (p *Protector) FieldEncryptionEnabled() bool {
	return p.fieldEncryption
}

// ProtectField produces the full column set for one write of entity.field.
//
// NULL stays NULL. Unprotected fields, or any field while field encryption is
// off, are returned as plaintext only. Protected fields get ciphertext and key
// version, a blind index when searchable, and the plaintext column only while
// the legacy switch says to retain it. The switch is read on every call.
func (p *Protector) ProtectField(entity, field string, raw *string) (SealedField, error) {
	if raw == nil {
		return SealedField{}, nil
	}

	spec, ok := p.registry.FieldSpec(entity, field)
	if !p.fieldEncryption || !ok {
		return SealedField{LegacyPlaintext: stringPtr(*raw)}, nil
	}

	v, err := p.fields.EncryptField(entity, field, *raw)
	if err != nil {
		return SealedField{}, fmt.Errorf("protect %s.%s: %w", entity, field, err)
	}

	out := SealedField{
		Ciphertext: stringPtr(v.Ciphertext),
		KeyVersion: stringPtr(v.KeyVersion),
	}
	if spec.Searchable {
		out.Hash = stringPtr(p.hasher.HashNormalized(*raw, spec.Normalizer))
	}
	if p.legacy.ShouldRetainLegacyPlaintext() {
		out.LegacyPlaintext = stringPtr(*raw)
		p.logger.WithFields(logrus.Fields{
			"entity": entity,
			"field":  field,
		}).Debug("legacy plaintext retained")
	}
	return out, nil
}

// RevealField returns the plaintext of a stored column set. Rows that were
// written before encryption, and so carry only the plaintext column, are
// returned as-is. Returns nil for NULL.
func (p *Protector) RevealField(entity, field string, stored SealedField) (*string, error) {
	if stored.Ciphertext == nil {
		if stored.LegacyPlaintext == nil {
			return nil, nil
		}
		return stringPtr(*stored.LegacyPlaintext), nil
	}
	if p.fields == nil {
		return nil, fmt.Errorf("%w: encrypted %s.%s without a field codec", ErrMissingCodec, entity, field)
	}

	v := stored.EncryptedValue()
	plaintext, err := p.fields.DecryptField(entity, field, v)
	if err != nil {
		p.logDecryptFailure(err, logrus.Fields{
			"entity":      entity,
			"field":       field,
			"key_version": v.KeyVersion,
		})
		return nil, fmt.Errorf("reveal %s.%s: %w", entity, field, err)
	}
	return &plaintext, nil
}

// RevealFieldString is RevealField for callers that treat NULL as an error.
// Returns "" and ErrWasNull for NULL.
func (p *Protector) RevealFieldString(entity, field string, stored SealedField) (string, error) {
	s, err := p.RevealField(entity, field, stored)
	if err != nil {
		return "", err
	}
	if s == nil {
		return "", ErrWasNull
	}
	return *s, nil
}

// SearchHash returns the blind index to match against the hash column of
// entity.field. The value goes through the field's normalizer first.
func (p *Protector) SearchHash(entity, field, value string) (string, error) {
	spec, ok := p.registry.FieldSpec(entity, field)
	if !ok || !spec.Searchable {
		return "", fmt.Errorf("%w: %s.%s", ErrNotSearchable, entity, field)
	}
	if p.hasher == nil {
		return "", ErrMissingPepper
	}
	return p.hasher.HashNormalized(value, spec.Normalizer), nil
}

// ProtectDocument prepares an upload for storage. The registry is consulted
// first; only sensitive types with file encryption on reach the codec.
// Everything else is returned unencrypted.
func (p *Protector) ProtectDocument(documentType string, data []byte) (*EncryptedFilePayload, error) {
	if !p.registry.ShouldEncrypt(documentType) {
		p.logger.WithField("document_type", documentType).Debug("document stored without encryption")
		return &EncryptedFilePayload{IsEncrypted: false, Ciphertext: data}, nil
	}

	payload, err := p.files.EncryptFile(data, documentType)
	if err != nil {
		return nil, fmt.Errorf("protect %s document: %w", documentType, err)
	}
	return payload, nil
}

// OpenDocument returns the bytes of a stored document, decrypting when the
// payload is flagged as encrypted.
func (p *Protector) OpenDocument(documentType string, payload *EncryptedFilePayload) ([]byte, error) {
	if payload == nil {
		return nil, ErrIncompleteMetadata
	}
	if !payload.IsEncrypted {
		return payload.Ciphertext, nil
	}
	if p.files == nil {
		return nil, fmt.Errorf("%w: encrypted %s document without a file codec", ErrMissingCodec, documentType)
	}

	data, err := p.files.DecryptFile(payload, documentType)
	if err != nil {
		p.logDecryptFailure(err, logrus.Fields{
			"document_type": documentType,
			"algorithm":     payload.Algorithm,
			"key_version":   payload.KeyVersion,
		})
		return nil, fmt.Errorf("open %s document: %w", documentType, err)
	}
	return data, nil
}

// logDecryptFailure records failures that point at tampering or a missing
// key. Values are never logged.
func (p *Protector) logDecryptFailure(err error, fields logrus.Fields) {
	entry := p.logger.WithFields(fields).WithError(err)
	switch {
	case errors.Is(err, ErrAuthenticationFailed):
		entry.Warn("authentication failed on decrypt")
	case errors.Is(err, ErrUnknownKeyVersion):
		entry.Error("stored key version not in key ring")
	default:
		entry.Debug("decrypt failed")
	}
}
