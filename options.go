package piiguard

import "github.com/sirupsen/logrus"

// FieldCipher encrypts and decrypts named entity fields. *FieldCodec implements it.
type FieldCipher interface {
	EncryptField(entity, field, raw string) (EncryptedValue, error)
	DecryptField(entity, field string, v EncryptedValue) (string, error)
}

// DocumentCipher encrypts and decrypts document blobs. *FileCodec implements it.
type DocumentCipher interface {
	EncryptFile(data []byte, documentType string) (*EncryptedFilePayload, error)
	DecryptFile(p *EncryptedFilePayload, documentType string) ([]byte, error)
}

// ProtectorOption is a functional option for configuring a Protector.
type ProtectorOption func(*Protector)

// WithFieldCodec sets the cipher used for protected entity fields.
func WithFieldCodec(c FieldCipher) ProtectorOption {
	return func(p *Protector) {
		p.fields = c
	}
}

// WithFileCodec sets the cipher used for sensitive document uploads.
func WithFileCodec(c DocumentCipher) ProtectorOption {
	return func(p *Protector) {
		p.files = c
	}
}

// WithHasher sets the blind-index hasher for searchable fields.
func WithHasher(h *Hasher) ProtectorOption {
	return func(p *Protector) {
		p.hasher = h
	}
}

// WithRegistry sets the sensitive-type registry. Default is NewRegistry()
// with file encryption off.
func WithRegistry(r *Registry) ProtectorOption {
	return func(p *Protector) {
		p.registry = r
	}
}

// WithPlaintextSwitch sets the legacy plaintext switch. Default retains plaintext.
func WithPlaintextSwitch(s *PlaintextSwitch) ProtectorOption {
	return func(p *Protector) {
		p.legacy = s
	}
}

// WithFieldEncryption sets the field-encryption feature flag. Default is off.
func WithFieldEncryption(enabled bool) ProtectorOption {
	return func(p *Protector) {
		p.fieldEncryption = enabled
	}
}

// WithLogger sets the logger. Default discards everything.
func WithLogger(l logrus.FieldLogger) ProtectorOption {
	return func(p *Protector) {
		p.logger = l
	}
}
