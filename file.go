package piiguard

import (
	"encoding/base64"
	"fmt"
)

// EncryptedFilePayload is the persisted form of an uploaded document.
//
// For encrypted documents every field is populated; IV is 12 bytes and
// AuthTag 16 bytes, both base64. Documents stored without encryption carry
// IsEncrypted=false and their raw bytes in Ciphertext.
type EncryptedFilePayload struct {
	IsEncrypted bool   `json:"isEncrypted"`
	Algorithm   string `json:"algorithm,omitempty"`
	KeyVersion  string `json:"keyVersion,omitempty"`
	IV          string `json:"iv,omitempty"`
	AuthTag     string `json:"authTag,omitempty"`
	Ciphertext  []byte `json:"ciphertext"`
}

// FileCodec encrypts and decrypts opaque document blobs. The document type
// is bound into each ciphertext as associated data; decrypting while
// asserting another type fails even though the bytes are structurally valid.
// It is safe for concurrent use.
type FileCodec struct {
	ring        *KeyRing
	algorithm   Algorithm
	compression compression
}

// FileOption is a functional option for configuring a FileCodec.
type FileOption func(*FileCodec)

// WithAlgorithm sets the AEAD used for new encryptions. Default is AES-256-GCM.
// Decryption always follows the algorithm recorded on the payload.
func WithAlgorithm(alg Algorithm) FileOption {
	return func(c *FileCodec) {
		c.algorithm = alg
	}
}

// WithCompressionThreshold sets the minimum size in bytes before compression is attempted.
// Default is 1024 (1KB). Must be > 0.
func WithCompressionThreshold(bytes int) FileOption {
	return func(c *FileCodec) {
		c.compression.threshold = bytes
	}
}

// WithCompressionDisabled disables compression entirely.
func WithCompressionDisabled() FileOption {
	return func(c *FileCodec) {
		c.compression.disabled = true
	}
}

// WithMaxDocumentSize sets the largest document, in bytes, a compressed
// payload may expand to on decryption. Larger documents are sealed without
// compression. Default is 64 MiB; at most 1 GiB.
func WithMaxDocumentSize(bytes int) FileOption {
	return func(c *FileCodec) {
		c.compression.maxSize = bytes
	}
}

// NewFileCodec creates a FileCodec over ring.
func NewFileCodec(ring *KeyRing, opts ...FileOption) (*FileCodec, error) {
	c := &FileCodec{
		ring:        ring,
		algorithm:   AlgorithmAESGCM,
		compression: defaultCompression(),
	}
	for _, opt := range opts {
		opt(c)
	}

	alg, err := ParseAlgorithm(string(c.algorithm))
	if err != nil {
		return nil, fmt.Errorf("%w: file algorithm %q", ErrConfiguration, c.algorithm)
	}
	c.algorithm = alg

	if c.compression.threshold <= 0 {
		return nil, fmt.Errorf("%w: compression threshold must be positive", ErrConfiguration)
	}
	if c.compression.maxSize <= 0 || c.compression.maxSize > maxDocumentSizeLimit {
		return nil, fmt.Errorf("%w: max document size must be 1..%d bytes", ErrConfiguration, maxDocumentSizeLimit)
	}
	return c, nil
}

// KeyRing returns the ring the codec encrypts with.
func (c *FileCodec) KeyRing() *KeyRing {
	return c.ring
}

// Algorithm returns the algorithm used for new encryptions.
func (c *FileCodec) Algorithm() Algorithm {
	return c.algorithm
}

// EncryptFile encrypts data for documentType under the active key version
// with a fresh random 12-byte nonce.
func (c *FileCodec) EncryptFile(data []byte, documentType string) (*EncryptedFilePayload, error) {
	return c.encryptFileWithKey(c.ring.Active(), data, documentType)
}

func (c *FileCodec) encryptFileWithKey(version string, data []byte, documentType string) (*EncryptedFilePayload, error) {
	aad, err := fileAAD(documentType)
	if err != nil {
		return nil, err
	}

	key, err := c.ring.key(version)
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(c.algorithm, key)
	if err != nil {
		return nil, err
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}

	toEncrypt, flag := c.compression.pack(data)
	sealed := aead.Seal(nil, nonce, formatInnerPlaintext(flag, toEncrypt), aad)
	split := len(sealed) - aead.Overhead()

	return &EncryptedFilePayload{
		IsEncrypted: true,
		Algorithm:   string(c.algorithm),
		KeyVersion:  version,
		IV:          base64.StdEncoding.EncodeToString(nonce),
		AuthTag:     base64.StdEncoding.EncodeToString(sealed[split:]),
		Ciphertext:  sealed[:split],
	}, nil
}

// DecryptFile decrypts p, asserting that it was stored as documentType.
//
// It rejects payloads not flagged as encrypted, unsupported algorithms,
// missing or mis-sized key version, nonce or tag, unknown key versions and
// any authentication failure.
func (c *FileCodec) DecryptFile(p *EncryptedFilePayload, documentType string) ([]byte, error) {
	if p == nil {
		return nil, ErrIncompleteMetadata
	}
	if !p.IsEncrypted {
		return nil, ErrNotEncrypted
	}
	if p.Algorithm == "" || p.KeyVersion == "" || p.IV == "" || p.AuthTag == "" {
		return nil, ErrIncompleteMetadata
	}

	alg, err := ParseAlgorithm(p.Algorithm)
	if err != nil {
		return nil, err
	}

	nonce, err := base64.StdEncoding.DecodeString(p.IV)
	if err != nil || len(nonce) != nonceSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes", ErrIncompleteMetadata, nonceSize)
	}
	tag, err := base64.StdEncoding.DecodeString(p.AuthTag)
	if err != nil || len(tag) != tagSize {
		return nil, fmt.Errorf("%w: auth tag must be %d bytes", ErrIncompleteMetadata, tagSize)
	}

	aad, err := fileAAD(documentType)
	if err != nil {
		return nil, err
	}

	key, err := c.ring.key(p.KeyVersion)
	if err != nil {
		return nil, err
	}

	aead, err := newAEAD(alg, key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(p.Ciphertext)+len(tag))
	sealed = append(sealed, p.Ciphertext...)
	sealed = append(sealed, tag...)

	inner, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: document type %s", ErrAuthenticationFailed, aad)
	}

	flag, data, err := parseInnerPlaintext(inner)
	if err != nil {
		return nil, err
	}
	return c.compression.unpack(flag, data)
}
