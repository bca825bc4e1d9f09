package piiguard

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Algorithm names an AEAD construction as persisted with encrypted files.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM with a 12-byte nonce and 16-byte tag.
	AlgorithmAESGCM Algorithm = "aes-256-gcm"

	// AlgorithmChaCha20Poly1305 is ChaCha20-Poly1305 (RFC 8439), 12-byte nonce, 16-byte tag.
	AlgorithmChaCha20Poly1305 Algorithm = "chacha20-poly1305"
)

// ParseAlgorithm resolves a persisted or configured algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(strings.ToLower(strings.TrimSpace(name))); alg {
	case AlgorithmAESGCM, AlgorithmChaCha20Poly1305:
		return alg, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

// newAEAD creates a cipher instance for alg. Both supported algorithms use
// 12-byte nonces and 16-byte tags.
func newAEAD(alg Algorithm, key *[KeySize]byte) (cipher.AEAD, error) {
	switch alg {
	case AlgorithmAESGCM:
		block, err := aes.NewCipher(key[:])
		if err != nil {
			return nil, fmt.Errorf("create AES cipher: %w", err)
		}
		return cipher.NewGCM(block)
	case AlgorithmChaCha20Poly1305:
		return chacha20poly1305.New(key[:])
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

// generateNonce returns a fresh random 12-byte nonce.
func generateNonce() ([]byte, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return nonce, nil
}
