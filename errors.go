package piiguard

import (
	"errors"
	"fmt"
)

// Category errors. Every specific error below wraps exactly one of these,
// so callers can branch with errors.Is on the category alone.
var (
	// ErrConfiguration indicates missing or malformed key material or settings.
	// It is fatal: the process should refuse to start rather than fall back.
	ErrConfiguration = errors.New("piiguard: configuration error")

	// ErrDecryptionFailed indicates a stored value could not be decrypted.
	// Cryptographic failures are not transient and are never retried.
	ErrDecryptionFailed = errors.New("piiguard: decryption failed")
)

var (
	// ErrNoKeys indicates the key map is empty or missing.
	ErrNoKeys = fmt.Errorf("%w: no keys provided", ErrConfiguration)

	// ErrInvalidKeySize indicates a key does not decode to exactly 32 bytes.
	ErrInvalidKeySize = fmt.Errorf("%w: key must be 32 bytes", ErrConfiguration)

	// ErrInvalidKeyEncoding indicates the key map is not a JSON object of base64 strings.
	ErrInvalidKeyEncoding = fmt.Errorf("%w: malformed key encoding", ErrConfiguration)

	// ErrInvalidKeyID indicates a key version label is empty or longer than 255 bytes.
	ErrInvalidKeyID = fmt.Errorf("%w: key version must be 1-255 bytes", ErrConfiguration)

	// ErrActiveKeyNotFound indicates the active version label is absent from the key map.
	ErrActiveKeyNotFound = fmt.Errorf("%w: active key version not found", ErrConfiguration)

	// ErrMissingPepper indicates the blind-index pepper is empty.
	ErrMissingPepper = fmt.Errorf("%w: blind index pepper is empty", ErrConfiguration)

	// ErrMissingCodec indicates a feature flag is on but its codec was not supplied.
	ErrMissingCodec = fmt.Errorf("%w: codec not configured", ErrConfiguration)
)

var (
	// ErrUnknownKeyVersion indicates the recorded key version is not in the loaded ring.
	ErrUnknownKeyVersion = fmt.Errorf("%w: unknown key version", ErrDecryptionFailed)

	// ErrAuthenticationFailed indicates AEAD tag verification failed: the data was
	// tampered with, or the entity/field or document type asserted at decrypt time
	// differs from the one used at encrypt time.
	ErrAuthenticationFailed = fmt.Errorf("%w: authentication failed", ErrDecryptionFailed)

	// ErrUnsupportedAlgorithm indicates a stored file names an algorithm this codec does not implement.
	ErrUnsupportedAlgorithm = fmt.Errorf("%w: unsupported algorithm", ErrDecryptionFailed)

	// ErrIncompleteMetadata indicates key version, nonce or tag is missing or has the wrong size.
	ErrIncompleteMetadata = fmt.Errorf("%w: incomplete encryption metadata", ErrDecryptionFailed)

	// ErrInvalidFormat indicates the stored ciphertext is malformed.
	ErrInvalidFormat = fmt.Errorf("%w: invalid ciphertext format", ErrDecryptionFailed)

	// ErrDecompressionFailed indicates zstd decompression failed or exceeded the size cap.
	ErrDecompressionFailed = fmt.Errorf("%w: decompression failed", ErrDecryptionFailed)

	// ErrNotEncrypted indicates a file payload is flagged as not encrypted.
	ErrNotEncrypted = fmt.Errorf("%w: payload is not encrypted", ErrDecryptionFailed)
)

var (
	// ErrInvalidAAD indicates an empty entity, field or document type.
	ErrInvalidAAD = errors.New("piiguard: entity, field and document type must be non-empty")

	// ErrKeyRingClosed indicates the key ring was used after Close() was called.
	ErrKeyRingClosed = errors.New("piiguard: key ring is closed")

	// ErrWasNull indicates the stored value was NULL.
	ErrWasNull = errors.New("piiguard: value was null")

	// ErrNotSearchable indicates a blind index was requested for a field that has none.
	ErrNotSearchable = errors.New("piiguard: field is not searchable")
)
