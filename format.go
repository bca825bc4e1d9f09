package piiguard

import (
	"encoding/base64"
	"strings"
)

// Stored field ciphertext format (base64, standard encoding):
// [nonce:12][AEAD ciphertext][tag:16]
//
// Sealed file plaintext format (before encryption):
// [flag:1][data]
//
// Flag byte values:
//   0x00 = no compression
//   0x01 = zstd compressed
//
// The flag sits inside the sealed plaintext so the compression choice is
// covered by the authentication tag.

const (
	flagNoCompression byte = 0x00
	flagZstd          byte = 0x01

	nonceSize = 12
	tagSize   = 16
)

// aadSeparator joins entity and field names in the field AAD.
const aadSeparator = ":"

// fieldAAD returns the associated data binding a ciphertext to one field of
// one entity. Names may not contain the separator, so the encoding is unambiguous.
func fieldAAD(entity, field string) ([]byte, error) {
	if entity == "" || field == "" ||
		strings.Contains(entity, aadSeparator) || strings.Contains(field, aadSeparator) {
		return nil, ErrInvalidAAD
	}
	return []byte(entity + aadSeparator + field), nil
}

// fileAAD returns the associated data binding a file to its document type.
// Document types compare case-insensitively, so the AAD is canonicalized.
func fileAAD(documentType string) ([]byte, error) {
	t := canonicalType(documentType)
	if t == "" {
		return nil, ErrInvalidAAD
	}
	return []byte(t), nil
}

// canonicalType lowercases and trims a document type identifier.
func canonicalType(documentType string) string {
	return strings.ToLower(strings.TrimSpace(documentType))
}

// formatFieldCiphertext assembles and encodes the stored field value.
func formatFieldCiphertext(nonce, sealed []byte) string {
	buf := make([]byte, 0, len(nonce)+len(sealed))
	buf = append(buf, nonce...)
	buf = append(buf, sealed...)
	return base64.StdEncoding.EncodeToString(buf)
}

// parseFieldCiphertext decodes a stored field value into nonce and sealed
// bytes (ciphertext with tag appended).
func parseFieldCiphertext(stored string) (nonce, sealed []byte, err error) {
	data, decodeErr := base64.StdEncoding.DecodeString(stored)
	if decodeErr != nil {
		err = ErrInvalidFormat
		return
	}
	if len(data) < nonceSize+tagSize {
		err = ErrInvalidFormat
		return
	}
	nonce = data[:nonceSize]
	sealed = data[nonceSize:]
	return
}

// formatInnerPlaintext prepends the compression flag to file data.
func formatInnerPlaintext(flag byte, data []byte) []byte {
	result := make([]byte, 0, 1+len(data))
	result = append(result, flag)
	result = append(result, data...)
	return result
}

// parseInnerPlaintext splits the compression flag from file data.
func parseInnerPlaintext(data []byte) (flag byte, payload []byte, err error) {
	if len(data) < 1 {
		err = ErrInvalidFormat
		return
	}
	flag = data[0]
	payload = data[1:]
	return
}
