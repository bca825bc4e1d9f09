package piiguard

import (
	"bytes"
	"sync"

	"github.com/klauspost/compress/zstd"
)

const (
	defaultCompressionThreshold = 1024
	minCompressionSavings       = 0.10

	// defaultMaxDocumentSize caps how far a sealed zstd frame may expand.
	defaultMaxDocumentSize = 64 << 20

	// maxDocumentSizeLimit bounds WithMaxDocumentSize and the shared decoder.
	maxDocumentSizeLimit = 1 << 30
)

// precompressedSignatures are leading bytes of upload formats that carry
// their own compression. zstd cannot shrink them.
var precompressedSignatures = [][]byte{
	{0xFF, 0xD8, 0xFF},                            // JPEG
	{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, // PNG
	[]byte("%PDF-"),                               // PDF
	{'P', 'K', 0x03, 0x04},                        // ZIP, DOCX, XLSX
	[]byte("GIF8"),                                // GIF
	{0x1F, 0x8B},                                  // gzip
	{0x28, 0xB5, 0x2F, 0xFD},                      // zstd
	{'I', 'I', 0x2A, 0x00},                        // TIFF, usually CCITT or JPEG inside
	{'M', 'M', 0x00, 0x2A},                        // TIFF, big-endian
}

// isPrecompressed reports whether data starts like a compressed format.
func isPrecompressed(data []byte) bool {
	for _, sig := range precompressedSignatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	if len(data) < 12 {
		return false
	}
	// RIFF....WEBP, and ISO-BMFF boxes (HEIC, AVIF) with the brand after a length.
	return (string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP") ||
		string(data[4:8]) == "ftyp"
}

var documentZstd struct {
	once    sync.Once
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	err     error
}

// sharedZstd returns the process-wide encoder and decoder. Both are safe for
// concurrent EncodeAll/DecodeAll.
func sharedZstd() (*zstd.Encoder, *zstd.Decoder, error) {
	z := &documentZstd
	z.once.Do(func() {
		z.encoder, z.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if z.err != nil {
			return
		}
		z.decoder, z.err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDocumentSizeLimit))
		if z.err != nil {
			z.encoder.Close()
			z.encoder = nil
		}
	})
	return z.encoder, z.decoder, z.err
}

// compression is a FileCodec's policy for shrinking documents before they
// are sealed. The chosen flag travels inside the ciphertext.
type compression struct {
	threshold int
	disabled  bool
	maxSize   int
}

func defaultCompression() compression {
	return compression{
		threshold: defaultCompressionThreshold,
		maxSize:   defaultMaxDocumentSize,
	}
}

// pack returns the bytes to seal and their flag. Documents stay raw when
// compression is off, when they are small or already compressed, when the
// saving is under 10%, or when they exceed maxSize and so could never be
// unpacked.
func (c compression) pack(data []byte) ([]byte, byte) {
	if c.disabled || len(data) < c.threshold || len(data) > c.maxSize || isPrecompressed(data) {
		return data, flagNoCompression
	}

	encoder, _, err := sharedZstd()
	if err != nil {
		return data, flagNoCompression
	}
	packed := encoder.EncodeAll(data, make([]byte, 0, len(data)/2))

	saved := float64(len(data)-len(packed)) / float64(len(data))
	if saved < minCompressionSavings {
		return data, flagNoCompression
	}
	return packed, flagZstd
}

// unpack reverses pack. A frame that declares or produces more than maxSize
// bytes fails with ErrDecompressionFailed before the excess is allocated.
func (c compression) unpack(flag byte, data []byte) ([]byte, error) {
	switch flag {
	case flagNoCompression:
		return data, nil
	case flagZstd:
	default:
		return nil, ErrInvalidFormat
	}

	var h zstd.Header
	if err := h.Decode(data); err != nil {
		return nil, ErrDecompressionFailed
	}
	if h.HasFCS && h.FrameContentSize > uint64(c.maxSize) {
		return nil, ErrDecompressionFailed
	}

	_, decoder, err := sharedZstd()
	if err != nil {
		return nil, err
	}
	doc, err := decoder.DecodeAll(data, nil)
	if err != nil || len(doc) > c.maxSize {
		return nil, ErrDecompressionFailed
	}
	return doc, nil
}
