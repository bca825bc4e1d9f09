package piiguard

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// hrExport is a CSV staff export, the kind of document that shrinks well.
func hrExport(rows int) []byte {
	var b strings.Builder
	b.WriteString("employee_id,last_name,inn,snils,kig,department\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%d,Ivanov,77070838%02d,112-233-445 %02d,AA12345%02d,Logistics\n", i, i%100, i%100, i%100)
	}
	return []byte(b.String())
}

// bitmapScan is an uncompressed BMP page: a header and mostly white rows.
func bitmapScan(size int) []byte {
	scan := bytes.Repeat([]byte{0xFF}, size)
	copy(scan, "BM")
	for i := 1024; i < size; i += 997 {
		scan[i] = 0x00
	}
	return scan
}

// withHeader returns a size-byte document starting with header and filled
// with random bytes, as a real JPEG or PNG body looks to zstd.
func withHeader(t *testing.T, header []byte, size int) []byte {
	t.Helper()
	doc := make([]byte, size)
	_, err := rand.Read(doc)
	require.NoError(t, err)
	copy(doc, header)
	return doc
}

func TestCompression_PackUnpack(t *testing.T) {
	c := defaultCompression()

	tests := []struct {
		name string
		doc  []byte
		flag byte
	}{
		{"empty upload", []byte{}, flagNoCompression},
		{"short note", []byte("passport copy attached"), flagNoCompression},
		{"hr export", hrExport(200), flagZstd},
		{"bitmap scan", bitmapScan(32 * 1024), flagZstd},
		{"jpeg photo", withHeader(t, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 16*1024), flagNoCompression},
		{"png scan", withHeader(t, []byte("\x89PNG\r\n\x1a\n"), 16*1024), flagNoCompression},
		{"unknown binary", withHeader(t, nil, 16*1024), flagNoCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, flag := c.pack(tt.doc)
			require.Equal(t, tt.flag, flag)
			if flag == flagZstd {
				require.Less(t, len(packed), len(tt.doc))
			} else {
				require.True(t, bytes.Equal(tt.doc, packed))
			}

			doc, err := c.unpack(flag, packed)
			require.NoError(t, err)
			require.True(t, bytes.Equal(tt.doc, doc))
		})
	}
}

func TestIsPrecompressed(t *testing.T) {
	tests := []struct {
		name string
		head string
		want bool
	}{
		{"jpeg", "\xFF\xD8\xFF\xE1....Exif", true},
		{"png", "\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR", true},
		{"pdf", "%PDF-1.7\n%\xE2\xE3\xCF\xD3", true},
		{"docx", "PK\x03\x04\x14\x00\x06\x00", true},
		{"gif", "GIF89a\x10\x00\x10\x00", true},
		{"gzip", "\x1F\x8B\x08\x00\x00\x00", true},
		{"zstd", "\x28\xB5\x2F\xFD\x00\x58", true},
		{"tiff little-endian", "II*\x00\x08\x00\x00\x00", true},
		{"tiff big-endian", "MM\x00*\x00\x00\x00\x08", true},
		{"webp", "RIFF\x24\x00\x00\x00WEBPVP8 ", true},
		{"heic", "\x00\x00\x00\x18ftypheic\x00\x00", true},
		{"wav is not webp", "RIFF\x24\x00\x00\x00WAVEfmt ", false},
		{"bmp", "BM\x36\x00\x0c\x00\x00\x00\x00\x00", false},
		{"csv", "employee_id,last_name,inn\n", false},
		{"short", "PK", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, isPrecompressed([]byte(tt.head)))
		})
	}
}

func TestCompression_SkipsPrecompressedFormats(t *testing.T) {
	// Compressible body, but the PDF header marks it as already packed
	doc := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("BT /F1 12 Tf (Ivanov) Tj ET\n"), 500)...)

	packed, flag := defaultCompression().pack(doc)
	require.Equal(t, flagNoCompression, flag)
	require.True(t, bytes.Equal(doc, packed))
}

func TestCompression_Threshold(t *testing.T) {
	c := compression{threshold: 4096, maxSize: defaultMaxDocumentSize}

	_, flag := c.pack(bitmapScan(4096))
	require.Equal(t, flagZstd, flag, "at threshold should compress")

	_, flag = c.pack(bitmapScan(4095))
	require.Equal(t, flagNoCompression, flag, "below threshold should not compress")
}

func TestCompression_Disabled(t *testing.T) {
	c := defaultCompression()
	c.disabled = true
	doc := hrExport(200)

	packed, flag := c.pack(doc)
	require.Equal(t, flagNoCompression, flag)
	require.True(t, bytes.Equal(doc, packed))
}

func TestCompression_InsufficientSavings(t *testing.T) {
	// Mostly random with one blank strip; zstd saves well under 10%
	doc := withHeader(t, []byte("BM"), 20*1024)
	copy(doc[18*1024:], bytes.Repeat([]byte{0xFF}, 1024))

	packed, flag := defaultCompression().pack(doc)
	require.Equal(t, flagNoCompression, flag)
	require.True(t, bytes.Equal(doc, packed))
}

func TestCompression_OversizeDocumentStoredRaw(t *testing.T) {
	c := compression{threshold: defaultCompressionThreshold, maxSize: 8 * 1024}
	doc := bitmapScan(16 * 1024)

	packed, flag := c.pack(doc)
	require.Equal(t, flagNoCompression, flag)

	got, err := c.unpack(flag, packed)
	require.NoError(t, err)
	require.True(t, bytes.Equal(doc, got))
}

func TestCompression_UnpackSizeLimit(t *testing.T) {
	packed, flag := defaultCompression().pack(bitmapScan(64 * 1024))
	require.Equal(t, flagZstd, flag)

	strict := compression{threshold: defaultCompressionThreshold, maxSize: 32 * 1024}
	doc, err := strict.unpack(flag, packed)
	require.ErrorIs(t, err, ErrDecompressionFailed)
	require.Nil(t, doc)
}

func TestCompression_UnpackErrors(t *testing.T) {
	c := defaultCompression()

	tests := []struct {
		name string
		flag byte
		data []byte
		err  error
	}{
		{"garbage frame", flagZstd, []byte("not a zstd frame at all"), ErrDecompressionFailed},
		{"empty frame", flagZstd, []byte{}, ErrDecompressionFailed},
		{"truncated frame", flagZstd, []byte{0x28, 0xB5, 0x2F, 0xFD}, ErrDecompressionFailed},
		{"unknown flag", 0x02, []byte("scan"), ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := c.unpack(tt.flag, tt.data)
			require.ErrorIs(t, err, tt.err)
			require.ErrorIs(t, err, ErrDecryptionFailed)
			require.Nil(t, doc)
		})
	}
}

func TestCompression_Concurrent(t *testing.T) {
	c := defaultCompression()
	export := hrExport(100)
	scan := bitmapScan(16 * 1024)

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for i := 0; i < 64; i++ {
		doc := export
		if i%2 == 0 {
			doc = scan
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			packed, flag := c.pack(doc)
			got, err := c.unpack(flag, packed)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(doc, got) {
				errs <- ErrDecompressionFailed
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent compression error: %v", err)
	}
}
