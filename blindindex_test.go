package piiguard

import (
	"bytes"
	"encoding/base64"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPepper = "test-pepper"

func testHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(testPepper)
	require.NoError(t, err)
	return h
}

func TestNewHasher_MissingPepper(t *testing.T) {
	h, err := NewHasher("")
	require.Nil(t, h)
	require.ErrorIs(t, err, ErrMissingPepper)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestBlindIndex_KnownValues(t *testing.T) {
	// HMAC-SHA256 under "test-pepper", standard base64
	tests := []struct {
		raw  string
		want string
	}{
		{"AA1234567", "4gWdLyUP69ZJUiVH7Cuq2fZyCVHkEAOANavaK1Yggjk="},
		{"7707083893", "dN66gFa90g/PzYZSeePkn3k/h8rmUTyhVQQHaYxUtiw="},
		{"", "4Lo6uAAt9jsnWyEnCjjf4Jzki68E+hXgJOurhU+BCKk="},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := BlindIndex(tt.raw, testPepper)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBlindIndex_MissingPepper(t *testing.T) {
	_, err := BlindIndex("AA1234567", "")
	require.ErrorIs(t, err, ErrMissingPepper)
}

func TestBlindIndex_Deterministic(t *testing.T) {
	h := testHasher(t)
	require.Equal(t, h.Hash("AA1234567"), h.Hash("AA1234567"), "same input should produce same index")
}

func TestBlindIndex_DifferentInputs(t *testing.T) {
	h := testHasher(t)
	require.NotEqual(t, h.Hash("AA1234567"), h.Hash("AA1234568"))
}

func TestBlindIndex_DifferentPeppers(t *testing.T) {
	h1 := testHasher(t)
	h2, err := NewHasher("another-pepper")
	require.NoError(t, err)

	require.NotEqual(t, h1.Hash("AA1234567"), h2.Hash("AA1234567"),
		"same input under different peppers should produce different indexes")
}

func TestBlindIndex_OutputSize(t *testing.T) {
	h := testHasher(t)

	for _, v := range []string{"", "short", strings.Repeat("x", 10000)} {
		raw, err := base64.StdEncoding.DecodeString(h.Hash(v))
		require.NoError(t, err)
		require.Len(t, raw, 32, "blind index should always be 32 bytes (SHA256)")
	}
}

func TestBlindIndex_CaseSensitive(t *testing.T) {
	h := testHasher(t)

	// Without normalization, different cases produce different indexes
	require.NotEqual(t, h.Hash("aa1234567"), h.Hash("AA1234567"))
}

func TestHashNormalized(t *testing.T) {
	h := testHasher(t)

	want := h.Hash("AA1234567")
	for _, in := range []string{"AA1234567", "aa1234567", " AA 123-4567 ", "aa.123.45.67"} {
		require.Equal(t, want, h.HashNormalized(in, NormalizeDocumentNumber), in)
	}
}

func TestHashBytes_NullPreservation(t *testing.T) {
	h := testHasher(t)

	require.Nil(t, h.HashBytes(nil))

	idx := h.HashBytes([]byte{})
	require.NotNil(t, idx)
	require.Len(t, idx, 32)
}

func TestHashBytes_MatchesHash(t *testing.T) {
	h := testHasher(t)

	raw, err := base64.StdEncoding.DecodeString(h.Hash("7707083893"))
	require.NoError(t, err)
	require.True(t, bytes.Equal(raw, h.HashBytes([]byte("7707083893"))))
}

func TestHasher_Equal(t *testing.T) {
	h := testHasher(t)
	stored := h.Hash("7707083893")

	require.True(t, h.Equal(stored, "7707083893"))
	require.False(t, h.Equal(stored, "7707083894"))
	require.False(t, h.Equal("", "7707083893"))
}

func TestBlindIndex_IndependentOfEncryption(t *testing.T) {
	// The pepper is not an encryption key: the index never appears in the ciphertext
	h := testHasher(t)
	codec := NewFieldCodec(testRing(t, "v1", "v1"))

	v, err := codec.EncryptField(EntityEmployee, FieldKIG, "AA1234567")
	require.NoError(t, err)
	require.NotContains(t, v.Ciphertext, h.Hash("AA1234567"))
}

func TestBlindIndex_Concurrent(t *testing.T) {
	h := testHasher(t)
	want := h.Hash("AA1234567")

	var wg sync.WaitGroup
	errs := make(chan string, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := h.Hash("AA1234567"); got != want {
				errs <- got
			}
		}()
	}

	wg.Wait()
	close(errs)

	for got := range errs {
		t.Fatalf("concurrent hash mismatch: %s", got)
	}
}
