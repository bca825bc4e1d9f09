package piiguard

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticKeyProvider(t *testing.T) {
	keys := map[string][]byte{
		"v1": testKey("v1"),
		"v2": testKey("v2"),
	}

	provider := NewStaticKeyProvider("v2", keys)

	key, err := provider.GetKey("v1")
	require.NoError(t, err)
	require.True(t, bytes.Equal(testKey("v1"), key))

	_, err = provider.GetKey("nonexistent")
	require.ErrorIs(t, err, ErrUnknownKeyVersion)

	require.Equal(t, "v2", provider.ActiveVersion())
	require.Equal(t, []string{"v1", "v2"}, provider.Versions())
}

func TestStaticKeyProvider_DeepCopy(t *testing.T) {
	original := testKey("v1")
	provider := NewStaticKeyProvider("v1", map[string][]byte{"v1": original})

	zero(original)
	key, err := provider.GetKey("v1")
	require.NoError(t, err)
	require.Equal(t, testKey("v1"), key)
}

func TestNewKeyRingFromProvider(t *testing.T) {
	provider := NewStaticKeyProvider("v2", map[string][]byte{
		"v1": testKey("v1"),
		"v2": testKey("v2"),
	})

	ring, err := NewKeyRingFromProvider(provider)
	require.NoError(t, err)
	require.Equal(t, "v2", ring.Active())
	require.Equal(t, []string{"v1", "v2"}, ring.Versions())

	codec := NewFieldCodec(ring)
	v, err := codec.EncryptField("employee", "inn", "7707083893")
	require.NoError(t, err)
	require.Equal(t, "v2", v.KeyVersion)
}

func TestNewKeyRingFromProvider_NoKeys(t *testing.T) {
	provider := NewStaticKeyProvider("v1", map[string][]byte{})

	_, err := NewKeyRingFromProvider(provider)
	require.ErrorIs(t, err, ErrNoKeys)
}

func TestNewKeyRingFromProvider_ActiveNotFound(t *testing.T) {
	provider := NewStaticKeyProvider("nonexistent", map[string][]byte{"v1": testKey("v1")})

	_, err := NewKeyRingFromProvider(provider)
	require.ErrorIs(t, err, ErrActiveKeyNotFound)
}

func TestNewKeyRingFromProvider_InvalidKeySize(t *testing.T) {
	provider := NewStaticKeyProvider("v1", map[string][]byte{"v1": []byte("short")})

	_, err := NewKeyRingFromProvider(provider)
	require.ErrorIs(t, err, ErrInvalidKeySize)
}

type failingProvider struct{}

func (failingProvider) GetKey(string) ([]byte, error) { return nil, errors.New("vault unavailable") }
func (failingProvider) ActiveVersion() string         { return "v1" }
func (failingProvider) Versions() []string            { return []string{"v1"} }

func TestNewKeyRingFromProvider_FetchError(t *testing.T) {
	_, err := NewKeyRingFromProvider(failingProvider{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "vault unavailable")
	require.Contains(t, err.Error(), `"v1"`)
}

func TestStaticKeyProvider_Close(t *testing.T) {
	provider := NewStaticKeyProvider("v1", map[string][]byte{"v1": testKey("v1")})
	provider.Close()

	_, err := provider.GetKey("v1")
	require.ErrorIs(t, err, ErrUnknownKeyVersion)
	require.Empty(t, provider.Versions())
}
