package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/ai8future/piiguard"
)

func TestRunEncryptDecryptFile(t *testing.T) {
	p, logger, hook := testProtector(t, testConfig())
	logger.SetLevel(logrus.DebugLevel)
	doc := []byte("fake-binary-content-123")

	var sealed bytes.Buffer
	err := RunEncryptFile(p, logger, IOTuple{Reader: bytes.NewReader(doc), Writer: &sealed}, "passport")
	require.NoError(t, err)

	var payload piiguard.EncryptedFilePayload
	require.NoError(t, json.Unmarshal(sealed.Bytes(), &payload))
	require.True(t, payload.IsEncrypted)
	require.Equal(t, "f1", payload.KeyVersion)
	require.NotContains(t, sealed.String(), string(doc))

	var opened bytes.Buffer
	err = RunDecryptFile(p, logger, IOTuple{Reader: &sealed, Writer: &opened}, "passport")
	require.NoError(t, err)
	require.Equal(t, doc, opened.Bytes())

	for _, entry := range hook.AllEntries() {
		line, err := entry.String()
		require.NoError(t, err)
		require.NotContains(t, line, string(doc))
	}
}

func TestRunEncryptFile_NotSensitive(t *testing.T) {
	p, logger, _ := testProtector(t, testConfig())

	var out bytes.Buffer
	err := RunEncryptFile(p, logger, IOTuple{Reader: strings.NewReader("photo"), Writer: &out}, "profile_photo")
	require.NoError(t, err)

	var payload piiguard.EncryptedFilePayload
	require.NoError(t, json.Unmarshal(out.Bytes(), &payload))
	require.False(t, payload.IsEncrypted)
	require.Equal(t, []byte("photo"), payload.Ciphertext)
}

func TestRunDecryptFile_Errors(t *testing.T) {
	p, logger, _ := testProtector(t, testConfig())

	var sealed bytes.Buffer
	require.NoError(t, RunEncryptFile(p, logger, IOTuple{Reader: strings.NewReader("scan"), Writer: &sealed}, "visa"))

	t.Run("wrong-type", func(t *testing.T) {
		var out bytes.Buffer
		err := RunDecryptFile(p, logger, IOTuple{Reader: bytes.NewReader(sealed.Bytes()), Writer: &out}, "passport")
		require.ErrorIs(t, err, piiguard.ErrAuthenticationFailed)
		require.Empty(t, out.Bytes())
	})

	t.Run("invalid-json", func(t *testing.T) {
		err := RunDecryptFile(p, logger, IOTuple{Reader: strings.NewReader("{"), Writer: &bytes.Buffer{}}, "visa")
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to parse payload")
	})
}

func TestRunDecryptFile_FailureKeepsExistingOutput(t *testing.T) {
	p, logger, _ := testProtector(t, testConfig())
	dir := t.TempDir()

	var sealed bytes.Buffer
	require.NoError(t, RunEncryptFile(p, logger, IOTuple{Reader: strings.NewReader("scan"), Writer: &sealed}, "visa"))

	existing := filepath.Join(dir, "visa.bin")
	require.NoError(t, os.WriteFile(existing, []byte("earlier download"), 0o600))
	fresh := filepath.Join(dir, "fresh.bin")

	for _, name := range []string{existing, fresh} {
		out, err := NewOutput(name)
		require.NoError(t, err)

		err = RunDecryptFile(p, logger, IOTuple{Reader: bytes.NewReader(sealed.Bytes()), Writer: out}, "passport")
		require.ErrorIs(t, err, piiguard.ErrAuthenticationFailed)
	}

	kept, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "earlier download", string(kept))
	_, err = os.Stat(fresh)
	require.True(t, os.IsNotExist(err))
}
