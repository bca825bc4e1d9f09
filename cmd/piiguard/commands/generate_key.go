package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	"github.com/ai8future/piiguard"
)

// RunGenerateKey generates a random 32-byte key and prints it in the key ring
// format. If version is empty, a default label "vYYYYMMDD" is used. Key
// material is zeroed after encoding.
func RunGenerateKey(version string, w io.Writer) error {
	if version == "" {
		version = fmt.Sprintf("v%s", time.Now().Format("20060102"))
	}

	key := make([]byte, piiguard.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	for i := range key {
		key[i] = 0
	}

	fmt.Fprintln(w, "# Add this entry to FIELD_ENCRYPTION_KEYS or FILE_ENCRYPTION_KEYS.")
	fmt.Fprintln(w, "# Keep every previous version in the map until all rows are rotated.")
	fmt.Fprintf(w, "{\"%s\":\"%s\"}\n", version, encoded)
	fmt.Fprintf(w, "# To make it active: FIELD_ENCRYPTION_ACTIVE_KEY_VERSION=%q\n", version)
	return nil
}
