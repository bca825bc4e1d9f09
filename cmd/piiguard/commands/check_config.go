package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ai8future/piiguard/config"
)

// RunCheckConfig validates cfg, builds a Protector from it and prints a
// summary of the enabled features. A disabled feature whose keys are still
// set is reported as decrypt-only. Key material and the pepper are never
// printed.
func RunCheckConfig(cfg *config.Config, logger logrus.FieldLogger, w io.Writer) error {
	p, err := config.Build(cfg, logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Fprintln(w, "# piiguard configuration OK")
	fmt.Fprintf(w, "field_encryption=%t\n", cfg.FieldEncryptionEnabled)
	if cfg.FieldEncryptionEnabled {
		fmt.Fprintf(w, "field_active_key_version=%s\n", cfg.FieldEncryptionActiveKeyVersion)
		var fields []string
		for _, spec := range p.Registry().ProtectedFields() {
			name := spec.Entity + "." + spec.Field
			if spec.Searchable {
				name += "(searchable)"
			}
			fields = append(fields, name)
		}
		fmt.Fprintf(w, "protected_fields=%s\n", strings.Join(fields, ","))
	} else if cfg.FieldEncryptionKeys != "" {
		fmt.Fprintln(w, "field_decrypt_only=true")
	}

	fmt.Fprintf(w, "file_encryption=%t\n", cfg.FileEncryptionEnabled)
	if cfg.FileEncryptionEnabled {
		fmt.Fprintf(w, "file_active_key_version=%s\n", cfg.FileEncryptionActiveKeyVersion)
		fmt.Fprintf(w, "file_algorithm=%s\n", cfg.FileEncryptionAlgorithm)
		fmt.Fprintf(w, "sensitive_document_types=%s\n", strings.Join(p.Registry().SensitiveTypes(), ","))
	} else if cfg.FileEncryptionKeys != "" {
		fmt.Fprintln(w, "file_decrypt_only=true")
	}

	fmt.Fprintf(w, "legacy_plaintext=%s\n", p.PlaintextSwitch().Policy())
	return nil
}
