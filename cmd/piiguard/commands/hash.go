package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/ai8future/piiguard"
)

// RunHash prints the blind index of value under pepper, after applying the
// named normalizer. Operators use it to look up a row by a protected field
// from a SQL console.
func RunHash(pepper, value, normalizer string, w io.Writer) error {
	if value == "" {
		return errors.New("--value is required")
	}

	norm, ok := piiguard.NormalizerByName(normalizer)
	if !ok {
		return fmt.Errorf(
			"invalid normalizer: %s (valid options: none, trim, lower, digits, document, name)",
			normalizer,
		)
	}

	h, err := piiguard.NewHasher(pepper)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, h.HashNormalized(value, norm))
	return nil
}
