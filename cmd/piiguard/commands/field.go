package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/ai8future/piiguard"
)

// Searcher builds blind-index lookups. *piiguard.Protector implements it.
type Searcher interface {
	SearchCondition(column, entity, field, value string, paramOffset int) (*piiguard.SearchCondition, error)
}

// RunProtectField seals value for entity.field and prints the resulting
// column values, one per line. NULL columns print as NULL.
func RunProtectField(svc piiguard.Service, entity, field, value string, w io.Writer) error {
	if entity == "" || field == "" {
		return errors.New("--entity and --field are required")
	}

	sealed, err := svc.ProtectField(entity, field, &value)
	if err != nil {
		return fmt.Errorf("failed to protect field: %w", err)
	}

	printColumn(w, field+"_enc", sealed.Ciphertext)
	printColumn(w, field+"_key_version", sealed.KeyVersion)
	printColumn(w, field+"_hash", sealed.Hash)
	printColumn(w, field, sealed.LegacyPlaintext)
	return nil
}

// RunSearch prints the WHERE fragment and bind argument that find rows whose
// entity.field equals value. An unsafe column name is reported as an error.
func RunSearch(s Searcher, column, entity, field, value string, w io.Writer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to build search condition: %v", r)
		}
	}()

	if column == "" {
		column = field
	}

	cond, err := s.SearchCondition(column, entity, field, value, 1)
	if err != nil {
		return fmt.Errorf("failed to build search condition: %w", err)
	}

	fmt.Fprintln(w, cond.SQL)
	for _, arg := range cond.Args {
		fmt.Fprintf(w, "-- $1 = %v\n", arg)
	}
	return nil
}

func printColumn(w io.Writer, name string, v *string) {
	if v == nil {
		fmt.Fprintf(w, "%s=NULL\n", name)
		return
	}
	fmt.Fprintf(w, "%s=%s\n", name, *v)
}
