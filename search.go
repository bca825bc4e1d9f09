package piiguard

import "fmt"

// maxParamNumber is the PostgreSQL maximum parameter number.
const maxParamNumber = 65535

// isValidColumnName checks if a column name is safe for SQL interpolation.
// Must start with letter or underscore, followed by alphanumeric/underscore.
func isValidColumnName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_') {
				return false
			}
		} else {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || r == '_') {
				return false
			}
		}
	}
	return true
}

// SearchCondition holds a SQL WHERE clause fragment and its arguments
// for a blind index equality search.
type SearchCondition struct {
	SQL  string // SQL fragment like "kig_hash = $1"
	Args []any  // the blind index
}

// SearchCondition generates a SQL WHERE fragment matching value against the
// {column}_hash column of entity.field.
//
// paramOffset specifies the starting parameter number ($1, $2, etc.).
// Use this when composing with other WHERE conditions.
//
// Example:
//
//	cond, err := protector.SearchCondition("kig", "employee", "kig", "aa 123-4567", 1)
//	query := fmt.Sprintf("SELECT id FROM employees WHERE %s", cond.SQL)
//	rows, _ := db.Query(query, cond.Args...)
//
// Panics on an unsafe column name or an out-of-range paramOffset; both are
// programming errors.
func (p *Protector) SearchCondition(column, entity, field, value string, paramOffset int) (*SearchCondition, error) {
	if !isValidColumnName(column) {
		panic("piiguard: invalid column name (must start with letter/underscore, contain only alphanumeric/underscore)")
	}
	if paramOffset < 1 || paramOffset > maxParamNumber {
		panic(fmt.Sprintf("piiguard: invalid paramOffset (must be 1-%d)", maxParamNumber))
	}

	hash, err := p.SearchHash(entity, field, value)
	if err != nil {
		return nil, err
	}

	return &SearchCondition{
		SQL:  fmt.Sprintf("%s_hash = $%d", column, paramOffset),
		Args: []any{hash},
	}, nil
}
