package piiguard

import (
	"sort"
	"strings"
)

// DefaultSensitiveTypes are the document types encrypted when no override
// list is configured.
var DefaultSensitiveTypes = []string{
	"passport",
	"passport_translation",
	"patent",
	"kig",
	"migration_card",
	"visa",
	"residence_permit",
	"snils",
	"inn",
}

// FieldSpec describes one protected attribute of an entity.
type FieldSpec struct {
	Entity string
	Field  string

	// Searchable fields also get a blind index for equality lookup.
	Searchable bool

	// Normalizer canonicalizes the value before hashing. Nil means NormalizeNone.
	Normalizer Normalizer
}

// Employee attribute names as used in entity AAD and column naming.
const (
	EntityEmployee = "employee"

	FieldLastName = "lastName"
	FieldINN      = "inn"
	FieldSNILS    = "snils"
	FieldKIG      = "kig"
)

// DefaultEmployeeFields returns the protected employee attributes.
func DefaultEmployeeFields() []FieldSpec {
	return []FieldSpec{
		{Entity: EntityEmployee, Field: FieldLastName, Searchable: true, Normalizer: NormalizeName},
		{Entity: EntityEmployee, Field: FieldINN, Searchable: true, Normalizer: NormalizeDigits},
		{Entity: EntityEmployee, Field: FieldSNILS, Searchable: true, Normalizer: NormalizeDigits},
		{Entity: EntityEmployee, Field: FieldKIG, Searchable: true, Normalizer: NormalizeDocumentNumber},
	}
}

// Registry decides which document types and which entity fields must be
// protected. It is read-only after construction.
type Registry struct {
	fileEncryption bool
	types          map[string]struct{}
	fields         map[string]FieldSpec
}

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*Registry)

// WithFileEncryption sets the file-encryption feature flag. Default is off.
func WithFileEncryption(enabled bool) RegistryOption {
	return func(r *Registry) {
		r.fileEncryption = enabled
	}
}

// WithSensitiveTypes replaces the default sensitive document types.
// An empty list keeps the defaults.
func WithSensitiveTypes(types ...string) RegistryOption {
	return func(r *Registry) {
		set := make(map[string]struct{}, len(types))
		for _, t := range types {
			if t = canonicalType(t); t != "" {
				set[t] = struct{}{}
			}
		}
		if len(set) > 0 {
			r.types = set
		}
	}
}

// WithProtectedField registers fields that must be encrypted.
func WithProtectedField(specs ...FieldSpec) RegistryOption {
	return func(r *Registry) {
		for _, spec := range specs {
			if spec.Normalizer == nil {
				spec.Normalizer = NormalizeNone
			}
			r.fields[fieldKey(spec.Entity, spec.Field)] = spec
		}
	}
}

// NewRegistry creates a Registry. Without WithProtectedField the employee
// defaults are used; without WithSensitiveTypes the built-in document list.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		fields: make(map[string]FieldSpec),
	}
	r.types = make(map[string]struct{}, len(DefaultSensitiveTypes))
	for _, t := range DefaultSensitiveTypes {
		r.types[t] = struct{}{}
	}

	for _, opt := range opts {
		opt(r)
	}

	if len(r.fields) == 0 {
		WithProtectedField(DefaultEmployeeFields()...)(r)
	}
	return r
}

// ParseDocumentTypes splits a comma-separated override list.
func ParseDocumentTypes(csv string) []string {
	var types []string
	for _, part := range strings.Split(csv, ",") {
		if t := canonicalType(part); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// IsSensitive reports whether documentType is on the sensitive list.
// Matching is case-insensitive.
func (r *Registry) IsSensitive(documentType string) bool {
	_, ok := r.types[canonicalType(documentType)]
	return ok
}

// ShouldEncrypt reports whether an upload of documentType must go through
// the FileCodec: the feature flag is on and the type is sensitive. Consult it
// before storage.
func (r *Registry) ShouldEncrypt(documentType string) bool {
	return r.fileEncryption && r.IsSensitive(documentType)
}

// FileEncryptionEnabled reports the file-encryption feature flag.
func (r *Registry) FileEncryptionEnabled() bool {
	return r.fileEncryption
}

// SensitiveTypes returns the configured document types, sorted.
func (r *Registry) SensitiveTypes() []string {
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// FieldSpec returns the protection settings for entity.field.
func (r *Registry) FieldSpec(entity, field string) (FieldSpec, bool) {
	spec, ok := r.fields[fieldKey(entity, field)]
	return spec, ok
}

// IsProtectedField reports whether entity.field must be encrypted.
func (r *Registry) IsProtectedField(entity, field string) bool {
	_, ok := r.fields[fieldKey(entity, field)]
	return ok
}

// ProtectedFields returns every registered field spec ordered by entity and field.
func (r *Registry) ProtectedFields() []FieldSpec {
	out := make([]FieldSpec, 0, len(r.fields))
	for _, key := range sortedMapKeys(r.fields) {
		out = append(out, r.fields[key])
	}
	return out
}

func fieldKey(entity, field string) string {
	return entity + aadSeparator + field
}
