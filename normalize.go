package piiguard

import "strings"

// Normalizer transforms input strings into a canonical form before computing blind indexes.
// This enables case-insensitive or format-agnostic searches.
//
// IMPORTANT: Use the SAME normalizer on both write and search.
// Mixing normalizers breaks lookups.
type Normalizer func(string) string

// NormalizeNone is an identity normalizer that returns the input unchanged.
// Use for exact-match (case-sensitive) searches.
var NormalizeNone Normalizer = func(s string) string {
	return s
}

// NormalizeTrim normalizes by trimming leading and trailing whitespace only.
// Preserves case.
var NormalizeTrim Normalizer = func(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeLower normalizes to lowercase only (no trim).
var NormalizeLower Normalizer = func(s string) string {
	return strings.ToLower(s)
}

// NormalizeDigits keeps ASCII digits only. Use for INN, SNILS and phone numbers.
//
// Example: "123-456-789 01" -> "12345678901"
var NormalizeDigits Normalizer = func(s string) string {
	var digits strings.Builder
	digits.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// NormalizeDocumentNumber upper-cases and strips spaces, dashes and dots.
// Use for KIG, passport and patent numbers.
//
// Example: " aa 123-4567 " -> "AA1234567"
var NormalizeDocumentNumber Normalizer = func(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToUpper(s) {
		switch r {
		case ' ', '\t', '\u00a0', '-', '.':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeName lowercases, collapses inner whitespace and folds ё to е.
//
// Example: "  Пётр   ИВАНОВ " -> "петр иванов"
var NormalizeName Normalizer = func(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	return strings.ReplaceAll(s, "ё", "е")
}

// normalizers maps the names accepted by configuration and the CLI.
var normalizers = map[string]Normalizer{
	"none":     NormalizeNone,
	"trim":     NormalizeTrim,
	"lower":    NormalizeLower,
	"digits":   NormalizeDigits,
	"document": NormalizeDocumentNumber,
	"name":     NormalizeName,
}

// NormalizerByName looks up a normalizer by its short name.
func NormalizerByName(name string) (Normalizer, bool) {
	n, ok := normalizers[strings.ToLower(strings.TrimSpace(name))]
	return n, ok
}
