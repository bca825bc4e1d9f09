package piiguard

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// LegacyPolicy controls whether the deprecated plaintext column is still
// written next to the encrypted one. It exists for staged migration only.
type LegacyPolicy int

const (
	// LegacyRetain writes both ciphertext and the plaintext column.
	LegacyRetain LegacyPolicy = iota

	// LegacyEncryptOnly writes NULL to the plaintext column.
	LegacyEncryptOnly
)

// String implements fmt.Stringer.
func (p LegacyPolicy) String() string {
	switch p {
	case LegacyRetain:
		return "retain"
	case LegacyEncryptOnly:
		return "encrypt-only"
	default:
		return fmt.Sprintf("LegacyPolicy(%d)", int(p))
	}
}

// ParseLegacyPolicy accepts "retain" or "encrypt-only".
func ParseLegacyPolicy(s string) (LegacyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "retain":
		return LegacyRetain, nil
	case "encrypt-only", "encrypt_only":
		return LegacyEncryptOnly, nil
	default:
		return 0, fmt.Errorf("%w: unknown legacy plaintext policy %q", ErrConfiguration, s)
	}
}

// LegacyPolicyFromBool maps a retain flag to a policy.
func LegacyPolicyFromBool(retain bool) LegacyPolicy {
	if retain {
		return LegacyRetain
	}
	return LegacyEncryptOnly
}

// PlaintextSwitch holds the current LegacyPolicy. Writers read it on every
// write, so an operator flip takes effect on the next write. Safe for
// concurrent use.
type PlaintextSwitch struct {
	encryptOnly atomic.Bool
}

// NewPlaintextSwitch creates a switch set to p.
func NewPlaintextSwitch(p LegacyPolicy) *PlaintextSwitch {
	s := &PlaintextSwitch{}
	s.Set(p)
	return s
}

// Set changes the policy.
func (s *PlaintextSwitch) Set(p LegacyPolicy) {
	s.encryptOnly.Store(p == LegacyEncryptOnly)
}

// Policy returns the current policy.
func (s *PlaintextSwitch) Policy() LegacyPolicy {
	if s.encryptOnly.Load() {
		return LegacyEncryptOnly
	}
	return LegacyRetain
}

// ShouldRetainLegacyPlaintext reports whether the plaintext column is written.
func (s *PlaintextSwitch) ShouldRetainLegacyPlaintext() bool {
	return !s.encryptOnly.Load()
}
