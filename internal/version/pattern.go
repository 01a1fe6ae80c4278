// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// KindSemVer validates versions as semantic versions. A leading "v" is optional.
	KindSemVer Kind = "SEMVER"
	// KindCalVer validates versions against a calendar version format.
	KindCalVer Kind = "CALVER"
	// KindCustom accepts any non-blank version.
	KindCustom Kind = "CUSTOM"
)

var (
	// ErrInvalidPattern is the sentinel error wrapped by InvalidPatternError.
	ErrInvalidPattern = errors.New("invalid version pattern")
	// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid version")
)

type (
	// Kind is the version scheme of a Pattern.
	Kind string

	// Pattern is a parsed version pattern.
	Pattern struct {
		kind   Kind
		format *calverFormat
	}

	// InvalidPatternError is returned when a version pattern cannot be parsed.
	// It wraps ErrInvalidPattern for errors.Is() compatibility.
	InvalidPatternError struct {
		Value  string
		Reason string
	}

	// InvalidVersionError is returned when a version does not match its pattern.
	// It wraps ErrInvalidVersion for errors.Is() compatibility.
	InvalidVersionError struct {
		Pattern string
		Value   string
		Reason  string
	}
)

// ParsePattern parses a pattern such as "SEMVER", "CUSTOM" or "CALVER:YYYY.MM.MICRO".
// The scheme name is case-insensitive; the blank pattern means SEMVER.
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Pattern{kind: KindSemVer}, nil
	}

	scheme, format, hasFormat := strings.Cut(s, ":")
	switch Kind(strings.ToUpper(strings.TrimSpace(scheme))) {
	case KindSemVer:
		if hasFormat {
			return Pattern{}, &InvalidPatternError{Value: s, Reason: "SEMVER takes no format"}
		}
		return Pattern{kind: KindSemVer}, nil
	case KindCustom:
		return Pattern{kind: KindCustom}, nil
	case KindCalVer:
		if !hasFormat || strings.TrimSpace(format) == "" {
			return Pattern{}, &InvalidPatternError{Value: s, Reason: "CALVER requires a format, e.g. CALVER:YYYY.MM.MICRO"}
		}
		f, err := compileFormat(format)
		if err != nil {
			return Pattern{}, err
		}
		return Pattern{kind: KindCalVer, format: f}, nil
	default:
		return Pattern{}, &InvalidPatternError{Value: s, Reason: "unknown scheme (valid: SEMVER, CALVER:<format>, CUSTOM)"}
	}
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Kind returns the pattern scheme.
func (p Pattern) Kind() Kind {
	if p.kind == "" {
		return KindSemVer
	}
	return p.kind
}

// String renders the pattern in its configuration form.
func (p Pattern) String() string {
	if p.Kind() == KindCalVer {
		return string(KindCalVer) + ":" + p.format.raw
	}
	return string(p.Kind())
}

// Validate checks that v matches the pattern.
func (p Pattern) Validate(v string) error {
	if strings.TrimSpace(v) == "" {
		return &InvalidVersionError{Pattern: p.String(), Value: v, Reason: "version must not be blank"}
	}

	switch p.Kind() {
	case KindSemVer:
		if !semver.IsValid(withV(v)) {
			return &InvalidVersionError{Pattern: p.String(), Value: v, Reason: "not a semantic version"}
		}
	case KindCalVer:
		if _, err := p.format.parse(v); err != nil {
			return err
		}
	case KindCustom:
	}
	return nil
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, equal to or
// after b. CUSTOM versions compare lexically.
func (p Pattern) Compare(a, b string) (int, error) {
	if err := p.Validate(a); err != nil {
		return 0, err
	}
	if err := p.Validate(b); err != nil {
		return 0, err
	}

	switch p.Kind() {
	case KindSemVer:
		return semver.Compare(withV(a), withV(b)), nil
	case KindCalVer:
		ca, _ := p.format.parse(a)
		cb, _ := p.format.parse(b)
		return ca.Compare(cb), nil
	default:
		return strings.Compare(a, b), nil
	}
}

// Error implements the error interface for InvalidPatternError.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid version pattern %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidPattern for errors.Is() compatibility.
func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// Error implements the error interface for InvalidVersionError.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("version %q does not match %s: %s", e.Value, e.Pattern, e.Reason)
}

// Unwrap returns ErrInvalidVersion for errors.Is() compatibility.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

func withV(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
