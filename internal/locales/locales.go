// Package locales provides BCP 47 locale helpers for job validation
// and display.
package locales

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Normalize parses a BCP 47 tag and returns its canonical string form.
func Normalize(tag string) (string, error) {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return "", fmt.Errorf("parse locale %q: %w", tag, err)
	}
	return parsed.String(), nil
}

// Equal reports whether two tags name the same locale after canonicalization.
// Unparseable tags are compared literally, case-insensitively.
func Equal(a, b string) bool {
	ca, errA := Normalize(a)
	cb, errB := Normalize(b)
	if errA != nil || errB != nil {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return ca == cb
}

// DisplayName returns a human-readable English name for a locale tag,
// like "Spanish (Mexico)" for es-MX. Unparseable tags pass through.
func DisplayName(tag string) string {
	parsed, err := language.Parse(strings.TrimSpace(tag))
	if err != nil {
		return strings.TrimSpace(tag)
	}
	name := display.English.Tags().Name(parsed)
	if name == "" {
		return strings.TrimSpace(tag)
	}
	return name
}
