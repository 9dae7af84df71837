package naming

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UpperID upper-cases a layer name or file id.
func UpperID(s string) string {
	// a Caser keeps state, so each call gets its own
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}

// Slug lower-cases a tenant slug.
func Slug(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// Fold upper-cases s and drops underscores, hyphens and spaces so that
// CORE_VALUES, core-values and CoreValues compare equal.
func Fold(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, UpperID(s))
}

// StripSeparators drops underscores and hyphens without changing case.
func StripSeparators(s string) string {
	return strings.NewReplacer("_", "", "-", "").Replace(s)
}
