package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var foldCaser = cases.Fold()

// NormalizeName canonicalizes a company name for comparison: NFKC
// normalization, case folding, and whitespace collapsed to single spaces.
func NormalizeName(value string) string {
	normalized := norm.NFKC.String(value)
	folded := foldCaser.String(normalized)
	return strings.Join(strings.Fields(folded), " ")
}

// EscapeLike neutralizes SQL LIKE wildcards and the escape character in a
// user-supplied query fragment. The caller must pair the result with
// ESCAPE '\' in the statement.
func EscapeLike(value string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return replacer.Replace(value)
}

// Truncate limits a string to at most limit runes without splitting a rune.
func Truncate(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

// Preview shortens a string to limit runes, appending an ellipsis when
// content was dropped. Used for notification and log previews.
func Preview(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
