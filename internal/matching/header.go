package matching

import (
	"strings"

	"golang.org/x/text/cases"
)

// MatchWildcardValue checks a value against a simple pattern.
// Supports exact values, prefix (value*), suffix (*value) and contains (*value*).
// An empty actual value never matches.
func MatchWildcardValue(pattern, actual string) bool {
	if actual == "" {
		return false
	}

	if !strings.Contains(pattern, "*") {
		return actual == pattern
	}

	hasPrefixStar := strings.HasPrefix(pattern, "*")
	hasSuffixStar := strings.HasSuffix(pattern, "*")

	switch {
	case hasSuffixStar && !hasPrefixStar:
		return strings.HasPrefix(actual, strings.TrimSuffix(pattern, "*"))
	case hasPrefixStar && !hasSuffixStar:
		return strings.HasSuffix(actual, strings.TrimPrefix(pattern, "*"))
	case hasPrefixStar && hasSuffixStar:
		return strings.Contains(actual, strings.Trim(pattern, "*"))
	default:
		return matchWildcard(pattern, actual)
	}
}

// FoldEqual reports whether a and b are equal under Unicode case folding,
// so "STRASSE" and "straße" compare equal where strings.EqualFold does not.
// A cases.Caser is stateful, hence one per call.
func FoldEqual(a, b string) bool {
	if a == b {
		return true
	}
	return cases.Fold().String(a) == cases.Fold().String(b)
}
