// Package normalize canonicalizes free-text labels and values for matching
// and comparison. Every function here is idempotent.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Text collapses every run of whitespace (including non-breaking spaces and
// newlines) to one space and trims the ends. Case and punctuation are kept.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

// Label canonicalizes a label for lookup: compatibility-folded, case-folded,
// every punctuation or symbol rune replaced by a space, whitespace collapsed.
func Label(s string) string {
	s = fold(s)
	if s == "" {
		return ""
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
	return Text(s)
}

// Value canonicalizes a value for comparison: compatibility-folded,
// case-folded, whitespace collapsed. Punctuation is significant in values.
func Value(s string) string {
	return Text(fold(s))
}

// TrimTrailingPunct removes trailing colons, dashes, asterisks and similar
// delimiters that label cells often carry ("District :", "Name*").
func TrimTrailingPunct(s string) string {
	return strings.TrimRightFunc(strings.TrimSpace(s), func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != ')' && r != ']')
	})
}

// Slug turns a label into an identifier-safe key: the normalized label with
// spaces replaced by underscores.
func Slug(s string) string {
	return strings.ReplaceAll(Label(s), " ", "_")
}

// ContainsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must already be normalized with Label.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" || text == "" {
		return false
	}
	if text == phrase {
		return true
	}
	return strings.HasPrefix(text, phrase+" ") ||
		strings.HasSuffix(text, " "+phrase) ||
		strings.Contains(text, " "+phrase+" ")
}

// fold applies compatibility decomposition, drops combining marks,
// recomposes and case-folds, so "Pañchāyat" and "PANCHAYAT" compare equal and
// full-width or non-breaking characters collapse to their plain forms.
// Transformers and casers are stateful, so each call builds its own.
func fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFKC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}
