// Package matching resolves free-form company names against a set of known keys.
package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// corporateSuffixes are trailing tokens dropped during normalization
var corporateSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"corp":         true,
	"corporation":  true,
	"ltd":          true,
	"limited":      true,
	"llc":          true,
	"co":           true,
	"company":      true,
}

// Normalize lowercases a name, collapses non-alphanumeric runs to single spaces,
// and strips trailing corporate suffixes while more than one token remains.
func Normalize(name string) string {
	var sb strings.Builder
	pendingSpace := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			pendingSpace = false
			sb.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	tokens := strings.Fields(sb.String())
	for len(tokens) > 1 && corporateSuffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return strings.Join(tokens, " ")
}

// Length returns the rune length of a normalized name
func Length(normalized string) int {
	return utf8.RuneCountInString(normalized)
}

// Similarity returns the indel ratio of two strings: 2*LCS / (len(a)+len(b)).
// Identical strings score 1, disjoint strings score 0.
func Similarity(a, b string) float64 {
	total := Length(a) + Length(b)
	if total == 0 {
		return 1
	}
	return float64(2*edlib.LCS(a, b)) / float64(total)
}

// NameSimilarity normalizes both names before scoring them
func NameSimilarity(a, b string) float64 {
	return Similarity(Normalize(a), Normalize(b))
}
