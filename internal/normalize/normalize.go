// Package normalize provides title normalization used to compare locally
// extracted game titles against provider search results.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any run of non-alphanumeric characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Common edition suffixes that providers include but filenames rarely do.
	editionSuffix = regexp.MustCompile(`\b(goty|game of the year|definitive|deluxe|complete|remastered|enhanced|anniversary|ultimate|gold)( edition)?\b`)
)

// Title folds a game title into a canonical comparison form:
// diacritics are decomposed and stripped, case is folded, roman "edition"
// noise is removed, and everything non-alphanumeric becomes a single space.
// "Brütal Legend" and "brutal legend" fold to the same string.
func Title(s string) string {
	// Decompose accented characters, then drop the combining marks.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) || r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = editionSuffix.ReplaceAllString(s, " ")
	s = nonAlphanumeric.ReplaceAllString(s, " ")

	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

// Equal reports whether two titles fold to the same canonical form.
func Equal(a, b string) bool {
	return Title(a) == Title(b)
}

// Score returns a similarity in [0, 1] between two titles based on token
// overlap of their folded forms. Providers use it as a confidence measure
// when picking a best match.
func Score(a, b string) float64 {
	ta := strings.Fields(Title(a))
	tb := strings.Fields(Title(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(ta))
	for _, tok := range ta {
		set[tok] = true
	}

	common := 0
	for _, tok := range tb {
		if set[tok] {
			common++
			delete(set, tok)
		}
	}

	// Dice coefficient over token sets.
	return 2 * float64(common) / float64(len(ta)+len(tb))
}
