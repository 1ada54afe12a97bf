package domain

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Game filenames may carry flags in parentheses, e.g.
// "Grand Theft Auto V (v1.0.2) (EA) (2013).zip":
//
//	(vX...)  version tag
//	(EA)     early access
//	(NC)     no catalog - suppresses automatic metadata refresh
//	(YYYY)   release year
//
// Everything outside the flags is the title.
var (
	versionTagPattern  = regexp.MustCompile(`\(v([^)]+)\)`)
	releaseYearPattern = regexp.MustCompile(`\((18|19|20)\d{2}\)`)
	flagPattern        = regexp.MustCompile(`\([^)]*\)`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// ParsedFileName holds the fields extracted from a game filename.
type ParsedFileName struct {
	Title       string
	Version     string
	ReleaseYear int
	EarlyAccess bool
	NoCatalog   bool
}

// ParseFileName extracts title and flags from a game file path.
func ParseFileName(path string) ParsedFileName {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	var parsed ParsedFileName

	if m := versionTagPattern.FindStringSubmatch(name); m != nil {
		parsed.Version = "v" + m[1]
	}

	if m := releaseYearPattern.FindString(name); m != "" {
		year, err := strconv.Atoi(strings.Trim(m, "()"))
		if err == nil {
			parsed.ReleaseYear = year
		}
	}

	parsed.EarlyAccess = strings.Contains(name, "(EA)")
	parsed.NoCatalog = strings.Contains(name, noCatalogMarker)

	// Title is whatever remains after stripping all parenthesized flags.
	title := flagPattern.ReplaceAllString(name, " ")
	title = whitespacePattern.ReplaceAllString(title, " ")
	parsed.Title = strings.TrimSpace(title)

	return parsed
}
