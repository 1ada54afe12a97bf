package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want ParsedFileName
	}{
		{
			name: "plain title",
			path: "Grand Theft Auto V.zip",
			want: ParsedFileName{Title: "Grand Theft Auto V"},
		},
		{
			name: "title with version",
			path: "Factorio (v1.1.110).zip",
			want: ParsedFileName{Title: "Factorio", Version: "v1.1.110"},
		},
		{
			name: "early access flag",
			path: "Hades II (EA).zip",
			want: ParsedFileName{Title: "Hades II", EarlyAccess: true},
		},
		{
			name: "no catalog flag",
			path: "Some Homebrew Tool (NC).zip",
			want: ParsedFileName{Title: "Some Homebrew Tool", NoCatalog: true},
		},
		{
			name: "release year",
			path: "Doom (1993).zip",
			want: ParsedFileName{Title: "Doom", ReleaseYear: 1993},
		},
		{
			name: "all flags combined",
			path: "games/Grand Theft Auto V (v1.0.2) (EA) (2013).zip",
			want: ParsedFileName{
				Title:       "Grand Theft Auto V",
				Version:     "v1.0.2",
				ReleaseYear: 2013,
				EarlyAccess: true,
			},
		},
		{
			name: "nested directory is ignored",
			path: "/library/shooters/Quake (1996).7z",
			want: ParsedFileName{Title: "Quake", ReleaseYear: 1996},
		},
		{
			name: "unknown parenthesized chunk is stripped from title",
			path: "Portal (GOTY Edition).zip",
			want: ParsedFileName{Title: "Portal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFileName(tt.path))
		})
	}
}

func TestGame_NoCatalog(t *testing.T) {
	g := &Game{FilePath: "Some Tool (NC).zip"}
	assert.True(t, g.NoCatalog())

	g = &Game{FilePath: "Portal.zip"}
	assert.False(t, g.NoCatalog())
}
