package domain

import "strings"

// noCatalogMarker in a file path opts the game out of automatic metadata
// refresh. The marker is set by the user when naming the file.
const noCatalogMarker = "(NC)"

// Game represents a locally stored game file in the library.
type Game struct {
	Entity

	// Title extracted from the filename; providers use it for best-match
	// searches until a mapping exists.
	Title string `json:"title"`
	// Version tag extracted from the filename, e.g. "v1.0.2".
	Version string `json:"version,omitempty"`
	// FilePath is the path of the game file relative to the library root.
	FilePath string `json:"file_path"`
	// Size of the game file in bytes.
	Size int64 `json:"size"`
	// EarlyAccess is set when the filename carries the "(EA)" flag.
	EarlyAccess bool `json:"early_access"`
	// ReleaseYear extracted from the filename, 0 if absent.
	ReleaseYear int `json:"release_year,omitempty"`

	// ProviderMetadata holds one record per provider that has ever been
	// mapped to this game.
	ProviderMetadata []GameMetadata `json:"provider_metadata"`
	// UserMetadata holds manual overrides. Its ProviderSlug is always
	// UserSource.
	UserMetadata *GameMetadata `json:"user_metadata,omitempty"`
	// Metadata is the canonical merged record. Its ProviderSlug is always
	// CanonicalSource. It is recomputed by the merge engine and never
	// hand-edited.
	Metadata *GameMetadata `json:"metadata,omitempty"`
}

// ProviderRecord returns the metadata record for the given provider slug,
// or nil if the provider has never been mapped to this game.
func (g *Game) ProviderRecord(slug string) *GameMetadata {
	for i := range g.ProviderMetadata {
		if g.ProviderMetadata[i].ProviderSlug == slug {
			return &g.ProviderMetadata[i]
		}
	}
	return nil
}

// RemoveProviderRecord drops the metadata record for the given provider slug.
// Returns true if a record was removed.
func (g *Game) RemoveProviderRecord(slug string) bool {
	for i := range g.ProviderMetadata {
		if g.ProviderMetadata[i].ProviderSlug == slug {
			g.ProviderMetadata = append(g.ProviderMetadata[:i], g.ProviderMetadata[i+1:]...)
			return true
		}
	}
	return false
}

// NoCatalog reports whether the game's file path carries the "(NC)" marker,
// a deliberate user opt-out from automatic metadata refresh.
func (g *Game) NoCatalog() bool {
	return strings.Contains(g.FilePath, noCatalogMarker)
}

// EffectiveTitle returns the canonical title when one exists, otherwise the
// filename-derived title. User overrides are already folded into the
// canonical record by the merge engine.
func (g *Game) EffectiveTitle() string {
	if g.Metadata != nil && g.Metadata.Title != nil && *g.Metadata.Title != "" {
		return *g.Metadata.Title
	}
	return g.Title
}
