// Package metadata defines the provider capability contract, the provider
// registry, and the merge engine that folds per-provider metadata records
// into one canonical record per game.
package metadata

import (
	"context"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
)

// Provider is a metadata source plugin. Implementations wrap an external
// games database API and translate its records into domain.GameMetadata.
//
// All calls may block on the network; implementations own their timeouts and
// rate limits. Lookup misses are reported as errors.ErrNotFound so callers
// can distinguish "no match" from a failing provider.
type Provider interface {
	// Slug uniquely identifies the provider. The reserved slugs "user"
	// and "gamevault" are rejected at registration.
	Slug() string

	// Priority ranks the provider during merge; higher wins field-by-field.
	Priority() int

	// Search performs a free-text lookup. Result ordering is
	// provider-defined and completeness is not guaranteed.
	Search(ctx context.Context, query string) ([]MinimalGameMetadata, error)

	// GetBestMatch returns the provider's single best candidate for a
	// locally known game, or errors.ErrNotFound if no candidate meets the
	// provider's confidence threshold.
	GetBestMatch(ctx context.Context, game *domain.Game) (*domain.GameMetadata, error)

	// GetByProviderDataID fetches the full record by the provider's native
	// identifier, or errors.ErrNotFound if the id no longer resolves.
	GetByProviderDataID(ctx context.Context, providerDataID string) (*domain.GameMetadata, error)
}

// MinimalGameMetadata is the slim search-result shape returned by
// Provider.Search. It carries just enough to present a candidate and map it.
type MinimalGameMetadata struct {
	ProviderSlug   string `json:"provider_slug"`
	ProviderDataID string `json:"provider_data_id"`
	Title          string `json:"title"`
	ReleaseYear    int    `json:"release_year,omitempty"`
	CoverURL       string `json:"cover_url,omitempty"`
}
