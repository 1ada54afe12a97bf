package metadata

import (
	"sort"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
)

// Merge folds a game's per-provider metadata records plus its user override
// into one canonical record.
//
// Provider records are applied in ascending effective-priority order, so the
// highest-priority provider is applied last and wins field-by-field; a
// low-priority provider still contributes any field the higher-priority ones
// left empty. The user record, if present, is applied after all providers
// and therefore always wins.
//
// The returned record carries the canonical identity: ProviderSlug
// "gamevault", ProviderDataID set to the game's own id, no priority
// override, and the previous canonical record's entity ID so persistence
// updates in place. List-valued sub-entities are re-stamped with fresh
// identity and a name-derived ProviderDataID fallback.
//
// Merge never mutates the game's records; it works on clones. It returns
// (nil, nil) when there is nothing to merge, so callers can skip the write
// instead of persisting an empty canonical record.
func Merge(game *domain.Game, registry *Registry) (*domain.GameMetadata, error) {
	if len(game.ProviderMetadata) == 0 && game.UserMetadata == nil {
		return nil, nil
	}

	// Resolve effective priorities up front so a record referencing an
	// unregistered provider fails the whole merge rather than producing a
	// partially prioritized result.
	type prioritized struct {
		record   *domain.GameMetadata
		priority int
	}
	records := make([]prioritized, 0, len(game.ProviderMetadata))
	for i := range game.ProviderMetadata {
		record := &game.ProviderMetadata[i]
		priority, err := registry.EffectivePriority(record)
		if err != nil {
			return nil, err
		}
		records = append(records, prioritized{record: record, priority: priority})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].priority < records[j].priority
	})

	merged := &domain.GameMetadata{}
	for _, pr := range records {
		overlay(merged, pr.record.Clone())
	}
	if game.UserMetadata != nil {
		overlay(merged, game.UserMetadata.Clone())
	}

	if merged.IsEmpty() {
		return nil, nil
	}

	// Force canonical identity; reuse the prior canonical entity ID so the
	// record is updated in place rather than replaced.
	if game.Metadata != nil {
		merged.Entity = game.Metadata.Entity
	}
	merged.ProviderSlug = domain.CanonicalSource
	merged.ProviderDataID = game.ID
	merged.ProviderPriority = nil

	canonicalizeRelations(merged)

	return merged, nil
}

// overlay copies every non-empty field of src onto dst. The field list is
// enumerated explicitly: an absent scalar (nil pointer) or an empty list
// never overwrites a value a lower-priority source already contributed.
func overlay(dst, src *domain.GameMetadata) {
	if src.Title != nil {
		dst.Title = src.Title
	}
	if src.Description != nil {
		dst.Description = src.Description
	}
	if src.ReleaseDate != nil {
		dst.ReleaseDate = src.ReleaseDate
	}
	if src.Rating != nil {
		dst.Rating = src.Rating
	}
	if src.AgeRating != nil {
		dst.AgeRating = src.AgeRating
	}
	if src.AveragePlaytime != nil {
		dst.AveragePlaytime = src.AveragePlaytime
	}
	if src.EarlyAccess != nil {
		dst.EarlyAccess = src.EarlyAccess
	}
	if src.CoverURL != nil {
		dst.CoverURL = src.CoverURL
	}
	if src.BackgroundURL != nil {
		dst.BackgroundURL = src.BackgroundURL
	}
	if len(src.URLWebsites) > 0 {
		dst.URLWebsites = src.URLWebsites
	}
	if len(src.URLScreenshots) > 0 {
		dst.URLScreenshots = src.URLScreenshots
	}
	if len(src.URLTrailers) > 0 {
		dst.URLTrailers = src.URLTrailers
	}
	if len(src.Genres) > 0 {
		dst.Genres = src.Genres
	}
	if len(src.Tags) > 0 {
		dst.Tags = src.Tags
	}
	if len(src.Developers) > 0 {
		dst.Developers = src.Developers
	}
	if len(src.Publishers) > 0 {
		dst.Publishers = src.Publishers
	}
}

// canonicalizeRelations re-stamps every list-valued sub-entity carried into
// the canonical record: identity is reset so persistence assigns a fresh id,
// the source becomes "gamevault", and ProviderDataID falls back to the name
// so canonicalized sub-entities keep a stable, provider-independent
// identifier.
func canonicalizeRelations(m *domain.GameMetadata) {
	for i := range m.Genres {
		m.Genres[i].ID = ""
		m.Genres[i].ProviderSlug = domain.CanonicalSource
		if m.Genres[i].ProviderDataID == "" {
			m.Genres[i].ProviderDataID = m.Genres[i].Name
		}
	}
	for i := range m.Tags {
		m.Tags[i].ID = ""
		m.Tags[i].ProviderSlug = domain.CanonicalSource
		if m.Tags[i].ProviderDataID == "" {
			m.Tags[i].ProviderDataID = m.Tags[i].Name
		}
	}
	for i := range m.Developers {
		m.Developers[i].ID = ""
		m.Developers[i].ProviderSlug = domain.CanonicalSource
		if m.Developers[i].ProviderDataID == "" {
			m.Developers[i].ProviderDataID = m.Developers[i].Name
		}
	}
	for i := range m.Publishers {
		m.Publishers[i].ID = ""
		m.Publishers[i].ProviderSlug = domain.CanonicalSource
		if m.Publishers[i].ProviderDataID == "" {
			m.Publishers[i].ProviderDataID = m.Publishers[i].Name
		}
	}
}
