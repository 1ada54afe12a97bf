package domain

import "time"

// Reserved provider slugs. No external provider may register either of them.
const (
	// UserSource marks the record holding manual user overrides.
	UserSource = "user"
	// CanonicalSource marks the merged record derived from all sources.
	CanonicalSource = "gamevault"
)

// GameMetadata is one source's view of a game's descriptive data.
//
// A game holds one GameMetadata per provider that has ever been mapped, plus
// at most one user override record and at most one canonical record. Scalar
// fields are pointers so an absent value is distinguishable from a zero
// value: during merge an absent field never overwrites data contributed by a
// lower-priority source.
type GameMetadata struct {
	Entity

	// ProviderSlug identifies the source of this record.
	ProviderSlug string `json:"provider_slug"`
	// ProviderDataID is the source's native identifier for the game,
	// used to re-fetch the record on refresh.
	ProviderDataID string `json:"provider_data_id,omitempty"`
	// ProviderPriority overrides the provider's registered priority for
	// this record only. Nil means "use the registered priority".
	ProviderPriority *int `json:"provider_priority,omitempty"`

	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	ReleaseDate     *time.Time `json:"release_date,omitempty"`
	Rating          *float64   `json:"rating,omitempty"`
	AgeRating       *int       `json:"age_rating,omitempty"`
	AveragePlaytime *int       `json:"average_playtime,omitempty"`
	EarlyAccess     *bool      `json:"early_access,omitempty"`
	CoverURL        *string    `json:"cover_url,omitempty"`
	BackgroundURL   *string    `json:"background_url,omitempty"`

	URLWebsites    []string `json:"url_websites,omitempty"`
	URLScreenshots []string `json:"url_screenshots,omitempty"`
	URLTrailers    []string `json:"url_trailers,omitempty"`

	Genres     []GenreMetadata     `json:"genres,omitempty"`
	Tags       []TagMetadata       `json:"tags,omitempty"`
	Developers []DeveloperMetadata `json:"developers,omitempty"`
	Publishers []PublisherMetadata `json:"publishers,omitempty"`
}

// GenreMetadata is a genre as reported by a single source.
type GenreMetadata struct {
	ID             string `json:"id,omitempty"`
	ProviderSlug   string `json:"provider_slug"`
	ProviderDataID string `json:"provider_data_id,omitempty"`
	Name           string `json:"name"`
}

// TagMetadata is a tag as reported by a single source.
type TagMetadata struct {
	ID             string `json:"id,omitempty"`
	ProviderSlug   string `json:"provider_slug"`
	ProviderDataID string `json:"provider_data_id,omitempty"`
	Name           string `json:"name"`
}

// DeveloperMetadata is a development studio as reported by a single source.
type DeveloperMetadata struct {
	ID             string `json:"id,omitempty"`
	ProviderSlug   string `json:"provider_slug"`
	ProviderDataID string `json:"provider_data_id,omitempty"`
	Name           string `json:"name"`
}

// PublisherMetadata is a publisher as reported by a single source.
type PublisherMetadata struct {
	ID             string `json:"id,omitempty"`
	ProviderSlug   string `json:"provider_slug"`
	ProviderDataID string `json:"provider_data_id,omitempty"`
	Name           string `json:"name"`
}

// EffectiveTimestamp returns the record's UpdatedAt, falling back to
// CreatedAt. It anchors the TTL staleness check.
func (m *GameMetadata) EffectiveTimestamp() time.Time {
	if !m.UpdatedAt.IsZero() {
		return m.UpdatedAt
	}
	return m.CreatedAt
}

// IsEmpty reports whether the record carries no descriptive data at all.
func (m *GameMetadata) IsEmpty() bool {
	return m.Title == nil &&
		m.Description == nil &&
		m.ReleaseDate == nil &&
		m.Rating == nil &&
		m.AgeRating == nil &&
		m.AveragePlaytime == nil &&
		m.EarlyAccess == nil &&
		m.CoverURL == nil &&
		m.BackgroundURL == nil &&
		len(m.URLWebsites) == 0 &&
		len(m.URLScreenshots) == 0 &&
		len(m.URLTrailers) == 0 &&
		len(m.Genres) == 0 &&
		len(m.Tags) == 0 &&
		len(m.Developers) == 0 &&
		len(m.Publishers) == 0
}

// Clone returns a deep copy of the record. Merge operates on clones so the
// per-provider records on a game are never mutated in place.
func (m *GameMetadata) Clone() *GameMetadata {
	if m == nil {
		return nil
	}

	out := *m
	out.ProviderPriority = clonePtr(m.ProviderPriority)
	out.Title = clonePtr(m.Title)
	out.Description = clonePtr(m.Description)
	out.ReleaseDate = clonePtr(m.ReleaseDate)
	out.Rating = clonePtr(m.Rating)
	out.AgeRating = clonePtr(m.AgeRating)
	out.AveragePlaytime = clonePtr(m.AveragePlaytime)
	out.EarlyAccess = clonePtr(m.EarlyAccess)
	out.CoverURL = clonePtr(m.CoverURL)
	out.BackgroundURL = clonePtr(m.BackgroundURL)
	out.URLWebsites = cloneSlice(m.URLWebsites)
	out.URLScreenshots = cloneSlice(m.URLScreenshots)
	out.URLTrailers = cloneSlice(m.URLTrailers)
	out.Genres = cloneSlice(m.Genres)
	out.Tags = cloneSlice(m.Tags)
	out.Developers = cloneSlice(m.Developers)
	out.Publishers = cloneSlice(m.Publishers)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
