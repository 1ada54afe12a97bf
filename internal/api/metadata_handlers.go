package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/metadata"
	"github.com/gamevaultapp/gamevault-server/internal/store"
)

func (s *Server) registerMetadataRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listProviders",
		Method:      http.MethodGet,
		Path:        "/api/v1/metadata/providers",
		Summary:     "List providers",
		Description: "Lists the registered metadata providers and their priorities",
		Tags:        []string{"Metadata"},
	}, s.handleListProviders)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchMetadata",
		Method:      http.MethodGet,
		Path:        "/api/v1/metadata/search",
		Summary:     "Search provider catalog",
		Description: "Performs a free-text search against a single provider's catalog",
		Tags:        []string{"Metadata"},
	}, s.handleSearchMetadata)

	huma.Register(s.api, huma.Operation{
		OperationID: "syncMetadata",
		Method:      http.MethodPost,
		Path:        "/api/v1/metadata/sync",
		Summary:     "Run metadata sync",
		Description: "Runs a metadata sync pass over every game in the library",
		Tags:        []string{"Metadata"},
	}, s.handleSyncMetadata)

	huma.Register(s.api, huma.Operation{
		OperationID: "mapGameMetadata",
		Method:      http.MethodPut,
		Path:        "/api/v1/games/{id}/metadata/map",
		Summary:     "Map game to provider entry",
		Description: "Maps a game to a specific provider catalog entry and re-merges",
		Tags:        []string{"Metadata"},
	}, s.handleMapGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "unmapGameMetadata",
		Method:      http.MethodDelete,
		Path:        "/api/v1/games/{id}/metadata/{slug}",
		Summary:     "Unmap game from provider",
		Description: "Removes a provider's metadata record (or the user override for slug \"user\") and re-merges",
		Tags:        []string{"Metadata"},
	}, s.handleUnmapGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "setUserMetadata",
		Method:      http.MethodPut,
		Path:        "/api/v1/games/{id}/metadata/user",
		Summary:     "Set user overrides",
		Description: "Replaces the game's manual override record and re-merges",
		Tags:        []string{"Metadata"},
	}, s.handleSetUserMetadata)

	huma.Register(s.api, huma.Operation{
		OperationID: "mergeGameMetadata",
		Method:      http.MethodPost,
		Path:        "/api/v1/games/{id}/metadata/merge",
		Summary:     "Recompute merged metadata",
		Description: "Recomputes the canonical metadata record from the stored sources",
		Tags:        []string{"Metadata"},
	}, s.handleMergeGame)
}

// === DTOs ===

type ProviderResponse struct {
	Slug     string `json:"slug" doc:"Provider slug"`
	Priority int    `json:"priority" doc:"Registered merge priority, higher wins"`
}

type ListProvidersResponse struct {
	Providers []ProviderResponse `json:"providers" doc:"Registered providers, highest priority first"`
}

type ListProvidersOutput struct {
	Body ListProvidersResponse
}

type SearchMetadataInput struct {
	Provider string `query:"provider" validate:"required" doc:"Provider slug to search"`
	Query    string `query:"q" validate:"required,min=1" doc:"Search query"`
}

type MetadataSearchResultResponse struct {
	ProviderSlug   string `json:"provider_slug" doc:"Provider slug"`
	ProviderDataID string `json:"provider_data_id" doc:"Provider's native game identifier"`
	Title          string `json:"title" doc:"Game title"`
	ReleaseYear    int    `json:"release_year,omitempty" doc:"Release year"`
	CoverURL       string `json:"cover_url,omitempty" doc:"Cover image URL"`
}

type SearchMetadataResponse struct {
	Results []MetadataSearchResultResponse `json:"results" doc:"Search results in provider order"`
}

type SearchMetadataOutput struct {
	Body SearchMetadataResponse
}

type SyncMetadataResponse struct {
	Checked int `json:"checked" doc:"Games considered"`
	Updated int `json:"updated" doc:"Games whose metadata changed"`
}

type SyncMetadataOutput struct {
	Body SyncMetadataResponse
}

type MapGameInput struct {
	ID   string `path:"id" doc:"Game ID"`
	Body MapGameRequest
}

type MapGameRequest struct {
	ProviderSlug   string `json:"provider_slug" validate:"required" doc:"Provider slug"`
	ProviderDataID string `json:"provider_data_id" validate:"required" doc:"Provider's native game identifier"`
	Priority       *int   `json:"priority,omitempty" doc:"Per-record priority override"`
}

type UnmapGameInput struct {
	ID   string `path:"id" doc:"Game ID"`
	Slug string `path:"slug" doc:"Provider slug, or \"user\" for the override record"`
}

type SetUserMetadataInput struct {
	ID   string `path:"id" doc:"Game ID"`
	Body UserMetadataRequest
}

// UserMetadataRequest carries manual override fields. Absent fields leave
// the merged value from the providers untouched.
type UserMetadataRequest struct {
	Title           *string    `json:"title,omitempty" doc:"Game title"`
	Description     *string    `json:"description,omitempty" doc:"Description, markdown"`
	ReleaseDate     *time.Time `json:"release_date,omitempty" doc:"Release date"`
	Rating          *float64   `json:"rating,omitempty" validate:"omitempty,gte=0,lte=100" doc:"Rating on a 0-100 scale"`
	AgeRating       *int       `json:"age_rating,omitempty" validate:"omitempty,gte=0" doc:"Minimum age"`
	AveragePlaytime *int       `json:"average_playtime,omitempty" validate:"omitempty,gte=0" doc:"Average playtime in minutes"`
	EarlyAccess     *bool      `json:"early_access,omitempty" doc:"Early access flag"`
	CoverURL        *string    `json:"cover_url,omitempty" validate:"omitempty,url" doc:"Cover image URL"`
	BackgroundURL   *string    `json:"background_url,omitempty" validate:"omitempty,url" doc:"Background image URL"`
	URLWebsites     []string   `json:"url_websites,omitempty" doc:"Official website URLs"`
	URLScreenshots  []string   `json:"url_screenshots,omitempty" doc:"Screenshot URLs"`
	URLTrailers     []string   `json:"url_trailers,omitempty" doc:"Trailer URLs"`
	Genres          []string   `json:"genres,omitempty" doc:"Genre names"`
	Tags            []string   `json:"tags,omitempty" doc:"Tag names"`
	Developers      []string   `json:"developers,omitempty" doc:"Developer names"`
	Publishers      []string   `json:"publishers,omitempty" doc:"Publisher names"`
}

type MergeGameInput struct {
	ID string `path:"id" doc:"Game ID"`
}

// === Handlers ===

func (s *Server) handleListProviders(_ context.Context, _ *struct{}) (*ListProvidersOutput, error) {
	providers := s.metadata.Providers()

	resp := make([]ProviderResponse, 0, len(providers))
	for _, p := range providers {
		resp = append(resp, ProviderResponse{
			Slug:     p.Slug(),
			Priority: p.Priority(),
		})
	}

	return &ListProvidersOutput{Body: ListProvidersResponse{Providers: resp}}, nil
}

func (s *Server) handleSearchMetadata(ctx context.Context, input *SearchMetadataInput) (*SearchMetadataOutput, error) {
	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	results, err := s.metadata.Search(ctx, input.Provider, input.Query)
	if err != nil {
		return nil, err
	}

	resp := make([]MetadataSearchResultResponse, len(results))
	for i, r := range results {
		resp[i] = mapSearchResult(r)
	}

	return &SearchMetadataOutput{Body: SearchMetadataResponse{Results: resp}}, nil
}

func (s *Server) handleSyncMetadata(ctx context.Context, _ *struct{}) (*SyncMetadataOutput, error) {
	games, err := s.store.ListGames(ctx, store.GetOptions{})
	if err != nil {
		return nil, err
	}

	updated := s.metadata.Check(ctx, games)

	return &SyncMetadataOutput{
		Body: SyncMetadataResponse{
			Checked: len(games),
			Updated: updated,
		},
	}, nil
}

func (s *Server) handleMapGame(ctx context.Context, input *MapGameInput) (*GameOutput, error) {
	if err := s.validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	if _, err := s.metadata.Map(ctx, input.ID, input.Body.ProviderSlug, input.Body.ProviderDataID, input.Body.Priority); err != nil {
		return nil, err
	}

	// Mapping only attaches the record; recompute the canonical view so the
	// response reflects the new mapping.
	game, err := s.metadata.Merge(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &GameOutput{Body: mapGame(game)}, nil
}

func (s *Server) handleUnmapGame(ctx context.Context, input *UnmapGameInput) (*GameOutput, error) {
	game, err := s.metadata.Unmap(ctx, input.ID, input.Slug)
	if err != nil {
		return nil, err
	}

	return &GameOutput{Body: mapGame(game)}, nil
}

func (s *Server) handleSetUserMetadata(ctx context.Context, input *SetUserMetadataInput) (*GameOutput, error) {
	if err := s.validate.Validate(&input.Body); err != nil {
		return nil, err
	}

	game, err := s.metadata.SetUserOverride(ctx, input.ID, userOverrideFromRequest(&input.Body))
	if err != nil {
		return nil, err
	}

	return &GameOutput{Body: mapGame(game)}, nil
}

func (s *Server) handleMergeGame(ctx context.Context, input *MergeGameInput) (*GameOutput, error) {
	game, err := s.metadata.Merge(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &GameOutput{Body: mapGame(game)}, nil
}

// === Mappers ===

func mapSearchResult(r metadata.MinimalGameMetadata) MetadataSearchResultResponse {
	return MetadataSearchResultResponse{
		ProviderSlug:   r.ProviderSlug,
		ProviderDataID: r.ProviderDataID,
		Title:          r.Title,
		ReleaseYear:    r.ReleaseYear,
		CoverURL:       r.CoverURL,
	}
}

func userOverrideFromRequest(req *UserMetadataRequest) *domain.GameMetadata {
	override := &domain.GameMetadata{
		ProviderSlug:    domain.UserSource,
		Title:           req.Title,
		Description:     req.Description,
		ReleaseDate:     req.ReleaseDate,
		Rating:          req.Rating,
		AgeRating:       req.AgeRating,
		AveragePlaytime: req.AveragePlaytime,
		EarlyAccess:     req.EarlyAccess,
		CoverURL:        req.CoverURL,
		BackgroundURL:   req.BackgroundURL,
		URLWebsites:     req.URLWebsites,
		URLScreenshots:  req.URLScreenshots,
		URLTrailers:     req.URLTrailers,
	}

	for _, name := range req.Genres {
		override.Genres = append(override.Genres, domain.GenreMetadata{ProviderSlug: domain.UserSource, Name: name})
	}
	for _, name := range req.Tags {
		override.Tags = append(override.Tags, domain.TagMetadata{ProviderSlug: domain.UserSource, Name: name})
	}
	for _, name := range req.Developers {
		override.Developers = append(override.Developers, domain.DeveloperMetadata{ProviderSlug: domain.UserSource, Name: name})
	}
	for _, name := range req.Publishers {
		override.Publishers = append(override.Publishers, domain.PublisherMetadata{ProviderSlug: domain.UserSource, Name: name})
	}

	return override
}
