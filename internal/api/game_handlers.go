package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/store"
)

func (s *Server) registerGameRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/games",
		Summary:     "List games",
		Description: "Returns a paginated list of games in the library",
		Tags:        []string{"Games"},
	}, s.handleListGames)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGame",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{id}",
		Summary:     "Get game",
		Description: "Returns a single game with its canonical and per-provider metadata",
		Tags:        []string{"Games"},
	}, s.handleGetGame)
}

// === DTOs ===

type ListGamesInput struct {
	Limit          int  `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 50)"`
	Offset         int  `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
	IncludeDeleted bool `query:"include_deleted" doc:"Include soft-deleted games"`
}

// GameSummaryResponse is the slim list representation of a game.
type GameSummaryResponse struct {
	ID          string     `json:"id" doc:"Game ID"`
	Title       string     `json:"title" doc:"Display title"`
	FilePath    string     `json:"file_path" doc:"Path relative to the library root"`
	Size        int64      `json:"size" doc:"File size in bytes"`
	Version     string     `json:"version,omitempty" doc:"Version tag from the filename"`
	EarlyAccess bool       `json:"early_access" doc:"Early access flag"`
	ReleaseYear int        `json:"release_year,omitempty" doc:"Release year from the filename"`
	CoverURL    string     `json:"cover_url,omitempty" doc:"Canonical cover image URL"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" doc:"Soft-delete timestamp"`
}

type ListGamesResponse struct {
	Games []GameSummaryResponse `json:"games" doc:"Games in this page"`
	Total int                   `json:"total" doc:"Total games matching the query"`
}

type ListGamesOutput struct {
	Body ListGamesResponse
}

type GetGameInput struct {
	ID string `path:"id" doc:"Game ID"`
}

// MetadataRecordResponse is one source's metadata record in API responses.
type MetadataRecordResponse struct {
	ID               string     `json:"id" doc:"Record ID"`
	ProviderSlug     string     `json:"provider_slug" doc:"Source of this record"`
	ProviderDataID   string     `json:"provider_data_id,omitempty" doc:"Source's native game identifier"`
	ProviderPriority *int       `json:"provider_priority,omitempty" doc:"Per-record priority override"`
	Title            *string    `json:"title,omitempty" doc:"Game title"`
	Description      *string    `json:"description,omitempty" doc:"Description, markdown"`
	ReleaseDate      *time.Time `json:"release_date,omitempty" doc:"Release date"`
	Rating           *float64   `json:"rating,omitempty" doc:"Rating on a 0-100 scale"`
	AgeRating        *int       `json:"age_rating,omitempty" doc:"Minimum age"`
	AveragePlaytime  *int       `json:"average_playtime,omitempty" doc:"Average playtime in minutes"`
	EarlyAccess      *bool      `json:"early_access,omitempty" doc:"Early access flag"`
	CoverURL         *string    `json:"cover_url,omitempty" doc:"Cover image URL"`
	BackgroundURL    *string    `json:"background_url,omitempty" doc:"Background image URL"`
	URLWebsites      []string   `json:"url_websites,omitempty" doc:"Official website URLs"`
	URLScreenshots   []string   `json:"url_screenshots,omitempty" doc:"Screenshot URLs"`
	URLTrailers      []string   `json:"url_trailers,omitempty" doc:"Trailer URLs"`
	Genres           []string   `json:"genres,omitempty" doc:"Genre names"`
	Tags             []string   `json:"tags,omitempty" doc:"Tag names"`
	Developers       []string   `json:"developers,omitempty" doc:"Developer names"`
	Publishers       []string   `json:"publishers,omitempty" doc:"Publisher names"`
	UpdatedAt        time.Time  `json:"updated_at" doc:"Last refresh time"`
}

// GameResponse is the full representation of a game.
type GameResponse struct {
	GameSummaryResponse
	CreatedAt time.Time `json:"created_at" doc:"First seen time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last change time"`

	Metadata         *MetadataRecordResponse  `json:"metadata,omitempty" doc:"Canonical merged metadata"`
	UserMetadata     *MetadataRecordResponse  `json:"user_metadata,omitempty" doc:"Manual user overrides"`
	ProviderMetadata []MetadataRecordResponse `json:"provider_metadata" doc:"Per-provider metadata records"`
}

type GameOutput struct {
	Body GameResponse
}

// === Handlers ===

func (s *Server) handleListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	games, err := s.store.ListGames(ctx, store.GetOptions{IncludeDeleted: input.IncludeDeleted})
	if err != nil {
		s.logger.Error("Failed to list games", "error", err)
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	total := len(games)
	start := min(input.Offset, total)
	end := min(start+limit, total)

	page := make([]GameSummaryResponse, 0, end-start)
	for _, game := range games[start:end] {
		page = append(page, mapGameSummary(game))
	}

	return &ListGamesOutput{
		Body: ListGamesResponse{
			Games: page,
			Total: total,
		},
	}, nil
}

func (s *Server) handleGetGame(ctx context.Context, input *GetGameInput) (*GameOutput, error) {
	game, err := s.store.GetGame(ctx, input.ID, store.GetOptions{})
	if err != nil {
		return nil, err
	}

	return &GameOutput{Body: mapGame(game)}, nil
}

// === Mappers ===

func mapGameSummary(game *domain.Game) GameSummaryResponse {
	resp := GameSummaryResponse{
		ID:          game.ID,
		Title:       game.EffectiveTitle(),
		FilePath:    game.FilePath,
		Size:        game.Size,
		Version:     game.Version,
		EarlyAccess: game.EarlyAccess,
		ReleaseYear: game.ReleaseYear,
		DeletedAt:   game.DeletedAt,
	}

	if game.Metadata != nil && game.Metadata.CoverURL != nil {
		resp.CoverURL = *game.Metadata.CoverURL
	}

	return resp
}

func mapGame(game *domain.Game) GameResponse {
	resp := GameResponse{
		GameSummaryResponse: mapGameSummary(game),
		CreatedAt:           game.CreatedAt,
		UpdatedAt:           game.UpdatedAt,
		Metadata:            mapMetadataRecord(game.Metadata),
		UserMetadata:        mapMetadataRecord(game.UserMetadata),
		ProviderMetadata:    make([]MetadataRecordResponse, 0, len(game.ProviderMetadata)),
	}

	for i := range game.ProviderMetadata {
		resp.ProviderMetadata = append(resp.ProviderMetadata, *mapMetadataRecord(&game.ProviderMetadata[i]))
	}

	return resp
}

func mapMetadataRecord(m *domain.GameMetadata) *MetadataRecordResponse {
	if m == nil {
		return nil
	}

	return &MetadataRecordResponse{
		ID:               m.ID,
		ProviderSlug:     m.ProviderSlug,
		ProviderDataID:   m.ProviderDataID,
		ProviderPriority: m.ProviderPriority,
		Title:            m.Title,
		Description:      m.Description,
		ReleaseDate:      m.ReleaseDate,
		Rating:           m.Rating,
		AgeRating:        m.AgeRating,
		AveragePlaytime:  m.AveragePlaytime,
		EarlyAccess:      m.EarlyAccess,
		CoverURL:         m.CoverURL,
		BackgroundURL:    m.BackgroundURL,
		URLWebsites:      m.URLWebsites,
		URLScreenshots:   m.URLScreenshots,
		URLTrailers:      m.URLTrailers,
		Genres:           namesOfGenres(m.Genres),
		Tags:             namesOfTags(m.Tags),
		Developers:       namesOfDevelopers(m.Developers),
		Publishers:       namesOfPublishers(m.Publishers),
		UpdatedAt:        m.EffectiveTimestamp(),
	}
}

func namesOfGenres(in []domain.GenreMetadata) []string {
	out := make([]string, len(in))
	for i, g := range in {
		out[i] = g.Name
	}
	return out
}

func namesOfTags(in []domain.TagMetadata) []string {
	out := make([]string, len(in))
	for i, t := range in {
		out[i] = t.Name
	}
	return out
}

func namesOfDevelopers(in []domain.DeveloperMetadata) []string {
	out := make([]string, len(in))
	for i, d := range in {
		out[i] = d.Name
	}
	return out
}

func namesOfPublishers(in []domain.PublisherMetadata) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = p.Name
	}
	return out
}
