package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/gamevaultapp/gamevault-server/internal/errors"
	"github.com/gamevaultapp/gamevault-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search library",
		Description: "Full-text search over the game catalog with filters and facets",
		Tags:        []string{"Search"},
	}, s.handleSearchGames)
}

// === DTOs ===

type SearchGamesInput struct {
	Query       string  `query:"q" validate:"required,min=1,max=200" doc:"Search query"`
	Genres      string  `query:"genres" validate:"omitempty,max=200" doc:"Comma-separated genre names to filter by"`
	Tags        string  `query:"tags" validate:"omitempty,max=200" doc:"Comma-separated tag names to filter by"`
	MinYear     int     `query:"min_year" validate:"omitempty,gte=1950" doc:"Minimum release year"`
	MaxYear     int     `query:"max_year" validate:"omitempty,gte=1950" doc:"Maximum release year"`
	MinRating   float64 `query:"min_rating" validate:"omitempty,gte=0,lte=100" doc:"Minimum rating (0-100)"`
	EarlyAccess string  `query:"early_access" enum:"true,false" validate:"omitempty,oneof=true false" doc:"Filter by early access flag"`
	Limit       int     `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset      int     `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset"`
	SortBy      string  `query:"sort" validate:"omitempty,oneof=relevance title recent rating year" doc:"Sort order (default relevance)"`
	Facets      bool    `query:"facets" doc:"Include genre and tag facet counts"`
}

type SearchGameHit struct {
	ID          string            `json:"id" doc:"Game ID"`
	Score       float64           `json:"score" doc:"Search relevance score"`
	Title       string            `json:"title" doc:"Game title"`
	FilePath    string            `json:"file_path,omitempty" doc:"Path relative to the library root"`
	Genres      []string          `json:"genres,omitempty" doc:"Genre names"`
	ReleaseYear int               `json:"release_year,omitempty" doc:"Release year"`
	Rating      float64           `json:"rating,omitempty" doc:"Rating on a 0-100 scale"`
	EarlyAccess bool              `json:"early_access" doc:"Early access flag"`
	Highlights  map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

type SearchGamesFacets struct {
	Genres []FacetCount `json:"genres,omitempty" doc:"Genre facets"`
	Tags   []FacetCount `json:"tags,omitempty" doc:"Tag facets"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value" doc:"Facet value"`
	Count int    `json:"count" doc:"Number of matches"`
}

type SearchGamesResponse struct {
	Query  string             `json:"query" doc:"Original search query"`
	Total  uint64             `json:"total" doc:"Total matches"`
	TookMs int64              `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchGameHit    `json:"hits" doc:"Search results"`
	Facets *SearchGamesFacets `json:"facets,omitempty" doc:"Facet counts for filtering"`
}

type SearchGamesOutput struct {
	Body SearchGamesResponse
}

// === Handlers ===

func (s *Server) handleSearchGames(ctx context.Context, input *SearchGamesInput) (*SearchGamesOutput, error) {
	if s.index == nil {
		return nil, domainerrors.Internal("search index is not configured")
	}

	if err := s.validate.Validate(input); err != nil {
		return nil, err
	}

	params := search.DefaultParams()
	params.Query = input.Query
	params.Genres = splitCSV(input.Genres)
	params.Tags = splitCSV(input.Tags)
	params.MinYear = input.MinYear
	params.MaxYear = input.MaxYear
	params.MinRating = input.MinRating
	if input.EarlyAccess != "" {
		flag := input.EarlyAccess == "true"
		params.EarlyAccess = &flag
	}
	params.Offset = input.Offset
	params.IncludeFacets = input.Facets
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.SortBy != "" {
		params.SortBy = input.SortBy
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		s.logger.Error("Search failed", "error", err, "query", input.Query)
		return nil, err
	}

	resp := SearchGamesResponse{
		Query:  result.Query,
		Total:  result.Total,
		TookMs: result.TookMs,
		Hits:   make([]SearchGameHit, len(result.Hits)),
	}

	for i, hit := range result.Hits {
		resp.Hits[i] = SearchGameHit{
			ID:          hit.ID,
			Score:       hit.Score,
			Title:       hit.Title,
			FilePath:    hit.FilePath,
			Genres:      hit.Genres,
			ReleaseYear: hit.ReleaseYear,
			Rating:      hit.Rating,
			EarlyAccess: hit.EarlyAccess,
			Highlights:  hit.Highlights,
		}
	}

	if input.Facets {
		resp.Facets = &SearchGamesFacets{
			Genres: mapFacetCounts(result.Facets.Genres),
			Tags:   mapFacetCounts(result.Facets.Tags),
		}
	}

	return &SearchGamesOutput{Body: resp}, nil
}

// === Helpers ===

func splitCSV(in string) []string {
	if in == "" {
		return nil
	}

	var out []string
	for part := range strings.SplitSeq(in, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mapFacetCounts(in []search.FacetCount) []FacetCount {
	out := make([]FacetCount, len(in))
	for i, f := range in {
		out[i] = FacetCount{Value: f.Value, Count: f.Count}
	}
	return out
}
