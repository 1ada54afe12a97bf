package rawg

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
	"github.com/gamevaultapp/gamevault-server/internal/metadata"
	"github.com/gamevaultapp/gamevault-server/internal/normalize"
)

// minMatchScore is the title-similarity floor below which a search candidate
// is not considered a match at all.
const minMatchScore = 0.6

// Provider adapts the RAWG client to the provider contract.
type Provider struct {
	client   *Client
	priority int
}

var _ metadata.Provider = (*Provider)(nil)

// New creates the RAWG provider with the given merge priority.
func New(apiKey string, priority int, logger *slog.Logger) *Provider {
	return &Provider{
		client:   NewClient(apiKey, logger),
		priority: priority,
	}
}

// Slug returns the provider slug.
func (p *Provider) Slug() string { return Slug }

// Priority returns the provider's registered merge priority.
func (p *Provider) Priority() int { return p.priority }

// Close releases the underlying client.
func (p *Provider) Close() {
	p.client.Close()
}

// Search performs a free-text search against the RAWG catalog.
func (p *Provider) Search(ctx context.Context, query string) ([]metadata.MinimalGameMetadata, error) {
	games, err := p.search(ctx, query)
	if err != nil {
		return nil, wrapError("search", "", err)
	}

	results := make([]metadata.MinimalGameMetadata, 0, len(games))
	for i := range games {
		results = append(results, toMinimal(&games[i]))
	}
	return results, nil
}

// GetBestMatch searches RAWG for the game's filename-derived title and picks
// the most plausible candidate by normalized title similarity, with the
// release year as a tie breaker. Candidates below the similarity floor are
// rejected; no candidate at all yields a NotFound error.
func (p *Provider) GetBestMatch(ctx context.Context, game *domain.Game) (*domain.GameMetadata, error) {
	candidates, err := p.search(ctx, game.Title)
	if err != nil {
		return nil, wrapError("getBestMatch", "", err)
	}

	best := -1
	bestScore := 0.0
	for i := range candidates {
		score := normalize.Score(game.Title, candidates[i].Name)
		if score < minMatchScore {
			continue
		}
		if game.ReleaseYear > 0 && releaseYear(&candidates[i]) == game.ReleaseYear {
			score += 0.25
		}
		if score > bestScore {
			best = i
			bestScore = score
		}
	}

	if best < 0 {
		return nil, errors.NotFoundf("no rawg match for %q", game.Title)
	}

	p.client.logger.Debug("rawg best match",
		"title", game.Title,
		"match", candidates[best].Name,
		"score", bestScore,
	)
	return p.GetByProviderDataID(ctx, strconv.Itoa(candidates[best].ID))
}

// GetByProviderDataID fetches the full record for one RAWG game id,
// including screenshots and trailers.
func (p *Provider) GetByProviderDataID(ctx context.Context, providerDataID string) (*domain.GameMetadata, error) {
	game, err := p.client.getGame(ctx, providerDataID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		return nil, wrapError("getGame", providerDataID, err)
	}

	screenshots := p.client.getScreenshots(ctx, providerDataID)
	trailers := p.client.getTrailers(ctx, providerDataID)

	return toMetadata(game, screenshots, trailers), nil
}

// search runs the raw catalog search.
func (p *Provider) search(ctx context.Context, query string) ([]rawGame, error) {
	q := url.Values{}
	q.Set("search", query)
	q.Set("page_size", strconv.Itoa(defaultSearchLimit))

	body, err := p.client.doRequest(ctx, "/games", q)
	if err != nil {
		return nil, err
	}

	var resp rawSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return resp.Results, nil
}

// toMinimal converts a search hit into the slim result shape.
func toMinimal(g *rawGame) metadata.MinimalGameMetadata {
	return metadata.MinimalGameMetadata{
		ProviderSlug:   Slug,
		ProviderDataID: strconv.Itoa(g.ID),
		Title:          g.Name,
		ReleaseYear:    releaseYear(g),
		CoverURL:       g.BackgroundImage,
	}
}

// releaseYear extracts the year from a RAWG release date, 0 if unknown.
func releaseYear(g *rawGame) int {
	if len(g.Released) < 4 {
		return 0
	}
	year, err := strconv.Atoi(g.Released[:4])
	if err != nil {
		return 0
	}
	return year
}
