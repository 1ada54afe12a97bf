// Package rawg implements the RAWG.io metadata provider.
//
// RAWG exposes a keyed REST API over its games database. The client rate
// limits itself well below RAWG's free-tier quota and translates API
// responses into domain metadata records.
package rawg

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
	"github.com/gamevaultapp/gamevault-server/internal/ratelimit"
)

const (
	// Slug identifies this provider in the registry.
	Slug = "rawg"

	defaultBaseURL = "https://api.rawg.io/api"

	// Rate limit: RAWG's free tier allows 20,000 requests a month, so stay
	// conservative. Burst covers the detail + screenshots + movies triple.
	defaultRPS   = 2.0
	defaultBurst = 4

	defaultTimeout = 30 * time.Second

	defaultSearchLimit = 10
)

// Client is a rate-limited RAWG API client.
type Client struct {
	http    *http.Client
	limiter *ratelimit.KeyedRateLimiter
	apiKey  string
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a new RAWG client.
func NewClient(apiKey string, logger *slog.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: ratelimit.New(defaultRPS, defaultBurst),
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		logger:  logger,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// doRequest executes a rate-limited GET against the RAWG API and maps
// non-2xx statuses onto domain errors.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, "api"); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "GameVault/1.0")

	c.logger.Debug("rawg request", "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProviderFailure, "rawg unreachable")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeProviderFailure, "read rawg response")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NotFound("rawg entry not found")
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, errors.ProviderFailure("rawg rejected the api key")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.ProviderFailure("rawg rate limit exceeded")
	default:
		return nil, errors.ProviderFailuref("rawg returned status %d", resp.StatusCode)
	}
}

// getGame fetches the full detail record for one RAWG game id.
func (c *Client) getGame(ctx context.Context, gameID string) (*rawGame, error) {
	body, err := c.doRequest(ctx, "/games/"+url.PathEscape(gameID), nil)
	if err != nil {
		return nil, err
	}

	var game rawGame
	if err := json.Unmarshal(body, &game); err != nil {
		return nil, fmt.Errorf("parse game response: %w", err)
	}
	return &game, nil
}

// getScreenshots fetches screenshot URLs for a game. Failures degrade to an
// empty list; screenshots are not worth failing the whole record over.
func (c *Client) getScreenshots(ctx context.Context, gameID string) []string {
	body, err := c.doRequest(ctx, "/games/"+url.PathEscape(gameID)+"/screenshots", nil)
	if err != nil {
		c.logger.Debug("rawg screenshots unavailable", "game_id", gameID, "error", err)
		return nil
	}

	var resp rawScreenshotsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}

	urls := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Image != "" {
			urls = append(urls, r.Image)
		}
	}
	return urls
}

// getTrailers fetches trailer video URLs for a game. Best effort, like
// getScreenshots.
func (c *Client) getTrailers(ctx context.Context, gameID string) []string {
	body, err := c.doRequest(ctx, "/games/"+url.PathEscape(gameID)+"/movies", nil)
	if err != nil {
		c.logger.Debug("rawg movies unavailable", "game_id", gameID, "error", err)
		return nil
	}

	var resp rawMoviesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil
	}

	urls := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.Data.Max != "" {
			urls = append(urls, r.Data.Max)
		}
	}
	return urls
}

// toMetadata converts a RAWG detail record into a domain metadata record.
// Identity fields are left for the caller to stamp.
func toMetadata(g *rawGame, screenshots, trailers []string) *domain.GameMetadata {
	m := &domain.GameMetadata{
		ProviderSlug:   Slug,
		ProviderDataID: strconv.Itoa(g.ID),
		URLScreenshots: screenshots,
		URLTrailers:    trailers,
	}

	if g.Name != "" {
		m.Title = &g.Name
	}
	if g.Description != "" {
		if md, err := htmltomarkdown.ConvertString(g.Description); err == nil {
			md = strings.TrimSpace(md)
			m.Description = &md
		}
	}
	if g.Released != "" && !g.TBA {
		if t, err := time.Parse("2006-01-02", g.Released); err == nil {
			m.ReleaseDate = &t
		}
	}
	if rating := normalizedRating(g); rating > 0 {
		m.Rating = &rating
	}
	if g.ESRBRating != nil {
		if age, ok := esrbMinimumAge(g.ESRBRating.Slug); ok {
			m.AgeRating = &age
		}
	}
	if g.Playtime > 0 {
		// RAWG reports playtime in hours.
		minutes := g.Playtime * 60
		m.AveragePlaytime = &minutes
	}
	if g.BackgroundImage != "" {
		m.CoverURL = &g.BackgroundImage
	}
	if g.BackgroundImageAdditional != "" {
		m.BackgroundURL = &g.BackgroundImageAdditional
	}

	if g.Website != "" {
		m.URLWebsites = append(m.URLWebsites, g.Website)
	}
	if g.Slug != "" {
		m.URLWebsites = append(m.URLWebsites, "https://rawg.io/games/"+g.Slug)
	}

	for _, genre := range g.Genres {
		m.Genres = append(m.Genres, domain.GenreMetadata{
			ProviderSlug:   Slug,
			ProviderDataID: strconv.Itoa(genre.ID),
			Name:           genre.Name,
		})
	}
	for _, tag := range g.Tags {
		// RAWG mirrors community tags in several languages; keep English only.
		if tag.Language != "" && tag.Language != "eng" {
			continue
		}
		if tag.Slug == "early-access" {
			earlyAccess := true
			m.EarlyAccess = &earlyAccess
		}
		m.Tags = append(m.Tags, domain.TagMetadata{
			ProviderSlug:   Slug,
			ProviderDataID: strconv.Itoa(tag.ID),
			Name:           tag.Name,
		})
	}
	for _, dev := range g.Developers {
		m.Developers = append(m.Developers, domain.DeveloperMetadata{
			ProviderSlug:   Slug,
			ProviderDataID: strconv.Itoa(dev.ID),
			Name:           dev.Name,
		})
	}
	for _, pub := range g.Publishers {
		m.Publishers = append(m.Publishers, domain.PublisherMetadata{
			ProviderSlug:   Slug,
			ProviderDataID: strconv.Itoa(pub.ID),
			Name:           pub.Name,
		})
	}

	return m
}

// normalizedRating folds RAWG's two rating scales into one 0-100 value,
// preferring the metacritic score when present.
func normalizedRating(g *rawGame) float64 {
	if g.Metacritic > 0 {
		return float64(g.Metacritic)
	}
	if g.Rating > 0 {
		// Community rating is 0-5.
		return g.Rating * 20
	}
	return 0
}

// esrbMinimumAge maps an ESRB rating slug to a minimum age.
func esrbMinimumAge(slug string) (int, bool) {
	switch slug {
	case "everyone":
		return 0, true
	case "everyone-10-plus":
		return 10, true
	case "teen":
		return 13, true
	case "mature":
		return 17, true
	case "adults-only":
		return 18, true
	default:
		return 0, false
	}
}
