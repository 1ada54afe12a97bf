package igdb

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
	"github.com/gamevaultapp/gamevault-server/internal/metadata"
	"github.com/gamevaultapp/gamevault-server/internal/normalize"
)

// minMatchScore is the title-similarity floor for best-match candidates.
const minMatchScore = 0.6

// detailFields is the Apicalypse field list for full game records.
const detailFields = "fields name,slug,summary,storyline,first_release_date," +
	"total_rating,aggregated_rating,status,url,cover.url,artworks.url," +
	"screenshots.url,videos.video_id,videos.name,websites.url,genres.name," +
	"themes.name,keywords.name,involved_companies.company.name," +
	"involved_companies.developer,involved_companies.publisher," +
	"age_ratings.category,age_ratings.rating;"

// Provider adapts the IGDB client to the provider contract.
type Provider struct {
	client   *Client
	priority int
}

var _ metadata.Provider = (*Provider)(nil)

// New creates the IGDB provider with the given merge priority.
func New(clientID, clientSecret string, priority int, logger *slog.Logger) *Provider {
	return &Provider{
		client:   NewClient(clientID, clientSecret, logger),
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

// Search performs a free-text search against the IGDB catalog.
func (p *Provider) Search(ctx context.Context, query string) ([]metadata.MinimalGameMetadata, error) {
	games, err := p.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("igdb search: %w", err)
	}

	results := make([]metadata.MinimalGameMetadata, 0, len(games))
	for i := range games {
		results = append(results, toMinimal(&games[i]))
	}
	return results, nil
}

// GetBestMatch searches IGDB for the game's title and picks the most
// plausible candidate by normalized title similarity, boosted on a release
// year match.
func (p *Provider) GetBestMatch(ctx context.Context, game *domain.Game) (*domain.GameMetadata, error) {
	candidates, err := p.search(ctx, game.Title)
	if err != nil {
		return nil, fmt.Errorf("igdb best match: %w", err)
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
		return nil, errors.NotFoundf("no igdb match for %q", game.Title)
	}
	return p.GetByProviderDataID(ctx, strconv.Itoa(candidates[best].ID))
}

// GetByProviderDataID fetches the full record for one IGDB game id.
func (p *Provider) GetByProviderDataID(ctx context.Context, providerDataID string) (*domain.GameMetadata, error) {
	id, err := strconv.Atoi(providerDataID)
	if err != nil {
		return nil, errors.Validationf("invalid igdb id %q", providerDataID)
	}

	games, err := p.client.games(ctx, detailFields+fmt.Sprintf(" where id = %d;", id))
	if err != nil {
		return nil, fmt.Errorf("igdb get game: %w", err)
	}
	if len(games) == 0 {
		return nil, errors.NotFoundf("igdb has no game with id %d", id)
	}
	return toMetadata(&games[0]), nil
}

// search runs an Apicalypse search query.
func (p *Provider) search(ctx context.Context, query string) ([]rawGame, error) {
	escaped := strings.ReplaceAll(query, `"`, `\"`)
	body := fmt.Sprintf(`search "%s"; fields name,slug,first_release_date,cover.url; limit 10;`, escaped)
	return p.client.games(ctx, body)
}

// toMinimal converts a search hit into the slim result shape.
func toMinimal(g *rawGame) metadata.MinimalGameMetadata {
	result := metadata.MinimalGameMetadata{
		ProviderSlug:   Slug,
		ProviderDataID: strconv.Itoa(g.ID),
		Title:          g.Name,
		ReleaseYear:    releaseYear(g),
	}
	if g.Cover != nil {
		result.CoverURL = imageURL(g.Cover.URL, "cover_big")
	}
	return result
}

// toMetadata converts an IGDB detail record into a domain metadata record.
func toMetadata(g *rawGame) *domain.GameMetadata {
	m := &domain.GameMetadata{
		ProviderSlug:   Slug,
		ProviderDataID: strconv.Itoa(g.ID),
	}

	if g.Name != "" {
		m.Title = &g.Name
	}
	if desc := description(g); desc != "" {
		m.Description = &desc
	}
	if g.FirstReleaseDate > 0 {
		t := time.Unix(g.FirstReleaseDate, 0).UTC()
		m.ReleaseDate = &t
	}
	if rating := pickRating(g); rating > 0 {
		m.Rating = &rating
	}
	for _, ar := range g.AgeRatings {
		if ar.Category == ageRatingCategoryESRB {
			if age, ok := esrbMinimumAge(ar.Rating); ok {
				m.AgeRating = &age
			}
			break
		}
	}
	if g.Status == gameStatusEarlyAccess {
		earlyAccess := true
		m.EarlyAccess = &earlyAccess
	}
	if g.Cover != nil {
		cover := imageURL(g.Cover.URL, "cover_big")
		m.CoverURL = &cover
	}
	if len(g.Artworks) > 0 {
		background := imageURL(g.Artworks[0].URL, "1080p")
		m.BackgroundURL = &background
	}

	if g.URL != "" {
		m.URLWebsites = append(m.URLWebsites, g.URL)
	}
	for _, w := range g.Websites {
		if w.URL != "" {
			m.URLWebsites = append(m.URLWebsites, w.URL)
		}
	}
	for _, s := range g.Screenshots {
		if u := imageURL(s.URL, "1080p"); u != "" {
			m.URLScreenshots = append(m.URLScreenshots, u)
		}
	}
	for _, v := range g.Videos {
		if v.VideoID != "" {
			m.URLTrailers = append(m.URLTrailers, "https://www.youtube.com/watch?v="+v.VideoID)
		}
	}

	for _, genre := range g.Genres {
		m.Genres = append(m.Genres, domain.GenreMetadata{
			ProviderSlug:   Slug,
			ProviderDataID: strconv.Itoa(genre.ID),
			Name:           genre.Name,
		})
	}
	// Themes and keywords both land in tags; IGDB splits what RAWG lumps.
	for _, theme := range g.Themes {
		m.Tags = append(m.Tags, domain.TagMetadata{
			ProviderSlug:   Slug,
			ProviderDataID: strconv.Itoa(theme.ID),
			Name:           theme.Name,
		})
	}
	for _, kw := range g.Keywords {
		m.Tags = append(m.Tags, domain.TagMetadata{
			ProviderSlug:   Slug,
			ProviderDataID: strconv.Itoa(kw.ID),
			Name:           kw.Name,
		})
	}
	for _, ic := range g.InvolvedCompanies {
		if ic.Developer {
			m.Developers = append(m.Developers, domain.DeveloperMetadata{
				ProviderSlug:   Slug,
				ProviderDataID: strconv.Itoa(ic.Company.ID),
				Name:           ic.Company.Name,
			})
		}
		if ic.Publisher {
			m.Publishers = append(m.Publishers, domain.PublisherMetadata{
				ProviderSlug:   Slug,
				ProviderDataID: strconv.Itoa(ic.Company.ID),
				Name:           ic.Company.Name,
			})
		}
	}

	return m
}

// description prefers the summary and appends the storyline when both exist.
func description(g *rawGame) string {
	switch {
	case g.Summary != "" && g.Storyline != "":
		return g.Summary + "\n\n" + g.Storyline
	case g.Summary != "":
		return g.Summary
	default:
		return g.Storyline
	}
}

// pickRating prefers the combined critic+user rating over critics alone.
func pickRating(g *rawGame) float64 {
	if g.TotalRating > 0 {
		return g.TotalRating
	}
	return g.AggregatedRating
}

// esrbMinimumAge maps IGDB's ESRB rating enum to a minimum age.
func esrbMinimumAge(rating int) (int, bool) {
	switch rating {
	case 6: // RP
		return 0, false
	case 7: // EC
		return 0, true
	case 8: // E
		return 0, true
	case 9: // E10
		return 10, true
	case 10: // T
		return 13, true
	case 11: // M
		return 17, true
	case 12: // AO
		return 18, true
	default:
		return 0, false
	}
}

// releaseYear extracts the year from the first release date, 0 if unknown.
func releaseYear(g *rawGame) int {
	if g.FirstReleaseDate <= 0 {
		return 0
	}
	return time.Unix(g.FirstReleaseDate, 0).UTC().Year()
}
