package rawg

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
)

const searchFixture = `{
	"count": 2,
	"results": [
		{"id": 3498, "slug": "portal", "name": "Portal", "released": "2007-10-09", "background_image": "https://img/portal.jpg"},
		{"id": 4200, "slug": "portal-2", "name": "Portal 2", "released": "2011-04-18", "background_image": "https://img/portal2.jpg"}
	]
}`

const gameFixture = `{
	"id": 3498,
	"slug": "portal",
	"name": "Portal",
	"description": "<p>A <strong>mind-bending</strong> puzzle game.</p>",
	"released": "2007-10-09",
	"background_image": "https://img/portal.jpg",
	"background_image_additional": "https://img/portal-bg.jpg",
	"website": "https://portal.example",
	"metacritic": 90,
	"rating": 4.5,
	"playtime": 4,
	"esrb_rating": {"id": 3, "slug": "teen", "name": "Teen"},
	"genres": [{"id": 7, "name": "Puzzle", "slug": "puzzle"}],
	"tags": [
		{"id": 31, "name": "Singleplayer", "slug": "singleplayer", "language": "eng"},
		{"id": 99, "name": "Einzelspieler", "slug": "einzelspieler", "language": "ger"},
		{"id": 40, "name": "Early Access", "slug": "early-access", "language": "eng"}
	],
	"developers": [{"id": 1, "name": "Valve", "slug": "valve"}],
	"publishers": [{"id": 2, "name": "Valve", "slug": "valve"}]
}`

func newTestProvider(t *testing.T, handler http.Handler) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	p := New("test-key", 20, logger)
	p.client.baseURL = server.URL
	p.client.http = server.Client()
	t.Cleanup(p.Close)

	return p
}

func fixtureHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/games", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(searchFixture)) //nolint:errcheck
	})
	mux.HandleFunc("/games/3498", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(gameFixture)) //nolint:errcheck
	})
	mux.HandleFunc("/games/3498/screenshots", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": [{"image": "https://img/shot1.jpg"}, {"image": "https://img/shot2.jpg"}]}`)) //nolint:errcheck
	})
	mux.HandleFunc("/games/3498/movies", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": [{"name": "Trailer", "data": {"max": "https://video/trailer.mp4"}}]}`)) //nolint:errcheck
	})
	mux.HandleFunc("/games/4200", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id": 4200, "slug": "portal-2", "name": "Portal 2", "released": "2011-04-18"}`)) //nolint:errcheck
	})
	mux.HandleFunc("/games/4200/screenshots", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": []}`)) //nolint:errcheck
	})
	mux.HandleFunc("/games/4200/movies", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": []}`)) //nolint:errcheck
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	return mux
}

func TestSearch(t *testing.T) {
	p := newTestProvider(t, fixtureHandler(t))

	results, err := p.Search(context.Background(), "portal")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "3498", results[0].ProviderDataID)
	assert.Equal(t, "Portal", results[0].Title)
	assert.Equal(t, 2007, results[0].ReleaseYear)
	assert.Equal(t, "https://img/portal.jpg", results[0].CoverURL)
	assert.Equal(t, Slug, results[0].ProviderSlug)
}

func TestGetByProviderDataID(t *testing.T) {
	p := newTestProvider(t, fixtureHandler(t))

	m, err := p.GetByProviderDataID(context.Background(), "3498")
	require.NoError(t, err)

	assert.Equal(t, Slug, m.ProviderSlug)
	assert.Equal(t, "3498", m.ProviderDataID)
	assert.Equal(t, "Portal", *m.Title)
	assert.Equal(t, "A **mind-bending** puzzle game.", *m.Description)
	assert.Equal(t, 2007, m.ReleaseDate.Year())
	assert.Equal(t, 90.0, *m.Rating)
	assert.Equal(t, 13, *m.AgeRating)
	assert.Equal(t, 240, *m.AveragePlaytime)
	require.NotNil(t, m.EarlyAccess)
	assert.True(t, *m.EarlyAccess)
	assert.Equal(t, "https://img/portal.jpg", *m.CoverURL)
	assert.Equal(t, "https://img/portal-bg.jpg", *m.BackgroundURL)
	assert.Equal(t, []string{"https://portal.example", "https://rawg.io/games/portal"}, m.URLWebsites)
	assert.Equal(t, []string{"https://img/shot1.jpg", "https://img/shot2.jpg"}, m.URLScreenshots)
	assert.Equal(t, []string{"https://video/trailer.mp4"}, m.URLTrailers)

	require.Len(t, m.Genres, 1)
	assert.Equal(t, "Puzzle", m.Genres[0].Name)
	assert.Equal(t, Slug, m.Genres[0].ProviderSlug)

	// The German mirror tag is dropped.
	require.Len(t, m.Tags, 2)
	assert.Equal(t, "Singleplayer", m.Tags[0].Name)

	require.Len(t, m.Developers, 1)
	assert.Equal(t, "Valve", m.Developers[0].Name)
	require.Len(t, m.Publishers, 1)
}

func TestGetByProviderDataID_NotFound(t *testing.T) {
	p := newTestProvider(t, fixtureHandler(t))

	_, err := p.GetByProviderDataID(context.Background(), "99999")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestGetBestMatch(t *testing.T) {
	p := newTestProvider(t, fixtureHandler(t))

	game := &domain.Game{Title: "Portal", ReleaseYear: 2007}
	m, err := p.GetBestMatch(context.Background(), game)
	require.NoError(t, err)
	assert.Equal(t, "3498", m.ProviderDataID)
}

func TestGetBestMatch_PrefersExactTitle(t *testing.T) {
	p := newTestProvider(t, fixtureHandler(t))

	game := &domain.Game{Title: "Portal 2", ReleaseYear: 2011}
	m, err := p.GetBestMatch(context.Background(), game)
	require.NoError(t, err)
	assert.Equal(t, "4200", m.ProviderDataID)
}

func TestGetBestMatch_NoPlausibleCandidate(t *testing.T) {
	p := newTestProvider(t, fixtureHandler(t))

	game := &domain.Game{Title: "Completely Unrelated Farming Simulator"}
	_, err := p.GetBestMatch(context.Background(), game)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSearch_ServerError(t *testing.T) {
	p := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := p.Search(context.Background(), "portal")
	assert.True(t, errors.Is(err, errors.ErrProviderFailure))
}
