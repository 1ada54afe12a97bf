package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
	"github.com/gamevaultapp/gamevault-server/internal/metadata"
	"github.com/gamevaultapp/gamevault-server/internal/store"
)

// fakeProvider is an in-memory Provider for service tests. It returns clones
// so the service can stamp identity without mutating test fixtures.
type fakeProvider struct {
	slug           string
	priority       int
	searchResults  []metadata.MinimalGameMetadata
	records        map[string]*domain.GameMetadata
	bestMatch      *domain.GameMetadata
	err            error
	bestMatchCalls int
}

func (f *fakeProvider) Slug() string  { return f.slug }
func (f *fakeProvider) Priority() int { return f.priority }

func (f *fakeProvider) Search(_ context.Context, _ string) ([]metadata.MinimalGameMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchResults, nil
}

func (f *fakeProvider) GetBestMatch(_ context.Context, game *domain.Game) (*domain.GameMetadata, error) {
	f.bestMatchCalls++
	if f.err != nil {
		return nil, f.err
	}
	if f.bestMatch == nil {
		return nil, errors.NotFoundf("no match for %q", game.Title)
	}
	return f.bestMatch.Clone(), nil
}

func (f *fakeProvider) GetByProviderDataID(_ context.Context, providerDataID string) (*domain.GameMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	record, ok := f.records[providerDataID]
	if !ok {
		return nil, errors.NotFoundf("no record with id %q", providerDataID)
	}
	return record.Clone(), nil
}

func testService(t *testing.T, ttl time.Duration, providers ...metadata.Provider) (*MetadataService, *store.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close() //nolint:errcheck // Test cleanup
	})

	registry := metadata.NewRegistry(logger)
	for _, p := range providers {
		require.NoError(t, registry.Register(p))
	}

	return NewMetadataService(st, registry, nil, ttl, logger), st
}

func seedGame(t *testing.T, st *store.Store, id, path string) *domain.Game {
	t.Helper()

	g := &domain.Game{Title: "Portal", FilePath: path, Size: 100}
	g.ID = id
	g.InitTimestamps()
	require.NoError(t, st.CreateGame(context.Background(), g))
	return g
}

func metaWithTitle(providerDataID, title string) *domain.GameMetadata {
	return &domain.GameMetadata{
		ProviderDataID: providerDataID,
		Title:          &title,
	}
}

func TestCheck_MapsUnmappedProviders(t *testing.T) {
	provider := &fakeProvider{
		slug:      "rawg",
		priority:  10,
		bestMatch: metaWithTitle("3498", "Portal"),
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	game := seedGame(t, st, "game-1", "Portal (2007).zip")

	updated := svc.Check(ctx, []*domain.Game{game})
	assert.Equal(t, 1, updated)

	got, err := st.GetGame(ctx, "game-1", store.GetOptions{})
	require.NoError(t, err)
	require.Len(t, got.ProviderMetadata, 1)
	assert.Equal(t, "rawg", got.ProviderMetadata[0].ProviderSlug)
	assert.Equal(t, "3498", got.ProviderMetadata[0].ProviderDataID)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, domain.CanonicalSource, got.Metadata.ProviderSlug)
	assert.Equal(t, "game-1", got.Metadata.ProviderDataID)
	assert.Equal(t, "Portal", *got.Metadata.Title)
}

func TestCheck_SecondPassIsNoOp(t *testing.T) {
	provider := &fakeProvider{
		slug:      "rawg",
		priority:  10,
		bestMatch: metaWithTitle("3498", "Portal"),
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	game := seedGame(t, st, "game-1", "Portal (2007).zip")

	require.Equal(t, 1, svc.Check(ctx, []*domain.Game{game}))
	canonicalID := mustGetGame(t, st, "game-1").Metadata.ID

	// Records are fresh, so the second pass must not fetch or write.
	assert.Equal(t, 0, svc.Check(ctx, []*domain.Game{game}))
	assert.Equal(t, 1, provider.bestMatchCalls)
	assert.Equal(t, canonicalID, mustGetGame(t, st, "game-1").Metadata.ID)
}

func TestCheck_SkipsNoCatalogGames(t *testing.T) {
	provider := &fakeProvider{
		slug:      "rawg",
		priority:  10,
		bestMatch: metaWithTitle("3498", "Portal"),
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	game := seedGame(t, st, "game-1", "Portal (2007) (NC).zip")

	assert.Equal(t, 0, svc.Check(ctx, []*domain.Game{game}))
	assert.Equal(t, 0, provider.bestMatchCalls)
	assert.Empty(t, mustGetGame(t, st, "game-1").ProviderMetadata)
}

func TestCheck_RefreshesStaleRecords(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records: map[string]*domain.GameMetadata{
			"3498": metaWithTitle("3498", "Portal: Definitive"),
		},
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()

	game := seedGame(t, st, "game-1", "Portal (2007).zip")
	stale := metaWithTitle("3498", "Portal")
	stale.ID = "meta-old"
	stale.ProviderSlug = "rawg"
	stale.CreatedAt = time.Now().Add(-72 * time.Hour)
	stale.UpdatedAt = time.Now().Add(-48 * time.Hour)
	game.ProviderMetadata = append(game.ProviderMetadata, *stale)
	require.NoError(t, st.SaveGame(ctx, game))

	assert.Equal(t, 1, svc.Check(ctx, []*domain.Game{game}))

	got := mustGetGame(t, st, "game-1")
	require.Len(t, got.ProviderMetadata, 1)
	record := got.ProviderMetadata[0]
	assert.Equal(t, "meta-old", record.ID, "refresh updates in place")
	assert.Equal(t, "Portal: Definitive", *record.Title)
	assert.False(t, record.UpdatedAt.Before(time.Now().Add(-time.Minute)))
	assert.Equal(t, "Portal: Definitive", *got.Metadata.Title)
}

func TestCheck_RefreshMissKeepsStaleRecord(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records:  map[string]*domain.GameMetadata{},
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()

	game := seedGame(t, st, "game-1", "Portal (2007).zip")
	stale := metaWithTitle("3498", "Portal")
	stale.ID = "meta-old"
	stale.ProviderSlug = "rawg"
	stale.CreatedAt = time.Now().Add(-48 * time.Hour)
	game.ProviderMetadata = append(game.ProviderMetadata, *stale)
	require.NoError(t, st.SaveGame(ctx, game))

	assert.Equal(t, 0, svc.Check(ctx, []*domain.Game{game}))

	got := mustGetGame(t, st, "game-1")
	require.Len(t, got.ProviderMetadata, 1)
	assert.Equal(t, "Portal", *got.ProviderMetadata[0].Title)
}

func TestCheck_ProviderFailureDoesNotBlockOthers(t *testing.T) {
	broken := &fakeProvider{
		slug:     "igdb",
		priority: 5,
		err:      errors.ProviderFailure("upstream down"),
	}
	working := &fakeProvider{
		slug:      "rawg",
		priority:  10,
		bestMatch: metaWithTitle("3498", "Portal"),
	}
	svc, st := testService(t, 24*time.Hour, broken, working)
	ctx := context.Background()
	game := seedGame(t, st, "game-1", "Portal (2007).zip")

	assert.Equal(t, 1, svc.Check(ctx, []*domain.Game{game}))

	got := mustGetGame(t, st, "game-1")
	require.Len(t, got.ProviderMetadata, 1)
	assert.Equal(t, "rawg", got.ProviderMetadata[0].ProviderSlug)
}

func TestCheck_GameFailureDoesNotAbortBatch(t *testing.T) {
	provider := &fakeProvider{
		slug:      "rawg",
		priority:  10,
		bestMatch: metaWithTitle("3498", "Portal"),
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	game := seedGame(t, st, "game-2", "Portal (2007).zip")

	ghost := &domain.Game{Title: "Ghost", FilePath: "ghost.zip"}
	ghost.ID = "game-missing"

	assert.Equal(t, 1, svc.Check(ctx, []*domain.Game{ghost, game}))
	assert.Len(t, mustGetGame(t, st, "game-2").ProviderMetadata, 1)
}

func TestMap_ReplacesExistingRecord(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records: map[string]*domain.GameMetadata{
			"3498": metaWithTitle("3498", "Portal"),
			"4200": metaWithTitle("4200", "Portal 2"),
		},
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	seedGame(t, st, "game-1", "Portal (2007).zip")

	_, err := svc.Map(ctx, "game-1", "rawg", "3498", nil)
	require.NoError(t, err)
	firstID := mustGetGame(t, st, "game-1").ProviderMetadata[0].ID

	game, err := svc.Map(ctx, "game-1", "rawg", "4200", nil)
	require.NoError(t, err)
	require.Len(t, game.ProviderMetadata, 1)
	assert.Equal(t, "4200", game.ProviderMetadata[0].ProviderDataID)
	assert.NotEqual(t, firstID, game.ProviderMetadata[0].ID)

	// The replaced record's standalone row is gone, not orphaned.
	_, err = st.GetMetadataRecord(ctx, firstID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	game, err = svc.Merge(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, "Portal 2", *game.Metadata.Title)
}

func TestMap_DoesNotRecomputeCanonical(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records: map[string]*domain.GameMetadata{
			"3498": metaWithTitle("3498", "Portal"),
		},
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	seedGame(t, st, "game-1", "Portal (2007).zip")

	game, err := svc.Map(ctx, "game-1", "rawg", "3498", nil)
	require.NoError(t, err)
	require.Len(t, game.ProviderMetadata, 1)
	assert.Nil(t, game.Metadata)

	game, err = svc.Merge(ctx, "game-1")
	require.NoError(t, err)
	require.NotNil(t, game.Metadata)
	assert.Equal(t, "Portal", *game.Metadata.Title)
}

func TestMap_SucceedsWithUnregisteredSiblingRecord(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records: map[string]*domain.GameMetadata{
			"3498": metaWithTitle("3498", "Portal"),
		},
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	game := seedGame(t, st, "game-1", "Portal (2007).zip")

	// A leftover record from a provider that is no longer registered must
	// not block mapping a different provider.
	leftover := metaWithTitle("77", "Portal (IGDB)")
	leftover.ID = "meta_leftover"
	leftover.ProviderSlug = "igdb"
	leftover.InitTimestamps()
	game.ProviderMetadata = append(game.ProviderMetadata, *leftover)
	require.NoError(t, st.SaveGame(ctx, game))

	mapped, err := svc.Map(ctx, "game-1", "rawg", "3498", nil)
	require.NoError(t, err)
	assert.Len(t, mapped.ProviderMetadata, 2)
}

func TestMap_UnknownProvider(t *testing.T) {
	svc, st := testService(t, 24*time.Hour)
	seedGame(t, st, "game-1", "Portal (2007).zip")

	_, err := svc.Map(context.Background(), "game-1", "nope", "1", nil)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestMap_PriorityOverrideChangesWinner(t *testing.T) {
	low := &fakeProvider{
		slug:     "igdb",
		priority: 5,
		records: map[string]*domain.GameMetadata{
			"77": metaWithTitle("77", "Portal (IGDB)"),
		},
	}
	high := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records: map[string]*domain.GameMetadata{
			"3498": metaWithTitle("3498", "Portal (RAWG)"),
		},
	}
	svc, st := testService(t, 24*time.Hour, low, high)
	ctx := context.Background()
	seedGame(t, st, "game-1", "Portal (2007).zip")

	_, err := svc.Map(ctx, "game-1", "rawg", "3498", nil)
	require.NoError(t, err)

	// Pin the low-priority provider above the high one for this game only.
	override := 99
	_, err = svc.Map(ctx, "game-1", "igdb", "77", &override)
	require.NoError(t, err)

	game, err := svc.Merge(ctx, "game-1")
	require.NoError(t, err)
	assert.Equal(t, "Portal (IGDB)", *game.Metadata.Title)
}

func TestUnmap_RemovesRecordAndCanonical(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records: map[string]*domain.GameMetadata{
			"3498": metaWithTitle("3498", "Portal"),
		},
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	seedGame(t, st, "game-1", "Portal (2007).zip")

	mapped, err := svc.Map(ctx, "game-1", "rawg", "3498", nil)
	require.NoError(t, err)
	recordID := mapped.ProviderMetadata[0].ID

	merged, err := svc.Merge(ctx, "game-1")
	require.NoError(t, err)
	canonicalID := merged.Metadata.ID

	game, err := svc.Unmap(ctx, "game-1", "rawg")
	require.NoError(t, err)
	assert.Empty(t, game.ProviderMetadata)
	assert.Nil(t, game.Metadata)

	_, err = st.GetMetadataRecord(ctx, recordID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	_, err = st.GetMetadataRecord(ctx, canonicalID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUnmap_MissingRecordIsNoOp(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records: map[string]*domain.GameMetadata{
			"3498": metaWithTitle("3498", "Portal"),
		},
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	seedGame(t, st, "game-1", "Portal (2007).zip")

	_, err := svc.Map(ctx, "game-1", "rawg", "3498", nil)
	require.NoError(t, err)

	// Unmapping a provider that was never mapped succeeds and leaves the
	// existing records untouched.
	game, err := svc.Unmap(ctx, "game-1", "igdb")
	require.NoError(t, err)
	require.Len(t, game.ProviderMetadata, 1)
	assert.Equal(t, "rawg", game.ProviderMetadata[0].ProviderSlug)
	require.NotNil(t, game.Metadata)
	assert.Equal(t, "Portal", *game.Metadata.Title)

	// Repeating an unmap after the record is gone is equally harmless.
	_, err = svc.Unmap(ctx, "game-1", "rawg")
	require.NoError(t, err)
	game, err = svc.Unmap(ctx, "game-1", "rawg")
	require.NoError(t, err)
	assert.Empty(t, game.ProviderMetadata)
	assert.Nil(t, game.Metadata)
}

func TestSetUserOverride_WinsInCanonical(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		records: map[string]*domain.GameMetadata{
			"3498": metaWithTitle("3498", "Portal"),
		},
	}
	svc, st := testService(t, 24*time.Hour, provider)
	ctx := context.Background()
	seedGame(t, st, "game-1", "Portal (2007).zip")

	_, err := svc.Map(ctx, "game-1", "rawg", "3498", nil)
	require.NoError(t, err)

	title := "Portal GOTY"
	game, err := svc.SetUserOverride(ctx, "game-1", &domain.GameMetadata{Title: &title})
	require.NoError(t, err)
	require.NotNil(t, game.UserMetadata)
	assert.Equal(t, domain.UserSource, game.UserMetadata.ProviderSlug)
	assert.Equal(t, "Portal GOTY", *game.Metadata.Title)

	// Dropping the override falls back to provider data.
	game, err = svc.Unmap(ctx, "game-1", domain.UserSource)
	require.NoError(t, err)
	assert.Nil(t, game.UserMetadata)
	assert.Equal(t, "Portal", *game.Metadata.Title)
}

func TestMerge_NoRecordsIsNoOp(t *testing.T) {
	svc, st := testService(t, 24*time.Hour)
	ctx := context.Background()
	seedGame(t, st, "game-1", "Portal (2007).zip")

	game, err := svc.Merge(ctx, "game-1")
	require.NoError(t, err)
	assert.Nil(t, game.Metadata)
}

func TestSearch_PassThrough(t *testing.T) {
	provider := &fakeProvider{
		slug:     "rawg",
		priority: 10,
		searchResults: []metadata.MinimalGameMetadata{
			{ProviderSlug: "rawg", ProviderDataID: "3498", Title: "Portal"},
		},
	}
	svc, _ := testService(t, 24*time.Hour, provider)

	results, err := svc.Search(context.Background(), "rawg", "portal")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "3498", results[0].ProviderDataID)

	_, err = svc.Search(context.Background(), "nope", "portal")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func mustGetGame(t *testing.T, st *store.Store, id string) *domain.Game {
	t.Helper()
	game, err := st.GetGame(context.Background(), id, store.GetOptions{})
	require.NoError(t, err)
	return game
}
