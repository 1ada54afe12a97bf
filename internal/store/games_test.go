package store

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	s, err := New(t.TempDir(), logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close() //nolint:errcheck // Test cleanup
	})
	return s
}

func testGame(id, path string) *domain.Game {
	g := &domain.Game{
		Title:    "Test Game",
		FilePath: path,
		Size:     1024,
	}
	g.ID = id
	g.InitTimestamps()
	return g
}

func TestCreateGame_AndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	game := testGame("game-1", "Test Game (2020).zip")
	require.NoError(t, s.CreateGame(ctx, game))

	got, err := s.GetGame(ctx, "game-1", GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Test Game", got.Title)
	assert.Equal(t, int64(1024), got.Size)
}

func TestCreateGame_DuplicateID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, testGame("game-1", "a.zip")))

	err := s.CreateGame(ctx, testGame("game-1", "b.zip"))
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestCreateGame_DuplicatePath(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, testGame("game-1", "same.zip")))

	err := s.CreateGame(ctx, testGame("game-2", "same.zip"))
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestGetGame_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetGame(context.Background(), "missing", GetOptions{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestGetGameByPath(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, testGame("game-1", "Portal (2007).zip")))

	got, err := s.GetGameByPath(ctx, "Portal (2007).zip")
	require.NoError(t, err)
	assert.Equal(t, "game-1", got.ID)

	_, err = s.GetGameByPath(ctx, "unknown.zip")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSaveGame_MovedFileReindexesPath(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, testGame("game-1", "Portal (2007).zip")))

	game, err := s.GetGame(ctx, "game-1", GetOptions{})
	require.NoError(t, err)
	game.FilePath = "moved/Portal (2007).zip"
	require.NoError(t, s.SaveGame(ctx, game))

	got, err := s.GetGameByPath(ctx, "moved/Portal (2007).zip")
	require.NoError(t, err)
	assert.Equal(t, "game-1", got.ID)

	// The old path no longer resolves.
	_, err = s.GetGameByPath(ctx, "Portal (2007).zip")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSaveGame_PersistsMetadataRecords(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	game := testGame("game-1", "a.zip")
	require.NoError(t, s.CreateGame(ctx, game))

	title := "Canonical"
	record := domain.GameMetadata{ProviderSlug: "rawg", ProviderDataID: "3498"}
	record.ID = "meta-rawg"
	canonical := &domain.GameMetadata{ProviderSlug: domain.CanonicalSource, Title: &title}
	canonical.ID = "meta-canonical"

	game.ProviderMetadata = append(game.ProviderMetadata, record)
	game.Metadata = canonical
	require.NoError(t, s.SaveGame(ctx, game))

	// The aggregate reloads whole.
	got, err := s.GetGame(ctx, "game-1", GetOptions{})
	require.NoError(t, err)
	require.Len(t, got.ProviderMetadata, 1)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, "Canonical", *got.Metadata.Title)

	// Records are also addressable standalone.
	row, err := s.GetMetadataRecord(ctx, "meta-rawg")
	require.NoError(t, err)
	assert.Equal(t, "3498", row.ProviderDataID)
}

func TestDeleteMetadataRecord(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	game := testGame("game-1", "a.zip")
	record := domain.GameMetadata{ProviderSlug: "rawg"}
	record.ID = "meta-rawg"
	game.ProviderMetadata = append(game.ProviderMetadata, record)
	require.NoError(t, s.CreateGame(ctx, game))

	require.NoError(t, s.DeleteMetadataRecord(ctx, "meta-rawg"))

	_, err := s.GetMetadataRecord(ctx, "meta-rawg")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	// Deleting again is a no-op.
	assert.NoError(t, s.DeleteMetadataRecord(ctx, "meta-rawg"))
	assert.NoError(t, s.DeleteMetadataRecord(ctx, ""))
}

func TestListGames_ExcludesSoftDeleted(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, testGame("game-1", "a.zip")))
	require.NoError(t, s.CreateGame(ctx, testGame("game-2", "b.zip")))
	require.NoError(t, s.DeleteGame(ctx, "game-2"))

	games, err := s.ListGames(ctx, GetOptions{})
	require.NoError(t, err)
	assert.Len(t, games, 1)

	all, err := s.ListGames(ctx, GetOptions{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := s.CountGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDeleteGame_HiddenFromGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, testGame("game-1", "a.zip")))
	require.NoError(t, s.DeleteGame(ctx, "game-1"))

	_, err := s.GetGame(ctx, "game-1", GetOptions{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	got, err := s.GetGame(ctx, "game-1", GetOptions{IncludeDeleted: true})
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())

	// Double delete is a no-op.
	assert.NoError(t, s.DeleteGame(ctx, "game-1"))
}

func TestRestoreGame(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, testGame("game-1", "a.zip")))
	require.NoError(t, s.DeleteGame(ctx, "game-1"))

	restored, err := s.RestoreGame(ctx, "game-1")
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())

	_, err = s.GetGame(ctx, "game-1", GetOptions{})
	assert.NoError(t, err)
}
