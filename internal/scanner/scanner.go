// Package scanner reconciles the library directory with the game catalog.
// Files on disk are the source of truth: new files become games, changed
// files update their game, and vanished files soft-delete it.
package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/id"
	"github.com/gamevaultapp/gamevault-server/internal/store"
)

// Scanner walks the library and syncs the catalog in the store.
type Scanner struct {
	store  *store.Store
	walker *Walker
	root   string
	logger *slog.Logger
}

// New creates a scanner rooted at the library directory.
func New(st *store.Store, root string, logger *slog.Logger) *Scanner {
	return &Scanner{
		store:  st,
		walker: NewWalker(logger),
		root:   root,
		logger: logger,
	}
}

// Result summarizes one scan pass.
type Result struct {
	New      int
	Updated  int
	Restored int
	Missing  int

	// Games holds every live game after the pass, for reindexing and
	// metadata sync.
	Games []*domain.Game
	// RemovedIDs holds the games soft-deleted by this pass, so callers can
	// drop them from the search index.
	RemovedIDs []string
}

// Scan walks the library once and reconciles the catalog. Games are matched
// to files by their library-relative path.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	known, err := s.store.ListGames(ctx, store.GetOptions{IncludeDeleted: true})
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}

	byPath := make(map[string]*domain.Game, len(known))
	for _, game := range known {
		byPath[game.FilePath] = game
	}

	result := &Result{}
	seen := make(map[string]bool)

	for file := range s.walker.Walk(ctx, s.root) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		seen[file.RelPath] = true

		existing, ok := byPath[file.RelPath]
		if !ok {
			game, err := s.createGame(ctx, file)
			if err != nil {
				s.logger.Error("failed to create game", "path", file.RelPath, "error", err)
				continue
			}
			result.New++
			result.Games = append(result.Games, game)
			continue
		}

		game, changed, err := s.updateGame(ctx, existing, file)
		if err != nil {
			s.logger.Error("failed to update game", "path", file.RelPath, "error", err)
			continue
		}
		if changed {
			if game.DeletedAt == nil && existing.IsDeleted() {
				result.Restored++
			} else {
				result.Updated++
			}
		}
		result.Games = append(result.Games, game)
	}

	// Files that disappeared take their games out of the catalog. Soft
	// delete keeps mappings intact in case the file comes back.
	for path, game := range byPath {
		if seen[path] || game.IsDeleted() {
			continue
		}
		if err := s.store.DeleteGame(ctx, game.ID); err != nil {
			s.logger.Error("failed to delete game", "path", path, "error", err)
			continue
		}
		result.Missing++
		result.RemovedIDs = append(result.RemovedIDs, game.ID)
	}

	s.logger.Info("library scan finished",
		"new", result.New,
		"updated", result.Updated,
		"restored", result.Restored,
		"missing", result.Missing,
		"total", len(result.Games),
	)
	return result, nil
}

// createGame registers a newly discovered file as a game.
func (s *Scanner) createGame(ctx context.Context, file WalkResult) (*domain.Game, error) {
	parsed := domain.ParseFileName(file.RelPath)

	game := &domain.Game{
		Title:       parsed.Title,
		Version:     parsed.Version,
		FilePath:    file.RelPath,
		Size:        file.Size,
		EarlyAccess: parsed.EarlyAccess,
		ReleaseYear: parsed.ReleaseYear,
	}
	game.ID = id.MustGenerate("game")
	game.InitTimestamps()

	if err := s.store.CreateGame(ctx, game); err != nil {
		return nil, err
	}

	s.logger.Info("discovered new game",
		"id", game.ID,
		"title", game.Title,
		"path", game.FilePath,
	)
	return game, nil
}

// updateGame refreshes a known game from its file, restoring it if it was
// soft-deleted.
func (s *Scanner) updateGame(ctx context.Context, game *domain.Game, file WalkResult) (*domain.Game, bool, error) {
	changed := false

	if game.IsDeleted() {
		restored, err := s.store.RestoreGame(ctx, game.ID)
		if err != nil {
			return nil, false, err
		}
		game = restored
		changed = true
		s.logger.Info("restored game, file is back",
			"id", game.ID,
			"path", game.FilePath,
		)
	}

	parsed := domain.ParseFileName(file.RelPath)
	if game.Size != file.Size || game.Version != parsed.Version {
		game.Size = file.Size
		game.Version = parsed.Version
		if err := s.store.SaveGame(ctx, game); err != nil {
			return nil, false, err
		}
		changed = true
	}

	return game, changed, nil
}
