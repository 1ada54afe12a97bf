package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
)

const (
	gamePrefix           = "game:"
	gameByPathPrefix     = "idx:games:path:"
	metadataRecordPrefix = "metadata:record:"
)

// GetOptions controls how games are loaded.
type GetOptions struct {
	// IncludeDeleted also returns soft-deleted games.
	IncludeDeleted bool
}

// CreateGame creates a new game. Fails with Conflict if the ID or file path
// is already taken.
func (s *Store) CreateGame(ctx context.Context, game *domain.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := []byte(gamePrefix + game.ID)

	exists, err := s.exists(key)
	if err != nil {
		return fmt.Errorf("check game exists: %w", err)
	}
	if exists {
		return errors.Conflictf("game %q already exists", game.ID)
	}

	pathKey := []byte(gameByPathPrefix + game.FilePath)
	pathTaken, err := s.exists(pathKey)
	if err != nil {
		return fmt.Errorf("check game path exists: %w", err)
	}
	if pathTaken {
		return errors.Conflictf("a game with path %q already exists", game.FilePath)
	}

	if err := s.writeGame(game); err != nil {
		return fmt.Errorf("create game: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "game created",
			slog.String("id", game.ID),
			slog.String("title", game.Title),
			slog.String("path", game.FilePath),
		)
	}
	return nil
}

// GetGame retrieves a game by ID. Soft-deleted games are treated as missing
// unless opts.IncludeDeleted is set.
func (s *Store) GetGame(ctx context.Context, id string, opts GetOptions) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := []byte(gamePrefix + id)

	var game domain.Game
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &game)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NotFoundf("game %q not found", id)
		}
		return nil, fmt.Errorf("get game: %w", err)
	}

	if game.IsDeleted() && !opts.IncludeDeleted {
		return nil, errors.NotFoundf("game %q not found", id)
	}

	return &game, nil
}

// GetGameByPath retrieves a game by its library file path.
func (s *Store) GetGameByPath(ctx context.Context, path string) (*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var gameID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(gameByPathPrefix + path))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			gameID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NotFoundf("no game with path %q", path)
		}
		return nil, fmt.Errorf("get game by path: %w", err)
	}

	return s.GetGame(ctx, gameID, GetOptions{IncludeDeleted: true})
}

// SaveGame persists a game and all of its metadata records atomically. The
// game document, its per-record rows, and the path index are written in a
// single transaction, so a failing save never leaves the aggregate half
// updated.
func (s *Store) SaveGame(ctx context.Context, game *domain.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	game.Touch()
	if err := s.writeGame(game); err != nil {
		return fmt.Errorf("save game: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "game saved",
			slog.String("id", game.ID),
			slog.Int("provider_records", len(game.ProviderMetadata)),
		)
	}
	return nil
}

// writeGame stores the game document, its metadata record rows, and the
// path index in one transaction.
func (s *Store) writeGame(game *domain.Game) error {
	return s.db.Update(func(txn *badger.Txn) error {
		data, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("marshal game: %w", err)
		}

		// Drop the old path index entry when the file has moved, so the
		// previous path no longer resolves to this game.
		if item, err := txn.Get([]byte(gamePrefix + game.ID)); err == nil {
			var prev domain.Game
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &prev)
			})
			if err != nil {
				return fmt.Errorf("unmarshal stored game: %w", err)
			}
			if prev.FilePath != "" && prev.FilePath != game.FilePath {
				if err := txn.Delete([]byte(gameByPathPrefix + prev.FilePath)); err != nil {
					return err
				}
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set([]byte(gamePrefix+game.ID), data); err != nil {
			return err
		}

		if err := txn.Set([]byte(gameByPathPrefix+game.FilePath), []byte(game.ID)); err != nil {
			return err
		}

		// Metadata records are also addressable by their own ID.
		for i := range game.ProviderMetadata {
			if err := writeMetadataRecord(txn, game.ID, &game.ProviderMetadata[i]); err != nil {
				return err
			}
		}
		if game.UserMetadata != nil {
			if err := writeMetadataRecord(txn, game.ID, game.UserMetadata); err != nil {
				return err
			}
		}
		if game.Metadata != nil {
			if err := writeMetadataRecord(txn, game.ID, game.Metadata); err != nil {
				return err
			}
		}
		return nil
	})
}

// recordRow is the stored shape of a standalone metadata record row.
type recordRow struct {
	GameID string               `json:"game_id"`
	Record *domain.GameMetadata `json:"record"`
}

func writeMetadataRecord(txn *badger.Txn, gameID string, record *domain.GameMetadata) error {
	if record.ID == "" {
		return nil
	}
	data, err := json.Marshal(recordRow{GameID: gameID, Record: record})
	if err != nil {
		return fmt.Errorf("marshal metadata record: %w", err)
	}
	return txn.Set([]byte(metadataRecordPrefix+record.ID), data)
}

// DeleteMetadataRecord removes a standalone metadata record row. Deleting a
// record that does not exist is a no-op.
func (s *Store) DeleteMetadataRecord(ctx context.Context, recordID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if recordID == "" {
		return nil
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(metadataRecordPrefix + recordID))
	})
	if err != nil {
		return fmt.Errorf("delete metadata record: %w", err)
	}
	return nil
}

// GetMetadataRecord loads a standalone metadata record row by its ID.
func (s *Store) GetMetadataRecord(ctx context.Context, recordID string) (*domain.GameMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row recordRow
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metadataRecordPrefix + recordID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NotFoundf("metadata record %q not found", recordID)
		}
		return nil, fmt.Errorf("get metadata record: %w", err)
	}
	return row.Record, nil
}

// ListGames returns all games, excluding soft-deleted ones unless
// opts.IncludeDeleted is set.
func (s *Store) ListGames(ctx context.Context, opts GetOptions) ([]*domain.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var games []*domain.Game
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(gamePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var game domain.Game
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &game)
			})
			if err != nil {
				return err
			}

			if game.IsDeleted() && !opts.IncludeDeleted {
				continue
			}
			games = append(games, &game)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// CountGames returns the number of live (not soft-deleted) games.
func (s *Store) CountGames(ctx context.Context) (int, error) {
	games, err := s.ListGames(ctx, GetOptions{})
	if err != nil {
		return 0, err
	}
	return len(games), nil
}

// DeleteGame soft-deletes a game. The document and its metadata rows remain
// so the game can be restored if the file reappears.
func (s *Store) DeleteGame(ctx context.Context, id string) error {
	game, err := s.GetGame(ctx, id, GetOptions{IncludeDeleted: true})
	if err != nil {
		return err
	}
	if game.IsDeleted() {
		return nil
	}

	game.MarkDeleted()
	if err := s.writeGame(game); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "game soft-deleted",
			slog.String("id", id),
		)
	}
	return nil
}

// RestoreGame clears the soft-delete marker on a game.
func (s *Store) RestoreGame(ctx context.Context, id string) (*domain.Game, error) {
	game, err := s.GetGame(ctx, id, GetOptions{IncludeDeleted: true})
	if err != nil {
		return nil, err
	}
	if !game.IsDeleted() {
		return game, nil
	}

	game.DeletedAt = nil
	game.Touch()
	if err := s.writeGame(game); err != nil {
		return nil, fmt.Errorf("restore game: %w", err)
	}
	return game, nil
}
