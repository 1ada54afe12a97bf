// Package service holds the application services that sit between the HTTP
// layer and the store: metadata sync and mapping, library scanning, and
// search indexing.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
	"github.com/gamevaultapp/gamevault-server/internal/id"
	"github.com/gamevaultapp/gamevault-server/internal/metadata"
	"github.com/gamevaultapp/gamevault-server/internal/store"
)

// SearchIndexer keeps the search index in step with canonical metadata.
// It is optional; a nil indexer disables indexing.
type SearchIndexer interface {
	IndexGame(game *domain.Game) error
	RemoveGame(gameID string) error
}

// MetadataService orchestrates provider metadata for the library: periodic
// sync, manual mapping and unmapping, and recomputing each game's canonical
// record.
type MetadataService struct {
	store    *store.Store
	registry *metadata.Registry
	indexer  SearchIndexer
	ttl      time.Duration
	logger   *slog.Logger
}

// NewMetadataService creates a new metadata service. ttl bounds how old a
// provider record may get before the next sync pass refreshes it.
func NewMetadataService(
	st *store.Store,
	registry *metadata.Registry,
	indexer SearchIndexer,
	ttl time.Duration,
	logger *slog.Logger,
) *MetadataService {
	return &MetadataService{
		store:    st,
		registry: registry,
		indexer:  indexer,
		ttl:      ttl,
		logger:   logger,
	}
}

// Check runs a sync pass over the given games. Each game is processed in
// isolation: one game failing never aborts the batch. The provider set is
// snapshotted once for the whole batch so a concurrent registration cannot
// split the batch across two provider views.
//
// Returns the number of games whose canonical metadata changed.
func (s *MetadataService) Check(ctx context.Context, games []*domain.Game) int {
	providers := s.registry.ByPriority()
	batchID := uuid.NewString()

	s.logger.Info("metadata sync started",
		"batch_id", batchID,
		"games", len(games),
		"providers", len(providers),
	)

	updated := 0
	for _, game := range games {
		if ctx.Err() != nil {
			s.logger.Warn("metadata sync aborted",
				"batch_id", batchID,
				"error", ctx.Err(),
			)
			break
		}

		changed, err := s.updateMetadata(ctx, providers, game.ID)
		if err != nil {
			s.logger.Error("metadata sync failed for game",
				"batch_id", batchID,
				"game_id", game.ID,
				"error", err,
			)
			continue
		}
		if changed {
			updated++
		}
	}

	s.logger.Info("metadata sync finished",
		"batch_id", batchID,
		"games", len(games),
		"updated", updated,
	)
	return updated
}

// updateMetadata syncs one game against the snapshotted provider list. The
// game is reloaded fresh so the pass never operates on a caller's stale copy.
// Stale records are refreshed by their stored provider id; unmapped providers
// get a best-match search. The merge and write are skipped entirely when no
// provider contributed a change, which keeps repeated passes idempotent.
func (s *MetadataService) updateMetadata(ctx context.Context, providers []metadata.Provider, gameID string) (bool, error) {
	game, err := s.store.GetGame(ctx, gameID, store.GetOptions{})
	if err != nil {
		return false, err
	}

	if game.NoCatalog() {
		s.logger.Debug("skipping game marked (NC)",
			"game_id", game.ID,
			"file_path", game.FilePath,
		)
		return false, nil
	}

	staleBefore := time.Now().Add(-s.ttl)
	changes := 0

	for _, provider := range providers {
		existing := game.ProviderRecord(provider.Slug())

		if existing != nil {
			if !existing.EffectiveTimestamp().Before(staleBefore) {
				continue
			}
			if s.refreshRecord(ctx, game, provider, existing) {
				changes++
			}
			continue
		}

		fresh, err := provider.GetBestMatch(ctx, game)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				s.logger.Debug("no provider match for game",
					"game_id", game.ID,
					"provider", provider.Slug(),
					"title", game.Title,
				)
			} else {
				s.logger.Warn("provider lookup failed",
					"game_id", game.ID,
					"provider", provider.Slug(),
					"error", err,
				)
			}
			continue
		}

		if err := s.attachRecord(ctx, game, provider.Slug(), fresh, nil); err != nil {
			return false, err
		}
		changes++
	}

	if changes == 0 {
		return false, nil
	}

	if _, err := s.mergeAndSave(ctx, game); err != nil {
		return false, err
	}
	return true, nil
}

// refreshRecord re-fetches a stale record by its stored provider data id.
// A NotFound from the provider keeps the stale record in place: losing data
// because an upstream entry vanished would be worse than serving old data.
func (s *MetadataService) refreshRecord(ctx context.Context, game *domain.Game, provider metadata.Provider, existing *domain.GameMetadata) bool {
	fresh, err := provider.GetByProviderDataID(ctx, existing.ProviderDataID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			s.logger.Warn("provider no longer resolves mapped id, keeping stale record",
				"game_id", game.ID,
				"provider", provider.Slug(),
				"provider_data_id", existing.ProviderDataID,
			)
		} else {
			s.logger.Warn("provider refresh failed",
				"game_id", game.ID,
				"provider", provider.Slug(),
				"error", err,
			)
		}
		return false
	}

	// Update in place: keep the record's identity and any priority override.
	fresh.Entity = existing.Entity
	fresh.ProviderSlug = provider.Slug()
	fresh.ProviderPriority = existing.ProviderPriority
	if fresh.ProviderDataID == "" {
		fresh.ProviderDataID = existing.ProviderDataID
	}
	fresh.Touch()
	*existing = *fresh
	return true
}

// Map attaches a provider record to a game by the provider's native id,
// replacing any previous record from the same provider. priorityOverride, if
// non-nil, pins the record's rank independent of the provider's registered
// priority. The canonical record is not recomputed here; callers that need
// the merged view immediately follow up with Merge. That keeps Map usable
// even while an unrelated sibling record's provider is unregistered.
func (s *MetadataService) Map(ctx context.Context, gameID, providerSlug, providerDataID string, priorityOverride *int) (*domain.Game, error) {
	provider, err := s.registry.Resolve(providerSlug)
	if err != nil {
		return nil, err
	}

	game, err := s.store.GetGame(ctx, gameID, store.GetOptions{})
	if err != nil {
		return nil, err
	}

	fresh, err := provider.GetByProviderDataID(ctx, providerDataID)
	if err != nil {
		return nil, err
	}
	if fresh.ProviderDataID == "" {
		fresh.ProviderDataID = providerDataID
	}

	if err := s.attachRecord(ctx, game, providerSlug, fresh, priorityOverride); err != nil {
		return nil, err
	}

	if err := s.store.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	s.logger.Info("mapped provider metadata",
		"game_id", game.ID,
		"provider", providerSlug,
		"provider_data_id", fresh.ProviderDataID,
	)
	return game, nil
}

// Unmap removes a provider's record from a game. The reserved slug "user"
// clears the manual override record instead. Unmapping a provider that was
// never mapped is a no-op, not an error. The canonical record is recomputed
// either way; when nothing remains to merge it is deleted outright.
func (s *MetadataService) Unmap(ctx context.Context, gameID, providerSlug string) (*domain.Game, error) {
	game, err := s.store.GetGame(ctx, gameID, store.GetOptions{})
	if err != nil {
		return nil, err
	}

	if providerSlug == domain.UserSource {
		if game.UserMetadata != nil {
			if err := s.store.DeleteMetadataRecord(ctx, game.UserMetadata.ID); err != nil {
				return nil, err
			}
			game.UserMetadata = nil
		}
	} else {
		var recordID string
		if existing := game.ProviderRecord(providerSlug); existing != nil {
			recordID = existing.ID
		}
		if game.RemoveProviderRecord(providerSlug) {
			if err := s.store.DeleteMetadataRecord(ctx, recordID); err != nil {
				return nil, err
			}
		}
	}

	if _, err := s.mergeAndSave(ctx, game); err != nil {
		return nil, err
	}

	s.logger.Info("unmapped provider metadata",
		"game_id", game.ID,
		"provider", providerSlug,
	)
	return game, nil
}

// SetUserOverride replaces the game's manual override record and recomputes
// the canonical record. Override fields left nil fall through to provider
// data during merge.
func (s *MetadataService) SetUserOverride(ctx context.Context, gameID string, override *domain.GameMetadata) (*domain.Game, error) {
	if override == nil {
		return nil, errors.Validation("override record must not be nil")
	}

	game, err := s.store.GetGame(ctx, gameID, store.GetOptions{})
	if err != nil {
		return nil, err
	}

	record := override.Clone()
	record.ProviderSlug = domain.UserSource
	record.ProviderDataID = game.ID
	record.ProviderPriority = nil
	if game.UserMetadata != nil {
		record.Entity = game.UserMetadata.Entity
		record.Touch()
	} else {
		record.ID = id.MustGenerate("meta")
		record.InitTimestamps()
	}
	game.UserMetadata = record

	if _, err := s.mergeAndSave(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// Merge recomputes a single game's canonical record on demand.
func (s *MetadataService) Merge(ctx context.Context, gameID string) (*domain.Game, error) {
	game, err := s.store.GetGame(ctx, gameID, store.GetOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := s.mergeAndSave(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// Search proxies a free-text search to one provider.
func (s *MetadataService) Search(ctx context.Context, providerSlug, query string) ([]metadata.MinimalGameMetadata, error) {
	provider, err := s.registry.Resolve(providerSlug)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("searching provider",
		"provider", providerSlug,
		"query", query,
	)
	return provider.Search(ctx, query)
}

// Providers returns the registered providers in priority order.
func (s *MetadataService) Providers() []metadata.Provider {
	return s.registry.ByPriority()
}

// attachRecord replaces the game's record for the given provider with fresh,
// stamping a new identity. Clearing before setting keeps the invariant of at
// most one record per provider; the replaced record's standalone row is
// deleted so it cannot linger as an orphan.
func (s *MetadataService) attachRecord(ctx context.Context, game *domain.Game, providerSlug string, fresh *domain.GameMetadata, priorityOverride *int) error {
	if existing := game.ProviderRecord(providerSlug); existing != nil {
		if err := s.store.DeleteMetadataRecord(ctx, existing.ID); err != nil {
			return err
		}
	}
	game.RemoveProviderRecord(providerSlug)

	fresh.ID = id.MustGenerate("meta")
	fresh.InitTimestamps()
	fresh.ProviderSlug = providerSlug
	fresh.ProviderPriority = priorityOverride
	game.ProviderMetadata = append(game.ProviderMetadata, *fresh)
	return nil
}

// mergeAndSave recomputes the game's canonical record and persists the whole
// aggregate. When the merge yields nothing the stored canonical record is
// deleted. The search index is updated after a successful write.
func (s *MetadataService) mergeAndSave(ctx context.Context, game *domain.Game) (*domain.GameMetadata, error) {
	canonical, err := metadata.Merge(game, s.registry)
	if err != nil {
		return nil, err
	}

	if canonical == nil {
		if game.Metadata != nil {
			if err := s.store.DeleteMetadataRecord(ctx, game.Metadata.ID); err != nil {
				return nil, err
			}
			game.Metadata = nil
		}
	} else {
		if canonical.ID == "" {
			canonical.ID = id.MustGenerate("meta")
			canonical.InitTimestamps()
		} else {
			canonical.Touch()
		}
		game.Metadata = canonical
	}

	if err := s.store.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	if s.indexer != nil {
		if err := s.indexer.IndexGame(game); err != nil {
			s.logger.Warn("failed to index game",
				"game_id", game.ID,
				"error", err,
			)
		}
	}
	return canonical, nil
}
