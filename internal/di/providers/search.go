package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/gamevaultapp/gamevault-server/internal/config"
	"github.com/gamevaultapp/gamevault-server/internal/logger"
	"github.com/gamevaultapp/gamevault-server/internal/search"
	"github.com/gamevaultapp/gamevault-server/internal/store"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.GameIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewGameIndex(search.Options{
		DataPath: cfg.Metadata.BasePath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{GameIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the catalog.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	games, err := storeHandle.ListGames(ctx, store.GetOptions{})
	if err != nil || len(games) == 0 {
		return
	}

	log.Info("Search index is empty but games exist, triggering initial reindex",
		"game_count", len(games),
	)

	go func() {
		if err := indexHandle.IndexGames(games); err != nil {
			log.Error("Initial reindex failed", "error", err)
		}
	}()
}
