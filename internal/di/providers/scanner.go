package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/gamevaultapp/gamevault-server/internal/config"
	"github.com/gamevaultapp/gamevault-server/internal/logger"
	"github.com/gamevaultapp/gamevault-server/internal/scanner"
	"github.com/gamevaultapp/gamevault-server/internal/service"
	"github.com/gamevaultapp/gamevault-server/internal/store"
)

// ScannerHandle wraps the library scanner. Scanner is nil when no games
// path is configured.
type ScannerHandle struct {
	*scanner.Scanner
}

// ProvideScanner provides the library scanner.
func ProvideScanner(i do.Injector) (*ScannerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	if cfg.Library.GamesPath == "" {
		log.Info("No games path configured, library scanning disabled")
		return &ScannerHandle{}, nil
	}

	return &ScannerHandle{
		Scanner: scanner.New(storeHandle.Store, cfg.Library.GamesPath, log.Logger),
	}, nil
}

// RunInitialScan walks the library once at startup, reindexes the result,
// and runs a metadata sync pass over it.
func RunInitialScan(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	scannerHandle := do.MustInvoke[*ScannerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	metadataService := do.MustInvoke[*service.MetadataService](i)

	if scannerHandle.Scanner == nil {
		return
	}

	ctx := context.Background()

	result, err := scannerHandle.Scan(ctx)
	if err != nil {
		log.Error("Initial library scan failed", "error", err)
		return
	}

	if err := indexHandle.IndexGames(result.Games); err != nil {
		log.Warn("Failed to index library after initial scan", "error", err)
	}
	removeFromIndex(indexHandle, result.RemovedIDs, log)

	metadataService.Check(ctx, result.Games)
}

// RunScanAndSync is the change handler for the file watcher and the
// periodic sync worker: rescan, reindex, then sync metadata.
func RunScanAndSync(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	scannerHandle := do.MustInvoke[*ScannerHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	metadataService := do.MustInvoke[*service.MetadataService](i)

	ctx := context.Background()

	games, err := storeHandle.ListGames(ctx, store.GetOptions{})
	if scannerHandle.Scanner != nil {
		result, scanErr := scannerHandle.Scan(ctx)
		if scanErr != nil {
			log.Error("Library scan failed", "error", scanErr)
			return
		}
		games, err = result.Games, nil

		if indexErr := indexHandle.IndexGames(result.Games); indexErr != nil {
			log.Warn("Failed to reindex library", "error", indexErr)
		}
		removeFromIndex(indexHandle, result.RemovedIDs, log)
	}
	if err != nil {
		log.Error("Failed to list games for sync", "error", err)
		return
	}

	metadataService.Check(ctx, games)
}

func removeFromIndex(indexHandle *SearchIndexHandle, gameIDs []string, log *logger.Logger) {
	for _, gameID := range gameIDs {
		if err := indexHandle.RemoveGame(gameID); err != nil {
			log.Warn("Failed to deindex removed game", "game_id", gameID, "error", err)
		}
	}
}
