// Package di provides dependency injection configuration for the GameVault server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/gamevaultapp/gamevault-server/internal/config"
	"github.com/gamevaultapp/gamevault-server/internal/di/providers"
	"github.com/gamevaultapp/gamevault-server/internal/logger"
	"github.com/gamevaultapp/gamevault-server/internal/metadata"
	"github.com/gamevaultapp/gamevault-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Metadata layer
	do.Provide(injector, providers.ProvideRegistry)
	do.Provide(injector, providers.ProvideMetadataService)

	// Scanner layer
	do.Provide(injector, providers.ProvideScanner)

	// Workers
	do.Provide(injector, providers.ProvideFileWatcher)
	do.Provide(injector, providers.ProvideSyncWorker)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*metadata.Registry](injector)
	_ = do.MustInvoke[*service.MetadataService](injector)
	_ = do.MustInvoke[*providers.ScannerHandle](injector)
	_ = do.MustInvoke[*providers.FileWatcherHandle](injector)
	_ = do.MustInvoke[*providers.SyncWorkerHandle](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Rebuild the index if it is empty but the catalog is not.
	providers.TriggerSearchReindexIfNeeded(injector)

	// Reconcile the library with the files on disk in the background.
	go providers.RunInitialScan(injector)

	return nil
}
