package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/gamevaultapp/gamevault-server/internal/config"
	"github.com/gamevaultapp/gamevault-server/internal/logger"
	"github.com/gamevaultapp/gamevault-server/internal/watcher"
)

// FileWatcherHandle wraps the filesystem watcher. Watcher is nil when
// watching is disabled or no games path is configured.
type FileWatcherHandle struct {
	*watcher.Watcher
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *FileWatcherHandle) Shutdown() error {
	if h.Watcher == nil {
		return nil
	}
	h.cancel()
	return h.Close()
}

// ProvideFileWatcher provides the library filesystem watcher. Changes on
// disk trigger a rescan followed by a metadata sync pass.
func ProvideFileWatcher(i do.Injector) (*FileWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Library.GamesPath == "" || !cfg.Library.WatchFiles {
		log.Info("File watching disabled")
		return &FileWatcherHandle{}, nil
	}

	w, err := watcher.New(watcher.Options{
		Root:     cfg.Library.GamesPath,
		OnChange: func() { RunScanAndSync(i) },
		Logger:   log.Logger,
	})
	if err != nil {
		// Non-fatal: the periodic sync worker still picks up changes.
		log.Warn("File watcher unavailable", "error", err)
		return &FileWatcherHandle{}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	log.Info("File watcher started", "path", cfg.Library.GamesPath)

	return &FileWatcherHandle{Watcher: w, cancel: cancel}, nil
}

// SyncWorkerHandle runs the periodic metadata sync pass.
type SyncWorkerHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *SyncWorkerHandle) Shutdown() error {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(shutdownTimeout):
	}
	return nil
}

// ProvideSyncWorker provides the background metadata sync worker.
func ProvideSyncWorker(i do.Injector) (*SyncWorkerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	interval := cfg.Metadata.SyncInterval

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				RunScanAndSync(i)
			}
		}
	}()

	log.Info("Metadata sync worker started", "interval", interval)

	return &SyncWorkerHandle{cancel: cancel, done: done}, nil
}
