package providers

import (
	"github.com/samber/do/v2"

	"github.com/gamevaultapp/gamevault-server/internal/config"
	"github.com/gamevaultapp/gamevault-server/internal/logger"
	"github.com/gamevaultapp/gamevault-server/internal/metadata"
	"github.com/gamevaultapp/gamevault-server/internal/metadata/igdb"
	"github.com/gamevaultapp/gamevault-server/internal/metadata/rawg"
	"github.com/gamevaultapp/gamevault-server/internal/service"
)

// ProvideRegistry provides the metadata provider registry with every
// configured provider registered.
func ProvideRegistry(i do.Injector) (*metadata.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	registry := metadata.NewRegistry(log.Logger)

	if cfg.RAWG.Enabled && cfg.RAWG.APIKey != "" {
		provider := rawg.New(cfg.RAWG.APIKey, cfg.RAWG.Priority, log.Logger)
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	if cfg.IGDB.Enabled && cfg.IGDB.ClientID != "" && cfg.IGDB.ClientSecret != "" {
		provider := igdb.New(cfg.IGDB.ClientID, cfg.IGDB.ClientSecret, cfg.IGDB.Priority, log.Logger)
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	if registry.Len() == 0 {
		log.Warn("No metadata providers configured, games will keep filename metadata only")
	} else {
		slugs := make([]string, 0, registry.Len())
		for _, p := range registry.ByPriority() {
			slugs = append(slugs, p.Slug())
		}
		log.Info("Metadata providers registered", "providers", slugs)
	}

	return registry, nil
}

// ProvideMetadataService provides the metadata sync and mapping service.
func ProvideMetadataService(i do.Injector) (*service.MetadataService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	registry := do.MustInvoke[*metadata.Registry](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)

	svc := service.NewMetadataService(storeHandle.Store, registry, indexHandle.GameIndex, cfg.TTL(), log.Logger)

	log.Info("Metadata service initialized",
		"ttl_days", cfg.Metadata.TTLDays,
		"sync_interval", cfg.Metadata.SyncInterval,
	)

	return svc, nil
}
