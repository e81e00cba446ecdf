package api

import (
	"fmt"

	"autobazar/listing-editor/internal/auth"
	"autobazar/listing-editor/internal/common"
	"autobazar/listing-editor/internal/config"
	"autobazar/listing-editor/internal/db/repositories"
	"autobazar/listing-editor/internal/editor"
	"autobazar/listing-editor/internal/logging"
	"autobazar/listing-editor/internal/media"
	"autobazar/listing-editor/internal/metrics"
	"autobazar/listing-editor/internal/mutation"
	"autobazar/listing-editor/internal/providers"
	"autobazar/listing-editor/internal/services"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

type Repositories struct {
	Drafts      *repositories.DraftRepository
	Submissions *repositories.SubmissionLogRepo
}

type Services struct {
	Cache      *common.QueryCache
	Notifier   *common.NotificationQueue
	Sessions   *common.SessionStore
	Catalog    *services.CatalogService
	Listings   *services.ListingService
	Submission *services.SubmissionService
	Editors    *editor.Manager
}

type Dependencies struct {
	Config   *config.Config
	Session  *auth.Session
	SQL      *sqlx.DB
	Metrics  *metrics.MetricsRegistry
	Store    common.CacheInterface
	Repo     *Repositories
	Services *Services
}

// InitDependencies wires the providers, caches, services and repositories.
func InitDependencies(cfg *config.Config, orm *gorm.DB, sqlDB *sqlx.DB, m *metrics.MetricsRegistry) (*Dependencies, error) {
	store, err := newCacheStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	session := auth.NewSession(nil)
	client := providers.NewMarketplaceClient(cfg.Marketplace, session, m)
	sessions := common.NewSessionStore(store)
	sessions.Resume(session)

	repos := &Repositories{
		Drafts:      repositories.NewDraftRepository(orm),
		Submissions: repositories.NewSubmissionLogRepo(sqlDB),
	}

	cache := common.NewQueryCache(store, cfg.Cache.ListingTTL, m)
	notifier := common.NewNotificationQueue(100)
	listings := providers.NewListingProvider(client)

	catalog := services.NewCatalogService(providers.NewCatalogProvider(client), cache, cfg.Cache.ReferenceTTL, cfg.Cache.ListingTTL, m)
	submission := services.NewSubmissionService(
		listings,
		providers.NewMediaProvider(client),
		media.NewCompressor(cfg.Media),
		cache,
		notifier,
		repos.Submissions,
		m,
	)
	mutations := mutation.NewController(cache, notifier, m)

	editors := editor.NewManager(editor.Deps{Catalog: catalog, Listings: listings, Metrics: m}, repos.Drafts, submission)

	return &Dependencies{
		Config:  cfg,
		Session: session,
		SQL:     sqlDB,
		Metrics: m,
		Store:   store,
		Repo:    repos,
		Services: &Services{
			Cache:      cache,
			Notifier:   notifier,
			Sessions:   sessions,
			Catalog:    catalog,
			Listings:   services.NewListingService(listings, cache, mutations, notifier, cfg.Cache.ListingTTL),
			Submission: submission,
			Editors:    editors,
		},
	}, nil
}

func newCacheStore(cfg config.CacheConfig) (common.CacheInterface, error) {
	if cfg.Backend != "redis" {
		return common.NewCacheService(cfg.ListingTTL, 10*cfg.ListingTTL), nil
	}
	store, err := common.NewRedisCacheService(common.NewRedisClient(cfg), "listing-editor")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
	}
	logging.Info("Using redis query cache", "addr", cfg.RedisAddr())
	return store, nil
}
