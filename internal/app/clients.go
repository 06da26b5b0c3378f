package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/treatmentplan-backend/internal/data/db"
	"github.com/yungbote/treatmentplan-backend/internal/observability"
	"github.com/yungbote/treatmentplan-backend/internal/platform/errreport"
	"github.com/yungbote/treatmentplan-backend/internal/platform/gcp"
	"github.com/yungbote/treatmentplan-backend/internal/platform/logger"
	"github.com/yungbote/treatmentplan-backend/internal/session"
	"github.com/yungbote/treatmentplan-backend/internal/webhook"
)

// Clients holds everything that talks to the outside world. Tests build one
// by hand with sqlite, an in-memory bucket and a mocked webhook transport.
type Clients struct {
	DB       *gorm.DB
	Bucket   gcp.BucketService
	Drafts   session.Store
	Reporter *errreport.Reporter
	Notifier *webhook.Notifier

	// WebhookHTTPClient overrides the notifier transport when Notifier is nil.
	WebhookHTTPClient *http.Client

	closers []func() error
}

func (c *Clients) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
	c.closers = nil
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (*Clients, error) {
	log.Info("Wiring clients...")
	c := &Clients{}

	// Document store
	store, err := db.Open(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init document store: %w", err)
	}
	c.closers = append(c.closers, store.Close)
	if cfg.AutoMigrate {
		if err := migrate(store.DB()); err != nil {
			c.Close()
			return nil, err
		}
	}
	c.DB = store.DB()
	observability.Current().StartDBCollector(ctx, log, c.DB)

	// Blob store
	bucket, err := resolveBucketService(log, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Bucket = bucket

	// Drafts
	drafts, err := wireDraftStore(ctx, log, cfg)
	if err != nil {
		c.Close()
		return nil, err
	}
	if rs, ok := drafts.(*session.RedisStore); ok {
		c.closers = append(c.closers, rs.Close)
	}
	c.Drafts = drafts

	// Sentry
	reporter, err := errreport.New(log, errreport.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.Version,
	})
	if err != nil {
		log.Warn("Error reporting disabled", "error", err)
	}
	c.Reporter = reporter

	return c, nil
}

func migrate(gdb *gorm.DB) error {
	if err := db.AutoMigrateAll(gdb); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsurePlanIndexes(gdb); err != nil {
		return fmt.Errorf("plan indexes: %w", err)
	}
	return nil
}

func wireDraftStore(ctx context.Context, log *logger.Logger, cfg Config) (session.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DraftStore)) {
	case "", DraftStoreMemory:
		log.Info("Draft store selected", "store", DraftStoreMemory, "ttl", cfg.DraftTTL)
		return session.NewMemoryStore(log, cfg.DraftTTL), nil
	case DraftStoreRedis:
		rs, err := session.NewRedisStore(log, session.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.DraftTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis draft store: %w", err)
		}
		observability.Current().StartRedisCollector(ctx, log, rs.Client())
		log.Info("Draft store selected", "store", DraftStoreRedis, "addr", cfg.RedisAddr, "ttl", cfg.DraftTTL)
		return rs, nil
	default:
		return nil, fmt.Errorf("unsupported DRAFT_STORE %q (expected %s or %s)", cfg.DraftStore, DraftStoreMemory, DraftStoreRedis)
	}
}
