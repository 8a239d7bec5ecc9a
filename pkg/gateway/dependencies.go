package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/appkey"
	"github.com/matchid-dev/appgate/pkg/cache"
	"github.com/matchid-dev/appgate/pkg/config"
	"github.com/matchid-dev/appgate/pkg/database"
	"github.com/matchid-dev/appgate/pkg/errors"
	"github.com/matchid-dev/appgate/pkg/events"
	"github.com/matchid-dev/appgate/pkg/logging"
	"github.com/matchid-dev/appgate/pkg/tracker"
)

const (
	cacheInitMaxAttempts    = 5
	cacheInitInitialBackoff = 500 * time.Millisecond
	cacheInitMaxBackoff     = 5 * time.Second
)

// Dependencies holds the shared process capabilities every admitted request
// receives through its RequestContext. Built once at startup; a required
// capability that cannot be built aborts the process with a
// StartupCapabilityError.
type Dependencies struct {
	// Registry is the immutable authorized credential set.
	Registry *appkey.Registry

	// Store is the tenant metadata store (request logs, usage).
	Store *database.Store

	// Tracker persists request activity off the hot path.
	Tracker *tracker.Tracker

	// Cache is the Olric tenant KV client. Nil when the cache backend was
	// unreachable at startup; cache endpoints then answer 503.
	Cache *cache.Client

	// Broker is the per-namespace event broker. Nil when events are disabled.
	Broker *events.Broker
}

// NewDependencies builds all shared capabilities from cfg. The credential
// registry and the metadata store are required; the cache degrades to
// disabled endpoints when its backend is down, matching how a gateway should
// keep admitting requests while a soft dependency recovers.
func NewDependencies(logger *logging.ColoredLogger, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// The authorized set is fixed here for the process lifetime.
	if len(cfg.AppKeys) == 0 {
		return nil, errors.NewStartupCapabilityError("credential registry", errors.New("authorized credential set is empty"))
	}
	deps.Registry = appkey.NewRegistry(cfg.AppKeys)
	logger.ComponentInfo(logging.ComponentAppKey, "credential registry ready",
		zap.Int("keys", deps.Registry.Size()))

	store, err := database.Open(database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	}, logger)
	if err != nil {
		return nil, errors.NewStartupCapabilityError("metadata store", err)
	}
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.Migrate(migrateCtx); err != nil {
		_ = store.Close()
		return nil, errors.NewStartupCapabilityError("metadata store", err)
	}
	deps.Store = store

	deps.Tracker = tracker.New(store, logger, 1024)

	initializeCache(logger, cfg, deps)

	if cfg.Events.Enabled {
		deps.Broker = events.NewBroker(logger)
		logger.ComponentInfo(logging.ComponentEvents, "event broker ready",
			zap.Int("buffer_size", cfg.Events.BufferSize))
	}

	return deps, nil
}

// initializeCache connects the Olric client with exponential backoff. Failure
// leaves Cache nil rather than aborting startup.
func initializeCache(logger *logging.ColoredLogger, cfg *config.Config, deps *Dependencies) {
	cacheCfg := cache.Config{
		Servers: cfg.Cache.Servers,
		Timeout: cfg.Cache.Timeout,
	}

	backoff := cacheInitInitialBackoff
	for attempt := 1; attempt <= cacheInitMaxAttempts; attempt++ {
		client, err := cache.NewClient(cacheCfg, logger.Logger)
		if err == nil {
			deps.Cache = client
			logger.ComponentInfo(logging.ComponentCache, "cache client ready",
				zap.Strings("servers", cacheCfg.Servers),
				zap.Int("attempts", attempt))
			return
		}

		logger.ComponentWarn(logging.ComponentCache, "cache client init attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", backoff),
			zap.Error(err))

		if attempt == cacheInitMaxAttempts {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > cacheInitMaxBackoff {
			backoff = cacheInitMaxBackoff
		}
	}

	logger.ComponentWarn(logging.ComponentCache, "cache unavailable; cache endpoints disabled")
}

// Close shuts the shared capabilities down: drain the tracker, close the
// broker, then release the backends.
func (d *Dependencies) Close(logger *logging.ColoredLogger) {
	if d.Tracker != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.Tracker.Close(ctx); err != nil {
			logger.ComponentWarn(logging.ComponentTracker, "tracker did not drain before deadline", zap.Error(err))
		}
		cancel()
	}

	if d.Broker != nil {
		d.Broker.Close()
	}

	if d.Cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.Cache.Close(ctx); err != nil {
			logger.ComponentWarn(logging.ComponentCache, "error during cache client close", zap.Error(err))
		}
		cancel()
	}

	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			logger.ComponentWarn(logging.ComponentDatabase, "error during store close", zap.Error(err))
		}
	}
}
