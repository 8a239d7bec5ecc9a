// Package gateway implements the multi-tenant admission gateway: every
// request is admitted by extracting and validating its app key, deriving the
// tenant's storage namespace, and assembling an immutable per-request
// capability bag before any handler runs.
package gateway

import (
	"time"

	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/config"
	"github.com/matchid-dev/appgate/pkg/logging"
	"github.com/matchid-dev/appgate/pkg/namespace"
)

// Version is the reported gateway version. Overridable at build time with
// -ldflags "-X github.com/matchid-dev/appgate/pkg/gateway.Version=...".
var Version = "0.1.0"

// Gateway serves the admission flow and the tenant API.
type Gateway struct {
	logger    *logging.ColoredLogger
	cfg       *config.Config
	deps      *Dependencies
	startedAt time.Time

	// derive maps a validated app key to its namespace. Tests swap it to
	// observe that rejected requests never reach derivation.
	derive func(string) namespace.Namespace
}

// New creates a Gateway serving requests with the given shared capabilities.
func New(logger *logging.ColoredLogger, cfg *config.Config, deps *Dependencies) *Gateway {
	logger.ComponentInfo(logging.ComponentGateway, "gateway ready",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.Int("authorized_keys", deps.Registry.Size()),
		zap.Bool("cache_enabled", deps.Cache != nil),
		zap.Bool("events_enabled", deps.Broker != nil),
	)

	return &Gateway{
		logger:    logger,
		cfg:       cfg,
		deps:      deps,
		startedAt: time.Now(),
		derive:    namespace.Derive,
	}
}

// Close shuts down the gateway's shared capabilities.
func (g *Gateway) Close() {
	if g.deps != nil {
		g.deps.Close(g.logger)
	}
}
