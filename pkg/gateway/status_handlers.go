package gateway

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/logging"
)

// healthResponse is the JSON structure used by healthHandler
type healthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
}

func (g *Gateway) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		StartedAt: g.startedAt,
		Uptime:    time.Since(g.startedAt).String(),
	})
}

// statusHandler aggregates server uptime and backend capability health
func (g *Gateway) statusHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	store := "ok"
	if err := g.deps.Store.Ping(ctx); err != nil {
		g.logger.ComponentWarn(logging.ComponentDatabase, "status: store unreachable", zap.Error(err))
		store = "unreachable"
	}

	cacheStatus := "disabled"
	if g.deps.Cache != nil {
		cacheStatus = "ok"
		if err := g.deps.Cache.Health(ctx); err != nil {
			g.logger.ComponentWarn(logging.ComponentCache, "status: cache unreachable", zap.Error(err))
			cacheStatus = "unreachable"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"server": map[string]any{
			"started_at": g.startedAt,
			"uptime":     time.Since(g.startedAt).String(),
		},
		"store":  store,
		"cache":  cacheStatus,
		"events": g.deps.Broker != nil,
		"tracker": map[string]any{
			"dropped": g.deps.Tracker.Dropped(),
		},
	})
}

func (g *Gateway) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "appgate",
		"version": Version,
	})
}
