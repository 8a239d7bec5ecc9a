package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes returns the http.Handler with all routes and middleware configured
func (g *Gateway) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	// root and v1 health/status (public)
	r.Get("/health", g.healthHandler)
	r.Get("/status", g.statusHandler)
	r.Get("/v1/health", g.healthHandler)
	r.Get("/v1/status", g.statusHandler)
	r.Get("/v1/version", g.versionHandler)

	// tenant identity
	r.Get("/v1/whoami", g.whoamiHandler)
	r.Get("/v1/namespace", g.namespaceHandler)
	r.Get("/v1/usage", g.usageHandler)

	// namespaced KV
	r.Get("/v1/kv", g.kvScanHandler)
	r.Get("/v1/kv/{key}", g.kvGetHandler)
	r.Put("/v1/kv/{key}", g.kvPutHandler)
	r.Delete("/v1/kv/{key}", g.kvDeleteHandler)

	// events
	r.Get("/v1/events/ws", g.eventsWebsocketHandler)
	r.Post("/v1/events/publish", g.eventsPublishHandler)
	r.Get("/v1/events/topics", g.eventsTopicsHandler)

	return g.withMiddleware(r)
}
