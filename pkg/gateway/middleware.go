package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/appkey"
	"github.com/matchid-dev/appgate/pkg/database"
	"github.com/matchid-dev/appgate/pkg/errors"
	"github.com/matchid-dev/appgate/pkg/logging"
)

// withMiddleware wraps the route handler with the full chain.
// Order: logging (outermost) -> CORS -> admission -> handler.
func (g *Gateway) withMiddleware(next http.Handler) http.Handler {
	return g.loggingMiddleware(
		g.corsMiddleware(
			g.admissionMiddleware(next)))
}

// loggingMiddleware logs basic request info and duration, and hands the
// finished request to the tracker when it was admitted.
func (g *Gateway) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)
		dur := time.Since(start)

		g.logger.ComponentInfo(logging.ComponentGateway, "request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", srw.status),
			zap.Int("bytes", srw.bytes),
			zap.String("duration", dur.String()),
		)

		// Usage accounting covers admitted requests only; rejected and public
		// traffic has no namespace to charge.
		if rc := RequestContextFrom(r.Context()); rc != nil && g.deps.Tracker != nil {
			g.deps.Tracker.Track(database.RequestRecord{
				Namespace:  rc.Namespace(),
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: srw.status,
				BytesOut:   srw.bytes,
				Duration:   dur,
				IP:         getClientIP(r),
				TraceID:    rc.TraceID(),
			})
		}
	})
}

// admissionMiddleware runs the admission flow for protected paths, strictly
// in order: extract the credential, validate it, derive the namespace, then
// assemble the request context. A rejection at any step short-circuits; in
// particular no namespace is ever derived for an unauthenticated request.
func (g *Gateway) admissionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow preflight without auth
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		traceID := uuid.NewString()

		key, err := appkey.FromRequest(r)
		if err != nil {
			g.logger.ComponentWarn(logging.ComponentAppKey, "admission: credential missing",
				zap.String("path", r.URL.Path),
				zap.String("trace_id", traceID))
			errors.WriteHTTPError(w, err, traceID)
			return
		}

		if err := g.deps.Registry.Validate(key); err != nil {
			g.logger.ComponentWarn(logging.ComponentAppKey, "admission: credential rejected",
				zap.String("path", r.URL.Path),
				zap.String("trace_id", traceID))
			errors.WriteHTTPError(w, err, traceID)
			return
		}

		ns := g.derive(key)

		rc := &RequestContext{
			appKey:     key,
			ns:         ns,
			traceID:    traceID,
			receivedAt: time.Now(),
			metadata:   r.Header.Clone(),
			cfg:        g.cfg,
			deps:       g.deps,
		}

		next.ServeHTTP(w, r.WithContext(withRequestContext(r.Context(), rc)))
	})
}

// isPublicPath returns true for routes that should be accessible without an
// app key.
func isPublicPath(p string) bool {
	switch p {
	case "/health", "/v1/health", "/status", "/v1/status", "/v1/version":
		return true
	default:
		return false
	}
}

// corsMiddleware applies permissive CORS headers suitable for early development
func (g *Gateway) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+appkey.HeaderName)
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(600))
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
