package gateway

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matchid-dev/appgate/pkg/errors"
)

// maxKVValueBytes bounds a single stored value.
const maxKVValueBytes = 1 << 20

// kvEventsTopic is the namespace-scoped topic KV mutations are announced on.
const kvEventsTopic = "kv"

// publishKVEvent announces a KV mutation on the caller's event stream.
// Best-effort; dropped when events are disabled.
func (g *Gateway) publishKVEvent(rc *RequestContext, op, key string) {
	if rc.Broker() == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{"op": op, "key": key})
	if err != nil {
		return
	}
	rc.Broker().Publish(rc.Namespace(), kvEventsTopic, payload)
}

// kvGetHandler returns the value stored under a key in the caller's
// namespace.
func (g *Gateway) kvGetHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	if rc.Cache() == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not initialized")
		return
	}

	key := chi.URLParam(r, "key")
	value, err := rc.Cache().Get(r.Context(), rc.Namespace(), key)
	if err != nil {
		errors.WriteHTTPError(w, err, rc.TraceID())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":   key,
		"value": value,
	})
}

// kvPutHandler stores the raw request body under a key in the caller's
// namespace.
func (g *Gateway) kvPutHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	if rc.Cache() == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not initialized")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxKVValueBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(body) > maxKVValueBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "value too large")
		return
	}

	key := chi.URLParam(r, "key")
	if err := rc.Cache().Put(r.Context(), rc.Namespace(), key, string(body)); err != nil {
		errors.WriteHTTPError(w, err, rc.TraceID())
		return
	}
	g.publishKVEvent(rc, "put", key)
	w.WriteHeader(http.StatusNoContent)
}

// kvDeleteHandler removes a key from the caller's namespace.
func (g *Gateway) kvDeleteHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	if rc.Cache() == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not initialized")
		return
	}

	key := chi.URLParam(r, "key")
	if err := rc.Cache().Delete(r.Context(), rc.Namespace(), key); err != nil {
		errors.WriteHTTPError(w, err, rc.TraceID())
		return
	}
	g.publishKVEvent(rc, "delete", key)
	w.WriteHeader(http.StatusNoContent)
}

// kvScanHandler lists keys in the caller's namespace, optionally filtered by
// a 'match' expression.
func (g *Gateway) kvScanHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	if rc.Cache() == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not initialized")
		return
	}

	keys, err := rc.Cache().Scan(r.Context(), rc.Namespace(), r.URL.Query().Get("match"))
	if err != nil {
		errors.WriteHTTPError(w, err, rc.TraceID())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"count": len(keys),
	})
}
