package gateway

import (
	"net/http"

	"github.com/matchid-dev/appgate/pkg/errors"
)

// whoamiHandler reports the caller's resolved identity without echoing the
// credential itself.
func (g *Gateway) whoamiHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"namespace":   rc.Namespace(),
		"trace_id":    rc.TraceID(),
		"received_at": rc.ReceivedAt(),
	})
}

// namespaceHandler returns the caller's derived storage namespace.
func (g *Gateway) namespaceHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"namespace": rc.Namespace(),
	})
}

// usageHandler returns the caller's aggregate request counters.
func (g *Gateway) usageHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}

	usage, err := rc.Store().Usage(r.Context(), rc.Namespace())
	if err != nil {
		errors.WriteHTTPError(w, err, rc.TraceID())
		return
	}
	writeJSON(w, http.StatusOK, usage)
}
