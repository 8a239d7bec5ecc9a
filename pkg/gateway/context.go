package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/matchid-dev/appgate/pkg/cache"
	"github.com/matchid-dev/appgate/pkg/config"
	"github.com/matchid-dev/appgate/pkg/database"
	"github.com/matchid-dev/appgate/pkg/events"
	"github.com/matchid-dev/appgate/pkg/gateway/ctxkeys"
	"github.com/matchid-dev/appgate/pkg/namespace"
	"github.com/matchid-dev/appgate/pkg/tracker"
)

// RequestContext is the per-request capability bag assembled after admission.
// It carries the validated identity, the derived namespace, the config
// snapshot, and the shared process capabilities. All fields are set once
// during assembly; handlers only read.
type RequestContext struct {
	appKey     string
	ns         namespace.Namespace
	traceID    string
	receivedAt time.Time
	metadata   http.Header
	cfg        *config.Config
	deps       *Dependencies
}

// AppKey returns the validated tenant credential.
func (rc *RequestContext) AppKey() string { return rc.appKey }

// Namespace returns the tenant's derived storage namespace.
func (rc *RequestContext) Namespace() namespace.Namespace { return rc.ns }

// TraceID returns the request trace identifier.
func (rc *RequestContext) TraceID() string { return rc.traceID }

// ReceivedAt returns when admission accepted the request.
func (rc *RequestContext) ReceivedAt() time.Time { return rc.receivedAt }

// Metadata returns a copy of the raw request headers. Mutating the copy has
// no effect on the request.
func (rc *RequestContext) Metadata() http.Header { return rc.metadata.Clone() }

// Config returns the process configuration snapshot.
func (rc *RequestContext) Config() *config.Config { return rc.cfg }

// Cache returns the shared tenant KV capability; nil when the cache backend
// was unreachable at startup.
func (rc *RequestContext) Cache() *cache.Client { return rc.deps.Cache }

// Store returns the shared tenant metadata store.
func (rc *RequestContext) Store() *database.Store { return rc.deps.Store }

// Tracker returns the shared request recorder.
func (rc *RequestContext) Tracker() *tracker.Tracker { return rc.deps.Tracker }

// Broker returns the shared event broker; nil when events are disabled.
func (rc *RequestContext) Broker() *events.Broker { return rc.deps.Broker }

// withRequestContext attaches rc to ctx.
func withRequestContext(ctx context.Context, rc *RequestContext) context.Context {
	return context.WithValue(ctx, ctxkeys.RequestContext, rc)
}

// RequestContextFrom returns the capability bag attached by admission, or
// nil on unauthenticated (public) requests.
func RequestContextFrom(ctx context.Context) *RequestContext {
	if v := ctx.Value(ctxkeys.RequestContext); v != nil {
		if rc, ok := v.(*RequestContext); ok {
			return rc
		}
	}
	return nil
}
