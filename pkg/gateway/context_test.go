package gateway

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/matchid-dev/appgate/pkg/config"
	"github.com/matchid-dev/appgate/pkg/namespace"
)

func TestRequestContextAccessors(t *testing.T) {
	cfg := config.Default()
	deps := &Dependencies{}
	ns := namespace.Derive("u7unpdh6ehtvrt4b")
	now := time.Now()
	md := http.Header{"X-App-Key": {"u7unpdh6ehtvrt4b"}, "User-Agent": {"test"}}

	rc := &RequestContext{
		appKey:     "u7unpdh6ehtvrt4b",
		ns:         ns,
		traceID:    "trace-1",
		receivedAt: now,
		metadata:   md,
		cfg:        cfg,
		deps:       deps,
	}

	if rc.AppKey() != "u7unpdh6ehtvrt4b" {
		t.Errorf("AppKey() = %q", rc.AppKey())
	}
	if rc.Namespace() != ns {
		t.Errorf("Namespace() = %q", rc.Namespace())
	}
	if rc.TraceID() != "trace-1" {
		t.Errorf("TraceID() = %q", rc.TraceID())
	}
	if !rc.ReceivedAt().Equal(now) {
		t.Errorf("ReceivedAt() = %v", rc.ReceivedAt())
	}
	if rc.Config() != cfg {
		t.Error("Config() did not return the snapshot")
	}
}

func TestRequestContextMetadataIsACopy(t *testing.T) {
	md := http.Header{"X-App-Key": {"k"}}
	rc := &RequestContext{metadata: md}

	got := rc.Metadata()
	got.Set("X-App-Key", "tampered")
	got.Set("Injected", "value")

	if rc.metadata.Get("X-App-Key") != "k" {
		t.Error("mutating the returned metadata changed the request context")
	}
	if rc.metadata.Get("Injected") != "" {
		t.Error("mutating the returned metadata changed the request context")
	}
}

func TestRequestContextFrom(t *testing.T) {
	if got := RequestContextFrom(context.Background()); got != nil {
		t.Errorf("expected nil for bare context, got %v", got)
	}

	rc := &RequestContext{traceID: "t"}
	ctx := withRequestContext(context.Background(), rc)
	if got := RequestContextFrom(ctx); got != rc {
		t.Error("expected the attached request context")
	}
}
