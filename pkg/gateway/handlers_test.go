package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func authedRequest(method, path, key string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("x-app-key", key)
	return req
}

func TestHealthHandler(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestVersionHandler(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/version", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["service"] != "appgate" || resp["version"] == "" {
		t.Errorf("unexpected version payload: %v", resp)
	}
}

func TestStatusHandler(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["store"] != "ok" {
		t.Errorf("store = %v, want ok", resp["store"])
	}
	// No cache client wired in tests.
	if resp["cache"] != "disabled" {
		t.Errorf("cache = %v, want disabled", resp["cache"])
	}
}

func TestNamespaceHandler(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/namespace", "h31tx1inchlk6xku", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Namespace string `json:"namespace"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Namespace != "app_4eee63802245e6d86b7e6ee64e38aebcdef079a3" {
		t.Errorf("namespace = %q", resp.Namespace)
	}
}

func TestUsageHandler(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/usage", "h31tx1inchlk6xku", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Namespace    string `json:"namespace"`
		RequestCount int64  `json:"request_count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Namespace != "app_4eee63802245e6d86b7e6ee64e38aebcdef079a3" {
		t.Errorf("namespace = %q", resp.Namespace)
	}
}

func TestKVHandlersWithoutCache(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	// The cache backend is absent in tests; endpoints degrade to 503
	// instead of failing admission.
	tests := []struct {
		method string
		path   string
		body   []byte
	}{
		{http.MethodGet, "/v1/kv/foo", nil},
		{http.MethodPut, "/v1/kv/foo", []byte("bar")},
		{http.MethodDelete, "/v1/kv/foo", nil},
		{http.MethodGet, "/v1/kv", nil},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(tt.method, tt.path, "h31tx1inchlk6xku", tt.body))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: status = %d, want 503", tt.method, tt.path, rec.Code)
		}
	}

	// Still 401 without a key, even when the backend is down.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/kv/foo", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestEventsPublishAndTopics(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	payload, _ := json.Marshal(map[string]string{
		"topic":       "orders",
		"data_base64": base64.StdEncoding.EncodeToString([]byte("hello")),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/events/publish", "h31tx1inchlk6xku", payload))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Status    string `json:"status"`
		Delivered int    `json:"delivered"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Delivered != 0 {
		t.Errorf("unexpected publish response: %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/events/topics", "h31tx1inchlk6xku", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestEventsPublishBadBody(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	for _, body := range [][]byte{
		[]byte(`{}`),
		[]byte(`{"topic":"t"}`),
		[]byte(`{"topic":"t","data_base64":"%%%"}`),
		[]byte(`not json`),
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(http.MethodPost, "/v1/events/publish", "h31tx1inchlk6xku", body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestEventsWebsocketRequiresTopic(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	h := g.Routes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/v1/events/ws", "h31tx1inchlk6xku", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
