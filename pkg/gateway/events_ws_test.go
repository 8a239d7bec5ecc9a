package gateway

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/matchid-dev/appgate/pkg/events"
)

// dialEvents opens a WebSocket subscription through the full middleware
// chain, the way a real client would.
func dialEvents(t *testing.T, srv *httptest.Server, key, topic string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events/ws?topic=" + topic
	header := http.Header{"x-app-key": {key}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", wsURL, err, status)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func publishEvent(t *testing.T, srv *httptest.Server, key, topic string, data []byte) int {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"topic":       topic,
		"data_base64": base64.StdEncoding.EncodeToString(data),
	})
	if err != nil {
		t.Fatalf("marshal publish body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/events/publish", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build publish request: %v", err)
	}
	req.Header.Set("x-app-key", key)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("publish status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Delivered int `json:"delivered"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode publish response: %v", err)
	}
	return out.Delivered
}

func TestEventsWebsocketRoundTrip(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku", "u7unpdh6ehtvrt4b"})
	srv := httptest.NewServer(g.Routes())
	defer srv.Close()

	conn := dialEvents(t, srv, "h31tx1inchlk6xku", "orders")

	if n := publishEvent(t, srv, "h31tx1inchlk6xku", "orders", []byte("order created")); n != 1 {
		t.Fatalf("delivered = %d, want 1", n)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var env events.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Topic != "orders" {
		t.Errorf("topic = %q, want %q", env.Topic, "orders")
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil || string(data) != "order created" {
		t.Errorf("data = %q, err = %v", env.Data, err)
	}
	if env.Timestamp == 0 {
		t.Error("expected timestamp")
	}
}

func TestEventsWebsocketNamespaceIsolation(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku", "u7unpdh6ehtvrt4b"})
	srv := httptest.NewServer(g.Routes())
	defer srv.Close()

	conn := dialEvents(t, srv, "h31tx1inchlk6xku", "orders")

	// Another tenant publishing on the same topic name must not reach this
	// subscriber.
	if n := publishEvent(t, srv, "u7unpdh6ehtvrt4b", "orders", []byte("secret")); n != 0 {
		t.Fatalf("delivered = %d, want 0", n)
	}

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, msg, err := conn.ReadMessage(); err == nil {
		t.Fatalf("leaked event across namespaces: %s", msg)
	}
}

func TestEventsWebsocketClientPublish(t *testing.T) {
	g := newTestGateway(t, []string{"h31tx1inchlk6xku"})
	srv := httptest.NewServer(g.Routes())
	defer srv.Close()

	sender := dialEvents(t, srv, "h31tx1inchlk6xku", "chat")
	receiver := dialEvents(t, srv, "h31tx1inchlk6xku", "chat")

	if err := sender.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Both subscribers receive the message, the sender included.
	for _, conn := range []*websocket.Conn{sender, receiver} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read event: %v", err)
		}
		var env events.Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("decode envelope: %v", err)
		}
		data, err := base64.StdEncoding.DecodeString(env.Data)
		if err != nil || string(data) != "hello" {
			t.Errorf("data = %q, err = %v", env.Data, err)
		}
	}
}
