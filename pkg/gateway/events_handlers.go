package gateway

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/matchid-dev/appgate/pkg/logging"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// For early development we accept any origin; tighten later.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventsWebsocketHandler upgrades to WS, subscribes to a topic within the
// caller's namespace, and forwards broker events to the client. Messages sent
// by the client are published to the same topic.
func (g *Gateway) eventsWebsocketHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	if rc.Broker() == nil {
		writeError(w, http.StatusServiceUnavailable, "events disabled")
		return
	}

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		writeError(w, http.StatusBadRequest, "missing 'topic'")
		return
	}

	sub := rc.Broker().Subscribe(rc.Namespace(), topic, rc.Config().Events.BufferSize)
	if sub == nil {
		writeError(w, http.StatusServiceUnavailable, "events shutting down")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		g.logger.ComponentWarn(logging.ComponentEvents, "events ws: upgrade failed",
			zap.String("trace_id", rc.TraceID()))
		return
	}
	defer conn.Close()
	defer sub.Close()

	ctx := r.Context()

	// Writer loop
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case env, ok := <-sub.C:
				if !ok {
					_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(5*time.Second))
					close(done)
					return
				}
				payload, err := json.Marshal(env)
				if err != nil {
					continue
				}
				conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					close(done)
					return
				}
			case <-ticker.C:
				// Ping keepalive
				_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
			case <-ctx.Done():
				close(done)
				return
			}
		}
	}()

	// Reader loop: treat any client message as publish to the same topic
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		// Heartbeat frames from the client are not events.
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err == nil {
			if msgType, ok := msg["type"].(string); ok && msgType == "ping" {
				continue
			}
		}

		rc.Broker().Publish(rc.Namespace(), topic, data)
	}
	<-done
}

// eventsPublishHandler handles POST /v1/events/publish {topic, data_base64}
func (g *Gateway) eventsPublishHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	if rc.Broker() == nil {
		writeError(w, http.StatusServiceUnavailable, "events disabled")
		return
	}

	var body struct {
		Topic   string `json:"topic"`
		DataB64 string `json:"data_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Topic == "" || body.DataB64 == "" {
		writeError(w, http.StatusBadRequest, "invalid body: expected {topic,data_base64}")
		return
	}
	data, err := base64.StdEncoding.DecodeString(body.DataB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 data")
		return
	}

	delivered := rc.Broker().Publish(rc.Namespace(), body.Topic, data)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"delivered": delivered,
	})
}

// eventsTopicsHandler lists topics with subscribers within the caller's
// namespace.
func (g *Gateway) eventsTopicsHandler(w http.ResponseWriter, r *http.Request) {
	rc := RequestContextFrom(r.Context())
	if rc == nil {
		writeError(w, http.StatusForbidden, "identity not resolved")
		return
	}
	if rc.Broker() == nil {
		writeError(w, http.StatusServiceUnavailable, "events disabled")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"topics": rc.Broker().Topics(rc.Namespace()),
	})
}
