package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/model"
	"matchpulse/internal/sse"
)

const (
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxInbound = 512
)

// Message is the JSON envelope of every frame sent to clients.
type Message struct {
	Event string                  `json:"event"`
	Data  model.NotificationEvent `json:"data"`
}

// History supplies the backfill sent when a connection opens.
type History interface {
	ListHistory(ctx context.Context, subscriberID string, limit int) ([]model.NotificationEvent, error)
}

// Handler serves notification pushes over WebSocket. Connections join the
// same hub rooms as SSE streams.
type Handler struct {
	hub      *sse.Hub
	history  History
	limit    int
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHandler(cfg *config.Config, hub *sse.Hub, history History, logger *zap.Logger) *Handler {
	return &Handler{
		hub:     hub,
		history: history,
		limit:   cfg.HistoryLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Subscribers are anonymous; origin checks belong to the proxy.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

// Serve upgrades the request and streams events of subscriberID until the
// peer goes away or the hub stops. It blocks for the life of the connection.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, subscriberID string) {
	ctx := r.Context()
	connectionID := uuid.NewString()
	client, err := h.hub.Subscribe(ctx, connectionID, subscriberID)
	if err != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}

	// Subscribed before reading history, so nothing falls between the two.
	backfill, err := h.history.ListHistory(ctx, subscriberID, h.limit)
	if err != nil {
		h.hub.Unsubscribe(connectionID)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		h.hub.Unsubscribe(connectionID)
		h.log.Debug("websocket upgrade failed", zap.String("subscriber_id", subscriberID), zap.Error(err))
		return
	}
	h.log.Info("websocket connected",
		zap.String("subscriber_id", subscriberID),
		zap.String("connection_id", connectionID),
	)

	// History is newest first; replay it oldest first.
	for i := len(backfill) - 1; i >= 0; i-- {
		if err := writeEvent(conn, backfill[i]); err != nil {
			h.hub.Unsubscribe(connectionID)
			_ = conn.Close()
			return
		}
	}

	go writePump(conn, client)
	readPump(conn)

	h.hub.Unsubscribe(connectionID)
	h.log.Info("websocket disconnected",
		zap.String("subscriber_id", subscriberID),
		zap.String("connection_id", connectionID),
	)
}

func writeEvent(conn *websocket.Conn, event model.NotificationEvent) error {
	payload, err := json.Marshal(Message{Event: "notification", Data: event})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// writePump forwards hub events to the connection and keeps it alive with
// pings. It owns all writes after the backfill.
func writePump(conn *websocket.Conn, client *sse.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case event, ok := <-client.Ch:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := writeEvent(conn, event); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects. Inbound data
// frames are ignored.
func readPump(conn *websocket.Conn) {
	defer conn.Close()
	conn.SetReadLimit(maxInbound)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
