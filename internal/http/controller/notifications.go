package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"matchpulse/internal/http/dto"
	"matchpulse/internal/http/resp"
	"matchpulse/internal/model"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	subscriber := subscriberID(c, "")
	if subscriber == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "subscriberId required"})
		return
	}
	limit, ok := h.limit(c)
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "limit must be a non-negative integer"})
		return
	}
	items, err := h.svc.ListHistory(c.Request.Context(), subscriber, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to list notifications"})
		return
	}
	if items == nil {
		items = []model.NotificationEvent{}
	}
	c.JSON(http.StatusOK, dto.HistoryResponse{SubscriberID: subscriber, Items: items})
}

func (h *Handler) SSE(c *gin.Context) {
	subscriber := c.Param("subscriberId")
	if subscriber == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "subscriberId required"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.log.Error("streaming unsupported", zap.String("subscriber_id", subscriber))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "streaming unsupported"})
		return
	}

	limit, ok := h.limit(c)
	if !ok {
		limit = h.cfg.HistoryLimit
	}

	ctx := c.Request.Context()
	connectionID := uuid.NewString()
	client, err := h.hub.Subscribe(ctx, connectionID, subscriber)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "stream unavailable"})
		return
	}
	defer h.hub.Unsubscribe(connectionID)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// Subscribing first means an event recorded while the backfill is
	// written can show up twice; clients dedup by id.
	history, err := h.svc.ListHistory(ctx, subscriber, limit)
	if err != nil {
		h.log.Error("list history failed", zap.String("subscriber_id", subscriber), zap.Int("limit", limit), zap.Error(err))
	} else {
		for i := len(history) - 1; i >= 0; i-- {
			if err := writeEvent(c.Writer, history[i]); err != nil {
				h.log.Debug("write history event failed", zap.String("subscriber_id", subscriber), zap.Error(err))
				return
			}
		}
	}
	flusher.Flush()

	interval := h.cfg.SSEHeartbeat
	if interval <= 0 {
		interval = 15 * time.Second
	}
	heartbeat := time.NewTicker(interval)
	defer heartbeat.Stop()

	h.log.Info("sse connected", zap.String("subscriber_id", subscriber), zap.String("connection_id", connectionID))
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-client.Ch:
			if !ok {
				return
			}
			if err := writeEvent(c.Writer, event); err != nil {
				h.log.Debug("write event failed", zap.String("subscriber_id", subscriber), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) WebSocket(c *gin.Context) {
	subscriber := c.Param("subscriberId")
	if subscriber == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "subscriberId required"})
		return
	}
	h.ws.Serve(c.Writer, c.Request, subscriber)
}

// limit reads the optional limit query parameter, falling back to the
// configured history limit.
func (h *Handler) limit(c *gin.Context) (int, bool) {
	v := c.Query("limit")
	if v == "" {
		return h.cfg.HistoryLimit, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func writeEvent(w http.ResponseWriter, event model.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	// The event name is the event type so browsers can listen per kind.
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", event.ID, event.Type, payload)
	return err
}
