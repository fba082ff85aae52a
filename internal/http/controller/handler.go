package controller

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/favorites"
	"matchpulse/internal/service/catalog"
	"matchpulse/internal/service/notify"
	"matchpulse/internal/sse"
	"matchpulse/internal/ws"
)

const subscriberHeader = "X-Subscriber-ID"

type Handler struct {
	cfg       *config.Config
	favorites *favorites.Registry
	svc       *notify.Service
	catalog   *catalog.Service
	hub       *sse.Hub
	ws        *ws.Handler
	log       *zap.Logger
}

func NewHandler(cfg *config.Config, registry *favorites.Registry, svc *notify.Service, catalogSvc *catalog.Service, hub *sse.Hub, wsHandler *ws.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:       cfg,
		favorites: registry,
		svc:       svc,
		catalog:   catalogSvc,
		hub:       hub,
		ws:        wsHandler,
		log:       logger,
	}
}

// subscriberID picks the subscriber from the request body, then the
// X-Subscriber-ID header, then the subscriberId query parameter.
func subscriberID(c *gin.Context, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	if id := strings.TrimSpace(c.GetHeader(subscriberHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("subscriberId"))
}
