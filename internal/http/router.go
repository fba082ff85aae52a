package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/http/controller"
	"matchpulse/internal/http/middleware"
	"matchpulse/internal/metrics"
)

func NewRouter(cfg *config.Config, handler *controller.Handler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		otelgin.Middleware(cfg.OTELServiceName),
		middleware.ZapLogger(logger),
		middleware.ZapRecovery(logger),
	)

	router.GET("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.POST("/favorites", handler.Follow)
	router.DELETE("/favorites", handler.Unfollow)
	router.GET("/favorites", handler.ListFavorites)
	router.POST("/notifications/settings", handler.UpdateSettings)
	router.GET("/notifications", handler.ListNotifications)

	router.GET("/sse/:subscriberId", handler.SSE)
	router.GET("/ws/:subscriberId", handler.WebSocket)

	router.GET("/teams", handler.Teams)
	router.GET("/news", handler.News)

	return router
}
