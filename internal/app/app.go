package app

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"matchpulse/internal/config"
	"matchpulse/internal/favorites"
	"matchpulse/internal/queue"
	"matchpulse/internal/service/synth"
	"matchpulse/internal/sse"
	"matchpulse/internal/telemetry"
)

// App owns the long-running goroutines of the server: the push hub, the
// favorites registry, the poll loop, the relay consumer and the HTTP server.
type App struct {
	cfg       *config.Config
	hub       *sse.Hub
	registry  *favorites.Registry
	synth     *synth.Synthesizer
	consumer  queue.Consumer
	server    *http.Server
	telemetry telemetry.Shutdown
	logger    *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewApp(cfg *config.Config, hub *sse.Hub, registry *favorites.Registry, synthesizer *synth.Synthesizer, consumer queue.Consumer, router *gin.Engine, shutdown telemetry.Shutdown, logger *zap.Logger) *App {
	return &App{
		cfg:      cfg,
		hub:      hub,
		registry: registry,
		synth:    synthesizer,
		consumer: consumer,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
		telemetry: shutdown,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// Run starts the background workers and serves HTTP until the server stops.
// Workers stop when ctx is cancelled or Shutdown is called.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-a.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.hub.Run(ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.registry.Run(ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.synth.Run(ctx)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.consumer.Start(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("consumer stopped", zap.Error(err))
		}
	}()

	a.logger.Info("http server listening",
		zap.String("addr", a.cfg.HTTPAddr),
		zap.Duration("poll_interval", a.cfg.PollInterval),
		zap.Bool("relay", a.cfg.RabbitMQURL != ""),
	)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("graceful shutdown started")
	// Stopping the hub first closes every open stream, which lets the HTTP
	// server drain its long-lived SSE and WebSocket handlers.
	a.stopOnce.Do(func() { close(a.stop) })
	shutdownErr := a.server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		if shutdownErr == nil {
			shutdownErr = ctx.Err()
		}
	}
	if a.telemetry != nil {
		if err := a.telemetry(ctx); err != nil {
			a.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}
	if shutdownErr == nil {
		a.logger.Info("graceful shutdown completed")
	}
	return shutdownErr
}

func (a *App) Logger() *zap.Logger {
	return a.logger
}
