//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"matchpulse/internal/app"
	"matchpulse/internal/config"
	"matchpulse/internal/favorites"
	"matchpulse/internal/http"
	"matchpulse/internal/http/controller"
	"matchpulse/internal/logging"
	"matchpulse/internal/matchstate"
	"matchpulse/internal/metrics"
	"matchpulse/internal/queue/rabbitmq"
	"matchpulse/internal/service/catalog"
	"matchpulse/internal/service/notify"
	"matchpulse/internal/service/synth"
	"matchpulse/internal/sse"
	"matchpulse/internal/store"
	"matchpulse/internal/telemetry"
	"matchpulse/internal/upstream"
	"matchpulse/internal/ws"
)

func InitializeApp(ctx context.Context) (*app.App, error) {
	wire.Build(
		config.New,
		logging.New,
		metrics.New,
		telemetry.Init,
		upstream.NewClient,
		wire.Bind(new(upstream.MatchSource), new(*upstream.Client)),
		wire.Bind(new(upstream.CatalogSource), new(*upstream.Client)),
		matchstate.New,
		favorites.New,
		wire.Bind(new(synth.FollowerIndex), new(*favorites.Registry)),
		store.NewStore,
		sse.NewHub,
		rabbitmq.NewPublisher,
		notify.NewService,
		wire.Bind(new(synth.Dispatcher), new(*notify.Service)),
		wire.Bind(new(ws.History), new(*notify.Service)),
		synth.New,
		catalog.NewService,
		ws.NewHandler,
		controller.NewHandler,
		http.NewRouter,
		rabbitmq.NewConsumer,
		app.NewApp,
	)
	return &app.App{}, nil
}
