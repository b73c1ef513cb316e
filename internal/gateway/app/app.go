package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"evaltrack/internal/gateway/config"
	"evaltrack/internal/gateway/handler"
	"evaltrack/internal/gateway/server"
	"evaltrack/internal/gateway/service/events"
	"evaltrack/internal/gateway/service/issues"
	"evaltrack/internal/gateway/service/lifecycle"
	"evaltrack/internal/gateway/service/tracker"
	"evaltrack/internal/gateway/storage"
)

type App struct {
	server  *server.Server
	gateway *storage.Gateway
	log     zerolog.Logger
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := newLogger(cfg.Env)

	gw, err := openGateway(cfg, log)
	if err != nil {
		return nil, err
	}

	stores, err := initStores(cfg, gw, log)
	if err != nil {
		return nil, err
	}

	hub := events.NewHub()
	lifecycleSvc := lifecycle.New(stores.runs, stores.annotations, hub, log)
	trackerSvc := tracker.New(stores.runs, stores.annotations, stores.fixes, hub, log)
	issuesSvc := issues.New(stores.runs, stores.annotations, stores.fixes)

	h := handler.NewService(stores.runs, lifecycleSvc, trackerSvc, issuesSvc, stores.artifacts, hub, log)
	srv := server.New(cfg.Port, server.NewMux(h), log)

	return &App{
		server:  srv,
		gateway: gw,
		log:     log,
	}, nil
}

func newLogger(env string) zerolog.Logger {
	if env == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil {
		return err
	}
	if err := a.gateway.Close(); err != nil {
		a.log.Error().Err(err).Msg("closing storage gateway failed")
	}
	return nil
}
