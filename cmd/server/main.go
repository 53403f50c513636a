// BDRS Review - Biological Data Recording System record review and export
// Copyright 2026 Gaia Resources
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gaiaresources/bdrs-review

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaiaresources/bdrs-review/docs"
	"github.com/gaiaresources/bdrs-review/internal/api"
	"github.com/gaiaresources/bdrs-review/internal/authz"
	"github.com/gaiaresources/bdrs-review/internal/config"
	"github.com/gaiaresources/bdrs-review/internal/database"
	"github.com/gaiaresources/bdrs-review/internal/events"
	"github.com/gaiaresources/bdrs-review/internal/facet"
	"github.com/gaiaresources/bdrs-review/internal/importer"
	"github.com/gaiaresources/bdrs-review/internal/logging"
	"github.com/gaiaresources/bdrs-review/internal/review"
	"github.com/gaiaresources/bdrs-review/internal/session"
	"github.com/gaiaresources/bdrs-review/internal/supervisor"
	"github.com/gaiaresources/bdrs-review/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	api.Version = version
	docs.SwaggerInfo.Version = version

	logging.Info().
		Str("version", version).
		Str("db_path", cfg.Database.Path).
		Str("environment", cfg.Server.Environment).
		Msg("Starting BDRS review server")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with an error")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential wiring
func run(cfg *config.Config) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer closeWithLog("database", db.Close)
	logging.Info().Msg("Database initialized successfully")

	enforcer, err := authz.NewEnforcer(authz.Config{PolicyPath: cfg.Security.PolicyPath})
	if err != nil {
		return err
	}
	defer enforcer.Close()

	sessions, err := session.OpenBadger(cfg.Session)
	if err != nil {
		return err
	}
	defer closeWithLog("session store", sessions.Close)

	bus := events.NewBus(nil)
	defer closeWithLog("event bus", bus.Close)

	facets := facet.NewRegistry(cfg.Facets.OptionCacheTTL)
	reviewSvc := review.NewService(db, facets, cfg.API)
	imports := importer.NewRegistry(db, db, bus)

	handler := api.NewHandler(api.Deps{
		DB:       db,
		Review:   reviewSvc,
		Sessions: sessions,
		Importer: imports,
		Enforcer: enforcer,
		Config:   cfg,
	})
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFrom(cfg.Security))

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.Timeout + 5*time.Second,
	})
	if err != nil {
		return err
	}

	if !cfg.Session.InMemory {
		tree.AddDataService(services.NewBadgerGCService(sessions, cfg.Session.GCInterval))
	}
	tree.AddMessagingService(services.NewEventRouterService(func() (services.EventRouter, error) {
		r, err := events.NewRouter(events.DefaultRouterConfig(), bus)
		if err != nil {
			return nil, err
		}
		r.InvalidateOnImport("facet-option-cache", facets)
		return r, nil
	}))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
		// downloads stream for as long as they need
		WriteTimeout: 0,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server configured")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if errors.Is(serveErr, context.Canceled) {
		serveErr = nil
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return serveErr
}

func closeWithLog(what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Error().Err(err).Str("component", what).Msg("Error during shutdown")
	}
}
