package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	"metasearch-gateway/internal/infrastructure/config"
	"metasearch-gateway/internal/infrastructure/logger"
	_ "metasearch-gateway/internal/infrastructure/metrics" // register Prometheus metrics
	"metasearch-gateway/internal/interfaces/httpserver"
	"metasearch-gateway/internal/interfaces/stdio"
)

// Application bundles the serving surfaces; the configured transport
// decides which one runs.
type Application struct {
	cfg         *config.Config
	httpServer  *httpserver.HTTPServer
	stdioServer *stdio.Server
}

// Start blocks serving the configured transport.
func (app *Application) Start(ctx context.Context) error {
	if app.cfg.Transport == "stdio" {
		return app.stdioServer.Run(ctx)
	}
	return app.httpServer.Run()
}

func main() {
	ctx := context.Background()

	// Configuration failure is the only fatal startup path; nothing is
	// served before this succeeds.
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "json")
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("transport", cfg.Transport).
		Str("mode", cfg.Mode).
		Str("primary", cfg.Primary).
		Str("log_level", cfg.LogLevel).
		Msg("starting metasearch gateway")

	application, err := CreateApplication(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to create application")
		os.Exit(1)
	}

	if err := application.Start(ctx); err != nil {
		log.Error().Err(err).Msg("server terminated")
		os.Exit(1)
	}
}
