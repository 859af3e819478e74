package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Vidnolunovich/vo-mfa-service/internal/app"
	"github.com/Vidnolunovich/vo-mfa-service/internal/config"
	httpapi "github.com/Vidnolunovich/vo-mfa-service/internal/http"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()
	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build application")
	}

	// Ops listener: /metrics, /healthz, /readyz
	obsServer := observability.NewServer(cfg.Observability.Addr, application.Ready)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpapi.NewRouter(application),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("MFA alignment service listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP serve failed")
		}
	}()

	// Verification runs after the listeners are up; /align answers 503
	// until it completes.
	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Engine verification failed")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown error")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Observability server shutdown error")
	}
	application.Shutdown()
}
