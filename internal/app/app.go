// Package app assembles configuration, the alignment engine, the event
// publisher and the request pipeline into a runnable service.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Vidnolunovich/vo-mfa-service/internal/audio"
	"github.com/Vidnolunovich/vo-mfa-service/internal/config"
	"github.com/Vidnolunovich/vo-mfa-service/internal/events"
	"github.com/Vidnolunovich/vo-mfa-service/internal/observability/logging"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner/gcloud"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner/mfa"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/aligner/mock"
	"github.com/Vidnolunovich/vo-mfa-service/internal/service/pipeline"
)

// Service identity reported on the HTTP surface.
const (
	DisplayName = "MFA Alignment Service"
	Version     = "1.0.0"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Cfg         *config.Config
	Engine      aligner.Aligner
	Publisher   *events.Publisher
	Pipeline    *pipeline.Pipeline

	log   zerolog.Logger
	ready atomic.Bool
}

// New constructs the application graph from the provided configuration.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	engine, err := buildEngine(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	publisher := events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		ClientID:       cfg.Kafka.ClientID,
		TopicCompleted: cfg.Kafka.TopicCompleted,
		TopicFailed:    cfg.Kafka.TopicFailed,
	})

	decoder := audio.NewDecoder(audio.DecoderConfig{
		FFmpeg:  cfg.Engine.FFmpegCommand,
		Timeout: cfg.Engine.ResampleTimeout,
		Limits: audio.Limits{
			MaxEncodedBytes: cfg.Audio.MaxEncodedBytes,
			MaxDuration:     cfg.Audio.MaxDuration,
		},
	})

	a := &Application{
		Cfg:       cfg,
		Engine:    engine,
		Publisher: publisher,
		Pipeline: pipeline.New(pipeline.Config{
			Engine:            engine,
			Decoder:           decoder,
			Publisher:         publisher,
			DefaultSampleRate: cfg.Audio.DefaultSampleRate,
			AlignTimeout:      cfg.Engine.AlignTimeout,
		}),
		log: logging.WithComponent("application"),
	}

	a.log.Info().
		Str("engine", engine.Name()).
		Strs("languages", aligner.Languages()).
		Msg("MFA alignment service application created")
	return a, nil
}

func buildEngine(ctx context.Context, cfg *config.Config) (aligner.Aligner, error) {
	switch cfg.Engine.Provider {
	case "mfa":
		return mfa.New(mfa.Config{
			Command:         cfg.Engine.MFACommand,
			FFmpeg:          cfg.Engine.FFmpegCommand,
			RootDir:         cfg.Engine.MFARootDir,
			AlignTimeout:    cfg.Engine.AlignTimeout,
			ResampleTimeout: cfg.Engine.ResampleTimeout,
		}), nil
	case "gcloud":
		return gcloud.New(ctx, gcloud.Config{Model: cfg.Engine.GCloudModel})
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown engine provider %q", cfg.Engine.Provider)
	}
}

// Start verifies the engine and marks the service ready to serve
// alignment requests.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.log.With().
		Str("method", "Start").
		Logger()

	a.StartupTime = time.Now().UTC()
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("engine", a.Engine.Name()).
		Msg("MFA alignment service starting")

	if err := a.Engine.Verify(ctx); err != nil {
		return fmt.Errorf("engine verification: %w", err)
	}
	a.ready.Store(true)

	startLogger.Info().Msg("Engine verified, service ready")
	return nil
}

// Ready reports whether engine verification has completed.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.log.With().
		Str("method", "Shutdown").
		Logger()

	a.ready.Store(false)
	if err := a.Publisher.Close(); err != nil {
		shutdownLogger.Error().Err(err).Msg("Error closing event publisher")
	}
	if err := a.Engine.Close(); err != nil {
		shutdownLogger.Error().Err(err).Msg("Error closing engine")
	}

	shutdownLogger.Info().Msg("MFA alignment service shutting down")
}
