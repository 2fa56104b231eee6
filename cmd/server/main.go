package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentireport/config"
	"github.com/spacesedan/sentireport/internal/app"
	"github.com/spacesedan/sentireport/internal/clients"
	"github.com/spacesedan/sentireport/internal/clients/kafka_client"
	apperrors "github.com/spacesedan/sentireport/internal/errors"
	"github.com/spacesedan/sentireport/internal/events"
	"github.com/spacesedan/sentireport/internal/logging"
	"github.com/spacesedan/sentireport/internal/metrics"
	"github.com/spacesedan/sentireport/internal/monitoring"
	"github.com/spacesedan/sentireport/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger(os.Stdout, "info", "text")
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}
	logging.InitLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		slog.Error("[Main] Server terminated", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	reg := metrics.NewRegistry()
	if err := apperrors.RegisterMetrics(reg); err != nil {
		return err
	}
	pipelineMetrics := metrics.NewPipelineMetrics(reg)

	scorer, err := app.NewScorer(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := scorer.Close(); err != nil {
			slog.Warn("[Main] Failed to release scorer", slog.String("error", err.Error()))
		}
	}()

	analyzer, err := app.NewAnalyzer(cfg, scorer, pipelineMetrics)
	if err != nil {
		return err
	}

	opts := server.Options{
		Port:               cfg.Port,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Registry:           reg,
		PipelineMetrics:    pipelineMetrics,
		Publisher:          events.NopPublisher{},
		Clock:              clock,
	}

	if scorer.Remote != nil {
		scorerHealthy := &atomic.Bool{}
		scorerHealthy.Store(true)
		go monitoring.MonitorScorerHealth(ctx, clock, scorer.Remote, scorerHealthy)

		opts.HealthChecks = append(opts.HealthChecks, server.HealthCheck{
			Name: "remote_scorer",
			Check: func(context.Context) error {
				if !scorerHealthy.Load() {
					return errors.New("remote scorer is unhealthy")
				}
				return nil
			},
		})
	}

	if cfg.ValkeyInitAddress != "" {
		vc, err := clients.NewValkeyClient(ctx, clients.ValkeyConfig{
			Address:  cfg.ValkeyInitAddress,
			Password: cfg.ValkeyPassword,
			UseTLS:   cfg.ValkeyTLS,
		})
		if err != nil {
			return err
		}
		defer vc.Close()

		opts.RateLimitStore = server.NewWindowStore(vc, cfg.RateLimitPerMinute, server.RATE_LIMIT_WINDOW, clock)
		opts.HealthChecks = append(opts.HealthChecks, server.HealthCheck{Name: "valkey", Check: vc.Ping})
	}

	kafkaCfg := kafka_client.KafkaConfig{Broker: cfg.KafkaBroker, Topic: cfg.KafkaTopicAnalysisEvents}
	if kafkaCfg.Enabled() {
		producer, err := kafka_client.NewProducer(kafkaCfg)
		if err != nil {
			return err
		}
		defer producer.Close()

		opts.Publisher = producer
		opts.HealthChecks = append(opts.HealthChecks, server.HealthCheck{Name: "kafka", Check: producer.Ping})
	}

	srv, err := server.NewServer(analyzer, opts)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("[Main] Sentiment report service started",
		slog.String("env", cfg.AppEnv),
		slog.String("scheme", cfg.LabelScheme),
		slog.String("scorer", scorer.Name()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("[Main] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
