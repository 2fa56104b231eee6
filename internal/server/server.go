package server

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spacesedan/sentireport/internal/events"
	"github.com/spacesedan/sentireport/internal/metrics"
	"github.com/spacesedan/sentireport/internal/models"
	"github.com/spacesedan/sentireport/internal/sentiment"
	"github.com/spacesedan/sentireport/web"
)

const (
	DEFAULT_MAX_UPLOAD_BYTES = 10 << 20
	PUBLISH_TIMEOUT          = 5 * time.Second
)

type reportBuilder interface {
	BuildReport(ctx context.Context, records []models.Record, entity string) (*models.Report, error)
	Scheme() sentiment.Scheme
	ScorerName() string
}

type Options struct {
	Port               int
	MaxUploadBytes     int64
	RateLimitPerMinute int
	// RateLimitStore replaces the in-memory store, e.g. with a valkey store.
	RateLimitStore  middleware.RateLimiterStore
	Registry        *prometheus.Registry
	PipelineMetrics *metrics.PipelineMetrics
	Publisher       events.Publisher
	HealthChecks    []HealthCheck
	Clock           clockwork.Clock
}

type Server struct {
	echo      *echo.Echo
	opts      Options
	analyzer  reportBuilder
	templates *template.Template
	startTime time.Time
}

func NewServer(analyzer reportBuilder, opts Options) (*Server, error) {
	templates, err := template.New("").Funcs(template.FuncMap{
		"pct": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	}).ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DEFAULT_MAX_UPLOAD_BYTES
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		opts:      opts,
		analyzer:  analyzer,
		templates: templates,
		startTime: opts.Clock.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) Start() error {
	slog.Info("[Server] Starting server", slog.Int("port", s.opts.Port))
	if err := s.echo.Start(fmt.Sprintf(":%d", s.opts.Port)); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(c.Request().Context(), "[Server] Template execution failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(status, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}
