package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/spacesedan/sentireport/internal/errors"
	"golang.org/x/time/rate"
)

const (
	RATE_LIMIT_WINDOW     = time.Minute
	RATE_LIMIT_KEY_PREFIX = "sentireport:ratelimit"
	rateLimiterExpiry     = 5 * time.Minute
	rateLimitStoreTimeout = 250 * time.Millisecond
)

type windowCounter interface {
	IncrWindow(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// WindowStore is a fixed-window rate limit store backed by a shared counter.
// When the counter is unreachable requests are allowed.
type WindowStore struct {
	counter windowCounter
	limit   int64
	window  time.Duration
	clock   clockwork.Clock
}

func NewWindowStore(counter windowCounter, limitPerWindow int, window time.Duration, clock clockwork.Clock) *WindowStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WindowStore{counter: counter, limit: int64(limitPerWindow), window: window, clock: clock}
}

func (w *WindowStore) Allow(identifier string) (bool, error) {
	bucket := w.clock.Now().Truncate(w.window).Unix()
	key := fmt.Sprintf("%s:%s:%d", RATE_LIMIT_KEY_PREFIX, identifier, bucket)

	ctx, cancel := context.WithTimeout(context.Background(), rateLimitStoreTimeout)
	defer cancel()

	count, err := w.counter.IncrWindow(ctx, key, w.window)
	if err != nil {
		slog.Warn("[RateLimit] Counter unavailable, allowing request",
			slog.String("identifier", identifier),
			slog.String("error", err.Error()))
		return true, nil
	}
	return count <= w.limit, nil
}

// newRateLimiter returns nil when uploads are unlimited.
func (s *Server) newRateLimiter() echo.MiddlewareFunc {
	perMinute := s.opts.RateLimitPerMinute
	if perMinute <= 0 {
		return nil
	}

	store := s.opts.RateLimitStore
	if store == nil {
		store = middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(float64(perMinute) / RATE_LIMIT_WINDOW.Seconds()),
				Burst:     perMinute,
				ExpiresIn: rateLimiterExpiry,
			},
		)
	}

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return apperrors.HandleError(c, apperrors.RateLimitError("rate limit exceeded"))
		},
	})
}
