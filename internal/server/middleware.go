package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spacesedan/sentireport/internal/logging"
)

const HEADER_REQUEST_ID = echo.HeaderXRequestID

// requestIDMiddleware keeps an incoming X-Request-ID or assigns a new one,
// echoes it back and stores it in the request context for logging.
func requestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(HEADER_REQUEST_ID)
		if id == "" || len(id) > 128 {
			id = logging.NewRequestID()
		}

		c.Response().Header().Set(HEADER_REQUEST_ID, id)
		ctx := logging.WithRequestID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func requestID(c echo.Context) string {
	id, _ := logging.RequestID(c.Request().Context())
	return id
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.InfoContext(c.Request().Context(), "[HTTP] Request", attrs...)
			return nil
		},
	})
}
