package server

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/spacesedan/sentireport/internal/errors"
	"github.com/spacesedan/sentireport/internal/metrics"
)

// multipart framing allowance on top of the file size limit
const formOverheadBytes = 1 << 20

func (s *Server) registerRoutes() {
	httpMetrics := metrics.NewHTTPMetrics(s.opts.Registry)

	s.echo.Use(requestIDMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(httpMetrics.Middleware())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	bodyLimit := middleware.BodyLimit(fmt.Sprintf("%dK", (s.opts.MaxUploadBytes+formOverheadBytes)/1024))
	uploadMiddleware := []echo.MiddlewareFunc{bodyLimit}
	if limiter := s.newRateLimiter(); limiter != nil {
		uploadMiddleware = append(uploadMiddleware, limiter)
	}

	s.echo.GET("/", s.handleIndex)
	s.echo.POST("/upload", s.handleUpload, uploadMiddleware...)

	api := s.echo.Group("/api/v1")
	api.POST("/reports", s.handleCreateReport, uploadMiddleware...)

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.opts.Registry)))
}
