package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentireport/internal/analysis"
	apperrors "github.com/spacesedan/sentireport/internal/errors"
	"github.com/spacesedan/sentireport/internal/events"
	"github.com/spacesedan/sentireport/internal/ingest"
	"github.com/spacesedan/sentireport/internal/metrics"
	"github.com/spacesedan/sentireport/internal/models"
)

const (
	SOURCE_WEB = "web"
	SOURCE_API = "api"
)

type indexPage struct {
	Error  string
	Entity string
}

type resultsPage struct {
	Error    string
	Report   *models.Report
	ChartURI template.URL
	Rejected int
}

func (s *Server) handleIndex(c echo.Context) error {
	return s.renderTemplate(c, http.StatusOK, "index.html", indexPage{})
}

// handleUpload serves the HTML form flow. User-caused conditions render the
// results page with a message and status 200; only pipeline failures are 500.
func (s *Server) handleUpload(c echo.Context) error {
	report, rejected, err := s.runUpload(c, SOURCE_WEB, true)
	if err != nil {
		var missing *analysis.MissingInputError
		if errors.As(err, &missing) {
			return s.renderTemplate(c, http.StatusOK, "index.html", indexPage{
				Error:  analysis.UserMessage(err),
				Entity: c.FormValue(FORM_ENTITY),
			})
		}

		structured := apperrors.FromDomain(err)
		status := http.StatusOK
		if structured.HTTPStatus() >= http.StatusInternalServerError {
			status = structured.HTTPStatus()
		}
		return s.renderTemplate(c, status, "results.html", resultsPage{Error: structured.Message})
	}

	return s.renderTemplate(c, http.StatusOK, "results.html", resultsPage{
		Report:   report,
		ChartURI: template.URL(report.Chart.DataURI()),
		Rejected: rejected,
	})
}

func (s *Server) handleCreateReport(c echo.Context) error {
	report, _, err := s.runUpload(c, SOURCE_API, false)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusCreated, report); err != nil {
		return fmt.Errorf("failed to write report response: %w", err)
	}
	return nil
}

// runUpload binds the form, parses the file and builds the report. It records
// the outcome metric and publishes the analysis event whatever the result.
func (s *Server) runUpload(c echo.Context, source string, entityRequired bool) (*models.Report, int, error) {
	ctx := c.Request().Context()
	start := s.opts.Clock.Now()

	event := events.AnalysisEvent{
		RequestID: requestID(c),
		Source:    source,
		Scheme:    s.analyzer.Scheme().Name(),
		Scorer:    s.analyzer.ScorerName(),
	}

	report, dataset, err := s.buildFromUpload(c, entityRequired, &event)
	if dataset != nil {
		event.Rows = dataset.Rows
		event.Rejected = dataset.Rejected
	}

	if err != nil {
		event.Outcome = events.OutcomeFailure
		event.ErrorKind = string(apperrors.FromDomain(err).Type)
	} else {
		event.Outcome = events.OutcomeSuccess
		event.ReportID = report.ID
		event.Matched = report.Summary.Total
	}
	s.observeOutcome(err)

	event.Timestamp = s.opts.Clock.Now().UTC()
	event.DurationMS = s.opts.Clock.Since(start).Milliseconds()
	s.publish(ctx, event)

	rejected := 0
	if dataset != nil {
		rejected = dataset.Rejected
	}
	return report, rejected, err
}

func (s *Server) buildFromUpload(c echo.Context, entityRequired bool, event *events.AnalysisEvent) (*models.Report, *ingest.Dataset, error) {
	form, err := bindUploadForm(c, entityRequired)
	if err != nil {
		return nil, nil, err
	}
	event.Entity = form.Entity

	if form.file == nil {
		return nil, nil, &analysis.MissingInputError{Field: FORM_FILE}
	}

	f, err := form.file.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	dataset, err := ingest.Parse(f, ingest.Options{MaxBytes: s.opts.MaxUploadBytes})
	if err != nil {
		return nil, nil, err
	}

	slog.InfoContext(c.Request().Context(), "[Upload] File parsed",
		slog.String("filename", form.Filename),
		slog.Int("rows", dataset.Rows),
		slog.Int("rejected", dataset.Rejected))

	report, err := s.analyzer.BuildReport(c.Request().Context(), dataset.Records, form.Entity)
	return report, dataset, err
}

func (s *Server) observeOutcome(err error) {
	if s.opts.PipelineMetrics == nil {
		return
	}

	var (
		noMatch *analysis.NoMatchError
		missing *analysis.MissingInputError
		schema  *analysis.SchemaError
	)
	switch {
	case err == nil:
		s.opts.PipelineMetrics.ObserveReport(metrics.OutcomeSuccess)
	case errors.As(err, &noMatch):
		s.opts.PipelineMetrics.ObserveReport(metrics.OutcomeNoMatch)
	case errors.As(err, &missing), errors.As(err, &schema), errors.Is(err, ingest.ErrTooLarge):
		s.opts.PipelineMetrics.ObserveReport(metrics.OutcomeInvalid)
	default:
		s.opts.PipelineMetrics.ObserveReport(metrics.OutcomeFailure)
	}
}

func (s *Server) publish(ctx context.Context, event events.AnalysisEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), PUBLISH_TIMEOUT)
	defer cancel()

	if err := s.opts.Publisher.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "[Upload] Failed to publish analysis event",
			slog.String("error", err.Error()))
	}
}
