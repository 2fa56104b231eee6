package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spacesedan/sentireport/internal/analysis"
	"github.com/spacesedan/sentireport/internal/chart"
	apperrors "github.com/spacesedan/sentireport/internal/errors"
	"github.com/spacesedan/sentireport/internal/events"
	"github.com/spacesedan/sentireport/internal/metrics"
	"github.com/spacesedan/sentireport/internal/models"
	"github.com/spacesedan/sentireport/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioCSV = "id,text\n1,I love Acme Bank\n2,Acme Bank is terrible\n3,Acme Bank opened today\n4,\n"

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.AnalysisEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.AnalysisEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) last(t *testing.T) events.AnalysisEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.events)
	return p.events[len(p.events)-1]
}

type testServer struct {
	*Server
	publisher *recordingPublisher
	pipeline  *metrics.PipelineMetrics
}

func newTestServer(t *testing.T, mutate func(*Options)) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	pipeline := metrics.NewPipelineMetrics(reg)
	analyzer := analysis.NewAnalyzer(
		sentiment.NewClassifier(sentiment.NewVaderScorer(), sentiment.FourBucket),
		analysis.Options{Renderer: chart.NewRenderer(), IncludeRecords: true, Observer: pipeline},
	)

	publisher := &recordingPublisher{}
	opts := Options{
		Registry:        reg,
		PipelineMetrics: pipeline,
		Publisher:       publisher,
		Clock:           clockwork.NewFakeClock(),
	}
	if mutate != nil {
		mutate(&opts)
	}

	srv, err := NewServer(analyzer, opts)
	require.NoError(t, err)
	return &testServer{Server: srv, publisher: publisher, pipeline: pipeline}
}

func uploadRequest(t *testing.T, path, csv string, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if csv != "" {
		part, err := mw.CreateFormFile(FORM_FILE, "tweets.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(csv))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.RemoteAddr = "192.0.2.1:1234"
	return req
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload CSV File")
	assert.Contains(t, rec.Body.String(), `name="entity_name"`)
	assert.NotEmpty(t, rec.Header().Get(HEADER_REQUEST_ID))
}

func TestUpload_RendersReport(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/upload", scenarioCSV, map[string]string{FORM_ENTITY: "Acme Bank"}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Total Tweets: 3")
	assert.Contains(t, body, "Overall Rating: Average")
	assert.Contains(t, body, "<li>love: 1</li>")
	assert.Contains(t, body, "<li>terrible: 1</li>")
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "1 rows without text were skipped.")
	assert.Contains(t, body, "Excellent: 1 (33.3%)")

	assert.Equal(t, 1.0, testutil.ToFloat64(srv.pipeline.ReportsTotal.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.pipeline.RecordsScoredTotal.WithLabelValues("Poor")))
}

func TestUpload_AcceptsLegacyBankNameField(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/upload", scenarioCSV, map[string]string{FORM_ENTITY_ALT: "Acme Bank"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Total Tweets: 3")
}

func TestUpload_MissingEntity(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/upload", scenarioCSV, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please select a CSV file and enter a bank name.")
	assert.Contains(t, rec.Body.String(), "Upload CSV File")
	assert.Equal(t, 1.0, testutil.ToFloat64(srv.pipeline.ReportsTotal.WithLabelValues(metrics.OutcomeInvalid)))
}

func TestUpload_MissingFile(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/upload", "", map[string]string{FORM_ENTITY: "Acme"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please select a CSV file and enter a bank name.")
}

func TestUpload_MissingTextColumn(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/upload", "id,comment\n1,great\n2,bad\n", map[string]string{FORM_ENTITY: "Acme"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid CSV format.")
	assert.Contains(t, rec.Body.String(), "column is required.")
}

func TestUpload_NoMatch(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/upload", scenarioCSV, map[string]string{FORM_ENTITY: "Zorp Financial"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No tweets mentioning Zorp Financial found in the uploaded file.")

	event := srv.publisher.last(t)
	assert.Equal(t, events.OutcomeFailure, event.Outcome)
	assert.Equal(t, string(apperrors.TypeNotFound), event.ErrorKind)
	assert.Equal(t, 4, event.Rows)
	assert.Equal(t, 1, event.Rejected)
	assert.Zero(t, event.Matched)
}

func TestCreateReport_JSON(t *testing.T) {
	srv := newTestServer(t, nil)

	req := uploadRequest(t, "/api/v1/reports", scenarioCSV, map[string]string{FORM_ENTITY: "Acme Bank"})
	req.Header.Set(HEADER_REQUEST_ID, "req-123")
	rec := srv.do(req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get(HEADER_REQUEST_ID))

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, sentiment.RatingAverage, report.Summary.Rating)
	assert.Equal(t, "image/png", report.Chart.MIMEType)
	assert.NotEmpty(t, report.Chart.Data)
	assert.Len(t, report.Records, 3)

	event := srv.publisher.last(t)
	assert.Equal(t, "req-123", event.RequestID)
	assert.Equal(t, report.ID, event.ReportID)
	assert.Equal(t, SOURCE_API, event.Source)
	assert.Equal(t, "Acme Bank", event.Entity)
	assert.Equal(t, "four", event.Scheme)
	assert.Equal(t, "vader", event.Scorer)
	assert.Equal(t, 3, event.Matched)
	assert.Equal(t, events.OutcomeSuccess, event.Outcome)
}

func TestCreateReport_WithoutEntity(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/api/v1/reports", scenarioCSV+"5,Other lender is fine\n", nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 4, report.Summary.Total)
	assert.Empty(t, report.Entity)
}

func TestCreateReport_NoMatchIsNotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/api/v1/reports", scenarioCSV, map[string]string{FORM_ENTITY: "Zorp Financial"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.TypeNotFound, resp.Type)
	assert.Equal(t, "Zorp Financial", resp.Context["entity"])
}

func TestCreateReport_SchemaErrorIsBadRequest(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(uploadRequest(t, "/api/v1/reports", "comment\nhi\nthere\n", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "column is required")
}

func TestCreateReport_PublishFailureDoesNotFailRequest(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.publisher.err = errors.New("broker down")

	rec := srv.do(uploadRequest(t, "/api/v1/reports", scenarioCSV, nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateReport_TooLarge(t *testing.T) {
	srv := newTestServer(t, func(o *Options) { o.MaxUploadBytes = 64 })

	csv := "text\n" + strings.Repeat("Acme Bank is a bank I like a lot\n", 10)
	rec := srv.do(uploadRequest(t, "/api/v1/reports", csv, nil))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload_RateLimited(t *testing.T) {
	counter := newFakeCounter()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	srv := newTestServer(t, func(o *Options) {
		o.RateLimitPerMinute = 1
		o.RateLimitStore = NewWindowStore(counter, 1, RATE_LIMIT_WINDOW, clock)
	})

	first := srv.do(uploadRequest(t, "/api/v1/reports", scenarioCSV, nil))
	assert.Equal(t, http.StatusCreated, first.Code)

	second := srv.do(uploadRequest(t, "/api/v1/reports", scenarioCSV, nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	clock.Advance(RATE_LIMIT_WINDOW)
	third := srv.do(uploadRequest(t, "/api/v1/reports", scenarioCSV, nil))
	assert.Equal(t, http.StatusCreated, third.Code)

	// the index page is not limited
	assert.Equal(t, http.StatusOK, srv.do(httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestHealth(t *testing.T) {
	failing := errors.New("valkey unreachable")
	srv := newTestServer(t, func(o *Options) {
		o.HealthChecks = []HealthCheck{
			{Name: "scorer", Check: func(context.Context) error { return nil }},
			{Name: "valkey", Check: func(context.Context) error { return failing }},
		}
	})

	live := srv.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, live.Code)
	assert.Contains(t, live.Body.String(), `"scorer":"vader"`)

	ready := srv.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(ready.Body.Bytes(), &resp))
	assert.Equal(t, "valkey", resp["failed_check"])
}

func TestHealth_Ready(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(httptest.NewRequest(http.MethodGet, "/", nil))

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sentireport_http_requests_total")
}
