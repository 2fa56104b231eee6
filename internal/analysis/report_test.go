package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spacesedan/sentireport/internal/chart"
	"github.com/spacesedan/sentireport/internal/models"
	"github.com/spacesedan/sentireport/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var scenarioRecords = []models.Record{
	{Row: 1, Text: "I love Acme Bank"},
	{Row: 2, Text: "Acme Bank is terrible"},
	{Row: 3, Text: "Acme Bank opened today"},
}

type failingScorer struct{ err error }

func (f failingScorer) Name() string { return "failing" }

func (f failingScorer) Polarity(context.Context, []string) ([]float64, error) { return nil, f.err }

type fixedScorer map[string]float64

func (f fixedScorer) Name() string { return "fixed" }

func (f fixedScorer) Polarity(_ context.Context, texts []string) ([]float64, error) {
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = f[t]
	}
	return out, nil
}

type recordingRenderer struct {
	slices []chart.Slice
	err    error
}

func (r *recordingRenderer) PieChart(_ string, slices []chart.Slice) (models.ChartArtifact, error) {
	r.slices = slices
	if r.err != nil {
		return models.ChartArtifact{}, r.err
	}
	return models.ChartArtifact{MIMEType: "image/png", Data: []byte("png")}, nil
}

type recordingObserver struct {
	mu     sync.Mutex
	stages []string
	labels map[models.Label]int
}

func (o *recordingObserver) ObserveStage(stage string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stages = append(o.stages, stage)
}

func (o *recordingObserver) ObserveLabels(counts map[models.Label]int) {
	o.labels = counts
}

func TestBuildReport_Scenario(t *testing.T) {
	renderer := &recordingRenderer{}
	observer := &recordingObserver{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	analyzer := NewAnalyzer(sentiment.NewClassifier(sentiment.NewVaderScorer(), sentiment.FourBucket), Options{
		Renderer: renderer,
		Observer: observer,
		Clock:    clock,
	})

	report, err := analyzer.BuildReport(context.Background(), scenarioRecords, "Acme Bank")
	require.NoError(t, err)

	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Counts[sentiment.LabelExcellent])
	assert.Equal(t, 0, report.Summary.Counts[sentiment.LabelGood])
	assert.Equal(t, 1, report.Summary.Counts[sentiment.LabelNeutral])
	assert.Equal(t, 1, report.Summary.Counts[sentiment.LabelPoor])
	assert.InDelta(t, 100.0/3, report.Summary.PositivePercentage, 1e-9)
	assert.Equal(t, sentiment.RatingAverage, report.Summary.Rating)

	assert.Contains(t, report.PositiveKeywords, models.KeywordCount{Word: "love", Count: 1})
	assert.Contains(t, report.NegativeKeywords, models.KeywordCount{Word: "terrible", Count: 1})
	for _, kw := range append(report.PositiveKeywords, report.NegativeKeywords...) {
		assert.NotContains(t, []string{"acme", "bank", "is"}, kw.Word)
	}

	assert.Equal(t, "Acme Bank", report.Entity)
	assert.Equal(t, "vader", report.Scorer)
	assert.Equal(t, clock.Now().UTC(), report.GeneratedAt)
	assert.Len(t, report.ID, 26)
	assert.Equal(t, "image/png", report.Chart.MIMEType)
	assert.Nil(t, report.Records)

	require.Len(t, renderer.slices, 4)
	assert.Equal(t, "Excellent", renderer.slices[0].Label)
	assert.Equal(t, 1.0, renderer.slices[0].Value)
	assert.Equal(t, 0.0, renderer.slices[1].Value)

	assert.Equal(t, []string{STAGE_CLASSIFY, STAGE_AGGREGATE, STAGE_KEYWORDS, STAGE_CHART}, observer.stages)
	assert.Equal(t, 1, observer.labels[sentiment.LabelPoor])
}

func TestBuildReport_NoMatch(t *testing.T) {
	analyzer := NewAnalyzer(sentiment.NewClassifier(sentiment.NewVaderScorer(), sentiment.FourBucket), Options{})

	_, err := analyzer.BuildReport(context.Background(), scenarioRecords, "Zorp Financial")

	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, "Zorp Financial", noMatch.Entity)
}

func TestBuildReport_CaseInsensitiveFilter(t *testing.T) {
	analyzer := NewAnalyzer(sentiment.NewClassifier(fixedScorer{}, sentiment.ThreeBucket), Options{})

	report, err := analyzer.BuildReport(context.Background(), scenarioRecords, "  acme BANK ")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, "acme BANK", report.Entity)
	assert.Empty(t, report.Keywords)
}

func TestBuildReport_UnfilteredThreeBucket(t *testing.T) {
	scorer := fixedScorer{"I love Acme Bank": 0.6, "Acme Bank is terrible": -0.5}
	analyzer := NewAnalyzer(sentiment.NewClassifier(scorer, sentiment.ThreeBucket), Options{IncludeRecords: true})

	records := append([]models.Record{{Row: 4, Text: "Other lender is slow"}}, scenarioRecords...)
	report, err := analyzer.BuildReport(context.Background(), records, "")
	require.NoError(t, err)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Empty(t, report.Summary.Rating)
	assert.Equal(t, 1, report.Summary.Counts[sentiment.LabelPositive])
	assert.Equal(t, 2, report.Summary.Counts[sentiment.LabelNeutral])
	assert.Len(t, report.Records, 4)
	assert.Empty(t, report.Chart.Data)

	// without an entity the entity's words are ordinary keywords
	assert.Contains(t, report.PositiveKeywords, models.KeywordCount{Word: "acme", Count: 1})

	// one list over every text
	require.NotEmpty(t, report.Keywords)
	assert.Equal(t, models.KeywordCount{Word: "acme", Count: 3}, report.Keywords[0])
	assert.Equal(t, models.KeywordCount{Word: "bank", Count: 3}, report.Keywords[1])
	assert.Contains(t, report.Keywords, models.KeywordCount{Word: "is", Count: 2})
}

func TestBuildReport_EmptyUploadUnfiltered(t *testing.T) {
	analyzer := NewAnalyzer(sentiment.NewClassifier(fixedScorer{}, sentiment.FourBucket), Options{})

	_, err := analyzer.BuildReport(context.Background(), nil, "")

	var noMatch *NoMatchError
	require.ErrorAs(t, err, &noMatch)
	assert.Empty(t, noMatch.Entity)
}

func TestBuildReport_ScorerFailure(t *testing.T) {
	cause := errors.New("model unavailable")
	analyzer := NewAnalyzer(sentiment.NewClassifier(failingScorer{err: cause}, sentiment.FourBucket), Options{})

	_, err := analyzer.BuildReport(context.Background(), scenarioRecords, "Acme")

	var processing *ProcessingError
	require.ErrorAs(t, err, &processing)
	assert.Equal(t, STAGE_CLASSIFY, processing.Stage)
	assert.ErrorIs(t, err, cause)
}

func TestBuildReport_RendererFailure(t *testing.T) {
	renderer := &recordingRenderer{err: errors.New("no canvas")}
	analyzer := NewAnalyzer(sentiment.NewClassifier(fixedScorer{}, sentiment.FourBucket), Options{Renderer: renderer})

	_, err := analyzer.BuildReport(context.Background(), scenarioRecords, "Acme")

	var processing *ProcessingError
	require.ErrorAs(t, err, &processing)
	assert.Equal(t, STAGE_CHART, processing.Stage)
}

func TestBuildReport_Idempotent(t *testing.T) {
	analyzer := NewAnalyzer(sentiment.NewClassifier(sentiment.NewVaderScorer(), sentiment.FourBucket), Options{})

	first, err := analyzer.BuildReport(context.Background(), scenarioRecords, "Acme Bank")
	require.NoError(t, err)
	second, err := analyzer.BuildReport(context.Background(), scenarioRecords, "Acme Bank")
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.PositiveKeywords, second.PositiveKeywords)
	assert.Equal(t, first.NegativeKeywords, second.NegativeKeywords)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestFilterByEntity(t *testing.T) {
	records := []models.Record{{Text: "Acme.Bank rocks"}, {Text: "acme bank"}}

	assert.Len(t, FilterByEntity(records, "acme bank"), 1)
	assert.Len(t, FilterByEntity(records, "Acme.Bank"), 1)
	assert.Len(t, FilterByEntity(records, ""), 2)
}
