// Package analysis assembles sentiment reports: it filters records by entity,
// labels them, aggregates the labels and extracts keywords per leaning.
package analysis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/spacesedan/sentireport/internal/chart"
	"github.com/spacesedan/sentireport/internal/keywords"
	"github.com/spacesedan/sentireport/internal/models"
	"github.com/spacesedan/sentireport/internal/sentiment"
)

const (
	STAGE_CLASSIFY  = "classify"
	STAGE_AGGREGATE = "aggregate"
	STAGE_KEYWORDS  = "keywords"
	STAGE_CHART     = "chart"
)

// LabelColors are the pie chart colors per label.
var LabelColors = map[models.Label]string{
	sentiment.LabelExcellent: "2E7D32",
	sentiment.LabelGood:      "4CAF50",
	sentiment.LabelPositive:  "4CAF50",
	sentiment.LabelNeutral:   "FFC107",
	sentiment.LabelPoor:      "F44336",
	sentiment.LabelNegative:  "F44336",
}

type ChartRenderer interface {
	PieChart(title string, slices []chart.Slice) (models.ChartArtifact, error)
}

// Observer receives pipeline measurements. It may be nil.
type Observer interface {
	ObserveStage(stage string, d time.Duration)
	ObserveLabels(counts map[models.Label]int)
}

type Options struct {
	Stoplist     *keywords.Stoplist
	KeywordLimit int
	Renderer     ChartRenderer
	// IncludeRecords copies the labeled records into the report.
	IncludeRecords bool
	Observer       Observer
	Clock          clockwork.Clock
}

// Analyzer runs the report pipeline. It holds no per-request state and is
// safe for concurrent use when its scorer is.
type Analyzer struct {
	classifier *sentiment.Classifier
	opts       Options
}

func NewAnalyzer(classifier *sentiment.Classifier, opts Options) *Analyzer {
	if opts.Stoplist == nil {
		opts.Stoplist = keywords.DefaultStoplist()
	}
	if opts.KeywordLimit <= 0 {
		opts.KeywordLimit = keywords.DEFAULT_TOP_N
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Analyzer{classifier: classifier, opts: opts}
}

func (a *Analyzer) Scheme() sentiment.Scheme { return a.classifier.Scheme() }

func (a *Analyzer) ScorerName() string { return a.classifier.ScorerName() }

// BuildReport filters records by entity and runs the full pipeline on what
// remains. A filter that matches nothing yields *NoMatchError; stage failures
// are wrapped in *ProcessingError.
func (a *Analyzer) BuildReport(ctx context.Context, records []models.Record, entity string) (*models.Report, error) {
	entity = strings.TrimSpace(entity)

	matched := FilterByEntity(records, entity)
	if len(matched) == 0 {
		return nil, &NoMatchError{Entity: entity}
	}

	var labeled []models.LabeledRecord
	err := a.stage(STAGE_CLASSIFY, func() (err error) {
		labeled, err = a.classifier.Classify(ctx, matched)
		return err
	})
	if err != nil {
		return nil, err
	}

	scheme := a.classifier.Scheme()
	var summary models.Summary
	err = a.stage(STAGE_AGGREGATE, func() (err error) {
		summary, err = Aggregate(scheme, labeled)
		return err
	})
	if err != nil {
		return nil, err
	}
	if a.opts.Observer != nil {
		a.opts.Observer.ObserveLabels(summary.Counts)
	}

	stops := a.opts.Stoplist
	if entity != "" {
		stops = stops.WithEntity(entity)
	}

	var positive, negative, overall []models.KeywordCount
	a.timed(STAGE_KEYWORDS, func() {
		positive = keywords.TopWords(textsLeaning(scheme, labeled, models.LeaningPositive), a.opts.KeywordLimit, stops)
		negative = keywords.TopWords(textsLeaning(scheme, labeled, models.LeaningNegative), a.opts.KeywordLimit, stops)
		if entity == "" {
			overall = keywords.TopWords(lo.Map(labeled, func(lr models.LabeledRecord, _ int) string { return lr.Text }), a.opts.KeywordLimit, stops)
		}
	})

	var artifact models.ChartArtifact
	if a.opts.Renderer != nil {
		err = a.stage(STAGE_CHART, func() (err error) {
			artifact, err = a.opts.Renderer.PieChart(chart.TITLE_SENTIMENT_DISTRIBUTION, chartSlices(summary))
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	now := a.opts.Clock.Now().UTC()
	report := &models.Report{
		ID:               ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Entity:           entity,
		Scorer:           a.classifier.ScorerName(),
		GeneratedAt:      now,
		Summary:          summary,
		PositiveKeywords: positive,
		NegativeKeywords: negative,
		Keywords:         overall,
		Chart:            artifact,
	}
	if a.opts.IncludeRecords {
		report.Records = labeled
	}

	slog.DebugContext(ctx, "[Analyzer] Report built",
		slog.String("report_id", report.ID),
		slog.String("scheme", summary.Scheme),
		slog.Int("matched", summary.Total),
		slog.Int("input", len(records)))

	return report, nil
}

func (a *Analyzer) stage(name string, fn func() error) error {
	var err error
	a.timed(name, func() { err = fn() })
	if err != nil {
		return &ProcessingError{Stage: name, Err: err}
	}
	return nil
}

func (a *Analyzer) timed(name string, fn func()) {
	start := a.opts.Clock.Now()
	fn()
	if a.opts.Observer != nil {
		a.opts.Observer.ObserveStage(name, a.opts.Clock.Since(start))
	}
}

func textsLeaning(scheme sentiment.Scheme, labeled []models.LabeledRecord, leaning models.Leaning) []string {
	return lo.FilterMap(labeled, func(lr models.LabeledRecord, _ int) (string, bool) {
		return lr.Text, scheme.Leaning(lr.Label) == leaning
	})
}

func chartSlices(summary models.Summary) []chart.Slice {
	return lo.Map(summary.Labels, func(label models.Label, _ int) chart.Slice {
		return chart.Slice{
			Label: string(label),
			Value: float64(summary.Counts[label]),
			Color: LabelColors[label],
		}
	})
}
