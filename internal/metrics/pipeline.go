package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spacesedan/sentireport/internal/models"
)

const (
	OutcomeSuccess = "success"
	OutcomeNoMatch = "no_match"
	OutcomeInvalid = "invalid"
	OutcomeFailure = "failure"
)

// PipelineMetrics observes report builds. It satisfies analysis.Observer.
type PipelineMetrics struct {
	ReportsTotal       *prometheus.CounterVec
	RecordsScoredTotal *prometheus.CounterVec
	StageDuration      *prometheus.HistogramVec
}

func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	m := &PipelineMetrics{
		ReportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Report requests by outcome.",
		}, []string{"outcome"}),
		RecordsScoredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_scored_total",
			Help:      "Records labeled, by label.",
		}, []string{"label"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of report pipeline stages in seconds.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
	}

	reg.MustRegister(m.ReportsTotal, m.RecordsScoredTotal, m.StageDuration)
	return m
}

func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *PipelineMetrics) ObserveLabels(counts map[models.Label]int) {
	for label, n := range counts {
		if n > 0 {
			m.RecordsScoredTotal.WithLabelValues(string(label)).Add(float64(n))
		}
	}
}

func (m *PipelineMetrics) ObserveReport(outcome string) {
	m.ReportsTotal.WithLabelValues(outcome).Inc()
}
