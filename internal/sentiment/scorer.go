// Package sentiment turns text into polarity scores and polarity scores into
// labels.
//
// A Scorer produces one polarity in [-1, 1] per text. Which scorer backs a
// deployment (VADER, a remote HTTP service, a local transformer model or an
// LLM) is a configuration choice; the labeling Scheme on top of it is fixed
// per report.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/spacesedan/sentireport/internal/models"
)

const (
	SCORER_VADER       = "vader"
	SCORER_REMOTE      = "remote"
	SCORER_TRANSFORMER = "transformer"
	SCORER_LLM         = "llm"
)

// Scorer maps texts to polarity values, one per input text and in input
// order. Implementations must return 0 for empty text.
type Scorer interface {
	Name() string
	Polarity(ctx context.Context, texts []string) ([]float64, error)
}

// clamp forces a backend score into [-1, 1]. NaN becomes 0.
func clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(-1, math.Min(1, score))
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Classifier labels records with one scorer and one scheme.
type Classifier struct {
	scorer Scorer
	scheme Scheme
}

func NewClassifier(scorer Scorer, scheme Scheme) *Classifier {
	if scheme.IsZero() {
		scheme = FourBucket
	}
	return &Classifier{scorer: scorer, scheme: scheme}
}

func (c *Classifier) Scheme() Scheme { return c.scheme }

func (c *Classifier) ScorerName() string { return c.scorer.Name() }

// Label scores a single text and buckets it.
func (c *Classifier) Label(ctx context.Context, text string) (models.Label, error) {
	scores, err := c.scorer.Polarity(ctx, []string{text})
	if err != nil {
		return "", err
	}
	if len(scores) != 1 {
		return "", fmt.Errorf("[Classifier] scorer %s returned %d scores for 1 text", c.scorer.Name(), len(scores))
	}
	return c.scheme.Label(clamp(scores[0])), nil
}

// Classify scores every record and returns labeled copies in input order.
func (c *Classifier) Classify(ctx context.Context, records []models.Record) ([]models.LabeledRecord, error) {
	if len(records) == 0 {
		return []models.LabeledRecord{}, nil
	}

	texts := lo.Map(records, func(r models.Record, _ int) string { return r.Text })
	scores, err := c.scorer.Polarity(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("[Classifier] scorer %s failed: %w", c.scorer.Name(), err)
	}
	if len(scores) != len(records) {
		return nil, fmt.Errorf("[Classifier] scorer %s returned %d scores for %d texts",
			c.scorer.Name(), len(scores), len(records))
	}

	labeled := make([]models.LabeledRecord, len(records))
	for i, record := range records {
		polarity := clamp(scores[i])
		labeled[i] = models.LabeledRecord{
			Record:   record,
			Polarity: polarity,
			Label:    c.scheme.Label(polarity),
		}
	}
	return labeled, nil
}
