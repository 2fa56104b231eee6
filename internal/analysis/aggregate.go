package analysis

import (
	"fmt"

	"github.com/spacesedan/sentireport/internal/models"
	"github.com/spacesedan/sentireport/internal/sentiment"
)

// Aggregate counts labels and derives percentages for one labeled batch.
// Every label of the scheme appears in Counts, zero counts included.
// Percentages are left unrounded.
func Aggregate(scheme sentiment.Scheme, labeled []models.LabeledRecord) (models.Summary, error) {
	if len(labeled) == 0 {
		return models.Summary{}, ErrEmptyInput
	}

	labels := scheme.Labels()
	counts := make(map[models.Label]int, len(labels))
	for _, label := range labels {
		counts[label] = 0
	}

	leanings := make(map[models.Leaning]int, 3)
	for _, lr := range labeled {
		if !scheme.Contains(lr.Label) {
			return models.Summary{}, fmt.Errorf("label %q is not part of the %s scheme", lr.Label, scheme.Name())
		}
		counts[lr.Label]++
		leanings[scheme.Leaning(lr.Label)]++
	}

	total := len(labeled)
	percentages := make(map[models.Label]float64, len(labels))
	for _, label := range labels {
		percentages[label] = percentage(counts[label], total)
	}

	summary := models.Summary{
		Scheme:             scheme.Name(),
		Total:              total,
		Labels:             labels,
		Counts:             counts,
		Percentages:        percentages,
		PositivePercentage: percentage(leanings[models.LeaningPositive], total),
		NeutralPercentage:  percentage(leanings[models.LeaningNeutral], total),
		NegativePercentage: percentage(leanings[models.LeaningNegative], total),
	}

	if rating, ok := scheme.Rate(summary.PositivePercentage); ok {
		summary.Rating = rating
	}

	return summary, nil
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
