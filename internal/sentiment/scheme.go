package sentiment

import (
	"fmt"
	"math"
	"strings"

	"github.com/spacesedan/sentireport/internal/models"
)

const (
	LabelExcellent models.Label = "Excellent"
	LabelGood      models.Label = "Good"
	LabelNeutral   models.Label = "Neutral"
	LabelPoor      models.Label = "Poor"

	LabelPositive models.Label = "Positive"
	LabelNegative models.Label = "Negative"
)

const (
	RatingExcellent models.Rating = "Excellent"
	RatingGood      models.Rating = "Good"
	RatingAverage   models.Rating = "Average"
	RatingPoor      models.Rating = "Poor"
)

const (
	// EXCELLENT_POLARITY is the polarity above which a record is Excellent
	// rather than Good.
	EXCELLENT_POLARITY = 0.5

	RATING_EXCELLENT_PERCENT = 75.0
	RATING_GOOD_PERCENT      = 50.0
	RATING_AVERAGE_PERCENT   = 25.0
)

type SchemeKind int

const (
	FourBucketKind SchemeKind = iota + 1
	ThreeBucketKind
)

// Scheme is one labeling strategy: the label set, the polarity thresholds that
// pick a label, and whether a batch-level rating is derived. A report is
// labeled with exactly one scheme.
type Scheme struct {
	kind     SchemeKind
	name     string
	labels   []models.Label
	leanings map[models.Label]models.Leaning
	rated    bool
}

var (
	// FourBucket labels polarity > 0.5 Excellent, (0, 0.5] Good, 0 Neutral and
	// < 0 Poor, and rates the batch from its positive share.
	FourBucket = Scheme{
		kind:   FourBucketKind,
		name:   "four",
		labels: []models.Label{LabelExcellent, LabelGood, LabelNeutral, LabelPoor},
		leanings: map[models.Label]models.Leaning{
			LabelExcellent: models.LeaningPositive,
			LabelGood:      models.LeaningPositive,
			LabelNeutral:   models.LeaningNeutral,
			LabelPoor:      models.LeaningNegative,
		},
		rated: true,
	}

	// ThreeBucket labels polarity > 0 Positive, 0 Neutral and < 0 Negative.
	ThreeBucket = Scheme{
		kind:   ThreeBucketKind,
		name:   "three",
		labels: []models.Label{LabelPositive, LabelNeutral, LabelNegative},
		leanings: map[models.Label]models.Leaning{
			LabelPositive: models.LeaningPositive,
			LabelNeutral:  models.LeaningNeutral,
			LabelNegative: models.LeaningNegative,
		},
	}
)

func ParseScheme(name string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "four", "4", "four-bucket":
		return FourBucket, nil
	case "three", "3", "three-bucket":
		return ThreeBucket, nil
	default:
		return Scheme{}, fmt.Errorf("unknown labeling scheme %q", name)
	}
}

func (s Scheme) Kind() SchemeKind { return s.kind }

// IsZero reports whether s is the unset Scheme value.
func (s Scheme) IsZero() bool { return s.kind == 0 }

func (s Scheme) Name() string { return s.name }

// Labels returns the scheme's labels from most positive to most negative.
func (s Scheme) Labels() []models.Label {
	return append([]models.Label(nil), s.labels...)
}

func (s Scheme) Neutral() models.Label { return LabelNeutral }

// Contains reports whether label belongs to the scheme.
func (s Scheme) Contains(label models.Label) bool {
	_, ok := s.leanings[label]
	return ok
}

// Leaning returns the direction of label, neutral for labels outside the scheme.
func (s Scheme) Leaning(label models.Label) models.Leaning {
	if l, ok := s.leanings[label]; ok {
		return l
	}
	return models.LeaningNeutral
}

func (s Scheme) HasRating() bool { return s.rated }

// Label buckets a polarity in [-1, 1]. NaN means the scorer produced no
// signal and maps to the neutral label.
func (s Scheme) Label(polarity float64) models.Label {
	if math.IsNaN(polarity) || polarity == 0 {
		return LabelNeutral
	}

	switch s.kind {
	case FourBucketKind:
		switch {
		case polarity > EXCELLENT_POLARITY:
			return LabelExcellent
		case polarity > 0:
			return LabelGood
		default:
			return LabelPoor
		}
	default:
		if polarity > 0 {
			return LabelPositive
		}
		return LabelNegative
	}
}

// Rate derives the batch rating from the positive percentage. The second
// return value is false for schemes without a rating ladder.
func (s Scheme) Rate(positivePercentage float64) (models.Rating, bool) {
	if !s.rated {
		return "", false
	}

	switch {
	case positivePercentage > RATING_EXCELLENT_PERCENT:
		return RatingExcellent, true
	case positivePercentage > RATING_GOOD_PERCENT:
		return RatingGood, true
	case positivePercentage > RATING_AVERAGE_PERCENT:
		return RatingAverage, true
	default:
		return RatingPoor, true
	}
}

func (s Scheme) String() string { return s.name }
