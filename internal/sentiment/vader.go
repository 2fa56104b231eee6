package sentiment

import (
	"context"

	"github.com/jonreiter/govader"
)

// VaderScorer uses the VADER compound score as polarity.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderScorer) Name() string { return SCORER_VADER }

func (v *VaderScorer) Polarity(ctx context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores[i] = v.AnalyzeWithVADER(text)
	}
	return scores, nil
}

func (v *VaderScorer) AnalyzeWithVADER(text string) float64 {
	plainText := CleanText(text)
	if plainText == "" {
		return 0
	}

	sentiment := v.analyzer.PolarityScores(plainText)
	return clamp(sentiment.Compound)
}
