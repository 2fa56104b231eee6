package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/samber/lo"
)

const TRANSFORMER_BATCH_SIZE = 32

// TransformerScorer runs a local ONNX text-classification model. Polarity is
// the probability mass on positive labels minus the mass on negative labels.
type TransformerScorer struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

func NewTransformerScorer(modelPath string) (*TransformerScorer, error) {
	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[TransformerScorer] failed to initialize hugot session: %w", err)
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "sentimentPipeline",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			slog.Warn("[TransformerScorer] Failed to destroy session",
				slog.String("error", destroyErr.Error()))
		}
		return nil, fmt.Errorf("[TransformerScorer] failed to initialize pipeline: %w", err)
	}

	slog.Info("[TransformerScorer] Model loaded", slog.String("path", modelPath))
	return &TransformerScorer{session: session, pipeline: pipeline}, nil
}

func (t *TransformerScorer) Name() string { return SCORER_TRANSFORMER }

func (t *TransformerScorer) Polarity(ctx context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))

	pending := lo.Filter(lo.Range(len(texts)), func(i int, _ int) bool {
		return !isBlank(texts[i])
	})

	for _, batch := range lo.Chunk(pending, TRANSFORMER_BATCH_SIZE) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		inputs := lo.Map(batch, func(i int, _ int) string { return CleanText(texts[i]) })
		output, err := t.pipeline.RunPipeline(inputs)
		if err != nil {
			return nil, fmt.Errorf("[TransformerScorer] pipeline failed: %w", err)
		}
		if len(output.ClassificationOutputs) != len(batch) {
			return nil, fmt.Errorf("[TransformerScorer] model returned %d outputs for %d texts",
				len(output.ClassificationOutputs), len(batch))
		}

		for j, idx := range batch {
			var polarity float64
			for _, class := range output.ClassificationOutputs[j] {
				polarity += labelSign(class.Label) * float64(class.Score)
			}
			scores[idx] = clamp(polarity)
		}
	}

	return scores, nil
}

func (t *TransformerScorer) Close() error {
	return t.session.Destroy()
}

// labelSign maps model class names such as POSITIVE, negative or LABEL_2 to
// +1, -1 or 0.
func labelSign(label string) float64 {
	l := strings.ToLower(label)
	switch {
	case strings.HasPrefix(l, "pos"), l == "label_2":
		return 1
	case strings.HasPrefix(l, "neg"), l == "label_0":
		return -1
	default:
		return 0
	}
}
