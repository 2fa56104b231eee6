package sentiment

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/spacesedan/sentireport/internal/models"
)

const REMOTE_BATCH_SIZE = 50

type polarityBatchClient interface {
	ScoreBatch(ctx context.Context, texts []string) (models.PolarityBatchResponse, error)
}

// RemoteScorer sends texts to an HTTP polarity service in batches. Blank
// texts are answered locally with 0 and never sent.
type RemoteScorer struct {
	client    polarityBatchClient
	batchSize int
}

func NewRemoteScorer(client polarityBatchClient) *RemoteScorer {
	return &RemoteScorer{client: client, batchSize: REMOTE_BATCH_SIZE}
}

func (r *RemoteScorer) Name() string { return SCORER_REMOTE }

func (r *RemoteScorer) Polarity(ctx context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))

	pending := lo.Filter(lo.Range(len(texts)), func(i int, _ int) bool {
		return !isBlank(texts[i])
	})

	for _, batch := range lo.Chunk(pending, r.batchSize) {
		inputs := lo.Map(batch, func(i int, _ int) string { return texts[i] })

		resp, err := r.client.ScoreBatch(ctx, inputs)
		if err != nil {
			return nil, err
		}
		if len(resp) != len(batch) {
			return nil, fmt.Errorf("[RemoteScorer] service returned %d scores for %d texts", len(resp), len(batch))
		}

		for j, idx := range batch {
			scores[idx] = clamp(resp[j].SentimentScore)
		}
	}

	return scores, nil
}
