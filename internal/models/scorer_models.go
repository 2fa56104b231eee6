package models

type PolarityBatchRequest struct {
	Texts []string `json:"texts"`
}

type (
	PolarityBatchResponse []PolarityResponse
	PolarityResponse      struct {
		SentimentScore float64 `json:"sentiment_score"`
		SentimentLabel string  `json:"sentiment_label,omitempty"`
		Confidence     float64 `json:"confidence,omitempty"`
	}
)
