// Package app builds the report pipeline from configuration. It is shared by
// the HTTP server and the offline CLI.
package app

import (
	"fmt"
	"log/slog"

	"github.com/spacesedan/sentireport/config"
	"github.com/spacesedan/sentireport/internal/analysis"
	"github.com/spacesedan/sentireport/internal/chart"
	"github.com/spacesedan/sentireport/internal/clients"
	"github.com/spacesedan/sentireport/internal/keywords"
	"github.com/spacesedan/sentireport/internal/sentiment"
)

// Scorer bundles the configured scorer with what is needed to supervise and
// release it. Remote is set only for the remote backend.
type Scorer struct {
	sentiment.Scorer
	Remote *clients.RemoteScorerClient
	close  func() error
}

func (s *Scorer) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func NewScorer(cfg *config.Config) (*Scorer, error) {
	switch cfg.Scorer {
	case sentiment.SCORER_VADER, "":
		return &Scorer{Scorer: sentiment.NewVaderScorer()}, nil

	case sentiment.SCORER_REMOTE:
		client := clients.NewRemoteScorerClient(clients.RemoteScorerConfig{
			Endpoint:       cfg.RemoteScorerURL,
			HealthEndpoint: cfg.RemoteScorerHealthURL,
			ClientID:       cfg.RemoteScorerClientID,
			ClientSecret:   cfg.RemoteScorerClientSecret,
			TokenURL:       cfg.RemoteScorerTokenURL,
			Timeout:        cfg.RemoteScorerTimeout,
		})
		return &Scorer{Scorer: sentiment.NewRemoteScorer(client), Remote: client}, nil

	case sentiment.SCORER_TRANSFORMER:
		scorer, err := sentiment.NewTransformerScorer(cfg.TransformerModelPath)
		if err != nil {
			return nil, err
		}
		return &Scorer{Scorer: scorer, close: scorer.Close}, nil

	case sentiment.SCORER_LLM:
		client, err := clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		return &Scorer{Scorer: sentiment.NewLLMScorer(client.Client, cfg.OpenAIModel)}, nil

	default:
		return nil, fmt.Errorf("unknown scorer %q", cfg.Scorer)
	}
}

// NewStoplist returns the default stopwords plus STOPLIST_EXTRA and the terms
// of STOPLIST_FILE.
func NewStoplist(cfg *config.Config) (*keywords.Stoplist, error) {
	extra := cfg.StoplistTerms()
	if cfg.StoplistFile != "" {
		terms, err := keywords.LoadStoplistFile(cfg.StoplistFile)
		if err != nil {
			return nil, err
		}
		extra = append(extra, terms...)
	}

	stops := keywords.DefaultStoplist(extra...)
	slog.Info("[App] Stoplist loaded", slog.Int("terms", stops.Len()))
	return stops, nil
}

// NewAnalyzer wires scheme, stoplist and chart renderer around scorer.
func NewAnalyzer(cfg *config.Config, scorer sentiment.Scorer, observer analysis.Observer) (*analysis.Analyzer, error) {
	scheme, err := sentiment.ParseScheme(cfg.LabelScheme)
	if err != nil {
		return nil, err
	}

	stops, err := NewStoplist(cfg)
	if err != nil {
		return nil, err
	}

	opts := analysis.Options{
		Stoplist:       stops,
		KeywordLimit:   cfg.KeywordLimit,
		Renderer:       chart.NewRenderer(),
		IncludeRecords: true,
		Observer:       observer,
	}

	return analysis.NewAnalyzer(sentiment.NewClassifier(scorer, scheme), opts), nil
}
