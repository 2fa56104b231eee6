package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spacesedan/sentireport/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type RemoteScorerConfig struct {
	Endpoint       string
	HealthEndpoint string
	ClientID       string
	ClientSecret   string
	TokenURL       string
	Timeout        time.Duration
}

// RemoteScorerClient talks to an HTTP polarity service that accepts
// {"texts": [...]} and answers with one {"sentiment_score": x} per text.
type RemoteScorerClient struct {
	Client         *http.Client
	endpoint       string
	healthEndpoint string
	maxRetries     int
	initialBackoff time.Duration
}

func NewRemoteScorerClient(cfg RemoteScorerConfig) *RemoteScorerClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var httpClient *http.Client
	if cfg.ClientID != "" {
		oauthConf := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		base := &http.Client{Timeout: timeout}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		httpClient = oauthConf.Client(ctx)
		httpClient.Timeout = timeout
	} else {
		httpClient = &http.Client{Timeout: timeout}
	}

	slog.Info("[RemoteScorerClient] Initializing Client",
		slog.String("endpoint", cfg.Endpoint),
		slog.Duration("timeout", timeout),
		slog.Bool("oauth2", cfg.ClientID != ""))

	return &RemoteScorerClient{
		Client:         httpClient,
		endpoint:       cfg.Endpoint,
		healthEndpoint: cfg.HealthEndpoint,
		maxRetries:     MAX_RETRIES,
		initialBackoff: INITIAL_BACKOFF,
	}
}

// WithRetryPolicy overrides the retry count and first backoff delay.
func (r *RemoteScorerClient) WithRetryPolicy(maxRetries int, initialBackoff time.Duration) *RemoteScorerClient {
	r.maxRetries = max(1, maxRetries)
	r.initialBackoff = initialBackoff
	return r
}

func (r *RemoteScorerClient) DoWithRetry(ctx context.Context, newRequest func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error
	backoff := r.initialBackoff

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		var req *http.Request
		req, err = newRequest()
		if err != nil {
			return nil, err
		}

		resp, err = r.Client.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		slog.Warn("[RemoteScorerClient] Request failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.String("error", errMsg(err, resp)))

		if resp != nil {
			resp.Body.Close()
			if err == nil {
				err = fmt.Errorf("status code %d", resp.StatusCode)
			}
			resp = nil
		}

		if attempt == r.maxRetries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, MAX_BACKOFF)
	}

	return resp, err
}

func (r *RemoteScorerClient) ScoreBatch(ctx context.Context, texts []string) (models.PolarityBatchResponse, error) {
	var result models.PolarityBatchResponse
	start := time.Now()

	err := r.postJSON(ctx, r.endpoint, models.PolarityBatchRequest{Texts: texts}, &result)
	if err != nil {
		slog.Error("[RemoteScorerClient] Polarity request failed",
			slog.Int("batch_size", len(texts)),
			slog.Duration("elapsed", time.Since(start)))
		return nil, err
	}

	slog.Debug("[RemoteScorerClient] Polarity request successful",
		slog.Int("batch_size", len(texts)),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// HealthCheck reports whether the health endpoint answers 2xx.
func (r *RemoteScorerClient) HealthCheck(ctx context.Context) bool {
	if r.healthEndpoint == "" {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.healthEndpoint, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", USER_AGENT)

	resp, err := r.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (r *RemoteScorerClient) postJSON(ctx context.Context, endpoint string, input any, output any) error {
	body, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}

	resp, err := r.DoWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", USER_AGENT)
		return req, nil
	})
	if err != nil {
		slog.Error("[RemoteScorerClient] Failed request after retries",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()))
		return fmt.Errorf("request failed after retries: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		slog.Error("[RemoteScorerClient] Unexpected status",
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			getPreview(respBody))
		return fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, output); err != nil {
		slog.Error("[RemoteScorerClient] Failed to unmarshal response",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
			getPreview(respBody),
			slog.Int("raw_response_length", len(respBody)))

		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func getPreview(respBody []byte) slog.Attr {
	raw := string(respBody)
	if len(raw) > 50 {
		raw = raw[:50]
	}
	return slog.String("raw_response", raw)
}

func errMsg(err error, resp *http.Response) string {
	if err != nil {
		return err.Error()
	}
	if resp != nil {
		return fmt.Sprintf("status code %d", resp.StatusCode)
	}
	return "unknown error"
}
