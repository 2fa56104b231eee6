package sentiment

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/openai/openai-go"
)

const llmSystemPrompt = `You rate the sentiment polarity of short texts.
Reply with a single decimal number between -1 and 1 and nothing else.
-1 is very negative, 0 is neutral or no sentiment, 1 is very positive.`

// LLMScorer asks a chat model for a polarity per text. Replies that are not a
// number are treated as no signal (0).
type LLMScorer struct {
	client *openai.Client
	model  string
}

func NewLLMScorer(client *openai.Client, model string) *LLMScorer {
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &LLMScorer{client: client, model: model}
}

func (l *LLMScorer) Name() string { return SCORER_LLM }

func (l *LLMScorer) Polarity(ctx context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	for i, text := range texts {
		if isBlank(text) {
			continue
		}

		resp, err := l.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(llmSystemPrompt),
				openai.UserMessage(text),
			}),
			Model:       openai.F(openai.ChatModel(l.model)),
			Temperature: openai.F(0.0),
		})
		if err != nil {
			return nil, fmt.Errorf("[LLMScorer] completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		scores[i] = ParsePolarityReply(resp.Choices[0].Message.Content)
	}
	return scores, nil
}

// ParsePolarityReply extracts the first number of a model reply and clamps it
// to [-1, 1]. Anything unparseable yields 0.
func ParsePolarityReply(reply string) float64 {
	fields := strings.Fields(strings.TrimSpace(reply))
	if len(fields) == 0 {
		return 0
	}

	value, err := strconv.ParseFloat(strings.TrimRight(strings.TrimLeft(fields[0], "\"'`"), ".,;:\"'`"), 64)
	if err != nil {
		slog.Debug("[LLMScorer] Unparseable reply", slog.String("reply", reply))
		return 0
	}
	return clamp(value)
}
