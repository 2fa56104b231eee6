package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type Config struct {
	AppEnv    string `env:"APP_ENV,default=dev"`
	Port      int    `env:"PORT,default=8080" validate:"min=1,max=65535"`
	LogLevel  string `env:"LOG_LEVEL,default=info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT,default=text" validate:"oneof=text json"`

	LabelScheme    string `env:"LABEL_SCHEME,default=four" validate:"oneof=four three"`
	Scorer         string `env:"SCORER,default=vader" validate:"oneof=vader remote transformer llm"`
	KeywordLimit   int    `env:"KEYWORD_LIMIT,default=10" validate:"min=1,max=100"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES,default=10485760" validate:"min=1"`
	StoplistExtra  string `env:"STOPLIST_EXTRA"`
	StoplistFile   string `env:"STOPLIST_FILE"`

	RemoteScorerURL          string        `env:"REMOTE_SCORER_URL" validate:"required_if=Scorer remote"`
	RemoteScorerHealthURL    string        `env:"REMOTE_SCORER_HEALTH_URL"`
	RemoteScorerClientID     string        `env:"REMOTE_SCORER_CLIENT_ID"`
	RemoteScorerClientSecret string        `env:"REMOTE_SCORER_CLIENT_SECRET" validate:"required_with=RemoteScorerClientID"`
	RemoteScorerTokenURL     string        `env:"REMOTE_SCORER_TOKEN_URL" validate:"required_with=RemoteScorerClientID"`
	RemoteScorerTimeout      time.Duration `env:"REMOTE_SCORER_TIMEOUT,default=10s"`

	TransformerModelPath string `env:"TRANSFORMER_MODEL_PATH" validate:"required_if=Scorer transformer"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY" validate:"required_if=Scorer llm"`
	OpenAIModel   string `env:"OPENAI_MODEL,default=gpt-4o-mini"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	ValkeyInitAddress  string `env:"VALKEY_INIT_ADDRESS"`
	ValkeyPassword     string `env:"VALKEY_PASSWORD"`
	ValkeyTLS          bool   `env:"VALKEY_TLS,default=false"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE,default=30" validate:"min=0"`

	KafkaBroker              string `env:"KAFKA_BROKER"`
	KafkaTopicAnalysisEvents string `env:"KAFKA_TOPIC_ANALYSIS_EVENTS,default=analysis-events"`
}

// Load reads Config from the process environment.
func Load() (*Config, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return FromEnvSet(es)
}

// FromEnvSet decodes and validates a Config from es.
func FromEnvSet(es env.EnvSet) (*Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	for name, raw := range map[string]string{
		"REMOTE_SCORER_URL":        c.RemoteScorerURL,
		"REMOTE_SCORER_HEALTH_URL": c.RemoteScorerHealthURL,
		"REMOTE_SCORER_TOKEN_URL":  c.RemoteScorerTokenURL,
		"OPENAI_BASE_URL":          c.OpenAIBaseURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid config: %s must be an absolute URL, got %q", name, raw)
		}
	}
	return nil
}

// StoplistTerms returns the comma separated STOPLIST_EXTRA entries.
func (c *Config) StoplistTerms() []string {
	terms := lo.Map(strings.Split(c.StoplistExtra, ","), func(t string, _ int) string {
		return strings.TrimSpace(t)
	})
	return lo.Compact(terms)
}

func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
