// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// Upstream LLM provider (OpenRouter-compatible chat completions API).
	OpenRouterAPIKey  string `env:"OPENROUTER_API_KEY"`
	OpenRouterBaseURL string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	OpenRouterReferer string `env:"OPENROUTER_REFERER"`
	OpenRouterTitle   string `env:"OPENROUTER_TITLE" envDefault:"Dutch Chat Tutor"`
	ChatModel         string `env:"CHAT_MODEL" envDefault:"openai/gpt-4o-mini"`

	// RequestTimeout bounds one whole upstream call, retries included.
	// A call that exceeds it counts as a failure toward the circuit breaker.
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxReplyTokens  int           `env:"MAX_REPLY_TOKENS" envDefault:"700"`
	MaxPromptTokens int           `env:"MAX_PROMPT_TOKENS" envDefault:"3000"`

	// Request guard: sliding-window quotas per endpoint plus one shared breaker.
	RateLimitWindow    time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
	ChatRateLimit      int           `env:"CHAT_RATE_LIMIT" envDefault:"30"`
	CorrectRateLimit   int           `env:"CORRECT_RATE_LIMIT" envDefault:"15"`
	TranslateRateLimit int           `env:"TRANSLATE_RATE_LIMIT" envDefault:"20"`
	VocabRateLimit     int           `env:"VOCAB_RATE_LIMIT" envDefault:"20"`
	// RateLimitClientCap bounds distinct clients tracked per limiter (LRU evicted).
	RateLimitClientCap      int           `env:"RATE_LIMIT_CLIENT_CAP" envDefault:"10000"`
	BreakerFailureThreshold int           `env:"BREAKER_FAILURE_THRESHOLD" envDefault:"5"`
	BreakerResetTimeout     time.Duration `env:"BREAKER_RESET_TIMEOUT" envDefault:"30s"`

	// AI Backoff Configuration
	AIBackoffMaxElapsedTime  time.Duration `env:"AI_BACKOFF_MAX_ELAPSED_TIME" envDefault:"20s"`
	AIBackoffInitialInterval time.Duration `env:"AI_BACKOFF_INITIAL_INTERVAL" envDefault:"500ms"`
	AIBackoffMaxInterval     time.Duration `env:"AI_BACKOFF_MAX_INTERVAL" envDefault:"4s"`
	AIBackoffMultiplier      float64       `env:"AI_BACKOFF_MULTIPLIER" envDefault:"1.5"`

	// Topic files.
	TopicsDir   string `env:"TOPICS_DIR" envDefault:"config/topics"`
	TopicsWatch bool   `env:"TOPICS_WATCH" envDefault:"true"`

	// HTTP edge.
	TrustProxy            bool          `env:"TRUST_PROXY" envDefault:"false"`
	CORSAllowOrigins      string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	GlobalRateLimitPerMin int           `env:"GLOBAL_RATE_LIMIT_PER_MIN" envDefault:"120"`
	HTTPReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	HTTPWriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"45s"`
	HTTPIdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ServerShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Ops endpoints (guard snapshots). Mounted only when credentials are set.
	// OpsPassword accepts either a plaintext secret or an argon2id hash
	// ("argon2id$iter$mem$par$salt$hash").
	OpsUsername string `env:"OPS_USERNAME"`
	OpsPassword string `env:"OPS_PASSWORD"`

	// Observability.
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"dutch-chat-tutor"`
}

// OpsEnabled returns true if the ops endpoints should be mounted.
func (c Config) OpsEnabled() bool {
	return c.OpsUsername != "" && c.OpsPassword != ""
}

// Load parses environment variables into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// GetAIBackoffConfig returns backoff configuration appropriate for the current environment.
// In test environments, uses much shorter timeouts for faster test execution.
func (c Config) GetAIBackoffConfig() (maxElapsedTime, initialInterval, maxInterval time.Duration, multiplier float64) {
	if c.IsTest() {
		return 2 * time.Second, 50 * time.Millisecond, 500 * time.Millisecond, 2.0
	}
	return c.AIBackoffMaxElapsedTime, c.AIBackoffInitialInterval, c.AIBackoffMaxInterval, c.AIBackoffMultiplier
}
