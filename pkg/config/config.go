package config

import (
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port      string `validate:"required,numeric"`
	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=text json"`

	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIModel           string
	OpenAIAudioModel      string
	TranscriptionProvider string `validate:"oneof=openai gemini"`

	GeminiKey   string
	GeminiModel string

	HFToken         string
	HFRegionalModel string

	AnthropicAPIKey string
	AnthropicModel  string

	BedrockEnabled bool
	BedrockModel   string

	OllamaBaseURL string
	OllamaModel   string

	// GeneralProviders is the ordered list of general-purpose models tried after the regional one.
	GeneralProviders []string `validate:"dive,oneof=openai gemini anthropic bedrock ollama"`

	ExtractionTimeout   time.Duration `validate:"gt=0"`
	RetryAttempts       int           `validate:"min=1,max=10"`
	RetryBaseDelay      time.Duration `validate:"gte=0"`
	CacheTTL            time.Duration `validate:"gt=0"`
	CacheSweepThreshold int           `validate:"min=1"`

	RateLimit      string `validate:"required"`
	CORSOrigins    []string
	MaxUploadBytes int64 `validate:"gt=0"`
	InvoicePrefix  string
}

// Load reads configuration from the environment, after loading a .env file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:      v.GetString("PORT"),
		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),

		OpenAIAPIKey:          utils.FirstNonEmpty(v.GetString("OPENAI_API_KEY"), v.GetString("OPEN_API_TOKEN")),
		OpenAIBaseURL:         v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:           v.GetString("OPENAI_MODEL"),
		OpenAIAudioModel:      v.GetString("OPENAI_AUDIO_MODEL"),
		TranscriptionProvider: strings.ToLower(v.GetString("TRANSCRIPTION_PROVIDER")),

		GeminiKey:   v.GetString("GEMINI_KEY"),
		GeminiModel: v.GetString("GEMINI_MODEL"),

		HFToken:         v.GetString("HF_TOKEN"),
		HFRegionalModel: v.GetString("HF_REGIONAL_MODEL"),

		AnthropicAPIKey: v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:  v.GetString("ANTHROPIC_MODEL"),

		BedrockEnabled: v.GetBool("BEDROCK_ENABLED"),
		BedrockModel:   v.GetString("BEDROCK_MODEL"),

		OllamaBaseURL: v.GetString("OLLAMA_BASE_URL"),
		OllamaModel:   v.GetString("OLLAMA_MODEL"),

		GeneralProviders: splitList(v.GetString("GENERAL_PROVIDERS")),

		ExtractionTimeout:   v.GetDuration("EXTRACTION_TIMEOUT"),
		RetryAttempts:       v.GetInt("RETRY_ATTEMPTS"),
		RetryBaseDelay:      v.GetDuration("RETRY_BASE_DELAY"),
		CacheTTL:            v.GetDuration("CACHE_TTL"),
		CacheSweepThreshold: v.GetInt("CACHE_SWEEP_THRESHOLD"),

		RateLimit:      v.GetString("RATE_LIMIT"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
		InvoicePrefix:  v.GetString("INVOICE_PREFIX"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_AUDIO_MODEL", "whisper-1")
	v.SetDefault("TRANSCRIPTION_PROVIDER", "openai")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("HF_REGIONAL_MODEL", "aisingapore/Gemma-SEA-LION-v3-9B-IT")
	v.SetDefault("BEDROCK_ENABLED", false)
	v.SetDefault("OLLAMA_MODEL", "llama3.1")
	v.SetDefault("GENERAL_PROVIDERS", "openai")
	v.SetDefault("EXTRACTION_TIMEOUT", "60s")
	v.SetDefault("RETRY_ATTEMPTS", 3)
	v.SetDefault("RETRY_BASE_DELAY", "1s")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_SWEEP_THRESHOLD", 100)
	v.SetDefault("RATE_LIMIT", "30-M")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_BYTES", 25<<20)
	v.SetDefault("INVOICE_PREFIX", "INV-")
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
