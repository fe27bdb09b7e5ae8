package model

import (
	"context"
)

// These are factory methods each llm provider implements to create content generators.

// NewStringContentGeneratorFunc is for generators that produce simple string output.
type NewStringContentGeneratorFunc func(prompt string, opts ...GeneratorOption) (ContentGenerator[string], error)

type ContentGenerator[T any] interface {
	Generate(ctx context.Context) (T, GenerationMetadata, error)
	AddPromptContext(ctx context.Context, messageType ContextMessageType, content string)
}

type GenerationMetadata map[string]string

const (
	MetadataKeyProvider          = "provider"
	MetadataKeyModel             = "model"
	MetadataKeyLatencyMs         = "latency_ms"
	MetadataKeyInputTokens       = "input_tokens"
	MetadataKeyOutputTokens      = "output_tokens"
	MetadataKeyTotalTokens       = "total_tokens"
	MetadataKeyCachedInputTokens = "cached_input_tokens"
	MetadataKeyReasoningTokens   = "reasoning_tokens"
	MetadataKeyAPICalls          = "api_calls"
	MetadataKeyResponseID        = "response_id"
	MetadataKeyResponseStatus    = "response_status"
	MetadataKeyLanguage          = "language"
)

type PromptContext struct {
	MessageType ContextMessageType
	Content     string
}

type ContextMessageType string

const (
	ContextMessageTypeSystem    ContextMessageType = "system"    // Instructions that are not part of the user input, such as the extraction rules.
	ContextMessageTypeHuman     ContextMessageType = "human"     // Context sent as the user but not part of the prompt itself.
	ContextMessageTypeAssistant ContextMessageType = "assistant" // Prior responses from the assistant.
)

type GeneratorOption interface {
	apply(*GeneratorConfig)
}

type generatorOptionFunc func(*GeneratorConfig)

func (f generatorOptionFunc) apply(cfg *GeneratorConfig) {
	f(cfg)
}

type GeneratorConfig struct {
	IgnoreInvalidGeneratorOptions bool
	URL                           string
	AuthToken                     string
	Temperature                   *float64
	MaxTokens                     *int
	Model                         *string
	// JSONOutput asks the provider for a JSON object response when it has a native switch for it.
	JSONOutput bool
}

func ResolveGeneratorOpts(opts ...GeneratorOption) GeneratorConfig {
	cfg := GeneratorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&cfg)
		}
	}
	return cfg
}

func WithIgnoreInvalidGeneratorOptions(value bool) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.IgnoreInvalidGeneratorOptions = value
	})
}

func WithURL(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.URL = value
	})
}

func WithAuthToken(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.AuthToken = value
	})
}

func WithTemperature(value float64) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.Temperature = &value
	})
}

func WithMaxTokens(value int) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.MaxTokens = &value
	})
}

func WithModel(value string) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.Model = &value
	})
}

func WithJSONOutput(value bool) GeneratorOption {
	return generatorOptionFunc(func(cfg *GeneratorConfig) {
		cfg.JSONOutput = value
	})
}
