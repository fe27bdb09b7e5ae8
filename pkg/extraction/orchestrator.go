package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/cache"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/anthropic"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/bedrock"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/ollama"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/openai"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/prompt"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
)

const DefaultTimeout = 60 * time.Second

// Orchestrator runs the strategy chain in order and stops at the first success.
type Orchestrator struct {
	strategies []Strategy
	cache      *cache.TransactionCache
	metrics    *metrics.Registry
	timeout    time.Duration
}

type Option func(*Orchestrator)

func WithCache(c *cache.TransactionCache) Option {
	return func(o *Orchestrator) {
		o.cache = c
	}
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(o *Orchestrator) {
		o.metrics = reg
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// NewOrchestrator always appends the mock strategy, so the chain ends with a stage that cannot fail.
func NewOrchestrator(strategies []Strategy, opts ...Option) *Orchestrator {
	chain := make([]Strategy, 0, len(strategies)+1)
	for _, strategy := range strategies {
		if strategy != nil {
			chain = append(chain, strategy)
		}
	}
	chain = append(chain, MockStrategy{})

	o := &Orchestrator{
		strategies: chain,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.cache == nil {
		o.cache = cache.New(cache.WithMetrics(o.metrics))
	}
	return o
}

// StrategyNames lists the chain in precedence order.
func (o *Orchestrator) StrategyNames() []string {
	names := make([]string, 0, len(o.strategies))
	for _, strategy := range o.strategies {
		names = append(names, strategy.Name())
	}
	return names
}

// Extract returns the cached result for (language, transcript) or runs the chain.
// The only error is a retryable ErrExtractionTimeout, or the caller's own cancellation.
func (o *Orchestrator) Extract(ctx context.Context, transcript string, language model.Language) (model.TransactionData, error) {
	log := logging.NewLogger(ctx)

	key := cache.Key(language, transcript)
	if tx, ok := o.cache.Get(key); ok {
		log.Debugf("cache hit key=%s", key)
		return tx, nil
	}

	start := time.Now()
	stageCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	type result struct {
		tx       model.TransactionData
		strategy string
	}
	done := make(chan result, 1)
	go func() {
		tx, strategy := o.runChain(stageCtx, transcript, language)
		done <- result{tx: tx, strategy: strategy}
	}()

	select {
	case res := <-done:
		// Both cases may be ready at once. A chain that finished on an expired stage context only ran the mock.
		if stageCtx.Err() != nil {
			return model.TransactionData{}, o.stageError(ctx)
		}
		o.metrics.ObserveExtraction(time.Since(start).Seconds())
		log.Infof("extracted strategy=%s items=%d total=%v currency=%s",
			res.strategy, len(res.tx.Items), res.tx.Total, res.tx.Currency)
		o.cache.Put(key, res.tx)
		return res.tx, nil
	case <-stageCtx.Done():
		return model.TransactionData{}, o.stageError(ctx)
	}
}

// stageError reports why the stage context ended: the caller's own cancellation, or the stage timeout.
func (o *Orchestrator) stageError(ctx context.Context) error {
	if ctx.Err() != nil {
		return utils.WrapIfNotNil(ctx.Err())
	}
	o.metrics.ExtractionTimeout()
	err := fmt.Errorf("%w after %s", model.ErrExtractionTimeout, o.timeout)
	logging.NewLogger(ctx).Errorf("error: %v", err)
	return model.NewRetryableError(err)
}

func (o *Orchestrator) runChain(ctx context.Context, transcript string, language model.Language) (model.TransactionData, string) {
	log := logging.NewLogger(ctx)

	for _, strategy := range o.strategies {
		if ctx.Err() != nil && strategy.Name() != StrategyNameMock {
			continue
		}
		o.metrics.StrategyAttempt(strategy.Name())
		tx, err := strategy.Extract(ctx, transcript, language)
		if err == nil {
			return tx, strategy.Name()
		}
		o.metrics.StrategyFailure(strategy.Name())
		log.Warnf("strategy %s failed, falling through: %v", strategy.Name(), err)
	}

	// unreachable while MockStrategy ends the chain
	return MockTransaction(language), StrategyNameMock
}

// NewOrchestratorFromConfig builds regional, then each configured general provider with retry, then mock.
func NewOrchestratorFromConfig(
	cfg *config.Config,
	builder *prompt.Builder,
	transactionCache *cache.TransactionCache,
	reg *metrics.Registry,
) *Orchestrator {
	strategies := []Strategy{NewRegionalStrategy(cfg.HFToken, cfg.HFRegionalModel, builder)}

	for _, name := range cfg.GeneralProviders {
		generalStrategy, err := newGeneralStrategy(cfg, name, builder)
		if err != nil {
			logging.NewLogger(context.Background()).Warnf("skipping general provider %s: %v", name, err)
			continue
		}
		strategies = append(strategies, NewRetryStrategy(generalStrategy,
			WithAttempts(cfg.RetryAttempts),
			WithBaseDelay(cfg.RetryBaseDelay),
		))
	}

	return NewOrchestrator(strategies,
		WithCache(transactionCache),
		WithMetrics(reg),
		WithTimeout(cfg.ExtractionTimeout),
	)
}

var errProviderNotConfigured = errors.New("provider credential is not configured")

func newGeneralStrategy(cfg *config.Config, name string, builder *prompt.Builder) (Strategy, error) {
	withModel := func(opts []model.GeneratorOption, modelName string) []model.GeneratorOption {
		if modelName != "" {
			opts = append(opts, model.WithModel(modelName))
		}
		return opts
	}

	switch name {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, errProviderNotConfigured
		}
		opts := withModel([]model.GeneratorOption{
			model.WithAuthToken(cfg.OpenAIAPIKey),
			model.WithURL(cfg.OpenAIBaseURL),
			model.WithIgnoreInvalidGeneratorOptions(true),
		}, cfg.OpenAIModel)
		return NewGeneratorStrategy(name, openai.NewStringContentGenerator, builder, opts...), nil
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, errProviderNotConfigured
		}
		opts := withModel([]model.GeneratorOption{model.WithAuthToken(cfg.GeminiKey)}, cfg.GeminiModel)
		return NewGeneratorStrategy(name, gemini.NewStringContentGenerator, builder, opts...), nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, errProviderNotConfigured
		}
		opts := withModel([]model.GeneratorOption{model.WithAuthToken(cfg.AnthropicAPIKey)}, cfg.AnthropicModel)
		return NewGeneratorStrategy(name, anthropic.NewStringContentGenerator, builder, opts...), nil
	case "bedrock":
		if !cfg.BedrockEnabled {
			return nil, errProviderNotConfigured
		}
		opts := withModel(nil, cfg.BedrockModel)
		return NewGeneratorStrategy(name, bedrock.NewStringContentGenerator, builder, opts...), nil
	case "ollama":
		if cfg.OllamaBaseURL == "" {
			return nil, errProviderNotConfigured
		}
		opts := withModel([]model.GeneratorOption{model.WithURL(cfg.OllamaBaseURL)}, cfg.OllamaModel)
		return NewGeneratorStrategy(name, ollama.NewStringContentGenerator, builder, opts...), nil
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}
