package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/huggingface"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/prompt"
)

const StrategyNameRegional = "regional"

const extractionTemperature = 0.1

// Strategy is one stage of the extraction chain. A returned error moves the chain to the next stage.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, transcript string, language model.Language) (model.TransactionData, error)
}

// GeneratorStrategy extracts with a single JSON completion from any provider package.
type GeneratorStrategy struct {
	name         string
	newGenerator model.NewStringContentGeneratorFunc
	opts         []model.GeneratorOption
	builder      *prompt.Builder
}

func NewGeneratorStrategy(
	name string,
	newGenerator model.NewStringContentGeneratorFunc,
	builder *prompt.Builder,
	opts ...model.GeneratorOption,
) *GeneratorStrategy {
	return &GeneratorStrategy{
		name:         name,
		newGenerator: newGenerator,
		opts:         opts,
		builder:      builder,
	}
}

func (s *GeneratorStrategy) Name() string { return s.name }

func (s *GeneratorStrategy) Extract(ctx context.Context, transcript string, language model.Language) (model.TransactionData, error) {
	log := logging.NewLogger(ctx).WithField("strategy", s.name)

	instructions := s.builder.Build(transcript, language)
	opts := make([]model.GeneratorOption, 0, len(s.opts)+2)
	opts = append(opts, model.WithTemperature(extractionTemperature))
	opts = append(opts, s.opts...)
	opts = append(opts, model.WithJSONOutput(true))

	generator, err := s.newGenerator(instructions.User, opts...)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.TransactionData{}, wrapExtractionError(err)
	}
	generator.AddPromptContext(ctx, model.ContextMessageTypeSystem, instructions.System)

	output, meta, err := generator.Generate(ctx)
	if err != nil {
		log.Errorf("error: %v", err)
		return model.TransactionData{}, wrapExtractionError(err)
	}
	log.Infof("generated provider=%s model=%s latency_ms=%s output_tokens=%s",
		meta[model.MetadataKeyProvider], meta[model.MetadataKeyModel],
		meta[model.MetadataKeyLatencyMs], meta[model.MetadataKeyOutputTokens])

	raw, err := ParseRawTransaction(output)
	if err != nil {
		log.Warnf("rejecting provider output chars=%d: %v", len(output), err)
		return model.TransactionData{}, wrapExtractionError(err)
	}
	return Validate(raw, language), nil
}

// RegionalStrategy calls the Southeast Asian language model hosted on the Hugging Face router.
// Without a token it fails immediately so the chain moves on to the general models.
type RegionalStrategy struct {
	*GeneratorStrategy
	token string
}

func NewRegionalStrategy(token string, modelName string, builder *prompt.Builder) *RegionalStrategy {
	opts := []model.GeneratorOption{model.WithAuthToken(token)}
	if modelName != "" {
		opts = append(opts, model.WithModel(modelName))
	}
	return &RegionalStrategy{
		GeneratorStrategy: NewGeneratorStrategy(StrategyNameRegional, huggingface.NewStringContentGenerator, builder, opts...),
		token:             token,
	}
}

func (s *RegionalStrategy) Extract(ctx context.Context, transcript string, language model.Language) (model.TransactionData, error) {
	if s.token == "" {
		return model.TransactionData{}, wrapExtractionError(errors.New("regional model is not configured"))
	}
	return s.GeneratorStrategy.Extract(ctx, transcript, language)
}

func wrapExtractionError(err error) error {
	return fmt.Errorf("%w: %w", model.ErrExtraction, err)
}
