package openai

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultModelName = "gpt-4o-mini"
	providerName     = "openai"
)

type client struct {
	apiClient openai.Client
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if prompt == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	c, err := newClient(cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &textGenerator{client: c, prompt: prompt, cfg: cfg}, nil
}

func newClient(cfg model.GeneratorConfig) (*client, error) {
	requestOpts := make([]option.RequestOption, 0, 2)
	if cfg.URL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(cfg.URL))
	}
	if cfg.AuthToken != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(cfg.AuthToken))
	}

	apiClient := openai.NewClient(requestOpts...)
	return &client{apiClient: apiClient}, nil
}

type textGenerator struct {
	client          *client
	prompt          string
	cfg             model.GeneratorConfig
	promptContextMu sync.RWMutex
	promptContexts  []*model.PromptContext
}

func (g *textGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	log := logging.NewLogger(ctx)
	g.promptContextMu.Lock()
	defer g.promptContextMu.Unlock()

	g.promptContexts = append(g.promptContexts, &model.PromptContext{
		MessageType: messageType,
		Content:     content,
	})
	log.Debugf(
		"openai.textGenerator.AddPromptContext total_contexts=%d",
		len(g.promptContexts),
	)
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	meta := initMetadata(providerName, resolveModelName(g.cfg))
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	inputItems, contextCount := g.inputItemsWithContext()
	log.Infof(
		"context_count=%d input_items=%d model=%v temperature=%v max_tokens=%v json_output=%v",
		contextCount,
		len(inputItems),
		resolveModelName(g.cfg),
		g.cfg.Temperature,
		g.cfg.MaxTokens,
		g.cfg.JSONOutput,
	)

	params, err := buildParams(inputItems, g.cfg, log)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	response, err := g.client.apiClient.Responses.New(ctx, params)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if response == nil {
		err = errors.New("responses API returned nil response")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyOpenAIResponseMetadata(meta, response)

	output := strings.TrimSpace(response.OutputText())
	if output == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return output, meta, nil
}

func (g *textGenerator) inputItemsWithContext() (responses.ResponseInputParam, int) {
	g.promptContextMu.RLock()
	contexts := append([]*model.PromptContext(nil), g.promptContexts...)
	g.promptContextMu.RUnlock()

	return buildInputItemsWithContext(g.prompt, contexts)
}

func buildInputItemsWithContext(prompt string, contexts []*model.PromptContext) (responses.ResponseInputParam, int) {
	items := make(responses.ResponseInputParam, 0, len(contexts)+1)
	contextCount := 0
	for _, contextItem := range contexts {
		if contextItem == nil {
			continue
		}

		content := strings.TrimSpace(contextItem.Content)
		if content == "" {
			continue
		}

		contextCount++
		items = append(
			items,
			responses.ResponseInputItemParamOfMessage(
				content,
				mapContextMessageRole(contextItem.MessageType),
			),
		)
	}

	items = append(
		items,
		responses.ResponseInputItemParamOfMessage(
			prompt,
			responses.EasyInputMessageRoleUser,
		),
	)
	return items, contextCount
}

func buildParams(
	inputItems responses.ResponseInputParam,
	cfg model.GeneratorConfig,
	log logging.Logger,
) (responses.ResponseNewParams, error) {
	modelName := resolveModelName(cfg)
	cfg, err := normalizeGeneratorOptionsForModel(modelName, cfg, log)
	if err != nil {
		return responses.ResponseNewParams{}, utils.WrapIfNotNil(err)
	}

	params := responses.ResponseNewParams{
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: inputItems,
		},
		Model: shared.ResponsesModel(modelName),
	}
	if cfg.Temperature != nil {
		params.Temperature = openai.Float(*cfg.Temperature)
	}
	if cfg.MaxTokens != nil {
		params.MaxOutputTokens = openai.Int(int64(*cfg.MaxTokens))
	}
	if cfg.JSONOutput {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		}
	}
	return params, nil
}

func mapContextMessageRole(messageType model.ContextMessageType) responses.EasyInputMessageRole {
	switch messageType {
	case model.ContextMessageTypeSystem:
		return responses.EasyInputMessageRoleSystem
	case model.ContextMessageTypeAssistant:
		return responses.EasyInputMessageRoleAssistant
	case model.ContextMessageTypeHuman:
		return responses.EasyInputMessageRoleUser
	default:
		return responses.EasyInputMessageRoleUser
	}
}

func initMetadata(provider string, modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	meta := model.GenerationMetadata{
		model.MetadataKeyProvider: provider,
		model.MetadataKeyModel:    modelName,
	}
	return meta
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

func applyOpenAIResponseMetadata(meta model.GenerationMetadata, response *responses.Response) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyAPICalls] = "1"
	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
	meta[model.MetadataKeyCachedInputTokens] = strconv.FormatInt(response.Usage.InputTokensDetails.CachedTokens, 10)
	meta[model.MetadataKeyReasoningTokens] = strconv.FormatInt(response.Usage.OutputTokensDetails.ReasoningTokens, 10)
	if response.ID != "" {
		meta[model.MetadataKeyResponseID] = response.ID
	}
	if response.Status != "" {
		meta[model.MetadataKeyResponseStatus] = string(response.Status)
	}
}

// normalizeGeneratorOptionsForModel drops or rejects temperature for reasoning models,
// which refuse it.
func normalizeGeneratorOptionsForModel(
	modelName string,
	cfg model.GeneratorConfig,
	log logging.Logger,
) (model.GeneratorConfig, error) {
	if cfg.Temperature == nil || !isReasoningModel(modelName) {
		return cfg, nil
	}

	if !cfg.IgnoreInvalidGeneratorOptions {
		return cfg, utils.WrapIfNotNil(
			fmt.Errorf("temperature is not supported for reasoning model %q", modelName),
		)
	}
	if log != nil {
		log.Warnf("ignoring temperature for reasoning model %q", modelName)
	}
	cfg.Temperature = nil
	return cfg, nil
}

func isReasoningModel(modelName string) bool {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return false
	}

	return strings.HasPrefix(name, "o1") ||
		strings.HasPrefix(name, "o3") ||
		strings.HasPrefix(name, "o4") ||
		strings.HasPrefix(name, "gpt-5")
}

func resolveModelName(cfg model.GeneratorConfig) string {
	if cfg.Model != nil {
		modelName := strings.TrimSpace(*cfg.Model)
		if modelName != "" {
			return modelName
		}
	}
	return defaultModelName
}
