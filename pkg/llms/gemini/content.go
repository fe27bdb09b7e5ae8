package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"google.golang.org/genai"
)

type textGenerator struct {
	prompt          string
	cfg             model.GeneratorConfig
	promptContextMu sync.RWMutex
	promptContexts  []*model.PromptContext
}

func NewStringContentGenerator(prompt string, opts ...model.GeneratorOption) (model.ContentGenerator[string], error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, utils.WrapIfNotNil(errors.New("prompt is required"))
	}

	cfg := model.ResolveGeneratorOpts(opts...)
	return &textGenerator{
		prompt: prompt,
		cfg:    cfg,
	}, nil
}

func (g *textGenerator) AddPromptContext(ctx context.Context, messageType model.ContextMessageType, content string) {
	log := logging.NewLogger(ctx)
	g.promptContextMu.Lock()
	defer g.promptContextMu.Unlock()

	g.promptContexts = append(g.promptContexts, &model.PromptContext{
		MessageType: messageType,
		Content:     content,
	})
	log.Debugf("gemini.textGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveGenerationModelName(g.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	systemInstruction, contents, contextCount := g.contentsWithContext()
	config := buildGenerateContentConfig(g.cfg, systemInstruction)

	client, err := newAPIClient(ctx, g.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	log.Infof(
		"context_count=%d model=%q temperature=%v max_tokens=%v json_output=%v",
		contextCount,
		modelName,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
		g.cfg.JSONOutput,
	)

	response, err := client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyGenerateMetadata(meta, response)

	text := strings.TrimSpace(response.Text())
	if text == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func (g *textGenerator) contentsWithContext() (*genai.Content, []*genai.Content, int) {
	g.promptContextMu.RLock()
	contexts := append([]*model.PromptContext(nil), g.promptContexts...)
	g.promptContextMu.RUnlock()

	return buildContentsWithContext(g.prompt, contexts)
}

// buildContentsWithContext folds system contexts into one system instruction and
// keeps the rest as conversation turns ahead of the prompt.
func buildContentsWithContext(prompt string, contexts []*model.PromptContext) (*genai.Content, []*genai.Content, int) {
	systemParts := make([]string, 0)
	contents := make([]*genai.Content, 0, len(contexts)+1)
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
		switch contextItem.MessageType {
		case model.ContextMessageTypeSystem:
			systemParts = append(systemParts, content)
		case model.ContextMessageTypeAssistant:
			contents = append(contents, genai.NewContentFromText(content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(content, genai.RoleUser))
		}
	}

	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))

	if len(systemParts) == 0 {
		return nil, contents, contextCount
	}

	systemInstruction := genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	return systemInstruction, contents, contextCount
}

func buildGenerateContentConfig(cfg model.GeneratorConfig, systemInstruction *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if systemInstruction != nil {
		config.SystemInstruction = systemInstruction
	}
	if cfg.Temperature != nil {
		temp := float32(*cfg.Temperature)
		config.Temperature = &temp
	}
	if cfg.MaxTokens != nil {
		config.MaxOutputTokens = int32(*cfg.MaxTokens)
	}
	if cfg.JSONOutput {
		config.ResponseMIMEType = "application/json"
	}
	return config
}
