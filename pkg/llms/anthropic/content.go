package anthropic

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
)

// jsonPrefill seeds the assistant turn so the model continues a JSON object.
const jsonPrefill = "{"

type textGenerator struct {
	client          *apiClient
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
	client, err := newAPIClient(cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &textGenerator{
		client: client,
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
	log.Debugf("anthropic.textGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(g.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	request, contextCount := g.buildRequest(modelName)
	log.Infof(
		"context_count=%d model=%q temperature=%v max_tokens=%d json_output=%v",
		contextCount,
		modelName,
		g.cfg.Temperature,
		request.MaxTokens,
		g.cfg.JSONOutput,
	)

	response, err := g.client.createMessage(ctx, request)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyAnthropicMetadata(meta, response)

	text := extractTextFromContentBlocks(response.Content)
	if text == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if g.cfg.JSONOutput && !strings.HasPrefix(text, jsonPrefill) {
		text = jsonPrefill + text
	}
	return text, meta, nil
}

func (g *textGenerator) buildRequest(modelName string) (anthropicMessageRequest, int) {
	g.promptContextMu.RLock()
	contexts := append([]*model.PromptContext(nil), g.promptContexts...)
	g.promptContextMu.RUnlock()

	system, messages, contextCount := buildMessagesWithContext(g.prompt, contexts)
	if g.cfg.JSONOutput {
		messages = append(messages, makeTextMessage("assistant", jsonPrefill))
	}

	return anthropicMessageRequest{
		Model:       modelName,
		MaxTokens:   resolveMaxTokens(g.cfg),
		Temperature: g.cfg.Temperature,
		System:      system,
		Messages:    messages,
	}, contextCount
}

func buildMessagesWithContext(prompt string, contexts []*model.PromptContext) (string, []anthropicMessage, int) {
	systemParts := make([]string, 0)
	messages := make([]anthropicMessage, 0, len(contexts)+1)
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
			messages = append(messages, makeTextMessage("assistant", content))
		default:
			messages = append(messages, makeTextMessage("user", content))
		}
	}

	messages = append(messages, makeTextMessage("user", prompt))
	return strings.Join(systemParts, "\n\n"), messages, contextCount
}

func makeTextMessage(role string, content string) anthropicMessage {
	return anthropicMessage{
		Role: role,
		Content: []anthropicContentBlock{
			{
				Type: "text",
				Text: content,
			},
		},
	}
}

func extractTextFromContentBlocks(content []anthropicContentBlock) string {
	if len(content) == 0 {
		return ""
	}

	parts := make([]string, 0, len(content))
	for _, block := range content {
		if block.Type != "text" {
			continue
		}
		trimmed := strings.TrimSpace(block.Text)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	return strings.Join(parts, "\n")
}
