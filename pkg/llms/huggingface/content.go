package huggingface

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

type textGenerator struct {
	client          *apiClient
	prompt          string
	cfg             model.GeneratorConfig
	promptContextMu sync.RWMutex
	promptContexts  []*model.PromptContext
}

// NewStringContentGenerator talks to the Hugging Face router's OpenAI-compatible
// chat endpoint. It fails fast when no token is configured.
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
	log.Debugf("huggingface.textGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(g.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	messages, contextCount := g.messagesWithContext()
	log.Infof(
		"context_count=%d model=%q temperature=%v max_tokens=%d json_output=%v",
		contextCount,
		modelName,
		g.cfg.Temperature,
		resolveMaxTokens(g.cfg),
		g.cfg.JSONOutput,
	)

	response, err := g.client.createChatCompletion(ctx, buildChatRequest(modelName, messages, g.cfg))
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyHuggingFaceMetadata(meta, response)

	text := extractTextFromResponse(response)
	if text == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func (g *textGenerator) messagesWithContext() ([]chatMessage, int) {
	g.promptContextMu.RLock()
	contexts := append([]*model.PromptContext(nil), g.promptContexts...)
	g.promptContextMu.RUnlock()

	return buildMessagesWithContext(g.prompt, contexts)
}

func buildChatRequest(modelName string, messages []chatMessage, cfg model.GeneratorConfig) chatCompletionRequest {
	request := chatCompletionRequest{
		Model:       modelName,
		Messages:    messages,
		MaxTokens:   resolveMaxTokens(cfg),
		Temperature: cfg.Temperature,
	}
	if cfg.JSONOutput {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return request
}

func buildMessagesWithContext(prompt string, contexts []*model.PromptContext) ([]chatMessage, int) {
	messages := make([]chatMessage, 0, len(contexts)+1)
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
		messages = append(messages, chatMessage{
			Role:    mapContextMessageRole(contextItem.MessageType),
			Content: content,
		})
	}

	messages = append(messages, chatMessage{Role: "user", Content: prompt})
	return messages, contextCount
}

func mapContextMessageRole(messageType model.ContextMessageType) string {
	switch messageType {
	case model.ContextMessageTypeSystem:
		return "system"
	case model.ContextMessageTypeAssistant:
		return "assistant"
	default:
		return "user"
	}
}

func extractTextFromResponse(response *chatCompletionResponse) string {
	if response == nil || len(response.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(response.Choices[0].Message.Content)
}
