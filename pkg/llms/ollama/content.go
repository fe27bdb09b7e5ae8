package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"
)

type textGenerator struct {
	client          *client
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
		client: newClient(cfg),
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
	log.Debugf("ollama.textGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveGenerationModelName(g.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	messages, contextCount := g.messagesWithContext()
	log.Infof(
		"context_count=%d model=%q base_url=%q json_output=%v",
		contextCount,
		modelName,
		g.client.baseURL,
		g.cfg.JSONOutput,
	)

	request := ollamaChatRequest{
		Model:    modelName,
		Messages: toWireMessages(messages),
		Stream:   false,
		Options:  buildOllamaChatOptions(g.cfg),
	}
	if g.cfg.JSONOutput {
		request.Format = "json"
	}

	response, err := g.client.chat(ctx, request)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	apiCalls := 1

	text := strings.TrimSpace(response.Message.Content)
	if g.cfg.JSONOutput && text != "" && !json.Valid([]byte(text)) {
		log.Warnf("ollama returned invalid JSON; requesting a reformat")
		text, err = g.repairJSON(modelName, text)
		if err != nil {
			log.Errorf("error: %v", err)
			return "", meta, utils.WrapIfNotNil(err)
		}
		apiCalls++
	}
	applyOllamaMetadata(meta, response, apiCalls)

	if text == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func (g *textGenerator) messagesWithContext() ([]ollamasdk.ChatMessage, int) {
	g.promptContextMu.RLock()
	contexts := append([]*model.PromptContext(nil), g.promptContexts...)
	g.promptContextMu.RUnlock()

	return buildMessagesWithContext(g.prompt, contexts)
}

// repairJSON asks the model once to reformat its own output as a bare JSON object.
func (g *textGenerator) repairJSON(modelName string, rawOutput string) (string, error) {
	messages := []ollamasdk.ChatMessage{
		{
			Role:    "system",
			Content: "You are a strict JSON formatter.",
		},
		{
			Role:    "user",
			Content: "Reformat the following output into one valid JSON object. Return only JSON.\n\nOutput:\n" + rawOutput,
		},
	}

	text, err := g.client.apiClient.Chat(modelName, messages)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return strings.TrimSpace(text), nil
}

func buildMessagesWithContext(prompt string, contexts []*model.PromptContext) ([]ollamasdk.ChatMessage, int) {
	messages := make([]ollamasdk.ChatMessage, 0, len(contexts)+1)
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
		role := "user"
		switch contextItem.MessageType {
		case model.ContextMessageTypeSystem:
			role = "system"
		case model.ContextMessageTypeAssistant:
			role = "assistant"
		}

		messages = append(messages, ollamasdk.ChatMessage{
			Role:    role,
			Content: content,
		})
	}

	messages = append(messages, ollamasdk.ChatMessage{
		Role:    "user",
		Content: prompt,
	})
	return messages, contextCount
}

func toWireMessages(messages []ollamasdk.ChatMessage) []ollamaChatMessage {
	wire := make([]ollamaChatMessage, 0, len(messages))
	for _, message := range messages {
		wire = append(wire, ollamaChatMessage{
			Role:    message.Role,
			Content: message.Content,
		})
	}
	return wire
}

func buildOllamaChatOptions(cfg model.GeneratorConfig) *ollamaChatOptions {
	if cfg.Temperature == nil && cfg.MaxTokens == nil {
		return nil
	}

	options := &ollamaChatOptions{}
	if cfg.Temperature != nil {
		temperature := *cfg.Temperature
		options.Temperature = &temperature
	}
	if cfg.MaxTokens != nil {
		numPredict := *cfg.MaxTokens
		options.NumPredict = &numPredict
	}
	return options
}
