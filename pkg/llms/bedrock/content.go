package bedrock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type textGenerator struct {
	prompt          string
	cfg             model.GeneratorConfig
	promptContextMu sync.RWMutex
	promptContexts  []*model.PromptContext
	// client is resolved lazily from the AWS environment when nil.
	client converseAPI
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
	log.Debugf("bedrock.textGenerator.AddPromptContext total_contexts=%d", len(g.promptContexts))
}

func (g *textGenerator) Generate(ctx context.Context) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveModelName(g.cfg)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	system, messages, contextCount := g.messagesWithContext()

	client := g.client
	if client == nil {
		created, err := newClient(ctx, g.cfg)
		if err != nil {
			log.Errorf("error: %v", err)
			return "", meta, utils.WrapIfNotNil(err)
		}
		client = created
	}

	log.Infof(
		"context_count=%d model=%q temperature=%v max_tokens=%v",
		contextCount,
		modelName,
		g.cfg.Temperature,
		g.cfg.MaxTokens,
	)

	output, err := client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:         aws.String(modelName),
		Messages:        messages,
		System:          system,
		InferenceConfig: buildInferenceConfig(g.cfg),
	})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyBedrockMetadata(meta, output)

	message, err := extractOutputMessage(output.Output)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	text := strings.TrimSpace(extractTextFromMessage(message))
	if text == "" {
		err = errors.New("response output is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	return text, meta, nil
}

func (g *textGenerator) messagesWithContext() ([]bedrocktypes.SystemContentBlock, []bedrocktypes.Message, int) {
	g.promptContextMu.RLock()
	contexts := append([]*model.PromptContext(nil), g.promptContexts...)
	g.promptContextMu.RUnlock()

	return buildMessagesWithContext(g.prompt, contexts)
}

func buildMessagesWithContext(
	prompt string,
	contexts []*model.PromptContext,
) ([]bedrocktypes.SystemContentBlock, []bedrocktypes.Message, int) {
	system := make([]bedrocktypes.SystemContentBlock, 0)
	messages := make([]bedrocktypes.Message, 0, len(contexts)+1)
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
			system = append(system, &bedrocktypes.SystemContentBlockMemberText{Value: content})
		case model.ContextMessageTypeAssistant:
			messages = append(messages, textMessage(bedrocktypes.ConversationRoleAssistant, content))
		default:
			messages = append(messages, textMessage(bedrocktypes.ConversationRoleUser, content))
		}
	}

	messages = append(messages, textMessage(bedrocktypes.ConversationRoleUser, prompt))
	return system, messages, contextCount
}

func textMessage(role bedrocktypes.ConversationRole, content string) bedrocktypes.Message {
	return bedrocktypes.Message{
		Role: role,
		Content: []bedrocktypes.ContentBlock{
			&bedrocktypes.ContentBlockMemberText{Value: content},
		},
	}
}

func buildInferenceConfig(cfg model.GeneratorConfig) *bedrocktypes.InferenceConfiguration {
	if cfg.MaxTokens == nil && cfg.Temperature == nil {
		return nil
	}

	inference := &bedrocktypes.InferenceConfiguration{}
	if cfg.MaxTokens != nil {
		inference.MaxTokens = aws.Int32(int32(*cfg.MaxTokens))
	}
	if cfg.Temperature != nil {
		inference.Temperature = aws.Float32(float32(*cfg.Temperature))
	}
	return inference
}

func extractOutputMessage(output bedrocktypes.ConverseOutput) (bedrocktypes.Message, error) {
	if output == nil {
		return bedrocktypes.Message{}, utils.WrapIfNotNil(errors.New("converse output is nil"))
	}

	messageOutput, ok := output.(*bedrocktypes.ConverseOutputMemberMessage)
	if !ok || messageOutput == nil {
		return bedrocktypes.Message{}, utils.WrapIfNotNil(errors.New("converse output is not a message"))
	}
	return messageOutput.Value, nil
}

func extractTextFromMessage(message bedrocktypes.Message) string {
	parts := make([]string, 0)
	for _, block := range message.Content {
		textBlock, ok := block.(*bedrocktypes.ContentBlockMemberText)
		if !ok || textBlock == nil {
			continue
		}
		value := strings.TrimSpace(textBlock.Value)
		if value == "" {
			continue
		}
		parts = append(parts, value)
	}
	return strings.Join(parts, "\n")
}
