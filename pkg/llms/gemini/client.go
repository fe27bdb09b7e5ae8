package gemini

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"google.golang.org/genai"
)

const (
	providerName               = "gemini"
	defaultGenerationModelName = "gemini-2.5-flash"
)

func newAPIClient(ctx context.Context, cfg model.GeneratorConfig) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	token := strings.TrimSpace(cfg.AuthToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("GEMINI_KEY"))
	}
	if token != "" {
		clientCfg.APIKey = token
	}

	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{
			BaseURL: baseURL,
		}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return client, nil
}

func initMetadata(modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	return model.GenerationMetadata{
		model.MetadataKeyProvider: providerName,
		model.MetadataKeyModel:    modelName,
	}
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

func resolveGenerationModelName(cfg model.GeneratorConfig) string {
	if cfg.Model != nil {
		name := strings.TrimSpace(*cfg.Model)
		if name != "" {
			return name
		}
	}
	return defaultGenerationModelName
}

func applyGenerateMetadata(meta model.GenerationMetadata, response *genai.GenerateContentResponse) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyAPICalls] = "1"
	if usage := response.UsageMetadata; usage != nil {
		meta[model.MetadataKeyInputTokens] = strconv.Itoa(int(usage.PromptTokenCount))
		meta[model.MetadataKeyOutputTokens] = strconv.Itoa(int(usage.CandidatesTokenCount))
		meta[model.MetadataKeyTotalTokens] = strconv.Itoa(int(usage.TotalTokenCount))
		meta[model.MetadataKeyCachedInputTokens] = strconv.Itoa(int(usage.CachedContentTokenCount))
		meta[model.MetadataKeyReasoningTokens] = strconv.Itoa(int(usage.ThoughtsTokenCount))
	}
	if strings.TrimSpace(response.ResponseID) != "" {
		meta[model.MetadataKeyResponseID] = response.ResponseID
	}
	if len(response.Candidates) > 0 && response.Candidates[0] != nil {
		meta[model.MetadataKeyResponseStatus] = string(response.Candidates[0].FinishReason)
	}
}
