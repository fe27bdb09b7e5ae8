package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
)

const (
	providerName        = "anthropic"
	defaultModelName    = "claude-3-5-haiku-latest"
	defaultBaseURL      = "https://api.anthropic.com"
	anthropicVersion    = "2023-06-01"
	defaultMaxTokens    = 1024
	defaultHTTPTimeout  = 90 * time.Second
	envAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	envAnthropicBaseURL = "ANTHROPIC_BASE_URL"
	envAnthropicModel   = "ANTHROPIC_MODEL"
)

type apiClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type anthropicUsage struct {
	InputTokens        int64 `json:"input_tokens"`
	OutputTokens       int64 `json:"output_tokens"`
	CacheReadInput     int64 `json:"cache_read_input_tokens"`
	CacheCreationInput int64 `json:"cache_creation_input_tokens"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicMessageRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessageResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Model      string                  `json:"model"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      *anthropicUsage         `json:"usage"`
}

type anthropicErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func newAPIClient(cfg model.GeneratorConfig) (*apiClient, error) {
	apiKey := strings.TrimSpace(cfg.AuthToken)
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv(envAnthropicAPIKey))
	}
	if apiKey == "" {
		return nil, utils.WrapIfNotNil(errors.New("auth token is required (set WithAuthToken or ANTHROPIC_API_KEY)"))
	}

	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv(envAnthropicBaseURL))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &apiClient{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}, nil
}

func (c *apiClient) createMessage(ctx context.Context, request anthropicMessageRequest) (*anthropicMessageResponse, error) {
	requestBits, err := json.Marshal(request)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	httpRequest, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/v1/messages",
		bytes.NewReader(requestBits),
	)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	httpRequest.Header.Set("content-type", "application/json")
	httpRequest.Header.Set("x-api-key", c.apiKey)
	httpRequest.Header.Set("anthropic-version", anthropicVersion)

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer httpResponse.Body.Close()

	responseBits, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode >= 300 {
		apiErr := anthropicErrorResponse{}
		message := strings.TrimSpace(string(responseBits))
		if unmarshalErr := json.Unmarshal(responseBits, &apiErr); unmarshalErr == nil {
			candidate := strings.TrimSpace(apiErr.Error.Message)
			if candidate != "" {
				message = candidate
			}
		}
		if message == "" {
			message = "unknown anthropic error"
		}
		return nil, utils.WrapIfNotNil(fmt.Errorf("anthropic API error (%d): %s", httpResponse.StatusCode, message))
	}

	response := anthropicMessageResponse{}
	err = json.Unmarshal(responseBits, &response)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &response, nil
}

func resolveModelName(cfg model.GeneratorConfig) string {
	if cfg.Model != nil {
		name := strings.TrimSpace(*cfg.Model)
		if name != "" {
			return name
		}
	}

	fromEnv := strings.TrimSpace(os.Getenv(envAnthropicModel))
	if fromEnv != "" {
		return fromEnv
	}
	return defaultModelName
}

func resolveMaxTokens(cfg model.GeneratorConfig) int {
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 {
		return *cfg.MaxTokens
	}
	return defaultMaxTokens
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

func applyAnthropicMetadata(meta model.GenerationMetadata, response *anthropicMessageResponse) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyAPICalls] = "1"
	if response.Usage != nil {
		meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
		meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
		meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.InputTokens+response.Usage.OutputTokens, 10)
		meta[model.MetadataKeyCachedInputTokens] = strconv.FormatInt(response.Usage.CacheReadInput, 10)
	}
	if strings.TrimSpace(response.ID) != "" {
		meta[model.MetadataKeyResponseID] = response.ID
	}
	if strings.TrimSpace(response.StopReason) != "" {
		meta[model.MetadataKeyResponseStatus] = response.StopReason
	}
}
