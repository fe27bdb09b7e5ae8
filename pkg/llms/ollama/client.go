package ollama

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
	ollamasdk "github.com/rozoomcool/go-ollama-sdk"
)

const (
	providerName               = "ollama"
	defaultGenerationModelName = "llama3.1"
	defaultBaseURL             = "http://localhost:11434"
	defaultHTTPTimeout         = 180 * time.Second
)

type client struct {
	apiClient  *ollamasdk.OllamaClient
	httpClient *http.Client
	baseURL    string
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
	Options  *ollamaChatOptions  `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Model           string            `json:"model"`
	Message         ollamaChatMessage `json:"message"`
	Done            bool              `json:"done"`
	DoneReason      string            `json:"done_reason,omitempty"`
	PromptEvalCount int64             `json:"prompt_eval_count,omitempty"`
	EvalCount       int64             `json:"eval_count,omitempty"`
	Error           string            `json:"error,omitempty"`
}

type ollamaErrorResponse struct {
	Error string `json:"error"`
}

type ollamaChatOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"`
}

func newClient(cfg model.GeneratorConfig) *client {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		baseURL = strings.TrimSpace(os.Getenv("OLLAMA_BASE_URL"))
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &client{
		apiClient:  ollamasdk.NewClient(baseURL),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *client) chat(ctx context.Context, request ollamaChatRequest) (*ollamaChatResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	httpRequest, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/chat",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	defer httpResponse.Body.Close()

	rawBody, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	if httpResponse.StatusCode < http.StatusOK || httpResponse.StatusCode >= http.StatusMultipleChoices {
		var apiError ollamaErrorResponse
		if unmarshalErr := json.Unmarshal(rawBody, &apiError); unmarshalErr == nil && strings.TrimSpace(apiError.Error) != "" {
			return nil, utils.WrapIfNotNil(
				fmt.Errorf("ollama chat request failed with status %d: %s", httpResponse.StatusCode, apiError.Error),
			)
		}
		return nil, utils.WrapIfNotNil(
			fmt.Errorf("ollama chat request failed with status %d: %s", httpResponse.StatusCode, strings.TrimSpace(string(rawBody))),
		)
	}

	var response ollamaChatResponse
	if err := json.Unmarshal(rawBody, &response); err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	if strings.TrimSpace(response.Error) != "" {
		return nil, utils.WrapIfNotNil(errors.New(strings.TrimSpace(response.Error)))
	}
	return &response, nil
}

func resolveGenerationModelName(cfg model.GeneratorConfig) string {
	if cfg.Model != nil {
		modelName := strings.TrimSpace(*cfg.Model)
		if modelName != "" {
			return modelName
		}
	}
	return defaultGenerationModelName
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

func applyOllamaMetadata(meta model.GenerationMetadata, response *ollamaChatResponse, apiCalls int) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyAPICalls] = strconv.Itoa(apiCalls)
	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.PromptEvalCount, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.EvalCount, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.PromptEvalCount+response.EvalCount, 10)
	if strings.TrimSpace(response.DoneReason) != "" {
		meta[model.MetadataKeyResponseStatus] = response.DoneReason
	}
}
