package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
)

const defaultAudioTranscriptionModelName = "whisper-1"

type audioTranscriber struct {
	client *client
	opts   model.AudioOptions
}

// NewAudioTranscriber returns a Whisper-backed transcriber for in-memory clips.
func NewAudioTranscriber(opts model.AudioOptions) (model.AudioTranscriber, error) {
	cfg := audioGeneratorConfigFromOptions(opts)
	c, err := newClient(cfg)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	return &audioTranscriber{
		client: c,
		opts:   cloneAudioOptions(opts),
	}, nil
}

func (t *audioTranscriber) Transcribe(ctx context.Context, input model.AudioInput) (string, model.GenerationMetadata, error) {
	start := time.Now()
	meta := initMetadata(providerName, resolveAudioTranscriptionModelName(t.opts))
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	log.Infof(
		"audio_transcription_request model=%q bytes=%d mime=%q language=%q",
		resolveAudioTranscriptionModelName(t.opts),
		len(input.Data),
		input.MIMEType,
		input.Language,
	)

	params, err := buildTranscriptionParams(input, t.opts)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	response, err := t.client.apiClient.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if response == nil {
		err = errors.New("audio transcriptions API returned nil response")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyOpenAIAudioTranscriptionMetadata(meta, response)

	transcript := strings.TrimSpace(response.Text)
	if transcript == "" {
		err = errors.New("transcription response is empty")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	if input.Language != "" {
		meta[model.MetadataKeyLanguage] = input.Language
	}
	return transcript, meta, nil
}

func buildTranscriptionParams(input model.AudioInput, opts model.AudioOptions) (openai.AudioTranscriptionNewParams, error) {
	if len(input.Data) == 0 {
		return openai.AudioTranscriptionNewParams{}, utils.WrapIfNotNil(errors.New("audio data is required"))
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		fileName = "audio.webm"
	}

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(input.Data), fileName, input.MIMEType),
		Model:          openai.AudioModel(resolveAudioTranscriptionModelName(opts)),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if input.Language != "" {
		params.Language = param.NewOpt(input.Language)
	}

	prompt, err := buildAudioTranscriptionPrompt(opts)
	if err != nil {
		return openai.AudioTranscriptionNewParams{}, utils.WrapIfNotNil(err)
	}
	if prompt != "" {
		params.Prompt = param.NewOpt(prompt)
	}
	return params, nil
}

func buildAudioTranscriptionPrompt(opts model.AudioOptions) (string, error) {
	customPrompt := strings.TrimSpace(opts.Prompt)
	if customPrompt != "" {
		return customPrompt, nil
	}

	return buildCommonMissedWordsPrompt(opts.Keywords)
}

func buildCommonMissedWordsPrompt(keywords []model.AudioKeyword) (string, error) {
	normalizedKeywords := normalizeAudioKeywords(keywords)
	if len(normalizedKeywords) == 0 {
		return "", nil
	}

	keywordsJSON, err := json.Marshal(normalizedKeywords)
	if err != nil {
		return "", err
	}

	return "Common missed words: " + string(keywordsJSON), nil
}

func normalizeAudioKeywords(keywords []model.AudioKeyword) []model.AudioKeyword {
	if len(keywords) == 0 {
		return nil
	}

	normalized := make([]model.AudioKeyword, 0, len(keywords))
	for _, keyword := range keywords {
		word := strings.TrimSpace(keyword.Word)
		definition := strings.TrimSpace(keyword.Definition)
		commonMistypes := make([]string, 0, len(keyword.CommonMistypes))
		for _, candidate := range keyword.CommonMistypes {
			candidate = strings.TrimSpace(candidate)
			if candidate == "" {
				continue
			}
			commonMistypes = append(commonMistypes, candidate)
		}

		if word == "" && definition == "" && len(commonMistypes) == 0 {
			continue
		}

		normalized = append(normalized, model.AudioKeyword{
			Word:           word,
			CommonMistypes: commonMistypes,
			Definition:     definition,
		})
	}

	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	modelName := strings.TrimSpace(opts.Model)
	if modelName != "" {
		return modelName
	}
	return defaultAudioTranscriptionModelName
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		URL:       opts.URL,
		AuthToken: opts.AuthToken,
	}

	modelName := strings.TrimSpace(opts.Model)
	if modelName != "" {
		cfg.Model = &modelName
	}
	return cfg
}

func cloneAudioOptions(opts model.AudioOptions) model.AudioOptions {
	cloned := opts
	if len(opts.Keywords) == 0 {
		cloned.Keywords = nil
		return cloned
	}

	cloned.Keywords = make([]model.AudioKeyword, len(opts.Keywords))
	for i, keyword := range opts.Keywords {
		clonedKeyword := keyword
		if len(keyword.CommonMistypes) > 0 {
			clonedKeyword.CommonMistypes = append([]string(nil), keyword.CommonMistypes...)
		} else {
			clonedKeyword.CommonMistypes = nil
		}
		cloned.Keywords[i] = clonedKeyword
	}
	return cloned
}

func applyOpenAIAudioTranscriptionMetadata(
	meta model.GenerationMetadata,
	response *openai.AudioTranscriptionNewResponseUnion,
) {
	if meta == nil || response == nil {
		return
	}

	meta[model.MetadataKeyAPICalls] = "1"
	meta[model.MetadataKeyInputTokens] = strconv.FormatInt(response.Usage.InputTokens, 10)
	meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(response.Usage.OutputTokens, 10)
	meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(response.Usage.TotalTokens, 10)
}
