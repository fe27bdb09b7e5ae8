package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"google.golang.org/genai"
)

const baseAudioPrompt = "Transcribe this audio accurately. Return only the transcript text."

type audioTranscriber struct {
	opts model.AudioOptions
	cfg  model.GeneratorConfig
}

func NewAudioTranscriber(opts model.AudioOptions) (model.AudioTranscriber, error) {
	return &audioTranscriber{
		opts: opts,
		cfg:  audioGeneratorConfigFromOptions(opts),
	}, nil
}

func (t *audioTranscriber) Transcribe(ctx context.Context, input model.AudioInput) (string, model.GenerationMetadata, error) {
	start := time.Now()
	modelName := resolveAudioTranscriptionModelName(t.opts)
	meta := initMetadata(modelName)
	defer setLatencyMetadata(meta, start)

	log := logging.NewLogger(ctx)
	if len(input.Data) == 0 {
		err := errors.New("audio data is required")
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	mimeType := strings.TrimSpace(input.MIMEType)
	if mimeType == "" {
		resolved, err := resolveAudioMIMEType(input.FileName)
		if err != nil {
			log.Errorf("error: %v", err)
			return "", meta, utils.WrapIfNotNil(err)
		}
		mimeType = resolved
	}

	client, err := newAPIClient(ctx, t.cfg)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}

	prompt, err := buildAudioTranscriptionPrompt(t.opts, input.Language)
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(
			[]*genai.Part{
				genai.NewPartFromText(prompt),
				genai.NewPartFromBytes(input.Data, mimeType),
			},
			genai.RoleUser,
		),
	}

	log.Infof("audio_transcription_request model=%q bytes=%d mime=%q", modelName, len(input.Data), mimeType)
	response, err := client.Models.GenerateContent(ctx, modelName, contents, &genai.GenerateContentConfig{})
	if err != nil {
		log.Errorf("error: %v", err)
		return "", meta, utils.WrapIfNotNil(err)
	}
	applyGenerateMetadata(meta, response)

	transcript := strings.TrimSpace(response.Text())
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

func resolveAudioTranscriptionModelName(opts model.AudioOptions) string {
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		return modelName
	}
	return defaultGenerationModelName
}

func audioGeneratorConfigFromOptions(opts model.AudioOptions) model.GeneratorConfig {
	cfg := model.GeneratorConfig{
		URL:       opts.URL,
		AuthToken: opts.AuthToken,
	}
	if modelName := strings.TrimSpace(opts.Model); modelName != "" {
		cfg.Model = &modelName
	}
	return cfg
}

func buildAudioTranscriptionPrompt(opts model.AudioOptions, language string) (string, error) {
	if custom := strings.TrimSpace(opts.Prompt); custom != "" {
		return custom, nil
	}

	prompt := baseAudioPrompt
	if language = strings.TrimSpace(language); language != "" {
		prompt += " The speaker uses language code " + language + "."
	}

	missed, err := buildCommonMissedWordsPrompt(opts.Keywords)
	if err != nil {
		return "", err
	}
	if missed != "" {
		prompt += " " + missed
	}
	return prompt, nil
}

func buildCommonMissedWordsPrompt(keywords []model.AudioKeyword) (string, error) {
	filtered := make([]model.AudioKeyword, 0, len(keywords))
	for _, keyword := range keywords {
		if strings.TrimSpace(keyword.Word) == "" {
			continue
		}
		keyword.Word = strings.TrimSpace(keyword.Word)
		filtered = append(filtered, keyword)
	}
	if len(filtered) == 0 {
		return "", nil
	}

	keywordsJSON, err := json.Marshal(filtered)
	if err != nil {
		return "", err
	}
	return "Common missed words: " + string(keywordsJSON), nil
}

func resolveAudioMIMEType(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filePath)))
	if ext == "" {
		return "", utils.WrapIfNotNil(errors.New("audio file extension is required to determine mime type"))
	}

	switch ext {
	case ".wav":
		return "audio/wav", nil
	case ".mp3":
		return "audio/mpeg", nil
	case ".m4a", ".mp4":
		return "audio/mp4", nil
	case ".webm":
		return "audio/webm", nil
	case ".ogg":
		return "audio/ogg", nil
	case ".flac":
		return "audio/flac", nil
	case ".aac":
		return "audio/aac", nil
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "", utils.WrapIfNotNil(errors.New("unsupported audio file extension: " + ext))
	}

	// Strip parameters such as "; charset=utf-8".
	mimeType = strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if !strings.HasPrefix(mimeType, "audio/") {
		return "", utils.WrapIfNotNil(errors.New("unsupported audio mime type: " + mimeType))
	}
	return mimeType, nil
}
