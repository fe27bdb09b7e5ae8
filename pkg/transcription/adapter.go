package transcription

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/openai"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/prompt"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
)

const (
	defaultFileName = "recording.webm"
	defaultMIMEType = "audio/webm"
)

// NewTranscriberFunc builds a provider transcriber for one call's options.
type NewTranscriberFunc func(opts model.AudioOptions) (model.AudioTranscriber, error)

var sampleTranscripts = map[model.Language]string{
	model.LanguageEnglish:    "I sold two coffees at three fifty each and one sandwich for eight fifty to John, paid cash.",
	model.LanguageIndonesian: "Jual nasi goreng dua porsi dua puluh lima ribu, es teh dua lima ribu, Pak Budi bayar minggu depan",
	model.LanguageThai:       "ขายผัดไทย 3 จาน จานละ 60 บาท ส้มตำ 2 จาน จานละ 35 บาท",
	model.LanguageVietnamese: "Bán hai tô phở bò năm mươi nghìn một tô, hai ly cà phê sữa đá hai mươi lăm nghìn",
	model.LanguageTagalog:    "Nagbenta ako ng dalawang adobo tig-isang daan dalawampu at isang sinigang isang daan limampu, utang muna",
}

// providerLanguages lists the codes passed through to the provider unchanged.
var providerLanguages = map[model.Language]bool{
	model.LanguageEnglish:    true,
	model.LanguageIndonesian: true,
	model.LanguageThai:       true,
	model.LanguageVietnamese: true,
}

var audioMIMETypes = map[string]string{
	".webm": "audio/webm",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".mp4":  "audio/mp4",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

type Adapter struct {
	newTranscriber NewTranscriberFunc
	audioOpts      model.AudioOptions
	metrics        *metrics.Registry
}

type Option func(*Adapter)

// WithAudioOptions sets the provider options every call starts from. Keywords are replaced per language.
func WithAudioOptions(opts model.AudioOptions) Option {
	return func(a *Adapter) {
		a.audioOpts = opts
	}
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(a *Adapter) {
		a.metrics = reg
	}
}

// New returns an adapter backed by newTranscriber. A nil newTranscriber serves sample transcripts.
func New(newTranscriber NewTranscriberFunc, opts ...Option) *Adapter {
	a := &Adapter{newTranscriber: newTranscriber}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// NewFromConfig picks the configured provider, or sample mode when that provider has no credential.
func NewFromConfig(cfg *config.Config, reg *metrics.Registry) *Adapter {
	switch cfg.TranscriptionProvider {
	case "gemini":
		if cfg.GeminiKey == "" {
			return New(nil, WithMetrics(reg))
		}
		return New(gemini.NewAudioTranscriber,
			WithAudioOptions(model.AudioOptions{AuthToken: cfg.GeminiKey, Model: cfg.GeminiModel}),
			WithMetrics(reg),
		)
	default:
		if cfg.OpenAIAPIKey == "" {
			return New(nil, WithMetrics(reg))
		}
		return New(openai.NewAudioTranscriber,
			WithAudioOptions(model.AudioOptions{
				URL:       cfg.OpenAIBaseURL,
				AuthToken: cfg.OpenAIAPIKey,
				Model:     cfg.OpenAIAudioModel,
			}),
			WithMetrics(reg),
		)
	}
}

// SampleMode reports whether the adapter answers with fixed transcripts instead of calling a provider.
func (a *Adapter) SampleMode() bool {
	return a.newTranscriber == nil
}

func (a *Adapter) Transcribe(ctx context.Context, audio []byte, fileName string, language model.Language) (string, error) {
	log := logging.NewLogger(ctx)

	if a.SampleMode() {
		log.Warnf("no transcription credential configured, returning sample transcript language=%s", language)
		return SampleTranscript(language), nil
	}

	text, err := a.transcribe(ctx, audio, fileName, language)
	if err != nil {
		log.Errorf("error: %v", err)
		a.metrics.TranscriptionError()
		return "", model.NewRetryableError(fmt.Errorf("%w: %w", model.ErrTranscription, err))
	}
	return text, nil
}

func (a *Adapter) transcribe(ctx context.Context, audio []byte, fileName string, language model.Language) (string, error) {
	if len(audio) == 0 {
		return "", utils.WrapIfNotNil(errors.New("audio data is required"))
	}

	opts := a.audioOpts
	opts.Keywords = prompt.AudioKeywords(language)
	transcriber, err := a.newTranscriber(opts)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	name := strings.TrimSpace(fileName)
	if name == "" {
		name = defaultFileName
	}

	text, meta, err := transcriber.Transcribe(ctx, model.AudioInput{
		Data:     audio,
		FileName: name,
		MIMEType: MIMETypeFor(name),
		Language: ProviderLanguage(language),
	})
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", utils.WrapIfNotNil(errors.New("provider returned an empty transcript"))
	}

	logging.NewLogger(ctx).Infof("transcribed provider=%s model=%s latency_ms=%s chars=%d",
		meta[model.MetadataKeyProvider], meta[model.MetadataKeyModel], meta[model.MetadataKeyLatencyMs], len(text))
	return text, nil
}

// ProviderLanguage maps a language to a code the transcription providers accept, defaulting to English.
func ProviderLanguage(language model.Language) string {
	if providerLanguages[language] {
		return string(language)
	}
	return string(model.LanguageEnglish)
}

// MIMETypeFor derives the container hint from the upload's file extension.
func MIMETypeFor(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if mimeType, ok := audioMIMETypes[ext]; ok {
		return mimeType
	}
	if mimeType := mime.TypeByExtension(ext); strings.HasPrefix(mimeType, "audio/") {
		return mimeType
	}
	return defaultMIMEType
}

func SampleTranscript(language model.Language) string {
	if text, ok := sampleTranscripts[language]; ok {
		return text
	}
	return sampleTranscripts[model.LanguageEnglish]
}
