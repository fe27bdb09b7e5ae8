package service

import (
	"context"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/cache"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/extraction"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/invoice"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/payment"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/prompt"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/render"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/transcription"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/google/uuid"
)

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName string, language model.Language) (string, error)
}

type Extractor interface {
	Extract(ctx context.Context, transcript string, language model.Language) (model.TransactionData, error)
}

type InvoiceSynthesizer interface {
	Synthesize(ctx context.Context, tx model.TransactionData, businessType string) model.InvoiceData
}

// Service is the public boundary of the pipeline: audio to transcript, transcript to transaction,
// transaction to invoice.
type Service struct {
	transcriber Transcriber
	extractor   Extractor
	synthesizer InvoiceSynthesizer
}

func New(transcriber Transcriber, extractor Extractor, synthesizer InvoiceSynthesizer) *Service {
	return &Service{
		transcriber: transcriber,
		extractor:   extractor,
		synthesizer: synthesizer,
	}
}

// NewFromConfig wires the production pipeline from configuration.
func NewFromConfig(cfg *config.Config, reg *metrics.Registry) (*Service, error) {
	builder, err := prompt.NewBuilder()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	templates, err := invoice.DefaultBusinessTemplates()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	transactionCache := cache.New(
		cache.WithTTL(cfg.CacheTTL),
		cache.WithSweepThreshold(cfg.CacheSweepThreshold),
		cache.WithMetrics(reg),
	)
	orchestrator := extraction.NewOrchestratorFromConfig(cfg, builder, transactionCache, reg)
	synthesizer := invoice.NewSynthesizer(templates,
		invoice.WithNumberPrefix(cfg.InvoicePrefix),
		invoice.WithQRGenerator(payment.NewGenerator(payment.WithMetrics(reg))),
		invoice.WithMetrics(reg),
	)

	logging.NewLogger(context.Background()).Infof("extraction chain: %s", strings.Join(orchestrator.StrategyNames(), " -> "))
	return New(transcription.NewFromConfig(cfg, reg), orchestrator, synthesizer), nil
}

// VoiceResult is the outcome of processing one recorded clip.
type VoiceResult struct {
	Transcript  string                `json:"transcript"`
	Transaction model.TransactionData `json:"transaction"`
}

// ProcessVoice transcribes audio and extracts its transaction. Only transcription failures
// and an extraction timeout are returned as errors.
func (s *Service) ProcessVoice(ctx context.Context, audio []byte, fileName string, language model.Language) (VoiceResult, error) {
	ctx = withRequestFields(ctx, language)
	log := logging.NewLogger(ctx)

	transcript, err := s.transcriber.Transcribe(ctx, audio, fileName, language)
	if err != nil {
		log.Errorf("error: %v", err)
		return VoiceResult{}, utils.WrapIfNotNil(err)
	}

	tx, err := s.ProcessVoiceTransaction(ctx, transcript, language)
	if err != nil {
		return VoiceResult{Transcript: transcript}, utils.WrapIfNotNil(err)
	}
	return VoiceResult{Transcript: transcript, Transaction: tx}, nil
}

// ProcessVoiceTransaction extracts a validated transaction from a transcript. It always yields
// a transaction unless the extraction stage times out or ctx is cancelled.
func (s *Service) ProcessVoiceTransaction(ctx context.Context, transcript string, language model.Language) (model.TransactionData, error) {
	ctx = withRequestFields(ctx, language)

	tx, err := s.extractor.Extract(ctx, transcript, language)
	if err != nil {
		logging.NewLogger(ctx).Errorf("error: %v", err)
		return model.TransactionData{}, utils.WrapIfNotNil(err)
	}
	return tx, nil
}

// Invoice is a synthesized invoice together with its rendered HTML document.
type Invoice struct {
	Data model.InvoiceData `json:"invoice"`
	HTML string            `json:"html"`
}

// SynthesizeInvoice builds the invoice for tx and renders it to HTML.
func (s *Service) SynthesizeInvoice(ctx context.Context, tx model.TransactionData, businessType string) (Invoice, error) {
	ctx = withRequestFields(ctx, tx.Language)

	data := s.synthesizer.Synthesize(ctx, tx, businessType)
	html, err := render.HTML(data)
	if err != nil {
		logging.NewLogger(ctx).Errorf("error: %v", err)
		return Invoice{}, utils.WrapIfNotNil(err)
	}
	return Invoice{Data: data, HTML: html}, nil
}

// InvoicePDF synthesizes the invoice for tx and renders it as a PDF document.
func (s *Service) InvoicePDF(ctx context.Context, tx model.TransactionData, businessType string) (model.InvoiceData, []byte, error) {
	ctx = withRequestFields(ctx, tx.Language)

	data := s.synthesizer.Synthesize(ctx, tx, businessType)
	pdf, err := render.PDF(data)
	if err != nil {
		logging.NewLogger(ctx).Errorf("error: %v", err)
		return model.InvoiceData{}, nil, utils.WrapIfNotNil(err)
	}
	return data, pdf, nil
}

// withRequestFields tags the context with a request id unless the caller already set one.
func withRequestFields(ctx context.Context, language model.Language) context.Context {
	fields := map[string]any{"language": string(language)}
	if _, ok := logging.FieldsFromContext(ctx)["request_id"]; !ok {
		fields["request_id"] = uuid.NewString()
	}
	return logging.WithFields(ctx, fields)
}
