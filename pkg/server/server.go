package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/config"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/service"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Pipeline is the part of service.Service the HTTP layer depends on.
type Pipeline interface {
	ProcessVoice(ctx context.Context, audio []byte, fileName string, language model.Language) (service.VoiceResult, error)
	ProcessVoiceTransaction(ctx context.Context, transcript string, language model.Language) (model.TransactionData, error)
	SynthesizeInvoice(ctx context.Context, tx model.TransactionData, businessType string) (service.Invoice, error)
	InvoicePDF(ctx context.Context, tx model.TransactionData, businessType string) (model.InvoiceData, []byte, error)
}

// NewRouter builds the gin engine with middleware and routes. reg may be nil.
func NewRouter(cfg *config.Config, pipeline Pipeline, reg *metrics.Registry) (*gin.Engine, error) {
	l, err := newRateLimiter(cfg.RateLimit)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	r := gin.New()
	err = r.SetTrustedProxies(nil)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	r.Use(requestLogging(), recovery(), corsMiddleware(cfg.CORSOrigins))

	h := &handler{pipeline: pipeline, maxUploadBytes: cfg.MaxUploadBytes}
	r.GET("/healthz", h.health)
	if reg != nil {
		r.GET("/metrics", gin.WrapH(reg.Handler()))
	}

	api := r.Group("/api", rateLimit(l), limitBody(cfg.MaxUploadBytes))
	{
		api.GET("/languages", h.languages)
		api.POST("/voice/process", h.processVoice)
		api.POST("/transaction/process", h.processTransaction)
		api.POST("/invoice/generate", h.generateInvoice)
		api.POST("/invoice/pdf", h.invoicePDF)
	}
	return r, nil
}

// Run serves until ctx is done, then shuts down gracefully.
func Run(ctx context.Context, cfg *config.Config, pipeline Pipeline, reg *metrics.Registry) error {
	log := logging.NewLogger(ctx)

	router, err := NewRouter(cfg, pipeline, reg)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on :%s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return utils.WrapIfNotNil(err)
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return utils.WrapIfNotNil(srv.Shutdown(shutdownCtx))
}
