package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/extraction"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/render"
	"github.com/gin-gonic/gin"
)

const retryAfterSeconds = "5"

type handler struct {
	pipeline       Pipeline
	maxUploadBytes int64
}

type transactionRequest struct {
	Transcript string `json:"transcript" binding:"required"`
	Language   string `json:"language" binding:"required"`
}

type invoiceRequest struct {
	Transaction  *model.TransactionData `json:"transaction" binding:"required"`
	BusinessType string                 `json:"businessType"`
}

type languageResponse struct {
	Code     model.Language `json:"code"`
	Currency model.Currency `json:"currency"`
	Symbol   string         `json:"symbol"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) languages(c *gin.Context) {
	out := make([]languageResponse, 0, len(model.SupportedLanguages()))
	for _, language := range model.SupportedLanguages() {
		out = append(out, languageResponse{
			Code:     language,
			Currency: language.Currency(),
			Symbol:   render.CurrencySymbol(language.Currency()),
		})
	}
	c.JSON(http.StatusOK, gin.H{"languages": out})
}

func (h *handler) processVoice(c *gin.Context) {
	log := logging.NewLogger(c.Request.Context())

	// FormFile parses the whole multipart body, so an oversized upload surfaces here.
	fileHeader, err := c.FormFile("audio")
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.writeError(c, err)
		return
	}
	language, langErr := model.ParseLanguage(c.PostForm("language"))
	if langErr != nil {
		h.writeError(c, langErr)
		return
	}
	if err != nil {
		log.Warnf("missing audio upload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"audio\" is required"})
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "audio upload is too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		h.writeError(c, err)
		return
	}

	result, err := h.pipeline.ProcessVoice(c.Request.Context(), audio, fileHeader.Filename, language)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) processTransaction(c *gin.Context) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	language, err := model.ParseLanguage(req.Language)
	if err != nil {
		h.writeError(c, err)
		return
	}

	tx, err := h.pipeline.ProcessVoiceTransaction(c.Request.Context(), req.Transcript, language)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

func (h *handler) generateInvoice(c *gin.Context) {
	tx, businessType, ok := h.bindInvoiceRequest(c)
	if !ok {
		return
	}

	inv, err := h.pipeline.SynthesizeInvoice(c.Request.Context(), tx, businessType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *handler) invoicePDF(c *gin.Context) {
	tx, businessType, ok := h.bindInvoiceRequest(c)
	if !ok {
		return
	}

	inv, pdf, err := h.pipeline.InvoicePDF(c.Request.Context(), tx, businessType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", inv.InvoiceNumber+".pdf"))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// bindInvoiceRequest decodes the posted transaction and runs it back through validation.
func (h *handler) bindInvoiceRequest(c *gin.Context) (model.TransactionData, string, bool) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return model.TransactionData{}, "", false
	}
	if req.Transaction.Language != "" && !req.Transaction.Language.Valid() {
		h.writeError(c, fmt.Errorf("%w: %q", model.ErrUnsupportedLanguage, req.Transaction.Language))
		return model.TransactionData{}, "", false
	}

	tx, err := extraction.Revalidate(*req.Transaction)
	if err != nil {
		h.badRequest(c, err)
		return model.TransactionData{}, "", false
	}
	return tx, strings.TrimSpace(req.BusinessType), true
}

func (h *handler) badRequest(c *gin.Context, err error) {
	logging.NewLogger(c.Request.Context()).Warnf("invalid request: %v", err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
}

func (h *handler) writeError(c *gin.Context, err error) {
	log := logging.NewLogger(c.Request.Context())

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, model.ErrUnsupportedLanguage):
		log.Warnf("rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "supported": model.SupportedLanguages()})
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body is too large"})
	case errors.Is(err, model.ErrTranscription):
		log.Errorf("error: %v", err)
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusBadGateway, gin.H{"error": "transcription failed, please retry", "retryable": true})
	case errors.Is(err, model.ErrExtractionTimeout):
		log.Errorf("error: %v", err)
		c.Header("Retry-After", retryAfterSeconds)
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "extraction timed out, please retry", "retryable": true})
	default:
		log.Errorf("error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
