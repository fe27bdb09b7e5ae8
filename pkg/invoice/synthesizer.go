package invoice

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/payment"
)

const DefaultNumberPrefix = "INV-"

// QRGenerator returns a PNG data URI for the payment, or "" when it cannot.
type QRGenerator interface {
	QRCode(ctx context.Context, currency model.Currency, account string, amount float64) string
}

// Synthesizer turns a validated transaction into invoice data. It keeps no state between calls.
type Synthesizer struct {
	templates *BusinessTemplates
	qr        QRGenerator
	prefix    string
	now       func() time.Time
	intN      func(n int) int
	metrics   *metrics.Registry
}

type Option func(*Synthesizer)

func WithQRGenerator(qr QRGenerator) Option {
	return func(s *Synthesizer) {
		if qr != nil {
			s.qr = qr
		}
	}
}

func WithNumberPrefix(prefix string) Option {
	return func(s *Synthesizer) {
		s.prefix = prefix
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandom replaces the source of the two-digit invoice number suffix.
func WithRandom(intN func(n int) int) Option {
	return func(s *Synthesizer) {
		if intN != nil {
			s.intN = intN
		}
	}
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Synthesizer) {
		s.metrics = reg
	}
}

func NewSynthesizer(templates *BusinessTemplates, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		templates: templates,
		prefix:    DefaultNumberPrefix,
		now:       time.Now,
		intN:      rand.IntN,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.qr == nil {
		s.qr = payment.NewGenerator(payment.WithMetrics(s.metrics))
	}
	return s
}

// Synthesize builds the invoice for tx. An empty businessType falls back to the transaction's own.
func (s *Synthesizer) Synthesize(ctx context.Context, tx model.TransactionData, businessType string) model.InvoiceData {
	now := s.now()
	if strings.TrimSpace(businessType) == "" {
		businessType = tx.BusinessType
	}
	if strings.TrimSpace(businessType) == "" {
		businessType = model.DefaultBusinessType
	}

	language := tx.Language
	if !language.Valid() {
		language = model.LanguageEnglish
	}
	business := s.templates.Resolve(businessType, language)

	inv := model.InvoiceData{
		TransactionData: tx,
		InvoiceNumber:   s.invoiceNumber(now),
		Date:            now.Format(DateLayout),
		Business:        business,
		Template:        TemplateTag(businessType),
	}
	if inv.Items == nil {
		inv.Items = []model.LineItem{}
	}
	if tx.PaymentTerms == model.PaymentTermsLater && strings.TrimSpace(tx.DueDate) != "" {
		inv.DueDate = ResolveDueDate(tx.DueDate, now)
	}
	inv.QRCode = s.qr.QRCode(ctx, tx.Currency, business.PaymentAccount, tx.Total)

	s.metrics.InvoiceSynthesized(string(tx.Currency))
	logging.NewLogger(ctx).Infof("synthesized invoice number=%s template=%s business=%q due=%q qr=%t",
		inv.InvoiceNumber, inv.Template, business.Name, inv.DueDate, inv.QRCode != "")
	return inv
}

// invoiceNumber is the prefix, the low 8 digits of the unix millisecond time and a two-digit random suffix.
// It is not collision free under concurrent synthesis.
func (s *Synthesizer) invoiceNumber(now time.Time) string {
	return fmt.Sprintf("%s%08d%02d", s.prefix, now.UnixMilli()%100_000_000, s.intN(100))
}
