package payment

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/logging"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/metrics"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const (
	DefaultQRSize = 256
	dataURIPrefix = "data:image/png;base64,"
)

// The payload formats below are illustrative fixed strings. They are not certified
// payloads for QRIS, PromptPay, VietQR or GCash and no payment network will accept them.
var payloadBuilders = map[model.Currency]func(account string, amount decimal.Decimal) string{
	model.CurrencyIDR: func(account string, amount decimal.Decimal) string {
		return fmt.Sprintf("QRIS:%s:%s:IDR", account, amount.StringFixed(0))
	},
	model.CurrencyTHB: func(account string, amount decimal.Decimal) string {
		return fmt.Sprintf("promptpay://%s?amount=%s", account, amount.StringFixed(2))
	},
	model.CurrencyVND: func(account string, amount decimal.Decimal) string {
		return fmt.Sprintf("vietqr://%s?amount=%s&currency=VND", account, amount.StringFixed(0))
	},
	model.CurrencyPHP: func(account string, amount decimal.Decimal) string {
		return fmt.Sprintf("gcash://pay?account=%s&amount=%s", url.QueryEscape(account), amount.StringFixed(2))
	},
}

// BuildPayload returns the QR payload string for amount in currency.
// Currencies without a dedicated format get a plain "Payment Amount: X CUR" text.
func BuildPayload(currency model.Currency, account string, amount float64) string {
	value := decimal.NewFromFloat(amount)
	if build, ok := payloadBuilders[currency]; ok {
		return build(account, value)
	}
	return fmt.Sprintf("Payment Amount: %s %s", value.StringFixed(2), currency)
}

// Encoder renders a payload into PNG bytes.
type Encoder interface {
	Encode(payload string, size int) ([]byte, error)
}

type QREncoder struct {
	Level qrcode.RecoveryLevel
}

func (e QREncoder) Encode(payload string, size int) ([]byte, error) {
	return qrcode.Encode(payload, e.Level, size)
}

// Generator produces the invoice QR image. Encoding failures never escape it.
type Generator struct {
	encoder Encoder
	size    int
	metrics *metrics.Registry
}

type Option func(*Generator)

func WithEncoder(encoder Encoder) Option {
	return func(g *Generator) {
		if encoder != nil {
			g.encoder = encoder
		}
	}
}

func WithSize(size int) Option {
	return func(g *Generator) {
		if size > 0 {
			g.size = size
		}
	}
}

func WithMetrics(reg *metrics.Registry) Option {
	return func(g *Generator) {
		g.metrics = reg
	}
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		encoder: QREncoder{Level: qrcode.Medium},
		size:    DefaultQRSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// QRCode returns a PNG data URI for the payment payload, or "" when encoding fails.
func (g *Generator) QRCode(ctx context.Context, currency model.Currency, account string, amount float64) string {
	payload := BuildPayload(currency, account, amount)
	png, err := g.encoder.Encode(payload, g.size)
	if err != nil {
		logging.NewLogger(ctx).Warnf("qr code disabled for this invoice: %v", fmt.Errorf("%w: %w", model.ErrQRGeneration, err))
		g.metrics.QRFailure()
		return ""
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png)
}
