package render

import (
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type currencyFormat struct {
	symbol   string
	locale   language.Tag
	decimals int
	suffix   bool
}

var currencyFormats = map[model.Currency]currencyFormat{
	model.CurrencyUSD: {symbol: "$", locale: language.AmericanEnglish, decimals: 2},
	model.CurrencyIDR: {symbol: "Rp", locale: language.Indonesian, decimals: 0},
	model.CurrencyTHB: {symbol: "฿", locale: language.Thai, decimals: 2},
	model.CurrencyVND: {symbol: "₫", locale: language.Vietnamese, decimals: 0, suffix: true},
	model.CurrencyPHP: {symbol: "₱", locale: language.Filipino, decimals: 2},
}

// FormatAmount renders amount with the currency symbol and the locale's digit grouping.
func FormatAmount(amount float64, currency model.Currency) string {
	f, ok := currencyFormats[currency]
	if !ok {
		return string(currency) + " " + formatNumber(amount, currency)
	}

	formatted := formatNumber(amount, currency)
	if f.suffix {
		return formatted + " " + f.symbol
	}
	return f.symbol + formatted
}

// formatNumber groups digits the way the currency's locale does, without a symbol.
func formatNumber(amount float64, currency model.Currency) string {
	f, ok := currencyFormats[currency]
	if !ok {
		return message.NewPrinter(language.English).Sprint(number.Decimal(amount, number.Scale(2)))
	}
	return message.NewPrinter(f.locale).Sprint(number.Decimal(amount, number.Scale(f.decimals)))
}

// FormatQuantity drops the fraction for whole quantities.
func FormatQuantity(quantity float64) string {
	return message.NewPrinter(language.English).Sprint(number.Decimal(quantity, number.MaxFractionDigits(2)))
}

// CurrencySymbol returns the display symbol, or the code itself for currencies without one.
func CurrencySymbol(currency model.Currency) string {
	if f, ok := currencyFormats[currency]; ok {
		return f.symbol
	}
	return string(currency)
}
