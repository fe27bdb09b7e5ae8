package model

import (
	"fmt"
	"strings"
)

type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageIndonesian Language = "id"
	LanguageThai       Language = "th"
	LanguageVietnamese Language = "vi"
	LanguageTagalog    Language = "tl"
)

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyIDR Currency = "IDR"
	CurrencyTHB Currency = "THB"
	CurrencyVND Currency = "VND"
	CurrencyPHP Currency = "PHP"
)

var languageCurrencies = map[Language]Currency{
	LanguageEnglish:    CurrencyUSD,
	LanguageIndonesian: CurrencyIDR,
	LanguageThai:       CurrencyTHB,
	LanguageVietnamese: CurrencyVND,
	LanguageTagalog:    CurrencyPHP,
}

// SupportedLanguages lists the closed set of languages in display order.
func SupportedLanguages() []Language {
	return []Language{
		LanguageEnglish,
		LanguageIndonesian,
		LanguageThai,
		LanguageVietnamese,
		LanguageTagalog,
	}
}

func ParseLanguage(value string) (Language, error) {
	lang := Language(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := languageCurrencies[lang]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, value)
	}
	return lang, nil
}

func (l Language) Valid() bool {
	_, ok := languageCurrencies[l]
	return ok
}

// Currency returns the currency tied to the language, USD for anything outside the set.
func (l Language) Currency() Currency {
	if currency, ok := languageCurrencies[l]; ok {
		return currency
	}
	return CurrencyUSD
}

type PaymentTerms string

const (
	PaymentTermsImmediate   PaymentTerms = "immediate"
	PaymentTermsLater       PaymentTerms = "later"
	PaymentTermsInstallment PaymentTerms = "installment"
	PaymentTermsCredit      PaymentTerms = "credit"
)

const (
	DefaultBusinessType = "general"
	DefaultConfidence   = 0.85
)

type LineItem struct {
	Name      string  `json:"name" jsonschema:"required,description=Product or service name as spoken"`
	Quantity  float64 `json:"quantity" jsonschema:"required"`
	UnitPrice float64 `json:"unitPrice" jsonschema:"required,description=Price of one unit in the transaction currency"`
	Total     float64 `json:"total" jsonschema:"description=quantity multiplied by unitPrice"`
}

type Customer struct {
	Name    string `json:"name,omitempty"`
	Contact string `json:"contact,omitempty"`
}

type TransactionMetadata struct {
	Confidence        float64  `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	ExtractedEntities []string `json:"extractedEntities"`
}

// TransactionData is the canonical parsed transaction shared by extraction and invoicing.
type TransactionData struct {
	Items        []LineItem          `json:"items" jsonschema:"required"`
	Customer     Customer            `json:"customer"`
	Total        float64             `json:"total" jsonschema:"required"`
	Currency     Currency            `json:"currency" jsonschema:"enum=USD,enum=IDR,enum=THB,enum=VND,enum=PHP"`
	PaymentTerms PaymentTerms        `json:"paymentTerms" jsonschema:"enum=immediate,enum=later,enum=installment,enum=credit"`
	DueDate      string              `json:"dueDate,omitempty" jsonschema:"description=YYYY-MM-DD date or exactly next week or next month"`
	BusinessType string              `json:"businessType"`
	Language     Language            `json:"language"`
	Metadata     TransactionMetadata `json:"metadata"`
}

// ItemsTotal sums the line item totals.
func (t TransactionData) ItemsTotal() float64 {
	sum := 0.0
	for _, item := range t.Items {
		sum += item.Total
	}
	return sum
}
