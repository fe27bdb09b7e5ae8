package extraction

import (
	"context"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
)

const (
	StrategyNameMock = "mock"
	mockConfidence   = 0.5
)

var mockTransactions = map[model.Language]model.TransactionData{
	model.LanguageEnglish: {
		Items: []model.LineItem{
			{Name: "Coffee", Quantity: 2, UnitPrice: 3.5, Total: 7},
			{Name: "Sandwich", Quantity: 1, UnitPrice: 8.5, Total: 8.5},
		},
		Customer:     model.Customer{Name: "John"},
		Total:        15.5,
		Currency:     model.CurrencyUSD,
		PaymentTerms: model.PaymentTermsImmediate,
		BusinessType: "restaurant",
	},
	model.LanguageIndonesian: {
		Items: []model.LineItem{
			{Name: "Nasi Goreng", Quantity: 2, UnitPrice: 25000, Total: 50000},
			{Name: "Es Teh", Quantity: 2, UnitPrice: 5000, Total: 10000},
		},
		Customer:     model.Customer{Name: "Pak Budi"},
		Total:        60000,
		Currency:     model.CurrencyIDR,
		PaymentTerms: model.PaymentTermsLater,
		DueDate:      "next week",
		BusinessType: "restaurant",
	},
	model.LanguageThai: {
		Items: []model.LineItem{
			{Name: "ผัดไทย", Quantity: 3, UnitPrice: 60, Total: 180},
			{Name: "ส้มตำ", Quantity: 2, UnitPrice: 35, Total: 70},
		},
		Total:        250,
		Currency:     model.CurrencyTHB,
		PaymentTerms: model.PaymentTermsImmediate,
		BusinessType: "restaurant",
	},
	model.LanguageVietnamese: {
		Items: []model.LineItem{
			{Name: "Phở bò", Quantity: 2, UnitPrice: 50000, Total: 100000},
			{Name: "Cà phê sữa đá", Quantity: 2, UnitPrice: 25000, Total: 50000},
		},
		Total:        150000,
		Currency:     model.CurrencyVND,
		PaymentTerms: model.PaymentTermsImmediate,
		BusinessType: "restaurant",
	},
	model.LanguageTagalog: {
		Items: []model.LineItem{
			{Name: "Adobo", Quantity: 2, UnitPrice: 120, Total: 240},
			{Name: "Sinigang", Quantity: 1, UnitPrice: 150, Total: 150},
		},
		Total:        390,
		Currency:     model.CurrencyPHP,
		PaymentTerms: model.PaymentTermsCredit,
		BusinessType: "restaurant",
	},
}

// MockTransaction returns a fresh copy of the fixed record for language, English for anything else.
func MockTransaction(language model.Language) model.TransactionData {
	base, ok := mockTransactions[language]
	if !ok {
		base = mockTransactions[model.LanguageEnglish]
		language = model.LanguageEnglish
	}

	tx := base
	tx.Language = language
	tx.Items = append([]model.LineItem(nil), base.Items...)
	entities := make([]string, 0, len(base.Items)+1)
	for _, item := range base.Items {
		entities = append(entities, item.Name)
	}
	if base.Customer.Name != "" {
		entities = append(entities, base.Customer.Name)
	}
	tx.Metadata = model.TransactionMetadata{
		Confidence:        mockConfidence,
		ExtractedEntities: entities,
	}
	return tx
}

// MockStrategy never fails. It terminates the chain.
type MockStrategy struct{}

func (MockStrategy) Name() string { return StrategyNameMock }

func (MockStrategy) Extract(_ context.Context, _ string, language model.Language) (model.TransactionData, error) {
	return MockTransaction(language), nil
}
