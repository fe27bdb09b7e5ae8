package extraction

import (
	"encoding/json"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/shopspring/decimal"
)

var totalEpsilon = decimal.NewFromFloat(0.01)

var knownCurrencies = map[model.Currency]bool{
	model.CurrencyUSD: true,
	model.CurrencyIDR: true,
	model.CurrencyTHB: true,
	model.CurrencyVND: true,
	model.CurrencyPHP: true,
}

var knownPaymentTerms = map[model.PaymentTerms]bool{
	model.PaymentTermsImmediate:   true,
	model.PaymentTermsLater:       true,
	model.PaymentTermsInstallment: true,
	model.PaymentTermsCredit:      true,
}

// Validate fills defaults, repairs item totals, then reconciles the grand total against the items.
// Item repair must run first so the reconciliation sees repaired totals.
func Validate(raw RawTransaction, language model.Language) model.TransactionData {
	tx := applyDefaults(raw, language)

	items, sum := repairItems(raw.Items)
	tx.Items = items

	total := decimalOrZero(raw.Total)
	if sum.IsPositive() && total.Sub(sum).Abs().GreaterThan(totalEpsilon) {
		total = sum
	}
	tx.Total = total.InexactFloat64()
	return tx
}

func applyDefaults(raw RawTransaction, language model.Language) model.TransactionData {
	tx := model.TransactionData{
		Items:        []model.LineItem{},
		Currency:     language.Currency(),
		PaymentTerms: model.PaymentTermsImmediate,
		BusinessType: model.DefaultBusinessType,
		Language:     language,
		Metadata: model.TransactionMetadata{
			Confidence:        model.DefaultConfidence,
			ExtractedEntities: []string{},
		},
	}

	if raw.Customer != nil {
		tx.Customer = model.Customer{
			Name:    strings.TrimSpace(raw.Customer.Name),
			Contact: strings.TrimSpace(raw.Customer.Contact),
		}
	}
	if currency := model.Currency(strings.ToUpper(trimmed(raw.Currency))); knownCurrencies[currency] {
		tx.Currency = currency
	}
	if terms := model.PaymentTerms(strings.ToLower(trimmed(raw.PaymentTerms))); knownPaymentTerms[terms] {
		tx.PaymentTerms = terms
	}
	tx.DueDate = trimmed(raw.DueDate)
	if businessType := strings.ToLower(trimmed(raw.BusinessType)); businessType != "" {
		tx.BusinessType = businessType
	}

	if raw.Metadata != nil {
		if raw.Metadata.Confidence != nil {
			confidence := raw.Metadata.Confidence.InexactFloat64()
			if confidence >= 0 && confidence <= 1 {
				tx.Metadata.Confidence = confidence
			}
		}
		for _, entity := range raw.Metadata.ExtractedEntities {
			if entity = strings.TrimSpace(entity); entity != "" {
				tx.Metadata.ExtractedEntities = append(tx.Metadata.ExtractedEntities, entity)
			}
		}
	}
	return tx
}

// repairItems sets each missing or zero item total to quantity * unitPrice and returns the item sum.
func repairItems(rawItems []RawLineItem) ([]model.LineItem, decimal.Decimal) {
	items := make([]model.LineItem, 0, len(rawItems))
	sum := decimal.Zero
	for _, raw := range rawItems {
		quantity := decimal.NewFromInt(1)
		if raw.Quantity != nil {
			quantity = *raw.Quantity
		}
		unitPrice := decimalOrZero(raw.UnitPrice)
		total := decimalOrZero(raw.Total)

		if total.IsZero() {
			total = quantity.Mul(unitPrice)
		} else if raw.UnitPrice == nil && quantity.IsPositive() {
			unitPrice = total.Div(quantity)
		}

		items = append(items, model.LineItem{
			Name:      trimmed(raw.Name),
			Quantity:  quantity.InexactFloat64(),
			UnitPrice: unitPrice.InexactFloat64(),
			Total:     total.InexactFloat64(),
		})
		sum = sum.Add(total)
	}
	return items, sum
}

func decimalOrZero(value *decimal.Decimal) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return *value
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}

// Revalidate runs an already shaped transaction, e.g. one posted back by a client, through Validate.
func Revalidate(tx model.TransactionData) (model.TransactionData, error) {
	payload, err := json.Marshal(tx)
	if err != nil {
		return model.TransactionData{}, utils.WrapIfNotNil(err)
	}
	raw, err := ParseRawTransaction(string(payload))
	if err != nil {
		return model.TransactionData{}, utils.WrapIfNotNil(err)
	}
	language := tx.Language
	if !language.Valid() {
		language = model.LanguageEnglish
	}
	return Validate(raw, language), nil
}
