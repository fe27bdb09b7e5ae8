package extraction

import (
	"testing"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/stretchr/testify/suite"
)

type ValidatorSuite struct {
	suite.Suite
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) parse(output string) RawTransaction {
	raw, err := ParseRawTransaction(output)
	s.Require().NoError(err)
	return raw
}

func (s *ValidatorSuite) TestDefaultsEveryOptionalField() {
	tx := Validate(s.parse(`{}`), model.LanguageIndonesian)

	s.NotNil(tx.Items)
	s.Empty(tx.Items)
	s.Equal(model.Customer{}, tx.Customer)
	s.Equal(model.CurrencyIDR, tx.Currency)
	s.Equal(model.PaymentTermsImmediate, tx.PaymentTerms)
	s.Equal(model.DefaultBusinessType, tx.BusinessType)
	s.Equal(model.LanguageIndonesian, tx.Language)
	s.Equal(model.DefaultConfidence, tx.Metadata.Confidence)
	s.NotNil(tx.Metadata.ExtractedEntities)
	s.Empty(tx.Metadata.ExtractedEntities)
	s.Zero(tx.Total)
}

func (s *ValidatorSuite) TestRepairsMissingOrZeroItemTotals() {
	tx := Validate(s.parse(`{
		"items": [
			{"name": "Coffee", "quantity": 2, "unitPrice": 3.5},
			{"name": "Sandwich", "quantity": 1, "unitPrice": 8.5, "total": 0}
		],
		"total": 15.5
	}`), model.LanguageEnglish)

	s.Require().Len(tx.Items, 2)
	s.Equal(7.0, tx.Items[0].Total)
	s.Equal(8.5, tx.Items[1].Total)
	s.Equal(15.5, tx.Total)
}

func (s *ValidatorSuite) TestReconcilesGrandTotalToItemSum() {
	tx := Validate(s.parse(`{
		"items": [{"name": "ผัดไทย", "quantity": 3, "unitPrice": 60, "total": 180}],
		"total": 200
	}`), model.LanguageThai)

	s.Equal(180.0, tx.Total)
}

func (s *ValidatorSuite) TestKeepsGrandTotalWithinEpsilon() {
	tx := Validate(s.parse(`{
		"items": [{"name": "Tea", "quantity": 3, "unitPrice": 0.33}],
		"total": 1.0
	}`), model.LanguageEnglish)

	s.Equal(0.99, tx.Items[0].Total)
	s.Equal(1.0, tx.Total)
}

func (s *ValidatorSuite) TestItemRepairRunsBeforeReconciliation() {
	tx := Validate(s.parse(`{
		"items": [{"name": "Phở bò", "quantity": 2, "unitPrice": 50000}],
		"total": 0
	}`), model.LanguageVietnamese)

	s.Equal(100000.0, tx.Items[0].Total)
	s.Equal(100000.0, tx.Total)
}

func (s *ValidatorSuite) TestTrustsReportedTotalWithoutItems() {
	tx := Validate(s.parse(`{"items": [], "total": 42}`), model.LanguageTagalog)

	s.Equal(42.0, tx.Total)
}

func (s *ValidatorSuite) TestAcceptsNumericStrings() {
	tx := Validate(s.parse(`{"items": [{"name": "Nasi Goreng", "quantity": "2", "unitPrice": "25000"}]}`), model.LanguageIndonesian)

	s.Equal(2.0, tx.Items[0].Quantity)
	s.Equal(50000.0, tx.Items[0].Total)
	s.Equal(50000.0, tx.Total)
}

func (s *ValidatorSuite) TestDerivesUnitPriceFromTotalAndDefaultsQuantity() {
	tx := Validate(s.parse(`{"items": [{"name": "Adobo", "quantity": 2, "total": 240}, {"name": "Rice", "unitPrice": 20}]}`), model.LanguageTagalog)

	s.Equal(120.0, tx.Items[0].UnitPrice)
	s.Equal(1.0, tx.Items[1].Quantity)
	s.Equal(20.0, tx.Items[1].Total)
	s.Equal(260.0, tx.Total)
}

func (s *ValidatorSuite) TestNormalizesEnumsAndFallsBackOnUnknownValues() {
	tx := Validate(s.parse(`{"currency": "thb", "paymentTerms": "LATER", "businessType": " Retail ", "dueDate": " next week "}`), model.LanguageThai)
	s.Equal(model.CurrencyTHB, tx.Currency)
	s.Equal(model.PaymentTermsLater, tx.PaymentTerms)
	s.Equal("retail", tx.BusinessType)
	s.Equal("next week", tx.DueDate)

	tx = Validate(s.parse(`{"currency": "baht", "paymentTerms": "someday"}`), model.LanguageThai)
	s.Equal(model.CurrencyTHB, tx.Currency)
	s.Equal(model.PaymentTermsImmediate, tx.PaymentTerms)
}

func (s *ValidatorSuite) TestKeepsConfidenceInRangeOnly() {
	tx := Validate(s.parse(`{"metadata": {"confidence": 0.92, "extractedEntities": ["John", " "]}}`), model.LanguageEnglish)
	s.Equal(0.92, tx.Metadata.Confidence)
	s.Equal([]string{"John"}, tx.Metadata.ExtractedEntities)

	tx = Validate(s.parse(`{"metadata": {"confidence": 7}}`), model.LanguageEnglish)
	s.Equal(model.DefaultConfidence, tx.Metadata.Confidence)
}

func (s *ValidatorSuite) TestRevalidateRepairsClientTransaction() {
	tx := model.TransactionData{
		Items:    []model.LineItem{{Name: "Sinigang", Quantity: 1, UnitPrice: 150}},
		Total:    999,
		Language: model.LanguageTagalog,
	}

	got, err := Revalidate(tx)

	s.Require().NoError(err)
	s.Equal(150.0, got.Items[0].Total)
	s.Equal(150.0, got.Total)
	s.Equal(model.CurrencyPHP, got.Currency)
	s.Equal(model.PaymentTermsImmediate, got.PaymentTerms)
}
