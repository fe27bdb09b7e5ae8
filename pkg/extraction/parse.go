package extraction

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/shopspring/decimal"
)

// RawLineItem is a line item as the model returned it. Absent fields stay nil.
// Numbers may arrive as JSON numbers or numeric strings.
type RawLineItem struct {
	Name      *string          `json:"name"`
	Quantity  *decimal.Decimal `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice"`
	Total     *decimal.Decimal `json:"total"`
}

type RawMetadata struct {
	Confidence        *decimal.Decimal `json:"confidence"`
	ExtractedEntities []string         `json:"extractedEntities"`
}

// RawTransaction is the unvalidated transaction object decoded from provider output.
type RawTransaction struct {
	Items        []RawLineItem    `json:"items"`
	Customer     *model.Customer  `json:"customer"`
	Total        *decimal.Decimal `json:"total"`
	Currency     *string          `json:"currency"`
	PaymentTerms *string          `json:"paymentTerms"`
	DueDate      *string          `json:"dueDate"`
	BusinessType *string          `json:"businessType"`
	Metadata     *RawMetadata     `json:"metadata"`
}

// ParseRawTransaction decodes a provider response into a RawTransaction.
// Anything that is not a single JSON object fails with ErrMalformedOutput.
func ParseRawTransaction(output string) (RawTransaction, error) {
	payload := extractJSONPayload(output)
	if payload == "" {
		return RawTransaction{}, fmt.Errorf("%w: no JSON object in response", model.ErrMalformedOutput)
	}

	var raw RawTransaction
	err := json.Unmarshal([]byte(payload), &raw)
	if err != nil {
		return RawTransaction{}, fmt.Errorf("%w: %w", model.ErrMalformedOutput, err)
	}
	return raw, nil
}

func extractJSONPayload(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return ""
	}
	return trimmed[start : end+1]
}
