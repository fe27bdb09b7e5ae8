package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/invopop/jsonschema"
)

var termOrder = []model.PaymentTerms{
	model.PaymentTermsImmediate,
	model.PaymentTermsLater,
	model.PaymentTermsInstallment,
	model.PaymentTermsCredit,
}

const dueDateInstruction = "Set \"dueDate\" only when payment is deferred. It must be a YYYY-MM-DD date or exactly " +
	"\"next week\" or \"next month\" in English, never a phrase in the transcript language."

// Instructions is the prompt pair sent to a text-completion provider.
type Instructions struct {
	System string
	User   string
}

type Builder struct {
	schema string
}

// NewBuilder reflects the TransactionData schema once so every prompt embeds the same shape.
func NewBuilder() (*Builder, error) {
	schema, err := transactionSchema()
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return &Builder{schema: schema}, nil
}

func (b *Builder) Build(transcript string, language model.Language) Instructions {
	profile := ProfileFor(language)
	return Instructions{
		System: buildSystemInstruction(profile),
		User:   buildUserInstruction(profile, transcript, b.schema),
	}
}

func buildSystemInstruction(profile LanguageProfile) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You extract sales transactions from %s speech transcripts recorded by small merchants.\n", profile.DisplayName)
	fmt.Fprintf(&sb, "Currency: always use %s.\n", profile.Currency)
	sb.WriteString("Number conventions: ")
	sb.WriteString(profile.NumberConventions)
	sb.WriteString("\nPayment terms, mapped from informal phrases:\n")
	for _, term := range termOrder {
		phrases := profile.PaymentTermPhrases[term]
		if len(phrases) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", term, strings.Join(quoteAll(phrases), ", "))
	}
	fmt.Fprintf(&sb, "When no payment phrase is spoken use %q.\n", model.PaymentTermsImmediate)
	sb.WriteString("Business keywords that mark items, quantities and customers: ")
	sb.WriteString(strings.Join(profile.BusinessKeywords, ", "))
	sb.WriteString(".\nKeep item names in the original language exactly as spoken.")
	return sb.String()
}

func buildUserInstruction(profile LanguageProfile, transcript string, schema string) string {
	var sb strings.Builder
	sb.WriteString("Extract the transaction from this transcript:\n")
	sb.WriteString(strings.TrimSpace(transcript))
	sb.WriteString("\n\nReturn ONLY one JSON object matching this schema. Do not include markdown fences or any other text.\n")
	sb.WriteString(schema)
	fmt.Fprintf(&sb, "\nSet \"language\" to %q and \"currency\" to %q. ", profile.Language, profile.Currency)
	sb.WriteString("Each item total is quantity multiplied by unitPrice, and the transaction total is the sum of item totals. ")
	sb.WriteString(dueDateInstruction)
	return sb.String()
}

func transactionSchema() (string, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&model.TransactionData{})
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return "", utils.WrapIfNotNil(err)
	}
	return string(schemaJSON), nil
}

func quoteAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, fmt.Sprintf("%q", value))
	}
	return out
}
