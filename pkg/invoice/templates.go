package invoice

import (
	_ "embed"
	"strings"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"gopkg.in/yaml.v3"
)

//go:embed business_templates.yaml
var embeddedBusinessTemplates []byte

// GenericBusiness is the identity used when no template matches the business type.
var GenericBusiness = model.Business{
	Name:           "Small Business",
	Address:        "Address not provided",
	Phone:          "-",
	Email:          "-",
	PaymentAccount: "MERCHANT-000000",
}

var templateTags = map[string]string{
	"restaurant": "restaurant",
	"retail":     "retail",
	"services":   "professional",
}

const defaultTemplateTag = "modern"

// BusinessTemplates maps a business type and language to a business identity.
type BusinessTemplates struct {
	byType map[string]map[model.Language]model.Business
}

func ParseBusinessTemplates(data []byte) (*BusinessTemplates, error) {
	var parsed map[string]map[model.Language]model.Business
	err := yaml.Unmarshal(data, &parsed)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	byType := make(map[string]map[model.Language]model.Business, len(parsed))
	for businessType, languages := range parsed {
		byType[normalizeBusinessType(businessType)] = languages
	}
	return &BusinessTemplates{byType: byType}, nil
}

// DefaultBusinessTemplates parses the templates compiled into the binary.
func DefaultBusinessTemplates() (*BusinessTemplates, error) {
	return ParseBusinessTemplates(embeddedBusinessTemplates)
}

// Resolve tries (businessType, language), then (businessType, en), then GenericBusiness.
func (t *BusinessTemplates) Resolve(businessType string, language model.Language) model.Business {
	if t == nil {
		return GenericBusiness
	}
	languages, ok := t.byType[normalizeBusinessType(businessType)]
	if !ok {
		return GenericBusiness
	}
	if business, ok := languages[language]; ok {
		return business
	}
	if business, ok := languages[model.LanguageEnglish]; ok {
		return business
	}
	return GenericBusiness
}

// TemplateTag picks the visual template for a business type.
func TemplateTag(businessType string) string {
	if tag, ok := templateTags[normalizeBusinessType(businessType)]; ok {
		return tag
	}
	return defaultTemplateTag
}

func normalizeBusinessType(businessType string) string {
	return strings.ToLower(strings.TrimSpace(businessType))
}
