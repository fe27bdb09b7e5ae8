package tests

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/extraction"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/anthropic"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/bedrock"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/gemini"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/ollama"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/llms/openai"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/prompt"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var extractionCases = []struct {
	language   model.Language
	transcript string
}{
	{model.LanguageEnglish, "Sold two coffees at 3.50 each and a sandwich for 8.50 to John, paid cash."},
	{model.LanguageIndonesian, "Jual nasi goreng 2 porsi 25 ribu per porsi, Pak Budi bayar minggu depan."},
	{model.LanguageThai, "ขายผัดไทย 3 จาน จานละ 60 บาท ส้มตำ 2 จาน จานละ 35 บาท"},
}

// ProviderExtractionSuite runs a live provider through the same strategy the orchestrator uses.
type ProviderExtractionSuite struct {
	ExternalDependenciesSuite
	name     string
	envKeys  []string
	newGen   model.NewStringContentGeneratorFunc
	optsFrom func(credential string) []model.GeneratorOption
	strategy *extraction.GeneratorStrategy
}

func (s *ProviderExtractionSuite) SetupSuite() {
	s.ExternalDependenciesSuite.SetupSuite()

	credential := s.RequireEnv(s.envKeys...)
	builder, err := prompt.NewBuilder()
	require.NoError(s.T(), err)
	s.strategy = extraction.NewGeneratorStrategy(s.name, s.newGen, builder, s.optsFrom(credential)...)
}

func (s *ProviderExtractionSuite) TestExtractTransactions() {
	for _, tc := range extractionCases {
		s.Run(string(tc.language), func() {
			ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
			defer cancel()

			tx, err := s.strategy.Extract(ctx, tc.transcript, tc.language)
			require.NoError(s.T(), err)
			s.AssertExtracted(tx, tc.language)
		})
	}
}

func withOptionalModel(envKey string, opts ...model.GeneratorOption) []model.GeneratorOption {
	if name := strings.TrimSpace(os.Getenv(envKey)); name != "" {
		opts = append(opts, model.WithModel(name))
	}
	return opts
}

func TestOpenAIExtractionSuite(t *testing.T) {
	suite.Run(t, &ProviderExtractionSuite{
		name:    "openai",
		envKeys: []string{"OPENAI_API_KEY", "OPEN_API_TOKEN"},
		newGen:  openai.NewStringContentGenerator,
		optsFrom: func(credential string) []model.GeneratorOption {
			return withOptionalModel("OPENAI_MODEL",
				model.WithAuthToken(credential),
				model.WithURL(strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))),
				model.WithIgnoreInvalidGeneratorOptions(true),
			)
		},
	})
}

func TestGeminiExtractionSuite(t *testing.T) {
	suite.Run(t, &ProviderExtractionSuite{
		name:    "gemini",
		envKeys: []string{"GEMINI_KEY"},
		newGen:  gemini.NewStringContentGenerator,
		optsFrom: func(credential string) []model.GeneratorOption {
			return withOptionalModel("GEMINI_MODEL", model.WithAuthToken(credential))
		},
	})
}

func TestAnthropicExtractionSuite(t *testing.T) {
	suite.Run(t, &ProviderExtractionSuite{
		name:    "anthropic",
		envKeys: []string{"ANTHROPIC_API_KEY"},
		newGen:  anthropic.NewStringContentGenerator,
		optsFrom: func(credential string) []model.GeneratorOption {
			return withOptionalModel("ANTHROPIC_MODEL", model.WithAuthToken(credential))
		},
	})
}

func TestBedrockExtractionSuite(t *testing.T) {
	suite.Run(t, &ProviderExtractionSuite{
		name:    "bedrock",
		envKeys: []string{"BEDROCK_ENABLED"},
		newGen:  bedrock.NewStringContentGenerator,
		optsFrom: func(string) []model.GeneratorOption {
			return withOptionalModel("BEDROCK_MODEL")
		},
	})
}

func TestOllamaExtractionSuite(t *testing.T) {
	suite.Run(t, &ProviderExtractionSuite{
		name:    "ollama",
		envKeys: []string{"OLLAMA_BASE_URL"},
		newGen:  ollama.NewStringContentGenerator,
		optsFrom: func(baseURL string) []model.GeneratorOption {
			return withOptionalModel("OLLAMA_MODEL", model.WithURL(baseURL))
		},
	})
}

type RegionalExtractionSuite struct {
	ExternalDependenciesSuite
	strategy *extraction.RegionalStrategy
}

func (s *RegionalExtractionSuite) SetupSuite() {
	s.ExternalDependenciesSuite.SetupSuite()

	token := s.RequireEnv("HF_TOKEN")
	builder, err := prompt.NewBuilder()
	require.NoError(s.T(), err)
	s.strategy = extraction.NewRegionalStrategy(token, strings.TrimSpace(os.Getenv("HF_REGIONAL_MODEL")), builder)
}

func (s *RegionalExtractionSuite) TestExtractThai() {
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	tc := extractionCases[2]
	tx, err := s.strategy.Extract(ctx, tc.transcript, tc.language)
	require.NoError(s.T(), err)
	s.AssertExtracted(tx, tc.language)
}

func TestRegionalExtractionSuite(t *testing.T) {
	suite.Run(t, new(RegionalExtractionSuite))
}
