package openai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	openai "github.com/openai/openai-go/v3"
	"github.com/stretchr/testify/suite"
)

type AudioTranscriberSuite struct {
	suite.Suite
}

func TestAudioTranscriberSuite(t *testing.T) {
	suite.Run(t, new(AudioTranscriberSuite))
}

func (s *AudioTranscriberSuite) TestNewAudioTranscriberReturnsTranscriber() {
	transcriber, err := NewAudioTranscriber(model.AudioOptions{AuthToken: "test"})

	s.Require().NoError(err)
	s.NotNil(transcriber)
}

func (s *AudioTranscriberSuite) TestBuildTranscriptionParamsRequiresData() {
	_, err := buildTranscriptionParams(model.AudioInput{}, model.AudioOptions{})

	s.Require().Error(err)
	s.Contains(err.Error(), "audio data is required")
}

func (s *AudioTranscriberSuite) TestBuildTranscriptionParamsSetsLanguageAndPrompt() {
	params, err := buildTranscriptionParams(
		model.AudioInput{Data: []byte{1, 2, 3}, FileName: "clip.m4a", MIMEType: "audio/mp4", Language: "id"},
		model.AudioOptions{Keywords: []model.AudioKeyword{{Word: "lunas"}}},
	)

	s.Require().NoError(err)
	s.Equal("id", params.Language.Value)
	s.Equal(`Common missed words: [{"word":"lunas"}]`, params.Prompt.Value)
	s.Equal(openai.AudioModel(defaultAudioTranscriptionModelName), params.Model)
	s.NotNil(params.File)
}

func (s *AudioTranscriberSuite) TestResolveAudioTranscriptionModelNameUsesConfigValue() {
	s.Equal(defaultAudioTranscriptionModelName, resolveAudioTranscriptionModelName(model.AudioOptions{}))
	s.Equal(
		string(openai.AudioModelGPT4oMiniTranscribe),
		resolveAudioTranscriptionModelName(model.AudioOptions{Model: string(openai.AudioModelGPT4oMiniTranscribe)}),
	)
}

func (s *AudioTranscriberSuite) TestAudioGeneratorConfigFromOptionsMapsFields() {
	cfg := audioGeneratorConfigFromOptions(model.AudioOptions{
		URL:       "https://example.local/v1",
		AuthToken: "abc",
		Model:     "whisper-1",
	})

	s.Equal("https://example.local/v1", cfg.URL)
	s.Equal("abc", cfg.AuthToken)
	s.Require().NotNil(cfg.Model)
	s.Equal("whisper-1", *cfg.Model)
}

func (s *AudioTranscriberSuite) TestCloneAudioOptionsCopiesKeywords() {
	opts := model.AudioOptions{
		Keywords: []model.AudioKeyword{
			{
				Word:           "utang",
				CommonMistypes: []string{"u tang", "utan"},
				Definition:     "Buying on credit.",
			},
		},
	}

	cloned := cloneAudioOptions(opts)
	cloned.Keywords[0].Word = "changed"
	cloned.Keywords[0].CommonMistypes[0] = "changed-mistype"

	s.Equal("utang", opts.Keywords[0].Word)
	s.Equal("u tang", opts.Keywords[0].CommonMistypes[0])
}

func (s *AudioTranscriberSuite) TestBuildCommonMissedWordsPromptSkipsEmptyKeywordEntries() {
	prompt, err := buildCommonMissedWordsPrompt([]model.AudioKeyword{
		{},
		{
			Word:           " nghìn ",
			CommonMistypes: []string{" ", "nghin"},
		},
	})
	s.Require().NoError(err)

	payload := strings.TrimPrefix(prompt, "Common missed words: ")
	var parsed []model.AudioKeyword
	s.Require().NoError(json.Unmarshal([]byte(payload), &parsed))
	s.Require().Len(parsed, 1)
	s.Equal("nghìn", parsed[0].Word)
	s.Equal([]string{"nghin"}, parsed[0].CommonMistypes)
}

func (s *AudioTranscriberSuite) TestBuildAudioTranscriptionPromptUsesCustomPrompt() {
	prompt, err := buildAudioTranscriptionPrompt(model.AudioOptions{
		Prompt:   "Use this exact audio prompt.",
		Keywords: []model.AudioKeyword{{Word: "should-not-appear"}},
	})
	s.Require().NoError(err)
	s.Equal("Use this exact audio prompt.", prompt)
}

func (s *AudioTranscriberSuite) TestApplyOpenAIAudioTranscriptionMetadataUsesTokenUsage() {
	meta := model.GenerationMetadata{}
	response := &openai.AudioTranscriptionNewResponseUnion{
		Usage: openai.AudioTranscriptionNewResponseUnionUsage{
			InputTokens:  10,
			OutputTokens: 5,
			TotalTokens:  15,
			Type:         "tokens",
		},
	}

	applyOpenAIAudioTranscriptionMetadata(meta, response)

	s.Equal("10", meta[model.MetadataKeyInputTokens])
	s.Equal("5", meta[model.MetadataKeyOutputTokens])
	s.Equal("15", meta[model.MetadataKeyTotalTokens])
}
