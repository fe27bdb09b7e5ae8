package huggingface

import (
	"testing"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/stretchr/testify/suite"
)

type ContentSuite struct {
	suite.Suite
}

func TestContentSuite(t *testing.T) {
	suite.Run(t, new(ContentSuite))
}

func (s *ContentSuite) TestBuildMessagesWithContext() {
	messages, contextCount := buildMessagesWithContext("final prompt", []*model.PromptContext{
		{MessageType: model.ContextMessageTypeSystem, Content: "system one"},
		{MessageType: model.ContextMessageTypeHuman, Content: "human context"},
		{MessageType: model.ContextMessageTypeAssistant, Content: "assistant context"},
	})

	s.Equal(3, contextCount)
	s.Require().Len(messages, 4)
	s.Equal("system", messages[0].Role)
	s.Equal("user", messages[1].Role)
	s.Equal("assistant", messages[2].Role)
	s.Equal("user", messages[3].Role)
	s.Equal("final prompt", messages[3].Content)
}

func (s *ContentSuite) TestBuildMessagesSkipsEmptyContent() {
	messages, contextCount := buildMessagesWithContext("prompt", []*model.PromptContext{
		{MessageType: model.ContextMessageTypeSystem, Content: "  "},
		nil,
		{MessageType: model.ContextMessageTypeHuman, Content: "valid"},
	})

	s.Equal(1, contextCount)
	s.Require().Len(messages, 2)
	s.Equal("valid", messages[0].Content)
}

func (s *ContentSuite) TestBuildChatRequestWithoutJSONOutput() {
	request := buildChatRequest("m", nil, model.ResolveGeneratorOpts(model.WithTemperature(0.1)))
	s.Nil(request.ResponseFormat)
	s.Equal(defaultMaxTokens, request.MaxTokens)
	s.Require().NotNil(request.Temperature)
}

func (s *ContentSuite) TestExtractTextFromResponse() {
	s.Equal("", extractTextFromResponse(nil))
	s.Equal("", extractTextFromResponse(&chatCompletionResponse{}))
	s.Equal("hello world", extractTextFromResponse(&chatCompletionResponse{
		Choices: []chatCompletionChoice{{Message: chatMessage{Content: "  hello world  "}}},
	}))
}

func (s *ContentSuite) TestEmptyPromptReturnsError() {
	_, err := NewStringContentGenerator("", model.WithAuthToken("tok"))
	s.Require().Error(err)
	s.Contains(err.Error(), "prompt is required")
}
