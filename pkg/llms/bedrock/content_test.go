package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	bedrocktypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/suite"
)

type fakeConverse struct {
	input  *bedrockruntime.ConverseInput
	output *bedrockruntime.ConverseOutput
	err    error
}

func (f *fakeConverse) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.output, f.err
}

type ContentSuite struct {
	suite.Suite
}

func TestContentSuite(t *testing.T) {
	suite.Run(t, new(ContentSuite))
}

func (s *ContentSuite) TestBuildMessagesWithContextSeparatesSystem() {
	system, messages, count := buildMessagesWithContext("prompt", []*model.PromptContext{
		{MessageType: model.ContextMessageTypeSystem, Content: "rules"},
		{MessageType: model.ContextMessageTypeAssistant, Content: "{}"},
		{MessageType: model.ContextMessageTypeHuman, Content: " "},
	})

	s.Equal(2, count)
	s.Require().Len(system, 1)
	s.Require().Len(messages, 2)
	s.Equal(bedrocktypes.ConversationRoleAssistant, messages[0].Role)
	s.Equal(bedrocktypes.ConversationRoleUser, messages[1].Role)
}

func (s *ContentSuite) TestBuildInferenceConfig() {
	s.Nil(buildInferenceConfig(model.GeneratorConfig{}))

	inference := buildInferenceConfig(model.ResolveGeneratorOpts(model.WithMaxTokens(300), model.WithTemperature(0.2)))
	s.Require().NotNil(inference)
	s.Equal(int32(300), aws.ToInt32(inference.MaxTokens))
	s.InDelta(0.2, float64(aws.ToFloat32(inference.Temperature)), 0.0001)
}

func (s *ContentSuite) TestGenerateUsesConverse() {
	fake := &fakeConverse{output: &bedrockruntime.ConverseOutput{
		Output: &bedrocktypes.ConverseOutputMemberMessage{
			Value: textMessage(bedrocktypes.ConversationRoleAssistant, `{"items":[]}`),
		},
		StopReason: bedrocktypes.StopReasonEndTurn,
		Usage: &bedrocktypes.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(4),
			TotalTokens:  aws.Int32(14),
		},
	}}
	g := &textGenerator{prompt: "extract", client: fake}
	g.AddPromptContext(context.Background(), model.ContextMessageTypeSystem, "json only")

	text, meta, err := g.Generate(context.Background())

	s.Require().NoError(err)
	s.Equal(`{"items":[]}`, text)
	s.Equal("14", meta[model.MetadataKeyTotalTokens])
	s.Equal("end_turn", meta[model.MetadataKeyResponseStatus])
	s.Equal(defaultModelName, aws.ToString(fake.input.ModelId))
	s.Len(fake.input.System, 1)
}

func (s *ContentSuite) TestGenerateReturnsConverseError() {
	g := &textGenerator{prompt: "extract", client: &fakeConverse{err: errors.New("throttled")}}

	_, _, err := g.Generate(context.Background())
	s.Require().Error(err)
	s.Contains(err.Error(), "throttled")
}

func (s *ContentSuite) TestExtractOutputMessageRejectsNil() {
	_, err := extractOutputMessage(nil)
	s.Require().Error(err)
}
