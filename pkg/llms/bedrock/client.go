package bedrock

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/model"
	"github.com/Nephrolytics-ai/polyglot-invoice/pkg/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	defaultModelName = "us.anthropic.claude-3-5-haiku-20241022-v1:0"
	providerName     = "bedrock"
	defaultRegion    = "us-east-1"
)

type converseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

func newClient(ctx context.Context, cfg model.GeneratorConfig) (*bedrockruntime.Client, error) {
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}

	client := bedrockruntime.NewFromConfig(awsCfg, func(o *bedrockruntime.Options) {
		if strings.TrimSpace(cfg.URL) != "" {
			o.BaseEndpoint = aws.String(strings.TrimSpace(cfg.URL))
		}
	})
	return client, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	region := strings.TrimSpace(os.Getenv("AWS_REGION"))
	if region == "" {
		region = defaultRegion
	}

	accessKeyID := strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	secretAccessKey := strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	profile := strings.TrimSpace(os.Getenv("AWS_PROFILE"))

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	switch {
	case accessKeyID != "" || secretAccessKey != "":
		if accessKeyID == "" || secretAccessKey == "" {
			return aws.Config{}, utils.WrapIfNotNil(
				errors.New("both AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required when using key-based auth"),
			)
		}

		sessionToken := strings.TrimSpace(os.Getenv("AWS_SESSION_TOKEN"))
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, sessionToken),
		))
	case profile != "":
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(profile))
	default:
		return aws.Config{}, utils.WrapIfNotNil(
			errors.New("missing AWS credentials: set AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY or AWS_PROFILE"),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, utils.WrapIfNotNil(err)
	}
	return cfg, nil
}

func resolveModelName(cfg model.GeneratorConfig) string {
	if cfg.Model != nil {
		modelName := strings.TrimSpace(*cfg.Model)
		if modelName != "" {
			return modelName
		}
	}
	return defaultModelName
}

func initMetadata(modelName string) model.GenerationMetadata {
	if strings.TrimSpace(modelName) == "" {
		modelName = "unknown"
	}

	return model.GenerationMetadata{
		model.MetadataKeyProvider: providerName,
		model.MetadataKeyModel:    modelName,
	}
}

func setLatencyMetadata(meta model.GenerationMetadata, start time.Time) {
	if meta == nil {
		return
	}
	meta[model.MetadataKeyLatencyMs] = strconv.FormatInt(time.Since(start).Milliseconds(), 10)
}

func applyBedrockMetadata(meta model.GenerationMetadata, output *bedrockruntime.ConverseOutput) {
	if meta == nil || output == nil {
		return
	}

	meta[model.MetadataKeyAPICalls] = "1"
	if output.Usage != nil {
		meta[model.MetadataKeyInputTokens] = strconv.FormatInt(int64(aws.ToInt32(output.Usage.InputTokens)), 10)
		meta[model.MetadataKeyOutputTokens] = strconv.FormatInt(int64(aws.ToInt32(output.Usage.OutputTokens)), 10)
		meta[model.MetadataKeyTotalTokens] = strconv.FormatInt(int64(aws.ToInt32(output.Usage.TotalTokens)), 10)
		meta[model.MetadataKeyCachedInputTokens] = strconv.FormatInt(int64(aws.ToInt32(output.Usage.CacheReadInputTokens)), 10)
	}
	if stopReason := strings.TrimSpace(string(output.StopReason)); stopReason != "" {
		meta[model.MetadataKeyResponseStatus] = stopReason
	}
}
