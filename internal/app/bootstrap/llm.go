package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/voice-booking-agent/internal/config"
	"github.com/wolfman30/voice-booking-agent/internal/llm"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// BuildLLMClient wires the configured completion provider, wrapped with the
// fallback provider when one is set. awsCfg is only consulted for Bedrock.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (llm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	primary, err := buildProvider(ctx, cfg.LLMProvider, cfg, awsCfg)
	if err != nil {
		return nil, err
	}
	logger.Info("completion provider configured", "provider", providerName(cfg.LLMProvider))

	fallbackName := strings.TrimSpace(cfg.LLMFallbackProvider)
	if fallbackName == "" || fallbackName == providerName(cfg.LLMProvider) {
		return primary, nil
	}
	fallback, err := buildProvider(ctx, fallbackName, cfg, awsCfg)
	if err != nil {
		logger.Warn("fallback provider unavailable", "provider", fallbackName, "error", err)
		return primary, nil
	}
	logger.Info("fallback completion provider configured", "provider", fallbackName)
	return llm.NewFallbackClient(primary, fallback, logger), nil
}

func providerName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "scripted"
	}
	return name
}

func buildProvider(ctx context.Context, name string, cfg *appconfig.Config, awsCfg *aws.Config) (llm.Client, error) {
	switch providerName(name) {
	case "scripted":
		return llm.ScriptedClient{}, nil
	case "openai":
		client, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "bedrock":
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			return nil, fmt.Errorf("bootstrap: BEDROCK_MODEL_ID is required for the bedrock provider")
		}
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: aws config is required for the bedrock provider")
		}
		return llm.NewBedrockClient(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown llm provider %q", name)
	}
}
