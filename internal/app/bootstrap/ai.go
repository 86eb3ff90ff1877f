package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/medic-pro/internal/ai"
	appconfig "github.com/wolfman30/medic-pro/internal/config"
	"github.com/wolfman30/medic-pro/internal/observability/metrics"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

// BuildLLMClient wires Gemini as the primary model and Bedrock as fallback,
// chained so every call is counted per role.
// With neither configured it returns nil and the callers degrade: bootstrap
// uses the zero dashboard and chat answers with the apology.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, m *metrics.DashboardMetrics, logger *logging.Logger) (ai.LLMClient, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		primary  ai.LLMClient
		fallback ai.LLMClient
		closer   = func() {}
	)
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := ai.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiBootstrapModel)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: gemini: %w", err)
		}
		primary = gemini
		closer = func() { _ = gemini.Close() }
	}
	if strings.TrimSpace(cfg.BedrockModelID) != "" {
		fallback = ai.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	}

	switch {
	case primary != nil && fallback != nil:
		logger.Info("using gemini with bedrock fallback", "bedrock_model", cfg.BedrockModelID)
		return ai.NewModelChain(primary, fallback, m, logger), closer, nil
	case primary != nil:
		logger.Info("using gemini", "bootstrap_model", cfg.GeminiBootstrapModel, "chat_model", cfg.GeminiChatModel)
		return ai.NewModelChain(primary, nil, m, logger), closer, nil
	case fallback != nil:
		logger.Info("using bedrock only", "model", cfg.BedrockModelID)
		return ai.NewModelChain(fallback, nil, m, logger), closer, nil
	default:
		logger.Warn("no language model configured; setup will use the default dashboard")
		return nil, closer, nil
	}
}
