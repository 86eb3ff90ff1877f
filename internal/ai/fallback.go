package ai

import (
	"context"
	"fmt"

	"github.com/wolfman30/medic-pro/internal/observability/metrics"
	"github.com/wolfman30/medic-pro/pkg/logging"
)

const (
	rolePrimary  = "primary"
	roleFallback = "fallback"
)

// ModelChain sends each request to the primary model and retries once on the
// fallback when the primary fails. Every attempt is counted per role so an
// exhausted Gemini quota shows up as a rising fallback share.
type ModelChain struct {
	primary  LLMClient
	fallback LLMClient
	metrics  *metrics.DashboardMetrics
	logger   *logging.Logger
}

// NewModelChain panics on a nil primary; a nil fallback disables the retry.
func NewModelChain(primary, fallback LLMClient, m *metrics.DashboardMetrics, logger *logging.Logger) *ModelChain {
	if primary == nil {
		panic("ai: primary model cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ModelChain{primary: primary, fallback: fallback, metrics: m, logger: logger}
}

func (c *ModelChain) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	c.metrics.ObserveModelCall(rolePrimary, err)
	if err == nil {
		return resp, nil
	}
	// A cancelled request is not a provider outage.
	if c.fallback == nil || ctx.Err() != nil {
		return LLMResponse{}, err
	}

	c.logger.Warn("primary model failed, retrying on fallback", "model", req.Model, "error", err.Error())
	resp, fbErr := c.fallback.Complete(ctx, req)
	c.metrics.ObserveModelCall(roleFallback, fbErr)
	if fbErr != nil {
		return LLMResponse{}, fmt.Errorf("ai: primary: %w; fallback: %w", err, fbErr)
	}
	return resp, nil
}
