package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/medic-pro/internal/observability/metrics"
)

type fakeConverse struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverse) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return f.out, f.err
}

func converseText(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage:      &brtypes.TokenUsage{InputTokens: aws.Int32(10), OutputTokens: aws.Int32(5), TotalTokens: aws.Int32(15)},
	}
}

func TestBedrockCompleteMapsRoles(t *testing.T) {
	api := &fakeConverse{out: converseText(" Réponse ")}
	client := NewBedrockLLMClient(api, "anthropic.claude-3-haiku")

	resp, err := client.Complete(context.Background(), LLMRequest{
		Model:  "gemini-2.5-pro",
		System: []string{"persona"},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: "Bonjour"},
			{Role: ChatRoleAssistant, Content: "Bonjour docteur"},
			{Role: ChatRoleUser, Content: "Question"},
		},
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Réponse", resp.Text)
	assert.EqualValues(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.StopReason)

	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(api.input.ModelId), "gemini model names fall back to the bedrock default")
	require.Len(t, api.input.Messages, 3)
	assert.Equal(t, brtypes.ConversationRoleAssistant, api.input.Messages[1].Role)
	require.Len(t, api.input.System, 1)
}

func TestBedrockCompleteAddsSchemaInstruction(t *testing.T) {
	api := &fakeConverse{out: converseText("{}")}
	client := NewBedrockLLMClient(api, "model")

	_, err := client.Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "go"}},
		Schema:   BootstrapSchema,
	})
	require.NoError(t, err)
	require.Len(t, api.input.System, 1)
	block, ok := api.input.System[0].(*brtypes.SystemContentBlockMemberText)
	require.True(t, ok)
	assert.Contains(t, block.Value, `"monthlyPatients"`)
}

func TestBedrockCompleteErrors(t *testing.T) {
	_, err := NewBedrockLLMClient(&fakeConverse{}, "").Complete(context.Background(), LLMRequest{})
	assert.Error(t, err)

	_, err = NewBedrockLLMClient(&fakeConverse{err: errors.New("throttled")}, "m").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}},
	})
	assert.Error(t, err)

	_, err = NewBedrockLLMClient(&fakeConverse{out: converseText("x")}, "m").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: "tool", Content: "x"}},
	})
	assert.Error(t, err)

	_, err = NewBedrockLLMClient(&fakeConverse{out: converseText("   ")}, "m").Complete(context.Background(), LLMRequest{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}},
	})
	assert.Error(t, err)
}

func TestModelChain(t *testing.T) {
	ctx := context.Background()
	req := LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "x"}}}
	reg := prometheus.NewRegistry()
	m := metrics.NewDashboardMetrics(reg)

	primary := &fakeLLM{text: "primary"}
	fallback := &fakeLLM{text: "fallback"}
	resp, err := NewModelChain(primary, fallback, m, nil).Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "primary", resp.Text)
	assert.Empty(t, fallback.requests, "fallback is not called when the primary answers")

	down := errors.New("down")
	resp, err = NewModelChain(&fakeLLM{err: down}, fallback, m, nil).Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Text)

	_, err = NewModelChain(&fakeLLM{err: down}, nil, m, nil).Complete(ctx, req)
	assert.Equal(t, down, err)

	alsoDown := errors.New("also down")
	_, err = NewModelChain(&fakeLLM{err: down}, &fakeLLM{err: alsoDown}, m, nil).Complete(ctx, req)
	assert.ErrorIs(t, err, down)
	assert.ErrorIs(t, err, alsoDown)

	expected := `
# HELP medicpro_assistant_model_calls_total Language model calls by provider role (primary or fallback) and outcome
# TYPE medicpro_assistant_model_calls_total counter
medicpro_assistant_model_calls_total{outcome="error",role="fallback"} 1
medicpro_assistant_model_calls_total{outcome="error",role="primary"} 3
medicpro_assistant_model_calls_total{outcome="ok",role="fallback"} 1
medicpro_assistant_model_calls_total{outcome="ok",role="primary"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "medicpro_assistant_model_calls_total"))
}

func TestModelChainSkipsFallbackWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fallback := &fakeLLM{text: "fallback"}

	_, err := NewModelChain(&fakeLLM{err: context.Canceled}, fallback, nil, nil).Complete(ctx, LLMRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fallback.requests)
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiLLMClient(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestGeminiHistoryMapsRoles(t *testing.T) {
	history := geminiHistory([]ChatMessage{
		{Role: ChatRoleSystem, Content: "ignored"},
		{Role: ChatRoleUser, Content: "Bonjour"},
		{Role: ChatRoleAssistant, Content: "Bonjour docteur"},
		{Role: ChatRoleUser, Content: "  "},
	})
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
}
