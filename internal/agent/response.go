package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/opsctl/agentcore/internal/agent/providers"
	"github.com/opsctl/agentcore/internal/retry"
	"github.com/opsctl/agentcore/pkg/models"
)

// completionRetryConfig governs CompleteSync's retry of a provider call
// that fails with a transient error. Base delay, max delay, and factor
// mirror the source project's utils/retry.py DEFAULT_RETRY_CONFIG
// (base_delay=1.0s, max_delay=60s, exponential_base=2.0, jitter enabled).
var completionRetryConfig = retry.Config{
	MaxAttempts:  3,
	InitialDelay: time.Second,
	MaxDelay:     60 * time.Second,
	Factor:       2.0,
	Jitter:       true,
}

// StopReason mirrors the normalized stop reasons every provider's response
// is mapped onto: the model either finished with plain text, or it wants
// one or more tools executed before it continues.
type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopToolUse StopReason = "tool_use"
)

// Usage is normalized token accounting for one completion.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ProviderResponse is the single, fully-materialized result of one model
// turn: final text, any tool calls the model wants executed, and the
// normalized stop reason. Tool-enabled turns are never streamed into the
// agent loop — CompleteSync blocks until the underlying provider stream is
// fully drained into exactly this shape.
type ProviderResponse struct {
	Text       string
	ToolCalls  []models.ToolCall
	StopReason StopReason
	Usage      Usage

	// Capped is set by the agent loop (never by CompleteSync) when this
	// response is the last one returned after the iteration cap was hit
	// rather than a natural end_turn. stop_reason stays tool_use per
	// source behavior; Capped is the separate signal callers who need to
	// distinguish the two can check.
	Capped bool
}

// CompleteSync drains provider's streaming Complete response into a single
// ProviderResponse. This is the only way the agent loop talks to a
// provider: partial tokens and thinking deltas are absorbed here and never
// surface to the loop or the audit store. A transient failure (rate
// limit, timeout, server error) is retried with backoff; an error that
// providers.IsRetryable rejects (auth, billing, invalid request) fails
// immediately without consuming an iteration.
func CompleteSync(ctx context.Context, provider LLMProvider, req *CompletionRequest) (*ProviderResponse, error) {
	value, result := retry.DoWithValue(ctx, completionRetryConfig, func() (*ProviderResponse, error) {
		resp, err := completeOnce(ctx, provider, req)
		if err != nil && !providers.IsRetryable(err) {
			return nil, retry.Permanent(err)
		}
		return resp, err
	})
	if result.Err != nil {
		return nil, result.Err
	}
	return value, nil
}

func completeOnce(ctx context.Context, provider LLMProvider, req *CompletionRequest) (*ProviderResponse, error) {
	chunks, err := provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider.Name(), err)
	}

	resp := &ProviderResponse{StopReason: StopEndTurn}
	for chunk := range chunks {
		if chunk == nil {
			continue
		}
		if chunk.Error != nil {
			return nil, fmt.Errorf("%s: %w", provider.Name(), chunk.Error)
		}
		if chunk.Text != "" {
			resp.Text += chunk.Text
		}
		if chunk.ToolCall != nil {
			resp.ToolCalls = append(resp.ToolCalls, *chunk.ToolCall)
		}
		if chunk.InputTokens > 0 {
			resp.Usage.InputTokens = chunk.InputTokens
		}
		if chunk.OutputTokens > 0 {
			resp.Usage.OutputTokens = chunk.OutputTokens
		}
	}

	if len(resp.ToolCalls) > 0 {
		resp.StopReason = StopToolUse
	}
	return resp, nil
}
