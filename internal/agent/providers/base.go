package providers

import (
	"context"
	"time"

	"github.com/opsctl/agentcore/internal/retry"
)

// BaseProvider holds shared retry configuration for LLM providers.
type BaseProvider struct {
	name       string
	maxRetries int
	retryDelay time.Duration
}

// NewBaseProvider creates a base provider with sane defaults.
func NewBaseProvider(name string, maxRetries int, retryDelay time.Duration) BaseProvider {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return BaseProvider{
		name:       name,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Retry executes op with exponential backoff if isRetryable returns true,
// delegating the actual backoff loop to the shared retry package rather
// than reimplementing it: a non-retryable error is turned into a
// retry.PermanentError so retry.Do stops on the first attempt instead of
// spending the whole budget on an error that will never succeed.
func (b *BaseProvider) Retry(ctx context.Context, isRetryable func(error) bool, op func() error) error {
	if op == nil {
		return nil
	}
	config := retry.Exponential(b.maxRetries, b.retryDelay, 30*time.Second)
	result := retry.Do(ctx, config, func() error {
		err := op()
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return retry.Permanent(err)
		}
		return err
	})
	if result.Err == nil {
		return nil
	}
	if perm, ok := result.Err.(*retry.PermanentError); ok {
		return perm.Unwrap()
	}
	return result.Err
}
