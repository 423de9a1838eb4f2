// Package perception talks to the LLM providers kirby can send its collected
// context to.
package perception

import (
	"context"
	"time"
)

// slowRequestThreshold is the completion time above which a warning is logged.
const slowRequestThreshold = 30 * time.Second

// LLMClient defines the interface for LLM providers.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// withDefaultTimeout applies the client timeout when ctx has no deadline.
func withDefaultTimeout(ctx context.Context, cfg ModelConfig) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, cfg.Timeout)
}
