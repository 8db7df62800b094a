package llm

import (
	"context"
)

// LLMClient sends a single prompt and returns the model's text reply.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationOptions are shared by every provider client.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float32
}
