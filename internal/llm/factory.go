package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/personapanel/internal/config"
)

// NewClient builds the client for cfg.Provider. The "none" provider returns a
// nil client so the service can run CRUD-only.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	provider := strings.ToLower(cfg.Provider)
	opts := GenerationOptions{
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}

	switch provider {
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, opts), nil

	case "gemini":
		c, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, opts)
		if err != nil {
			return nil, err
		}
		return c, nil

	case "claude":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, opts), nil

	case "ollama":
		c, err := NewOllamaClient(cfg.Model, cfg.BaseURL, opts)
		if err != nil {
			return nil, err
		}
		return c, nil

	case "ollama-openai":
		// Ollama ignores the key but the OpenAI client requires one.
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = "ollama"
		}
		return NewOpenAIClient(apiKey, cfg.Model, OpenAICompatibleURL(cfg.BaseURL), opts), nil

	case "none", "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", provider)
	}
}

// OpenAICompatibleURL appends the /v1 suffix Ollama's OpenAI endpoint expects.
func OpenAICompatibleURL(baseURL string) string {
	if strings.HasSuffix(baseURL, "/v1") {
		return baseURL
	}
	return fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
}
