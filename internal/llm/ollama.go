package llm

import (
	"context"
	"fmt"

	"github.com/XiaoConstantine/dspy-go/pkg/core"
	"github.com/XiaoConstantine/dspy-go/pkg/llms"
)

// OllamaClient talks to a local Ollama server through dspy-go.
type OllamaClient struct {
	llm     *llms.OllamaLLM
	model   string
	genOpts []core.GenerateOption
}

func NewOllamaClient(modelName string, baseURL string, opts GenerationOptions) (*OllamaClient, error) {
	ollamaLLM, err := llms.NewOllamaLLM(core.ModelID(modelName),
		llms.WithBaseURL(baseURL),
		llms.WithOpenAIAPI(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama llm: %w", err)
	}

	var genOpts []core.GenerateOption
	if opts.MaxTokens > 0 {
		genOpts = append(genOpts, core.WithMaxTokens(opts.MaxTokens))
	}
	if opts.Temperature > 0 {
		genOpts = append(genOpts, core.WithTemperature(float64(opts.Temperature)))
	}
	return &OllamaClient{llm: ollamaLLM, model: modelName, genOpts: genOpts}, nil
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := c.llm.Generate(ctx, prompt, c.genOpts...)
	if err != nil {
		return "", fmt.Errorf("ollama %s: %w", c.model, err)
	}
	if response.Content == "" {
		return "", fmt.Errorf("ollama %s returned an empty response", c.model)
	}
	return response.Content, nil
}
