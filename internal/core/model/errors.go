package model

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalid        = errors.New("invalid request")
	ErrLLMUnavailable = errors.New("llm provider not configured")
	ErrGraphDisabled  = errors.New("interaction graph is disabled")
	ErrShuttingDown   = errors.New("service is shutting down")

	// ErrGenerationFailed marks bad LLM output, not bad caller input.
	ErrGenerationFailed = errors.New("entity generation failed")
)
