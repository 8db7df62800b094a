package dialogue

import (
	"context"
	"errors"
)

type MockLLMClient struct {
	Response      string
	ResponseQueue []string
	Prompts       []string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		if resp == "ERROR" {
			return "", errors.New("mock llm failure")
		}
		return resp, nil
	}
	return m.Response, nil
}
