package generation

import (
	"context"
	"errors"
	"sync"
)

type MockLLMClient struct {
	mu            sync.Mutex
	Response      string
	ResponseQueue []string
	Err           error
	Prompts       []string

	// inFlight tracking for concurrency assertions
	active    int
	MaxActive int
	Gate      chan struct{}
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.active++
	if m.active > m.MaxActive {
		m.MaxActive = m.active
	}
	m.mu.Unlock()

	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.active--
	if m.Err != nil {
		return "", m.Err
	}
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
