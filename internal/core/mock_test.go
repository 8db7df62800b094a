package core

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/personapanel/internal/core/model"
	"github.com/agenthands/personapanel/internal/store"
)

type executedQuery struct {
	Query  string
	Params map[string]any
}

type MockDriver struct {
	mu         sync.Mutex
	Executed   []executedQuery
	MockResult neo4j.EagerResult
	Err        error
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, executedQuery{Query: query, Params: params})
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}

func (m *MockDriver) count(query string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, q := range m.Executed {
		if q.Query == query {
			n++
		}
	}
	return n
}

// MockLLM answers from ResponseQueue, then Response. A queued "ERROR" fails
// that call. A non-nil Gate holds every call until it is closed or ctx ends.
type MockLLM struct {
	mu            sync.Mutex
	Response      string
	ResponseQueue []string
	Prompts       []string
	Gate          chan struct{}
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
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

// failingStore fails CreateSimulation for one participant list.
type failingStore struct {
	store.Store
	failFor []string
}

func (s *failingStore) CreateSimulation(ctx context.Context, sim *model.Simulation) error {
	if slices.Equal(sim.EntityIDs, s.failFor) {
		return errors.New("disk full")
	}
	return s.Store.CreateSimulation(ctx, sim)
}
