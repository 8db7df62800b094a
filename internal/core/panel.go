package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/config"
	"github.com/agenthands/personapanel/internal/core/batch"
	"github.com/agenthands/personapanel/internal/core/dialogue"
	"github.com/agenthands/personapanel/internal/core/generation"
	"github.com/agenthands/personapanel/internal/driver"
	"github.com/agenthands/personapanel/internal/llm"
	"github.com/agenthands/personapanel/internal/store"
)

// Panel is the application service behind the REST API: it validates input,
// calls the LLM components and persists the results.
type Panel struct {
	Store     store.Store
	LLM       llm.LLMClient
	Graph     driver.GraphDriver // nil when the interaction graph is disabled
	Generator *generation.Generator
	Simulator *dialogue.Simulator
	Runner    *batch.Runner
	Logger    *zap.Logger

	Provider              string
	Model                 string
	GenerationConcurrency int

	UUIDGenerator func() string
	Now           func() time.Time

	// background batch runs
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	running sync.Map // batch id -> struct{}
}

func NewPanel(st store.Store, llmClient llm.LLMClient, graph driver.GraphDriver, cfg *config.Config, logger *zap.Logger) *Panel {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Panel{
		Store:     st,
		LLM:       llmClient,
		Graph:     graph,
		Generator: generation.NewGenerator(llmClient, cfg.Prompts.Entity, logger.Named("generation")),
		Simulator: dialogue.NewSimulator(llmClient, cfg.Prompts.Dialogue, cfg.Prompts.Continuation, logger.Named("dialogue")),
		Runner:    batch.NewRunner(logger.Named("batch")),
		Logger:    logger,

		Provider:              cfg.LLM.Provider,
		Model:                 cfg.LLM.Model,
		GenerationConcurrency: cfg.Concurrency.EntityGeneration,

		UUIDGenerator: func() string { return uuid.New().String() },
		Now:           func() time.Time { return time.Now().UTC() },

		ctx:    ctx,
		cancel: cancel,
	}
}

// LLMAvailable reports whether generation endpoints can be served.
func (p *Panel) LLMAvailable() bool {
	return p.LLM != nil
}

// Wait blocks until background batch runs have finished.
func (p *Panel) Wait() {
	p.wg.Wait()
}

// Shutdown cancels background batch runs and waits for them to record their
// final status, or for ctx to expire.
func (p *Panel) Shutdown(ctx context.Context) error {
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
