package core

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/core/batch"
	"github.com/agenthands/personapanel/internal/core/dialogue"
	"github.com/agenthands/personapanel/internal/core/model"
)

// BatchInput describes a batch to create. With Async set the batch is stored
// as pending and run in the background.
type BatchInput struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	ContextID       string   `json:"context_id"`
	EntityIDs       []string `json:"entity_ids"`
	InteractionSize int      `json:"interaction_size"`
	NumSimulations  int      `json:"num_simulations"`
	NTurns          int      `json:"n_turns"`
	Async           bool     `json:"async"`
}

func (p *Panel) GetBatch(ctx context.Context, id string) (*model.BatchSimulation, error) {
	return p.Store.GetBatch(ctx, id)
}

func (p *Panel) ListBatches(ctx context.Context) ([]model.BatchSimulation, error) {
	return p.Store.ListBatches(ctx)
}

// ListBatchSimulations returns the child simulations of a batch.
func (p *Panel) ListBatchSimulations(ctx context.Context, id string) ([]model.Simulation, error) {
	if _, err := p.Store.GetBatch(ctx, id); err != nil {
		return nil, err
	}
	return p.Store.ListSimulations(ctx, id)
}

// DeleteBatch removes a batch and its children. A batch still running in the
// background cannot be deleted.
func (p *Panel) DeleteBatch(ctx context.Context, id string) error {
	b, err := p.Store.GetBatch(ctx, id)
	if err != nil {
		return err
	}
	if _, running := p.running.Load(id); running && !b.Status.Terminal() {
		return fmt.Errorf("%w: batch %s is still running", model.ErrInvalid, id)
	}
	return p.Store.DeleteBatch(ctx, id)
}

// CreateBatch validates and stores a batch, then runs one simulation per
// selected combination of in.EntityIDs. A failed combination is stored as a
// failed child and does not stop the batch.
func (p *Panel) CreateBatch(ctx context.Context, in BatchInput) (*model.BatchSimulation, error) {
	if p.LLM == nil {
		return nil, model.ErrLLMUnavailable
	}
	if in.Async && p.ctx.Err() != nil {
		return nil, model.ErrShuttingDown
	}

	ids := uniqueIDs(in.EntityIDs)
	now := p.Now()
	b := &model.BatchSimulation{
		ID:              p.UUIDGenerator(),
		Name:            in.Name,
		Description:     in.Description,
		ContextID:       in.ContextID,
		EntityIDs:       ids,
		InteractionSize: in.InteractionSize,
		NumSimulations:  in.NumSimulations,
		NTurns:          in.NTurns,
		Status:          model.BatchPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	sc, entities, err := p.loadScene(ctx, b.ContextID, ids)
	if err != nil {
		return nil, err
	}
	combos, err := batch.Combinations(ids, b.InteractionSize, b.NumSimulations)
	if err != nil {
		return nil, err
	}
	b.Metadata = map[string]any{
		"total_combinations": batch.Binomial(len(ids), b.InteractionSize),
		"selected":           len(combos),
	}

	if err := p.Store.CreateBatch(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}
	p.Logger.Info("Batch created",
		zap.String("batch_id", b.ID),
		zap.Int("entities", len(ids)),
		zap.Int("interaction_size", b.InteractionSize),
		zap.Int("combinations", len(combos)),
		zap.Bool("async", in.Async))

	byID := make(map[string]model.Entity, len(entities))
	for _, e := range entities {
		byID[e.ID] = e
	}

	if in.Async {
		p.wg.Add(1)
		p.running.Store(b.ID, struct{}{})
		go func() {
			defer p.wg.Done()
			defer p.running.Delete(b.ID)
			if _, err := p.runBatch(p.ctx, b, sc, byID, combos); err != nil {
				p.Logger.Error("Batch run failed", zap.String("batch_id", b.ID), zap.Error(err))
			}
		}()
		return b, nil
	}
	return p.runBatch(ctx, b, sc, byID, combos)
}

func (p *Panel) runBatch(ctx context.Context, b *model.BatchSimulation, sc *model.Context, entities map[string]model.Entity, combos [][]string) (*model.BatchSimulation, error) {
	// status writes must land even when ctx is cancelled mid-run
	storeCtx := context.WithoutCancel(ctx)

	if err := p.Store.UpdateBatchStatus(storeCtx, b.ID, model.BatchInProgress); err != nil {
		return nil, fmt.Errorf("failed to mark batch in progress: %w", err)
	}

	res := p.Runner.Run(ctx, combos, func(ctx context.Context, ids []string) (*model.Simulation, error) {
		return p.runChild(ctx, storeCtx, b, sc, entities, ids)
	})
	for _, out := range res.Outcomes {
		// combinations skipped after cancellation still get a failed child
		if out.Simulation == nil && out.Err != nil && ctx.Err() != nil && errors.Is(out.Err, ctx.Err()) {
			sim := p.newSimulation(sc.ID, out.EntityIDs, b.ID, b.NTurns)
			sim.Status = model.SimulationFailed
			sim.Error = out.Err.Error()
			if err := p.Store.CreateSimulation(storeCtx, sim); err != nil {
				p.Logger.Error("Failed to save batch child", zap.String("batch_id", b.ID), zap.Error(err))
			}
		}
	}

	// the stored children decide the status; a child that could not be
	// saved does not count
	status := res.Status
	children, err := p.Store.ListSimulations(storeCtx, b.ID)
	if err != nil {
		p.Logger.Warn("Failed to list batch children, using run outcomes", zap.String("batch_id", b.ID), zap.Error(err))
	} else {
		status = batch.AggregateSimulations(children)
	}

	if err := p.Store.UpdateBatchStatus(storeCtx, b.ID, status); err != nil {
		return nil, fmt.Errorf("failed to record batch status: %w", err)
	}
	p.Logger.Info("Batch finished",
		zap.String("batch_id", b.ID),
		zap.String("status", string(status)),
		zap.Int("combinations", len(res.Outcomes)),
		zap.Int("stored", len(children)))

	return p.Store.GetBatch(storeCtx, b.ID)
}

// runChild simulates one combination and stores the child, failed or not.
func (p *Panel) runChild(ctx, storeCtx context.Context, b *model.BatchSimulation, sc *model.Context, entities map[string]model.Entity, ids []string) (*model.Simulation, error) {
	participants := make([]model.Entity, len(ids))
	for i, id := range ids {
		participants[i] = entities[id]
	}

	sim := p.newSimulation(sc.ID, ids, b.ID, b.NTurns)
	req := dialogue.Request{Context: sc.Description, Participants: toParticipants(participants), Turns: b.NTurns}
	st, runErr := p.Simulator.Start(ctx, req)
	if runErr != nil {
		sim.Status = model.SimulationFailed
		sim.Error = runErr.Error()
	} else {
		sim.Content = st.Content
		sim.FinalTurnNumber = st.FinalTurnNumber
		sim.Metadata["rounds"] = 1
	}

	if err := p.Store.CreateSimulation(storeCtx, sim); err != nil {
		p.Logger.Error("Failed to save batch child",
			zap.String("batch_id", b.ID),
			zap.Strings("entity_ids", ids),
			zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("failed to save simulation: %w", err)
		}
		return nil, runErr
	}
	if runErr != nil {
		return sim, runErr
	}

	p.recordInteraction(storeCtx, sim, participants)
	return sim, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
