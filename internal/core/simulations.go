package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/core/dialogue"
	"github.com/agenthands/personapanel/internal/core/model"
	"github.com/agenthands/personapanel/internal/export"
)

// SimulationInput is a request for a single-round simulation.
type SimulationInput struct {
	ContextID string   `json:"context_id"`
	EntityIDs []string `json:"entity_ids"`
	NTurns    int      `json:"n_turns"`
}

// UnifiedInput runs NRounds rounds in one call. Either ContextID or an inline
// Context description must be given.
type UnifiedInput struct {
	ContextID string   `json:"context_id"`
	Context   string   `json:"context"`
	EntityIDs []string `json:"entity_ids"`
	NTurns    int      `json:"n_turns"`
	NRounds   int      `json:"n_rounds"`
}

func (p *Panel) GetSimulation(ctx context.Context, id string) (*model.Simulation, error) {
	return p.Store.GetSimulation(ctx, id)
}

func (p *Panel) ListSimulations(ctx context.Context) ([]model.Simulation, error) {
	return p.Store.ListSimulations(ctx, "")
}

func (p *Panel) DeleteSimulation(ctx context.Context, id string) error {
	return p.Store.DeleteSimulation(ctx, id)
}

// RunSimulation generates one dialogue round and stores it. Nothing is
// stored when the LLM call fails.
func (p *Panel) RunSimulation(ctx context.Context, in SimulationInput) (*model.Simulation, error) {
	if p.LLM == nil {
		return nil, model.ErrLLMUnavailable
	}
	sc, participants, err := p.loadScene(ctx, in.ContextID, in.EntityIDs)
	if err != nil {
		return nil, err
	}

	req := dialogue.Request{Context: sc.Description, Participants: toParticipants(participants), Turns: in.NTurns}
	st, err := p.Simulator.Start(ctx, req)
	if err != nil {
		return nil, err
	}

	sim := p.newSimulation(sc.ID, in.EntityIDs, "", in.NTurns)
	sim.Content = st.Content
	sim.FinalTurnNumber = st.FinalTurnNumber
	sim.Metadata["rounds"] = 1

	if err := p.Store.CreateSimulation(ctx, sim); err != nil {
		return nil, fmt.Errorf("failed to save simulation: %w", err)
	}
	p.Logger.Info("Simulation completed",
		zap.String("simulation_id", sim.ID),
		zap.Int("turns", in.NTurns),
		zap.Int("final_turn", sim.FinalTurnNumber))

	p.recordInteraction(ctx, sim, participants)
	return sim, nil
}

// ContinueSimulation adds nTurns turns to a completed simulation, numbered
// after its current final turn. The stored simulation is unchanged on error.
func (p *Panel) ContinueSimulation(ctx context.Context, id string, nTurns int) (*model.Simulation, error) {
	if p.LLM == nil {
		return nil, model.ErrLLMUnavailable
	}
	sim, err := p.Store.GetSimulation(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sim.Succeeded() {
		return nil, fmt.Errorf("%w: simulation %s has status %s and cannot be continued", model.ErrInvalid, id, sim.Status)
	}
	sc, participants, err := p.loadScene(ctx, sim.ContextID, sim.EntityIDs)
	if err != nil {
		return nil, err
	}

	req := dialogue.Request{Context: sc.Description, Participants: toParticipants(participants), Turns: nTurns}
	prev := dialogue.State{Content: sim.Content, FinalTurnNumber: sim.FinalTurnNumber}
	st, err := p.Simulator.Continue(ctx, req, prev)
	if err != nil {
		return nil, err
	}

	sim.Content = st.Content
	sim.FinalTurnNumber = st.FinalTurnNumber
	sim.UpdatedAt = p.Now()
	if sim.Metadata == nil {
		sim.Metadata = map[string]any{}
	}
	sim.Metadata["rounds"] = metadataInt(sim.Metadata, "rounds") + 1
	sim.Metadata["continued_turns"] = metadataInt(sim.Metadata, "continued_turns") + nTurns

	if err := p.Store.UpdateSimulation(ctx, sim); err != nil {
		return nil, fmt.Errorf("failed to save simulation: %w", err)
	}
	p.Logger.Info("Simulation continued",
		zap.String("simulation_id", sim.ID),
		zap.Int("previous_final_turn", prev.FinalTurnNumber),
		zap.Int("final_turn", sim.FinalTurnNumber))

	p.recordContinuation(ctx, sim)
	return sim, nil
}

// RunUnifiedSimulation runs in.NRounds rounds and stores the simulation after
// every successful round. When a later round fails the simulation keeps the
// last good state and the error names it.
func (p *Panel) RunUnifiedSimulation(ctx context.Context, in UnifiedInput) (*model.Simulation, error) {
	if p.LLM == nil {
		return nil, model.ErrLLMUnavailable
	}
	if in.NRounds == 0 {
		in.NRounds = 1
	}
	if in.NRounds < 1 {
		return nil, fmt.Errorf("%w: n_rounds must be at least 1", model.ErrInvalid)
	}

	contextID := in.ContextID
	inlineContext := false
	if contextID == "" {
		if strings.TrimSpace(in.Context) == "" {
			return nil, fmt.Errorf("%w: context_id or context is required", model.ErrInvalid)
		}
		if in.NTurns < 1 {
			return nil, fmt.Errorf("%w: n_turns must be at least 1", model.ErrInvalid)
		}
		if _, err := p.loadEntities(ctx, in.EntityIDs); err != nil {
			return nil, err
		}
		c, err := p.CreateContext(ctx, &model.Context{Description: in.Context})
		if err != nil {
			return nil, err
		}
		contextID = c.ID
		inlineContext = true
	}

	sc, participants, err := p.loadScene(ctx, contextID, in.EntityIDs)
	if err != nil {
		return nil, err
	}

	sim := p.newSimulation(sc.ID, in.EntityIDs, "", in.NTurns)
	sim.Metadata["unified"] = true
	saved := false

	req := dialogue.Request{Context: sc.Description, Participants: toParticipants(participants), Turns: in.NTurns}
	_, err = p.Simulator.Run(ctx, req, in.NRounds, func(round int, st dialogue.State) error {
		sim.Content = st.Content
		sim.FinalTurnNumber = st.FinalTurnNumber
		sim.Metadata["rounds"] = round
		sim.UpdatedAt = p.Now()

		if !saved {
			if err := p.Store.CreateSimulation(ctx, sim); err != nil {
				return fmt.Errorf("failed to save simulation: %w", err)
			}
			saved = true
		} else if err := p.Store.UpdateSimulation(ctx, sim); err != nil {
			return fmt.Errorf("failed to save simulation: %w", err)
		}

		p.Logger.Debug("Unified simulation round saved",
			zap.String("simulation_id", sim.ID),
			zap.Int("round", round),
			zap.Int("final_turn", st.FinalTurnNumber))
		return nil
	})
	if err != nil {
		if saved {
			return sim, fmt.Errorf("simulation %s stopped after %v rounds: %w", sim.ID, sim.Metadata["rounds"], err)
		}
		if inlineContext {
			if delErr := p.Store.DeleteContext(context.WithoutCancel(ctx), contextID); delErr != nil {
				p.Logger.Warn("Failed to remove unused context", zap.String("context_id", contextID), zap.Error(delErr))
			}
		}
		return nil, err
	}

	p.Logger.Info("Unified simulation completed",
		zap.String("simulation_id", sim.ID),
		zap.Int("rounds", in.NRounds),
		zap.Int("final_turn", sim.FinalTurnNumber))

	p.recordInteraction(ctx, sim, participants)
	return sim, nil
}

// ExportSimulation renders a stored simulation together with its context and
// the participants that still exist.
func (p *Panel) ExportSimulation(ctx context.Context, id string, format export.Format) ([]byte, error) {
	sim, err := p.Store.GetSimulation(ctx, id)
	if err != nil {
		return nil, err
	}

	bundle := export.Bundle{Simulation: sim}
	if sim.ContextID != "" {
		c, err := p.Store.GetContext(ctx, sim.ContextID)
		switch {
		case err == nil:
			bundle.Context = c
		case !errors.Is(err, model.ErrNotFound):
			return nil, err
		}
	}
	for _, eid := range sim.EntityIDs {
		e, err := p.Store.GetEntity(ctx, eid)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		bundle.Participants = append(bundle.Participants, *e)
	}

	return export.Render(bundle, format)
}

// loadScene resolves a context and the entities in the order given. A
// missing context or entity is reported as not found.
func (p *Panel) loadScene(ctx context.Context, contextID string, entityIDs []string) (*model.Context, []model.Entity, error) {
	if contextID == "" {
		return nil, nil, fmt.Errorf("%w: context_id is required", model.ErrInvalid)
	}
	entities, err := p.loadEntities(ctx, entityIDs)
	if err != nil {
		return nil, nil, err
	}
	c, err := p.Store.GetContext(ctx, contextID)
	if err != nil {
		return nil, nil, fmt.Errorf("context %s: %w", contextID, err)
	}
	return c, entities, nil
}

func (p *Panel) loadEntities(ctx context.Context, entityIDs []string) ([]model.Entity, error) {
	if len(entityIDs) == 0 {
		return nil, fmt.Errorf("%w: entity_ids must not be empty", model.ErrInvalid)
	}
	seen := make(map[string]bool, len(entityIDs))
	entities := make([]model.Entity, 0, len(entityIDs))
	for _, id := range entityIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: entity %s listed twice", model.ErrInvalid, id)
		}
		seen[id] = true
		e, err := p.Store.GetEntity(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("entity %s: %w", id, err)
		}
		entities = append(entities, *e)
	}
	return entities, nil
}

func (p *Panel) newSimulation(contextID string, entityIDs []string, batchID string, nTurns int) *model.Simulation {
	now := p.Now()
	return &model.Simulation{
		ID:        p.UUIDGenerator(),
		ContextID: contextID,
		EntityIDs: append([]string(nil), entityIDs...),
		Status:    model.SimulationCompleted,
		BatchID:   batchID,
		Metadata: map[string]any{
			"n_turns":  nTurns,
			"provider": p.Provider,
			"model":    p.Model,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func toParticipants(entities []model.Entity) []model.Participant {
	out := make([]model.Participant, len(entities))
	for i, e := range entities {
		out[i] = model.ParticipantFrom(e)
	}
	return out
}

// metadataInt reads a counter that may have round-tripped through JSON.
func metadataInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
