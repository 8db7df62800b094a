package core

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/core/model"
	"github.com/agenthands/personapanel/internal/driver"
)

// Partner is an entity that has shared at least one simulation with another.
type Partner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// recordInteraction mirrors a newly completed simulation into the interaction
// graph and counts one interaction per participant pair. Graph errors are
// logged only.
func (p *Panel) recordInteraction(ctx context.Context, sim *model.Simulation, participants []model.Entity) {
	if p.Graph == nil {
		return
	}
	log := p.Logger.With(zap.String("simulation_id", sim.ID))

	for _, e := range participants {
		_, err := p.Graph.ExecuteQuery(ctx, driver.SaveEntityQuery, map[string]any{
			"id":             e.ID,
			"name":           e.Name,
			"entity_type_id": e.EntityTypeID,
		})
		if err != nil {
			log.Warn("Failed to mirror entity", zap.String("entity_id", e.ID), zap.Error(err))
			return
		}
	}

	if err := p.mirrorSimulation(ctx, sim); err != nil {
		log.Warn("Failed to mirror simulation", zap.Error(err))
		return
	}

	ids := make([]string, len(participants))
	for i, e := range participants {
		ids[i] = e.ID
		_, err := p.Graph.ExecuteQuery(ctx, driver.SaveParticipationQuery, map[string]any{
			"entity_id":     e.ID,
			"simulation_id": sim.ID,
		})
		if err != nil {
			log.Warn("Failed to mirror participation", zap.String("entity_id", e.ID), zap.Error(err))
		}
	}

	sort.Strings(ids)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			_, err := p.Graph.ExecuteQuery(ctx, driver.SaveInteractionQuery, map[string]any{
				"source_id": ids[i],
				"target_id": ids[j],
			})
			if err != nil {
				log.Warn("Failed to mirror interaction",
					zap.String("source_id", ids[i]),
					zap.String("target_id", ids[j]),
					zap.Error(err))
			}
		}
	}
}

// recordContinuation refreshes an already mirrored simulation after it was
// continued. Pair counts are per simulation, so they are left alone.
func (p *Panel) recordContinuation(ctx context.Context, sim *model.Simulation) {
	if p.Graph == nil {
		return
	}
	if err := p.mirrorSimulation(ctx, sim); err != nil {
		p.Logger.Warn("Failed to mirror simulation", zap.String("simulation_id", sim.ID), zap.Error(err))
	}
}

func (p *Panel) mirrorSimulation(ctx context.Context, sim *model.Simulation) error {
	_, err := p.Graph.ExecuteQuery(ctx, driver.SaveSimulationQuery, map[string]any{
		"id":                sim.ID,
		"context_id":        sim.ContextID,
		"final_turn_number": int64(sim.FinalTurnNumber),
		"batch_id":          sim.BatchID,
		"created_at":        sim.CreatedAt.Format(time.RFC3339),
	})
	return err
}

// InteractionPartners lists the entities that have shared simulations with
// entityID, most frequent first.
func (p *Panel) InteractionPartners(ctx context.Context, entityID string) ([]Partner, error) {
	if p.Graph == nil {
		return nil, model.ErrGraphDisabled
	}
	if _, err := p.Store.GetEntity(ctx, entityID); err != nil {
		return nil, err
	}

	res, err := p.Graph.ExecuteQuery(ctx, driver.InteractionPartnersQuery, map[string]any{"id": entityID})
	if err != nil {
		return nil, err
	}

	partners := make([]Partner, 0, len(res.Records))
	for _, rec := range res.Records {
		var partner Partner
		if v, ok := rec.Get("id"); ok {
			partner.ID, _ = v.(string)
		}
		if v, ok := rec.Get("name"); ok {
			partner.Name, _ = v.(string)
		}
		if v, ok := rec.Get("count"); ok {
			partner.Count, _ = v.(int64)
		}
		partners = append(partners, partner)
	}
	return partners, nil
}
