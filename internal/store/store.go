// Package store defines the persistence contract for PersonaPanel.
package store

import (
	"context"

	"github.com/agenthands/personapanel/internal/core/model"
)

// Store persists every PersonaPanel record. Get, Update and Delete return
// model.ErrNotFound for unknown ids.
type Store interface {
	CreateEntityType(ctx context.Context, t *model.EntityType) error
	GetEntityType(ctx context.Context, id string) (*model.EntityType, error)
	ListEntityTypes(ctx context.Context) ([]model.EntityType, error)
	UpdateEntityType(ctx context.Context, t *model.EntityType) error
	DeleteEntityType(ctx context.Context, id string) error

	CreateEntity(ctx context.Context, e *model.Entity) error
	GetEntity(ctx context.Context, id string) (*model.Entity, error)
	// ListEntities returns all entities, or only those of entityTypeID when
	// it is non-empty.
	ListEntities(ctx context.Context, entityTypeID string) ([]model.Entity, error)
	UpdateEntity(ctx context.Context, e *model.Entity) error
	DeleteEntity(ctx context.Context, id string) error

	CreateContext(ctx context.Context, c *model.Context) error
	GetContext(ctx context.Context, id string) (*model.Context, error)
	ListContexts(ctx context.Context) ([]model.Context, error)
	UpdateContext(ctx context.Context, c *model.Context) error
	DeleteContext(ctx context.Context, id string) error

	CreateSimulation(ctx context.Context, s *model.Simulation) error
	GetSimulation(ctx context.Context, id string) (*model.Simulation, error)
	// ListSimulations returns all simulations, or only the children of
	// batchID when it is non-empty.
	ListSimulations(ctx context.Context, batchID string) ([]model.Simulation, error)
	UpdateSimulation(ctx context.Context, s *model.Simulation) error
	DeleteSimulation(ctx context.Context, id string) error

	CreateBatch(ctx context.Context, b *model.BatchSimulation) error
	GetBatch(ctx context.Context, id string) (*model.BatchSimulation, error)
	ListBatches(ctx context.Context) ([]model.BatchSimulation, error)
	UpdateBatchStatus(ctx context.Context, id string, status model.BatchStatus) error
	// DeleteBatch removes the batch and its child simulations.
	DeleteBatch(ctx context.Context, id string) error

	Close() error
}
