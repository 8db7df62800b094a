package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/core/dedupe"
	"github.com/agenthands/personapanel/internal/core/model"
	"github.com/agenthands/personapanel/internal/templates"
)

func (p *Panel) CreateEntityType(ctx context.Context, t *model.EntityType) (*model.EntityType, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	now := p.Now()
	t.ID = p.UUIDGenerator()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Dimensions == nil {
		t.Dimensions = []model.Dimension{}
	}

	if err := p.Store.CreateEntityType(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save entity type: %w", err)
	}
	p.Logger.Info("Entity type created", zap.String("entity_type_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

func (p *Panel) GetEntityType(ctx context.Context, id string) (*model.EntityType, error) {
	return p.Store.GetEntityType(ctx, id)
}

func (p *Panel) ListEntityTypes(ctx context.Context) ([]model.EntityType, error) {
	return p.Store.ListEntityTypes(ctx)
}

// UpdateEntityType replaces the name, description and dimensions of an
// existing type. Entities already created are left as they are.
func (p *Panel) UpdateEntityType(ctx context.Context, id string, in *model.EntityType) (*model.EntityType, error) {
	existing, err := p.Store.GetEntityType(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = in.Name
	existing.Description = in.Description
	existing.Dimensions = in.Dimensions
	if existing.Dimensions == nil {
		existing.Dimensions = []model.Dimension{}
	}
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	existing.UpdatedAt = p.Now()

	if err := p.Store.UpdateEntityType(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update entity type: %w", err)
	}
	return existing, nil
}

func (p *Panel) DeleteEntityType(ctx context.Context, id string) error {
	return p.Store.DeleteEntityType(ctx, id)
}

// CreateEntity stores a user-supplied entity. Its type must exist and its
// attributes must all match dimensions of that type.
func (p *Panel) CreateEntity(ctx context.Context, e *model.Entity) (*model.Entity, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	et, err := p.Store.GetEntityType(ctx, e.EntityTypeID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown entity type %q", model.ErrInvalid, e.EntityTypeID)
		}
		return nil, err
	}
	attrs, err := et.CoerceAttributes(e.Attributes, true)
	if err != nil {
		return nil, err
	}

	now := p.Now()
	e.ID = p.UUIDGenerator()
	e.Name = strings.TrimSpace(e.Name)
	e.Attributes = attrs
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := p.Store.CreateEntity(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save entity: %w", err)
	}
	return e, nil
}

func (p *Panel) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	return p.Store.GetEntity(ctx, id)
}

func (p *Panel) ListEntities(ctx context.Context, entityTypeID string) ([]model.Entity, error) {
	return p.Store.ListEntities(ctx, entityTypeID)
}

// UpdateEntity replaces name, description and attributes. The entity type is
// fixed at creation. Attributes are checked against the type while it still
// exists.
func (p *Panel) UpdateEntity(ctx context.Context, id string, in *model.Entity) (*model.Entity, error) {
	existing, err := p.Store.GetEntity(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = strings.TrimSpace(in.Name)
	existing.Description = in.Description
	existing.Attributes = in.Attributes
	if err := existing.Validate(); err != nil {
		return nil, err
	}

	et, err := p.Store.GetEntityType(ctx, existing.EntityTypeID)
	switch {
	case err == nil:
		attrs, err := et.CoerceAttributes(existing.Attributes, true)
		if err != nil {
			return nil, err
		}
		existing.Attributes = attrs
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}
	existing.UpdatedAt = p.Now()

	if err := p.Store.UpdateEntity(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update entity: %w", err)
	}
	return existing, nil
}

func (p *Panel) DeleteEntity(ctx context.Context, id string) error {
	return p.Store.DeleteEntity(ctx, id)
}

// GenerationResult reports a generate call that produced at least one entity.
type GenerationResult struct {
	Entities []model.Entity `json:"entities"`
	Failures []string       `json:"failures,omitempty"`
}

// GenerateEntities asks the LLM for count entities of the given type and
// saves them. Names are made unique within the type. Individual failures are
// reported in the result; an error is returned only when nothing was created.
func (p *Panel) GenerateEntities(ctx context.Context, entityTypeID string, count int, instructions string) (*GenerationResult, error) {
	if p.LLM == nil {
		return nil, model.ErrLLMUnavailable
	}
	et, err := p.Store.GetEntityType(ctx, entityTypeID)
	if err != nil {
		return nil, err
	}

	generated, failures, err := p.Generator.GenerateEntities(ctx, et, count, instructions, p.GenerationConcurrency)
	if err != nil {
		return nil, err
	}

	existing, err := p.Store.ListEntities(ctx, et.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(existing))
	for i, e := range existing {
		names[i] = e.Name
	}
	dedup := dedupe.NewDeduplicator(names)

	res := &GenerationResult{Entities: make([]model.Entity, 0, len(generated))}
	for _, f := range failures {
		res.Failures = append(res.Failures, f.Error())
	}

	for i := range generated {
		e := &generated[i]
		now := p.Now()
		e.ID = p.UUIDGenerator()
		e.Name = dedup.Claim(e.Name)
		e.CreatedAt = now
		e.UpdatedAt = now
		if err := p.Store.CreateEntity(ctx, e); err != nil {
			return nil, fmt.Errorf("failed to save generated entity: %w", err)
		}
		res.Entities = append(res.Entities, *e)
	}

	p.Logger.Info("Entities generated",
		zap.String("entity_type_id", et.ID),
		zap.Int("requested", count),
		zap.Int("created", len(res.Entities)),
		zap.Int("failed", len(res.Failures)))
	return res, nil
}

func (p *Panel) CreateContext(ctx context.Context, c *model.Context) (*model.Context, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	now := p.Now()
	c.ID = p.UUIDGenerator()
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := p.Store.CreateContext(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save context: %w", err)
	}
	return c, nil
}

func (p *Panel) GetContext(ctx context.Context, id string) (*model.Context, error) {
	return p.Store.GetContext(ctx, id)
}

func (p *Panel) ListContexts(ctx context.Context) ([]model.Context, error) {
	return p.Store.ListContexts(ctx)
}

func (p *Panel) UpdateContext(ctx context.Context, id string, in *model.Context) (*model.Context, error) {
	existing, err := p.Store.GetContext(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Description = in.Description
	existing.Metadata = in.Metadata
	if err := existing.Validate(); err != nil {
		return nil, err
	}
	existing.UpdatedAt = p.Now()

	if err := p.Store.UpdateContext(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update context: %w", err)
	}
	return existing, nil
}

func (p *Panel) DeleteContext(ctx context.Context, id string) error {
	return p.Store.DeleteContext(ctx, id)
}

func (p *Panel) ListTemplates() ([]model.Template, error) {
	return templates.All()
}

func (p *Panel) GetTemplate(id string) (*model.Template, error) {
	return templates.Get(id)
}

// InstantiateTemplate creates a new entity type from a built-in template. A
// non-empty name overrides the template's.
func (p *Panel) InstantiateTemplate(ctx context.Context, templateID, name string) (*model.EntityType, error) {
	tpl, err := templates.Get(templateID)
	if err != nil {
		return nil, err
	}
	et := tpl.EntityType()
	if name = strings.TrimSpace(name); name != "" {
		et.Name = name
	}
	return p.CreateEntityType(ctx, &et)
}
