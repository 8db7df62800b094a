package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agenthands/personapanel/internal/core/model"
)

const entityColumns = `id, entity_type_id, name, attributes, description, created_at, updated_at`

func (c *Client) CreateEntity(ctx context.Context, e *model.Entity) error {
	attrs, err := marshalJSON(e.Attributes, "attributes")
	if err != nil {
		return err
	}

	query := `INSERT INTO entities (` + entityColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = c.db.ExecContext(ctx, query,
		e.ID, e.EntityTypeID, e.Name, attrs, e.Description, formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting entity: %w", err)
	}
	return nil
}

func (c *Client) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = ?`, id)
	e, err := scanEntity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("entity", id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (c *Client) ListEntities(ctx context.Context, entityTypeID string) ([]model.Entity, error) {
	query := `
	SELECT ` + entityColumns + `
	FROM entities
	WHERE (? = '' OR entity_type_id = ?)
	ORDER BY created_at, id
	`
	rows, err := c.db.QueryContext(ctx, query, entityTypeID, entityTypeID)
	if err != nil {
		return nil, fmt.Errorf("listing entities: %w", err)
	}
	defer rows.Close()

	entities := []model.Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity rows: %w", err)
	}
	return entities, nil
}

func (c *Client) UpdateEntity(ctx context.Context, e *model.Entity) error {
	attrs, err := marshalJSON(e.Attributes, "attributes")
	if err != nil {
		return err
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE entities SET entity_type_id = ?, name = ?, attributes = ?, description = ?, updated_at = ? WHERE id = ?`,
		e.EntityTypeID, e.Name, attrs, e.Description, formatTime(e.UpdatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("updating entity: %w", err)
	}
	return checkAffected(res, "entity", e.ID)
}

func (c *Client) DeleteEntity(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entity: %w", err)
	}
	return checkAffected(res, "entity", id)
}

func scanEntity(row rowScanner) (*model.Entity, error) {
	var e model.Entity
	var attrs, created, updated string
	if err := row.Scan(&e.ID, &e.EntityTypeID, &e.Name, &attrs, &e.Description, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning entity: %w", err)
	}
	if err := unmarshalJSON(attrs, &e.Attributes, "attributes"); err != nil {
		return nil, err
	}
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
	var err error
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &e, nil
}
