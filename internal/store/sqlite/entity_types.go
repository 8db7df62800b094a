package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agenthands/personapanel/internal/core/model"
)

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %q", model.ErrNotFound, what, id)
}

const entityTypeColumns = `id, name, description, dimensions, created_at, updated_at`

func (c *Client) CreateEntityType(ctx context.Context, t *model.EntityType) error {
	dims, err := marshalJSON(t.Dimensions, "dimensions")
	if err != nil {
		return err
	}

	query := `INSERT INTO entity_types (` + entityTypeColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err = c.db.ExecContext(ctx, query,
		t.ID, t.Name, t.Description, dims, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting entity type: %w", err)
	}
	return nil
}

func (c *Client) GetEntityType(ctx context.Context, id string) (*model.EntityType, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+entityTypeColumns+` FROM entity_types WHERE id = ?`, id)
	t, err := scanEntityType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("entity type", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Client) ListEntityTypes(ctx context.Context) ([]model.EntityType, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+entityTypeColumns+` FROM entity_types ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing entity types: %w", err)
	}
	defer rows.Close()

	types := []model.EntityType{}
	for rows.Next() {
		t, err := scanEntityType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entity type rows: %w", err)
	}
	return types, nil
}

func (c *Client) UpdateEntityType(ctx context.Context, t *model.EntityType) error {
	dims, err := marshalJSON(t.Dimensions, "dimensions")
	if err != nil {
		return err
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE entity_types SET name = ?, description = ?, dimensions = ?, updated_at = ? WHERE id = ?`,
		t.Name, t.Description, dims, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("updating entity type: %w", err)
	}
	return checkAffected(res, "entity type", t.ID)
}

func (c *Client) DeleteEntityType(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM entity_types WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entity type: %w", err)
	}
	return checkAffected(res, "entity type", id)
}

func scanEntityType(row rowScanner) (*model.EntityType, error) {
	var t model.EntityType
	var dims, created, updated string
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &dims, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning entity type: %w", err)
	}
	if err := unmarshalJSON(dims, &t.Dimensions, "dimensions"); err != nil {
		return nil, err
	}
	if t.Dimensions == nil {
		t.Dimensions = []model.Dimension{}
	}
	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &t, nil
}
