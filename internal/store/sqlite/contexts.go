package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agenthands/personapanel/internal/core/model"
)

const contextColumns = `id, description, metadata, created_at, updated_at`

func (c *Client) CreateContext(ctx context.Context, m *model.Context) error {
	meta, err := marshalJSON(m.Metadata, "metadata")
	if err != nil {
		return err
	}

	query := `INSERT INTO contexts (` + contextColumns + `) VALUES (?, ?, ?, ?, ?)`
	_, err = c.db.ExecContext(ctx, query,
		m.ID, m.Description, meta, formatTime(m.CreatedAt), formatTime(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting context: %w", err)
	}
	return nil
}

func (c *Client) GetContext(ctx context.Context, id string) (*model.Context, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+contextColumns+` FROM contexts WHERE id = ?`, id)
	m, err := scanContext(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("context", id)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) ListContexts(ctx context.Context) ([]model.Context, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+contextColumns+` FROM contexts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing contexts: %w", err)
	}
	defer rows.Close()

	contexts := []model.Context{}
	for rows.Next() {
		m, err := scanContext(rows)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating context rows: %w", err)
	}
	return contexts, nil
}

func (c *Client) UpdateContext(ctx context.Context, m *model.Context) error {
	meta, err := marshalJSON(m.Metadata, "metadata")
	if err != nil {
		return err
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE contexts SET description = ?, metadata = ?, updated_at = ? WHERE id = ?`,
		m.Description, meta, formatTime(m.UpdatedAt), m.ID)
	if err != nil {
		return fmt.Errorf("updating context: %w", err)
	}
	return checkAffected(res, "context", m.ID)
}

func (c *Client) DeleteContext(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM contexts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting context: %w", err)
	}
	return checkAffected(res, "context", id)
}

func scanContext(row rowScanner) (*model.Context, error) {
	var m model.Context
	var meta, created, updated string
	if err := row.Scan(&m.ID, &m.Description, &meta, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning context: %w", err)
	}
	if err := unmarshalJSON(meta, &m.Metadata, "metadata"); err != nil {
		return nil, err
	}
	var err error
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if m.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &m, nil
}
