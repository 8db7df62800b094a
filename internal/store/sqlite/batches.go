package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/agenthands/personapanel/internal/core/model"
)

const batchColumns = `id, name, description, context_id, entity_ids, interaction_size, num_simulations, n_turns, status, metadata, created_at, updated_at`

func (c *Client) CreateBatch(ctx context.Context, b *model.BatchSimulation) error {
	ids, err := marshalJSON(b.EntityIDs, "entity_ids")
	if err != nil {
		return err
	}
	meta, err := marshalJSON(b.Metadata, "metadata")
	if err != nil {
		return err
	}

	query := `INSERT INTO batch_simulations (` + batchColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = c.db.ExecContext(ctx, query,
		b.ID, b.Name, b.Description, b.ContextID, ids, b.InteractionSize, b.NumSimulations, b.NTurns,
		string(b.Status), meta, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting batch simulation: %w", err)
	}
	return nil
}

func (c *Client) GetBatch(ctx context.Context, id string) (*model.BatchSimulation, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batch_simulations WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("batch simulation", id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Client) ListBatches(ctx context.Context) ([]model.BatchSimulation, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT `+batchColumns+` FROM batch_simulations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing batch simulations: %w", err)
	}
	defer rows.Close()

	batches := []model.BatchSimulation{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch rows: %w", err)
	}
	return batches, nil
}

func (c *Client) UpdateBatchStatus(ctx context.Context, id string, status model.BatchStatus) error {
	res, err := c.db.ExecContext(ctx,
		`UPDATE batch_simulations SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating batch status: %w", err)
	}
	return checkAffected(res, "batch simulation", id)
}

func (c *Client) DeleteBatch(ctx context.Context, id string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM simulations WHERE batch_id = ?`, id); err != nil {
		return fmt.Errorf("deleting batch children: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM batch_simulations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting batch simulation: %w", err)
	}
	if err := checkAffected(res, "batch simulation", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch delete: %w", err)
	}
	return nil
}

func scanBatch(row rowScanner) (*model.BatchSimulation, error) {
	var b model.BatchSimulation
	var ids, status, meta, created, updated string
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.ContextID, &ids, &b.InteractionSize,
		&b.NumSimulations, &b.NTurns, &status, &meta, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning batch simulation: %w", err)
	}
	b.Status = model.BatchStatus(status)
	if err := unmarshalJSON(ids, &b.EntityIDs, "entity_ids"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(meta, &b.Metadata, "metadata"); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &b, nil
}
