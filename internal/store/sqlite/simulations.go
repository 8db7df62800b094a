package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agenthands/personapanel/internal/core/model"
)

const simulationColumns = `id, context_id, entity_ids, content, final_turn_number, status, error, batch_id, metadata, created_at, updated_at`

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (c *Client) CreateSimulation(ctx context.Context, s *model.Simulation) error {
	if err := s.Validate(); err != nil {
		return err
	}
	ids, err := marshalJSON(s.EntityIDs, "entity_ids")
	if err != nil {
		return err
	}
	meta, err := marshalJSON(s.Metadata, "metadata")
	if err != nil {
		return err
	}

	query := `INSERT INTO simulations (` + simulationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = c.db.ExecContext(ctx, query,
		s.ID, s.ContextID, ids, s.Content, s.FinalTurnNumber, string(s.Status), s.Error,
		nullable(s.BatchID), meta, formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting simulation: %w", err)
	}
	return nil
}

func (c *Client) GetSimulation(ctx context.Context, id string) (*model.Simulation, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+simulationColumns+` FROM simulations WHERE id = ?`, id)
	s, err := scanSimulation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("simulation", id)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Client) ListSimulations(ctx context.Context, batchID string) ([]model.Simulation, error) {
	query := `
	SELECT ` + simulationColumns + `
	FROM simulations
	WHERE (? = '' OR batch_id = ?)
	ORDER BY created_at, id
	`
	rows, err := c.db.QueryContext(ctx, query, batchID, batchID)
	if err != nil {
		return nil, fmt.Errorf("listing simulations: %w", err)
	}
	defer rows.Close()

	sims := []model.Simulation{}
	for rows.Next() {
		s, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		sims = append(sims, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating simulation rows: %w", err)
	}
	return sims, nil
}

func (c *Client) UpdateSimulation(ctx context.Context, s *model.Simulation) error {
	if err := s.Validate(); err != nil {
		return err
	}
	ids, err := marshalJSON(s.EntityIDs, "entity_ids")
	if err != nil {
		return err
	}
	meta, err := marshalJSON(s.Metadata, "metadata")
	if err != nil {
		return err
	}

	res, err := c.db.ExecContext(ctx, `
	UPDATE simulations SET
		context_id = ?,
		entity_ids = ?,
		content = ?,
		final_turn_number = ?,
		status = ?,
		error = ?,
		metadata = ?,
		updated_at = ?
	WHERE id = ?`,
		s.ContextID, ids, s.Content, s.FinalTurnNumber, string(s.Status), s.Error,
		meta, formatTime(s.UpdatedAt), s.ID)
	if err != nil {
		return fmt.Errorf("updating simulation: %w", err)
	}
	return checkAffected(res, "simulation", s.ID)
}

func (c *Client) DeleteSimulation(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting simulation: %w", err)
	}
	return checkAffected(res, "simulation", id)
}

func scanSimulation(row rowScanner) (*model.Simulation, error) {
	var s model.Simulation
	var ids, status, meta, created, updated string
	var batchID sql.NullString
	err := row.Scan(&s.ID, &s.ContextID, &ids, &s.Content, &s.FinalTurnNumber, &status, &s.Error,
		&batchID, &meta, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning simulation: %w", err)
	}
	s.Status = model.SimulationStatus(status)
	s.BatchID = batchID.String
	if err := unmarshalJSON(ids, &s.EntityIDs, "entity_ids"); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(meta, &s.Metadata, "metadata"); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &s, nil
}
