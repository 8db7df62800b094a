package sqlite

import (
	"context"
	"fmt"
)

const schemaV1 = `
CREATE TABLE IF NOT EXISTS entity_types (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT DEFAULT '',
	dimensions  TEXT DEFAULT '[]',  -- JSON array of dimensions
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

-- entity_type_id is a weak reference: deleting a type keeps its entities
CREATE TABLE IF NOT EXISTS entities (
	id             TEXT PRIMARY KEY,
	entity_type_id TEXT NOT NULL,
	name           TEXT NOT NULL,
	attributes     TEXT DEFAULT '{}',
	description    TEXT DEFAULT '',
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contexts (
	id          TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	metadata    TEXT DEFAULT '{}',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS batch_simulations (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	description      TEXT DEFAULT '',
	context_id       TEXT NOT NULL,
	entity_ids       TEXT DEFAULT '[]',
	interaction_size INTEGER NOT NULL,
	num_simulations  INTEGER NOT NULL,
	n_turns          INTEGER NOT NULL,
	status           TEXT NOT NULL,
	metadata         TEXT DEFAULT '{}',
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS simulations (
	id                TEXT PRIMARY KEY,
	context_id        TEXT NOT NULL,
	entity_ids        TEXT NOT NULL,
	content           TEXT DEFAULT '',
	final_turn_number INTEGER DEFAULT 0,
	status            TEXT NOT NULL,
	error             TEXT DEFAULT '',
	batch_id          TEXT REFERENCES batch_simulations(id) ON DELETE CASCADE,
	metadata          TEXT DEFAULT '{}',
	created_at        TEXT NOT NULL,
	updated_at        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entities_type ON entities (entity_type_id);
CREATE INDEX IF NOT EXISTS idx_simulations_batch ON simulations (batch_id);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
