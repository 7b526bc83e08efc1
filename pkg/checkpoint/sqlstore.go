// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "postgres" driver used by SQLStore.
	_ "github.com/lib/pq"

	"github.com/kpekel-oss/dagflow/pkg/workflow"
)

const createCheckpointsTableSQL = `
CREATE TABLE IF NOT EXISTS checkpoints (
    workflow_id VARCHAR(255) NOT NULL,
    id          VARCHAR(255) NOT NULL,
    layer       INTEGER NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    envelope    JSONB NOT NULL,
    PRIMARY KEY (workflow_id, id)
);

CREATE INDEX IF NOT EXISTS idx_checkpoints_workflow_created ON checkpoints(workflow_id, created_at);
`

// SQLStore is a Postgres-backed Store, schema-per-table in the style of the
// ratelimit package's SQL store: one table, keyed by the identifiers the
// domain actually needs (here (workflow_id, id) rather than a generic scope
// column, since checkpoints have no scope dimension).
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (and migrates) a Postgres-backed checkpoint store.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("checkpoint: database connection is required")
	}
	s := &SQLStore{db: db}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, createCheckpointsTableSQL); err != nil {
		return nil, fmt.Errorf("checkpoint: failed to initialize schema: %w", err)
	}
	return s, nil
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, cp workflow.Checkpoint) error {
	data, err := serialize(cp)
	if err != nil {
		return fmt.Errorf("checkpoint: serialize: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (workflow_id, id, layer, created_at, envelope)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workflow_id, id) DO UPDATE
			SET layer = EXCLUDED.layer, created_at = EXCLUDED.created_at, envelope = EXCLUDED.envelope
	`, cp.WorkflowID, cp.ID, cp.Layer, cp.Timestamp, data)
	if err != nil {
		return fmt.Errorf("checkpoint: save: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *SQLStore) Load(ctx context.Context, workflowID, id string) (workflow.Checkpoint, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT envelope FROM checkpoints WHERE workflow_id = $1 AND id = $2`,
		workflowID, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return workflow.Checkpoint{}, &NotFoundError{WorkflowID: workflowID, ID: id}
	}
	if err != nil {
		return workflow.Checkpoint{}, fmt.Errorf("checkpoint: load: %w", err)
	}
	return deserialize(id, data)
}

// List implements Store.
func (s *SQLStore) List(ctx context.Context, workflowID string) ([]workflow.Checkpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, envelope FROM checkpoints WHERE workflow_id = $1 ORDER BY created_at ASC`,
		workflowID,
	)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list: %w", err)
	}
	defer rows.Close()

	var out []workflow.Checkpoint
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("checkpoint: list scan: %w", err)
		}
		cp, err := deserialize(id, data)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// Prune implements Store.
func (s *SQLStore) Prune(ctx context.Context, workflowID string, retention Config) (int, error) {
	var removed int

	if maxAge := retention.MaxAge(); maxAge > 0 {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM checkpoints WHERE workflow_id = $1 AND created_at < $2`,
			workflowID, time.Now().Add(-maxAge),
		)
		if err != nil {
			return removed, fmt.Errorf("checkpoint: prune by age: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}

	if retention.MaxPerWorkflow > 0 {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM checkpoints
			WHERE workflow_id = $1 AND id NOT IN (
				SELECT id FROM checkpoints
				WHERE workflow_id = $1
				ORDER BY created_at DESC
				LIMIT $2
			)
		`, workflowID, retention.MaxPerWorkflow)
		if err != nil {
			return removed, fmt.Errorf("checkpoint: prune by count: %w", err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}

	return removed, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ Store = (*SQLStore)(nil)
