package statestore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCheckpointer persists snapshots to a durable SQLite database
// through the same Save/Load/List/Exists shape used for execution
// snapshots. It is optional: the in-memory Store is authoritative while
// the process is alive; this exists so state survives a restart.
type SQLiteCheckpointer struct {
	db *sql.DB
}

// OpenSQLiteCheckpointer opens (creating if needed) a checkpoint database
// at path and ensures its schema exists.
func OpenSQLiteCheckpointer(path string) (*SQLiteCheckpointer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("statestore: open sqlite: %w", err)
	}
	schema := `CREATE TABLE IF NOT EXISTS checkpoints (
		execution_id TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		snapshot_json TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("statestore: create schema: %w", err)
	}
	return &SQLiteCheckpointer{db: db}, nil
}

// Close closes the underlying database handle.
func (c *SQLiteCheckpointer) Close() error {
	return c.db.Close()
}

// Save writes a snapshot, overwriting any prior checkpoint for the same
// execution_id. Idempotent: saving the same version twice is a no-op
// beyond the timestamp update.
func (c *SQLiteCheckpointer) Save(snap Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("statestore: marshal snapshot: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT INTO checkpoints (execution_id, version, snapshot_json) VALUES (?, ?, ?)
		 ON CONFLICT(execution_id) DO UPDATE SET version=excluded.version, snapshot_json=excluded.snapshot_json, updated_at=datetime('now')`,
		snap.ExecutionID, snap.Version, string(body),
	)
	if err != nil {
		return fmt.Errorf("statestore: save checkpoint: %w", err)
	}
	return nil
}

// Load reads back the most recent checkpoint for an execution.
func (c *SQLiteCheckpointer) Load(executionID string) (Snapshot, bool, error) {
	row := c.db.QueryRow(`SELECT snapshot_json FROM checkpoints WHERE execution_id = ?`, executionID)
	var body string
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("statestore: load checkpoint: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("statestore: unmarshal checkpoint: %w", err)
	}
	return snap, true, nil
}

// List returns every execution_id with a saved checkpoint.
func (c *SQLiteCheckpointer) List() ([]string, error) {
	rows, err := c.db.Query(`SELECT execution_id FROM checkpoints ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("statestore: list checkpoints: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("statestore: scan checkpoint row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists reports whether a checkpoint exists for an execution.
func (c *SQLiteCheckpointer) Exists(executionID string) (bool, error) {
	row := c.db.QueryRow(`SELECT 1 FROM checkpoints WHERE execution_id = ?`, executionID)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("statestore: check checkpoint existence: %w", err)
	}
	return true, nil
}
