package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dipeo/execengine/pkg/types"
)

// SQLite is a DiagramRepositoryPort backed by a durable database, grounded
// on the same schema-on-open/upsert pattern as the engine's checkpoint
// store, generalized from execution snapshots to diagram definitions.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) a diagram database at path and
// ensures its schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open sqlite: %w", err)
	}
	schema := `CREATE TABLE IF NOT EXISTS diagrams (
		name TEXT PRIMARY KEY,
		diagram_json TEXT NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: create schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context, name string) (types.Diagram, error) {
	row := s.db.QueryRowContext(ctx, `SELECT diagram_json FROM diagrams WHERE name = ?`, name)
	var body string
	if err := row.Scan(&body); err != nil {
		if err == sql.ErrNoRows {
			return types.Diagram{}, fmt.Errorf("repository: diagram %q not found", name)
		}
		return types.Diagram{}, fmt.Errorf("repository: load %q: %w", name, err)
	}
	var d types.Diagram
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return types.Diagram{}, fmt.Errorf("repository: unmarshal %q: %w", name, err)
	}
	return d, nil
}

func (s *SQLite) Save(ctx context.Context, name string, d types.Diagram) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("repository: marshal %q: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO diagrams (name, diagram_json) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET diagram_json=excluded.diagram_json, updated_at=datetime('now')`,
		name, string(body),
	)
	if err != nil {
		return fmt.Errorf("repository: save %q: %w", name, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM diagrams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("repository: list diagrams: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("repository: scan diagram row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diagrams WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("repository: delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: delete %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("repository: diagram %q not found", name)
	}
	return nil
}
