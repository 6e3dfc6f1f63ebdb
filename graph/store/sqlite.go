package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a single-file SQLite backend built on the pure-Go
// modernc.org/sqlite driver.
//
// Example:
//
//	st, err := store.NewSQLiteStore("./graphflow.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
type SQLiteStore struct {
	sqlStore
	path string
}

var sqliteDialect = sqlDialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS graphflow_runs (
			run_id TEXT PRIMARY KEY,
			graph_id TEXT NOT NULL,
			status TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_graph_id ON graphflow_runs(graph_id)`,
		`CREATE TABLE IF NOT EXISTS graphflow_steps (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			node_id TEXT NOT NULL,
			state TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, step)
		)`,
	},
	upsertRun: `INSERT INTO graphflow_runs (run_id, graph_id, status, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			graph_id = excluded.graph_id,
			status = excluded.status,
			data = excluded.data,
			updated_at = excluded.updated_at`,
	upsertStep: `INSERT INTO graphflow_steps (run_id, step, node_id, state, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, step) DO UPDATE SET
			node_id = excluded.node_id,
			state = excluded.state,
			created_at = excluded.created_at`,
}

// NewSQLiteStore opens (creating if needed) the database at path and
// applies the schema. ":memory:" gives a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	st := &SQLiteStore{
		sqlStore: sqlStore{db: db, dialect: sqliteDialect},
		path:     path,
	}
	if err := st.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}
