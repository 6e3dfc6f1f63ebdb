package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB backend for deployments that already run
// a database server.
//
// DSN format: user:password@tcp(host:3306)/dbname
type MySQLStore struct {
	sqlStore
}

var mysqlDialect = sqlDialect{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS graphflow_runs (
			run_id VARCHAR(64) NOT NULL PRIMARY KEY,
			graph_id VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL,
			data JSON NOT NULL,
			updated_at BIGINT NOT NULL,
			INDEX idx_runs_graph_id (graph_id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
		`CREATE TABLE IF NOT EXISTS graphflow_steps (
			run_id VARCHAR(64) NOT NULL,
			step INT NOT NULL,
			node_id VARCHAR(255) NOT NULL,
			state JSON NOT NULL,
			created_at BIGINT NOT NULL,
			PRIMARY KEY (run_id, step)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
	},
	upsertRun: `INSERT INTO graphflow_runs (run_id, graph_id, status, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			graph_id = VALUES(graph_id),
			status = VALUES(status),
			data = VALUES(data),
			updated_at = VALUES(updated_at)`,
	upsertStep: `INSERT INTO graphflow_steps (run_id, step, node_id, state, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			node_id = VALUES(node_id),
			state = VALUES(state),
			created_at = VALUES(created_at)`,
}

// NewMySQLStore connects to dsn, verifies the connection and applies the schema.
func NewMySQLStore(ctx context.Context, dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	st := &MySQLStore{sqlStore: sqlStore{db: db, dialect: mysqlDialect}}
	if err := st.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}
