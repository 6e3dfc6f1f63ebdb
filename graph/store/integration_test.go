package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Set GRAPHFLOW_TEST_MYSQL_DSN (user:pass@tcp(localhost:3306)/graphflow_test)
// to run against a live server.
func TestMySQLStore_Contract(t *testing.T) {
	dsn := os.Getenv("GRAPHFLOW_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("Skipping MySQL integration test: set GRAPHFLOW_TEST_MYSQL_DSN to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := NewMySQLStore(ctx, dsn)
	if err != nil {
		t.Fatalf("NewMySQLStore() error = %v", err)
	}
	defer func() { _ = st.Close() }()

	// Clear rows left by an earlier run of this test.
	for _, id := range []string{"run-1", "run-2"} {
		_, _ = st.db.ExecContext(ctx, "DELETE FROM graphflow_runs WHERE run_id = ?", id)
		_, _ = st.db.ExecContext(ctx, "DELETE FROM graphflow_steps WHERE run_id = ?", id)
	}
	runStoreContract(t, st)
}

// Set GRAPHFLOW_TEST_REDIS_URL (redis://localhost:6379/15) to run against a
// live server. Keys use a unique prefix per test run.
func TestRedisStore_Contract(t *testing.T) {
	url := os.Getenv("GRAPHFLOW_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis integration test: set GRAPHFLOW_TEST_REDIS_URL to run")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := NewRedisStore(ctx, url, RedisOptions{
		Prefix: "graphflow-test:" + uuid.NewString() + ":",
		TTL:    time.Minute,
	})
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer func() { _ = st.Close() }()

	runStoreContract(t, st)
}
