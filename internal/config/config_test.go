package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	require.Equal(t, ":8000", cfg.Server.Addr)
	require.Equal(t, StoreMemory, cfg.Store.Driver)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.True(t, cfg.Metrics.Enabled)
	require.False(t, cfg.Tracing.Enabled)
	require.True(t, cfg.Graphs.PreloadExample)
	require.Zero(t, cfg.Engine.MaxSteps)
	require.False(t, cfg.LLMEnabled())
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "graphflow.yaml", `
server:
  addr: "127.0.0.1:9000"
  shutdown_timeout: 3s
log:
  level: debug
  format: console
store:
  driver: sqlite
  dsn: /tmp/graphflow.db
engine:
  max_steps: 50
  node_timeout: 2s
metrics:
  enabled: false
graphs:
  preload_example: false
  definitions:
    - review.yaml
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	require.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)
	require.Equal(t, StoreSQLite, cfg.Store.Driver)
	require.Equal(t, "/tmp/graphflow.db", cfg.Store.DSN)
	require.Equal(t, 50, cfg.Engine.MaxSteps)
	require.Equal(t, 2*time.Second, cfg.Engine.NodeTimeout)
	require.False(t, cfg.Metrics.Enabled)
	require.False(t, cfg.Graphs.PreloadExample)
	require.Equal(t, []string{"review.yaml"}, cfg.Graphs.Definitions)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "graphflow.yaml", "server:\n  addr: \":9000\"\n")
	t.Setenv("GRAPHFLOW_ADDR", ":9100")
	t.Setenv("GRAPHFLOW_MAX_STEPS", "12")
	t.Setenv("GRAPHFLOW_TRACING_ENABLED", "true")
	t.Setenv("GRAPHFLOW_DEFINITIONS", "a.yaml, b.json,")
	t.Setenv("GRAPHFLOW_LLM_PROVIDER", ProviderOpenAI)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	require.Equal(t, ":9100", cfg.Server.Addr)
	require.Equal(t, 12, cfg.Engine.MaxSteps)
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, []string{"a.yaml", "b.json"}, cfg.Graphs.Definitions)
	require.Equal(t, "sk-test", cfg.LLM.APIKey)
	require.True(t, cfg.LLMEnabled())
}

func TestLoad_EnvFile(t *testing.T) {
	const key = "GRAPHFLOW_STORE_PREFIX"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	envFile := writeFile(t, ".env", key+"=from-dotenv\n")
	cfg, err := Load("", envFile)
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Store.Prefix)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
		require.Error(t, err)
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "server: ["), "")
		require.ErrorContains(t, err, "failed to parse YAML config")
	})
	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("GRAPHFLOW_MAX_STEPS", "many")
		_, err := Load("", "")
		require.ErrorContains(t, err, "GRAPHFLOW_MAX_STEPS")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"unknown driver", func(c *Config) { c.Store.Driver = "etcd" }, "unknown store.driver"},
		{"dsn required", func(c *Config) { c.Store.Driver = StoreRedis }, "store.dsn is required"},
		{"negative max steps", func(c *Config) { c.Engine.MaxSteps = -1 }, "max_steps"},
		{"negative timeout", func(c *Config) { c.Engine.NodeTimeout = -time.Second }, "node_timeout"},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "local" }, "llm.provider"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "metrics" }, "metrics.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
