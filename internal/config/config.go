// Package config loads graphflowd settings from a YAML file, a .env file
// and GRAPHFLOW_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v2"

	"github.com/dshills/graphflow/internal/logger"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMySQL  = "mysql"
	StoreRedis  = "redis"
)

// LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     logger.Config `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	LLM     LLMConfig     `yaml:"llm"`
	Graphs  GraphsConfig  `yaml:"graphs"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects the run store backend.
type StoreConfig struct {
	// Driver is memory, sqlite, mysql or redis.
	Driver string `yaml:"driver"`
	// DSN is the sqlite path, the MySQL DSN or the redis:// URL.
	DSN string `yaml:"dsn"`
	// Prefix namespaces Redis keys; empty uses the store default.
	Prefix string `yaml:"prefix"`
	// TTL expires Redis records; zero keeps them.
	TTL time.Duration `yaml:"ttl"`
}

// EngineConfig holds options applied to every workflow.
type EngineConfig struct {
	// MaxSteps bounds a run; zero is unbounded.
	MaxSteps int `yaml:"max_steps"`
	// NodeTimeout bounds one tool call; zero is unbounded.
	NodeTimeout time.Duration `yaml:"node_timeout"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig toggles OpenTelemetry spans.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// LLMConfig configures the optional llm_review tool. It is registered only
// when Provider and APIKey are both set.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// GraphsConfig controls which graphs exist at startup.
type GraphsConfig struct {
	// PreloadExample registers code_review_example.
	PreloadExample bool `yaml:"preload_example"`
	// Definitions are YAML or JSON definition files, registered under their
	// base name.
	Definitions []string `yaml:"definitions"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:     logger.Config{Level: "info", Format: "json", Output: "stdout"},
		Store:   StoreConfig{Driver: StoreMemory},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Tracing: TracingConfig{ServiceName: "graphflowd"},
		Graphs:  GraphsConfig{PreloadExample: true},
	}
}

// Load builds a Config from defaults, the optional YAML file at path, the
// optional .env file at envFile and the process environment. Empty paths
// are skipped; a missing .env file is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("GRAPHFLOW_ADDR", &c.Server.Addr)
	str("GRAPHFLOW_LOG_LEVEL", &c.Log.Level)
	str("GRAPHFLOW_LOG_FORMAT", &c.Log.Format)
	str("GRAPHFLOW_LOG_OUTPUT", &c.Log.Output)
	str("GRAPHFLOW_STORE_DRIVER", &c.Store.Driver)
	str("GRAPHFLOW_STORE_DSN", &c.Store.DSN)
	str("GRAPHFLOW_STORE_PREFIX", &c.Store.Prefix)
	duration("GRAPHFLOW_STORE_TTL", &c.Store.TTL)
	integer("GRAPHFLOW_MAX_STEPS", &c.Engine.MaxSteps)
	duration("GRAPHFLOW_NODE_TIMEOUT", &c.Engine.NodeTimeout)
	boolean("GRAPHFLOW_METRICS_ENABLED", &c.Metrics.Enabled)
	boolean("GRAPHFLOW_TRACING_ENABLED", &c.Tracing.Enabled)
	str("GRAPHFLOW_LLM_PROVIDER", &c.LLM.Provider)
	str("GRAPHFLOW_LLM_API_KEY", &c.LLM.APIKey)
	str("GRAPHFLOW_LLM_MODEL", &c.LLM.Model)
	boolean("GRAPHFLOW_PRELOAD_EXAMPLE", &c.Graphs.PreloadExample)
	if v, ok := lookup("GRAPHFLOW_DEFINITIONS"); ok {
		c.Graphs.Definitions = splitList(v)
	}

	// Provider-native key variables fill in an unset API key.
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case ProviderAnthropic:
			str("ANTHROPIC_API_KEY", &c.LLM.APIKey)
		case ProviderOpenAI:
			str("OPENAI_API_KEY", &c.LLM.APIKey)
		case ProviderGoogle:
			str("GOOGLE_API_KEY", &c.LLM.APIKey)
		}
	}

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports settings that cannot be served.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite, StoreMySQL, StoreRedis:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for driver %s", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Engine.MaxSteps < 0 {
		errs = append(errs, errors.New("engine.max_steps must be >= 0"))
	}
	if c.Engine.NodeTimeout < 0 {
		errs = append(errs, errors.New("engine.node_timeout must be >= 0"))
	}
	switch c.LLM.Provider {
	case "", ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, errors.New("metrics.path must start with /"))
	}
	return errors.Join(errs...)
}

// LLMEnabled reports whether the llm_review tool should be registered.
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != "" && c.LLM.APIKey != ""
}
