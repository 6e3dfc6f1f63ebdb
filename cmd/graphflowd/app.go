package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/dshills/graphflow/graph"
	"github.com/dshills/graphflow/graph/emit"
	"github.com/dshills/graphflow/graph/model"
	"github.com/dshills/graphflow/graph/model/anthropic"
	"github.com/dshills/graphflow/graph/model/google"
	"github.com/dshills/graphflow/graph/model/openai"
	"github.com/dshills/graphflow/graph/store"
	"github.com/dshills/graphflow/graph/tool"
	"github.com/dshills/graphflow/internal/codereview"
	"github.com/dshills/graphflow/internal/config"
	"github.com/dshills/graphflow/internal/httpapi"
	"github.com/dshills/graphflow/internal/service"
)

// Names of the tools registered next to the code review tools.
const (
	toolHTTPRequest = "http_request"
	toolLLMReview   = "llm_review"
)

// app holds everything the server needs and owns its shutdown.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	tools   *tool.Registry
	store   store.Store
	svc     *service.Service
	handler http.Handler
	closers []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	tools, err := newRegistry(cfg.LLM)
	if err != nil {
		return nil, err
	}
	a.tools = tools

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, func(context.Context) error { return st.Close() })

	emitters := []emit.Emitter{emit.NewLogEmitter(logger.With().Str("component", "engine").Logger())}
	if cfg.Tracing.Enabled {
		otelEmitter, shutdown := newTracing(cfg.Tracing, logger)
		emitters = append(emitters, otelEmitter)
		a.closers = append(a.closers, shutdown)
	}

	opts := []graph.Option{
		graph.WithEmitter(emit.NewMultiEmitter(emitters...)),
		graph.WithMaxSteps(cfg.Engine.MaxSteps),
		graph.WithNodeTimeout(cfg.Engine.NodeTimeout),
	}

	apiOpts := httpapi.Options{MetricsPath: cfg.Metrics.Path}
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, graph.WithMetrics(graph.NewPrometheusMetrics(registry)))
		apiOpts.Gatherer = registry
	}

	a.svc = service.New(tools, st, logger, opts...)
	if err := a.preload(cfg.Graphs); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.handler = httpapi.New(a.svc, logger, apiOpts).Handler()
	return a, nil
}

func (a *app) preload(cfg config.GraphsConfig) error {
	if cfg.PreloadExample {
		if err := a.svc.RegisterGraph(codereview.GraphID, codereview.Definition()); err != nil {
			return err
		}
	}
	for _, path := range cfg.Definitions {
		id, def, err := graph.LoadDefinitionFile(path)
		if err != nil {
			return err
		}
		if err := a.svc.RegisterGraph(id, def); err != nil {
			return fmt.Errorf("register %s: %w", path, err)
		}
	}
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newRegistry(cfg config.LLMConfig) (*tool.Registry, error) {
	reg := tool.NewRegistry()
	codereview.Register(reg)
	reg.MustRegister(toolHTTPRequest, tool.NewHTTPTool())

	if cfg.Provider == "" || cfg.APIKey == "" {
		return reg, nil
	}
	m, err := newChatModel(cfg)
	if err != nil {
		return nil, err
	}
	reg.MustRegister(toolLLMReview, tool.NewLLMTool(m))
	return reg, nil
}

func newChatModel(cfg config.LLMConfig) (model.ChatModel, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewChatModel(cfg.APIKey, cfg.Model)
	case config.ProviderOpenAI:
		return openai.NewChatModel(cfg.APIKey, cfg.Model)
	case config.ProviderGoogle:
		return google.NewChatModel(cfg.APIKey, cfg.Model)
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		return store.NewMemStore(), nil
	case config.StoreSQLite:
		return store.NewSQLiteStore(cfg.DSN)
	case config.StoreMySQL:
		return store.NewMySQLStore(ctx, cfg.DSN)
	case config.StoreRedis:
		return store.NewRedisStore(ctx, cfg.DSN, store.RedisOptions{Prefix: cfg.Prefix, TTL: cfg.TTL})
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
