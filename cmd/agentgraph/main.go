// Command agentgraph runs the workflow execution service: an HTTP API for
// authoring workflow graphs and executing them per chat turn, with live
// event streaming over websockets.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph"
	"github.com/cozelabs/agentgraph/api/handlers"
	"github.com/cozelabs/agentgraph/config"
	"github.com/cozelabs/agentgraph/engine"
	"github.com/cozelabs/agentgraph/internal/metrics"
	"github.com/cozelabs/agentgraph/internal/server"
	"github.com/cozelabs/agentgraph/llm"
	"github.com/cozelabs/agentgraph/retrieval"
	"github.com/cozelabs/agentgraph/store"
	"github.com/cozelabs/agentgraph/tools"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.NewLoader().WithConfigPath(*configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector("agentgraph", registry)

	completer := llm.NewClient(llm.ClientConfig{
		BaseURL:           cfg.LLM.BaseURL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		HistoryTokenLimit: cfg.LLM.HistoryTokenLimit,
	}, logger)

	searcher := buildSearcher(cfg, logger)
	toolRegistry := tools.NewRegistry(cfg.Engine.ToolTimeout, logger)

	eng := agentgraph.New(engine.Dependencies{
		Completer:     completer,
		Searcher:      searcher,
		Invoker:       toolRegistry,
		Logger:        logger,
		LoopCap:       cfg.Engine.LoopCap,
		SearchTimeout: cfg.Engine.SearchTimeout,
	},
		agentgraph.WithStepBudget(cfg.Engine.StepBudget),
		agentgraph.WithSinkCapacity(cfg.Engine.SinkCapacity),
		agentgraph.WithLogger(logger),
		agentgraph.WithMetrics(collector),
	)

	st, err := store.Open(cfg.Database.DSN, logger)
	if err != nil {
		return err
	}

	mux := handlers.NewRouter(
		handlers.NewWorkflowHandler(st, eng, logger),
		handlers.NewHealthHandler(version),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)

	manager := server.NewManager(mux, server.Config{
		Addr:            fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger)

	if err := manager.Start(); err != nil {
		return err
	}
	logger.Info("agentgraph started",
		zap.String("version", version),
		zap.Int("port", cfg.Server.HTTPPort))
	return manager.WaitForShutdown()
}

// buildSearcher wires the retrieval backend, wrapped with a Redis result
// cache when one is configured. No retrieval base URL means knowledge
// search degrades to empty results.
func buildSearcher(cfg *config.Config, logger *zap.Logger) retrieval.Searcher {
	if cfg.Retrieval.BaseURL == "" {
		return nil
	}
	var searcher retrieval.Searcher = retrieval.NewClient(retrieval.ClientConfig{
		BaseURL: cfg.Retrieval.BaseURL,
		Timeout: cfg.Retrieval.Timeout,
	}, logger)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		searcher = retrieval.NewCachedSearcher(searcher, rdb, retrieval.CacheConfig{
			TTL: cfg.Retrieval.CacheTTL,
		}, logger)
	}
	return searcher
}
