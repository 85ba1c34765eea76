// Package config loads service configuration with the precedence
// defaults, then YAML file, then environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" env:"SERVER"`
	Engine    EngineConfig    `yaml:"engine" env:"ENGINE"`
	LLM       LLMConfig       `yaml:"llm" env:"LLM"`
	Retrieval RetrievalConfig `yaml:"retrieval" env:"RETRIEVAL"`
	Redis     RedisConfig     `yaml:"redis" env:"REDIS"`
	Database  DatabaseConfig  `yaml:"database" env:"DATABASE"`
	Log       LogConfig       `yaml:"log" env:"LOG"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// EngineConfig configures workflow execution.
type EngineConfig struct {
	// StepBudget caps node executions per run.
	StepBudget int `yaml:"step_budget" env:"STEP_BUDGET"`
	// LoopCap is the hard ceiling on loop iterations per loop node.
	LoopCap int `yaml:"loop_cap" env:"LOOP_CAP"`
	// SinkCapacity is the per-run event buffer size.
	SinkCapacity int `yaml:"sink_capacity" env:"SINK_CAPACITY"`
	// ToolTimeout bounds each tool invocation.
	ToolTimeout time.Duration `yaml:"tool_timeout" env:"TOOL_TIMEOUT"`
	// SearchTimeout bounds each knowledge search call.
	SearchTimeout time.Duration `yaml:"search_timeout" env:"SEARCH_TIMEOUT"`
}

// LLMConfig configures the completion backend.
type LLMConfig struct {
	BaseURL           string        `yaml:"base_url" env:"BASE_URL"`
	APIKey            string        `yaml:"api_key" env:"API_KEY"`
	Model             string        `yaml:"model" env:"MODEL"`
	Timeout           time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RequestsPerSecond float64       `yaml:"requests_per_second" env:"REQUESTS_PER_SECOND"`
	HistoryTokenLimit int           `yaml:"history_token_limit" env:"HISTORY_TOKEN_LIMIT"`
}

// RetrievalConfig configures the knowledge search backend.
type RetrievalConfig struct {
	BaseURL  string        `yaml:"base_url" env:"BASE_URL"`
	Timeout  time.Duration `yaml:"timeout" env:"TIMEOUT"`
	CacheTTL time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// RedisConfig configures the optional search result cache. An empty Addr
// disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

// DatabaseConfig configures the workflow definition store.
type DatabaseConfig struct {
	// DSN is the SQLite data source, e.g. "agentgraph.db" or ":memory:".
	DSN string `yaml:"dsn" env:"DSN"`
}

// LogConfig configures logging output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development" env:"DEVELOPMENT"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Engine: EngineConfig{
			StepBudget:    200,
			LoopCap:       100,
			SinkCapacity:  256,
			ToolTimeout:   30 * time.Second,
			SearchTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			BaseURL:           "https://api.openai.com/v1",
			Model:             "gpt-4o-mini",
			Timeout:           60 * time.Second,
			RequestsPerSecond: 5,
			HistoryTokenLimit: 4000,
		},
		Retrieval: RetrievalConfig{
			Timeout:  10 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Database: DatabaseConfig{DSN: "agentgraph.db"},
		Log:      LogConfig{Level: "info"},
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port %d", c.Server.HTTPPort)
	}
	if c.Engine.StepBudget <= 0 {
		return fmt.Errorf("step_budget must be positive, got %d", c.Engine.StepBudget)
	}
	if c.Engine.LoopCap <= 0 {
		return fmt.Errorf("loop_cap must be positive, got %d", c.Engine.LoopCap)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn must not be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
