package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 200, cfg.Engine.StepBudget)
	assert.Equal(t, 100, cfg.Engine.LoopCap)
	assert.Equal(t, "agentgraph.db", cfg.Database.DSN)
}

func TestLoadFromYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: 9090
engine:
  step_budget: 50
  search_timeout: 2s
llm:
  model: test-model
`), 0o644))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 50, cfg.Engine.StepBudget)
	assert.Equal(t, 2*time.Second, cfg.Engine.SearchTimeout)
	assert.Equal(t, "test-model", cfg.LLM.Model)
	// Untouched sections keep defaults.
	assert.Equal(t, 100, cfg.Engine.LoopCap)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 9090\n"), 0o644))

	t.Setenv("AGENTGRAPH_SERVER_HTTP_PORT", "7070")
	t.Setenv("AGENTGRAPH_ENGINE_STEP_BUDGET", "25")
	t.Setenv("AGENTGRAPH_LOG_DEVELOPMENT", "true")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.HTTPPort)
	assert.Equal(t, 25, cfg.Engine.StepBudget)
	assert.True(t, cfg.Log.Development)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("AGENTGRAPH_ENGINE_STEP_BUDGET", "-1")
	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step_budget")
}

func TestCustomValidator(t *testing.T) {
	_, err := NewLoader().WithValidator(func(c *Config) error {
		if c.LLM.APIKey == "" {
			return assert.AnError
		}
		return nil
	}).Load()
	require.Error(t, err)
}
