package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "json", cfg.Storage.Backend)
	assert.Equal(t, ".stagegate", cfg.Storage.Dir)
	assert.Equal(t, 3, cfg.Revision.MaxCycles)
	assert.True(t, cfg.Revision.AutoApproveAfterMax)
	require.Len(t, cfg.Stages, 6)
	assert.Equal(t, "requirements", cfg.Stages[0].Name)
	assert.Equal(t, "implementation plan", cfg.Stages[5].Name)
	assert.True(t, cfg.Stages[4].Tickets)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxCycles, cfg.Revision.MaxCycles)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stagegate.yaml")
	content := `
project: Recipe App
idea: a smart recipe manager
storage:
  backend: sqlite
  dir: /tmp/state
revision:
  max_cycles: 2
  auto_approve_after_max: false
producers:
  writer:
    command: llm
    args: ["--model", "large"]
    timeout: 10m
stages:
  - name: prd
    producer: writer
    artifact_type: prd document
    task: "Write a PRD for {idea}"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Recipe App", cfg.Project)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 2, cfg.Revision.MaxCycles)
	assert.False(t, cfg.Revision.AutoApproveAfterMax)

	require.Len(t, cfg.Stages, 1)
	assert.Equal(t, "prd", cfg.Stages[0].Name)

	p := cfg.Producers["writer"]
	assert.Equal(t, "llm", p.Command)
	assert.Equal(t, []string{"--model", "large"}, p.Args)
	d, err := p.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, d)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("STAGEGATE_STORAGE_DIR", "/tmp/override")
	t.Setenv("STAGEGATE_MAX_CYCLES", "5")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/override", cfg.Storage.Dir)
	assert.Equal(t, 5, cfg.Revision.MaxCycles)
}

func TestValidateConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, validateConfig(cfg))

	cfg.Revision.MaxCycles = 0
	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_cycles")

	cfg = DefaultConfig()
	cfg.Storage.Backend = "bolt"
	err = validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")

	cfg = DefaultConfig()
	cfg.Stages = append(cfg.Stages, StageConfig{Name: "prd", Producer: "default"})
	err = validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate stage name")

	cfg = DefaultConfig()
	cfg.Producers = map[string]ProducerConfig{"writer": {Command: "llm"}}
	err = validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not defined in producers")

	cfg = DefaultConfig()
	cfg.Producers = map[string]ProducerConfig{"default": {Command: "llm", Timeout: "soon"}}
	err = validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
