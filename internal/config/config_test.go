/*-------------------------------------------------------------------------
 *
 * config_test.go
 *    Tests for configuration loading
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/config/config_test.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != 8092 {
		t.Errorf("default port = %d, want 8092", cfg.Server.Port)
	}
	if cfg.Evaluation.Threshold != 0.7 {
		t.Errorf("default threshold = %f, want 0.7", cfg.Evaluation.Threshold)
	}
	if cfg.Drift.NormalThreshold != 0.7 || cfg.Drift.AnomalyThreshold != 0.5 {
		t.Errorf("unexpected drift defaults: %+v", cfg.Drift)
	}
	if cfg.Drift.MinCorpusSize != 5 {
		t.Errorf("min corpus size = %d, want 5", cfg.Drift.MinCorpusSize)
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	content := `
server:
  port: 9000
evaluation:
  threshold: 0.8
  execution_timeout: 5s
llm:
  model: gpt-4o
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Evaluation.Threshold != 0.8 {
		t.Errorf("threshold = %f, want 0.8", cfg.Evaluation.Threshold)
	}
	if cfg.Evaluation.ExecutionTimeout != 5*time.Second {
		t.Errorf("execution timeout = %s, want 5s", cfg.Evaluation.ExecutionTimeout)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("model = %s, want gpt-4o", cfg.LLM.Model)
	}
	/* Untouched sections keep their defaults */
	if cfg.Database.Port != 5432 {
		t.Errorf("database port = %d, want default 5432", cfg.Database.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("NEURONEVAL_DB_HOST", "db.internal")
	t.Setenv("NEURONEVAL_DB_PORT", "6432")
	t.Setenv("NEURONEVAL_THRESHOLD", "0.85")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Database.Host != "db.internal" {
		t.Errorf("host = %s, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Port != 6432 {
		t.Errorf("port = %d, want 6432", cfg.Database.Port)
	}
	if cfg.Evaluation.Threshold != 0.85 {
		t.Errorf("threshold = %f, want 0.85", cfg.Evaluation.Threshold)
	}
}

func TestLoadFromEnvIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("NEURONEVAL_DB_PORT", "not-a-port")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Database.Port != 5432 {
		t.Errorf("malformed port must keep the default, got %d", cfg.Database.Port)
	}
}

func TestLoadSchemaDescriptor(t *testing.T) {
	content := `{"users": {"id": "integer", "name": "text"}, "orders": {"id": "integer"}}`
	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write schema: %v", err)
	}

	schema, err := LoadSchemaDescriptor(path)
	if err != nil {
		t.Fatalf("LoadSchemaDescriptor() error = %v", err)
	}

	if len(schema) != 2 {
		t.Errorf("tables = %d, want 2", len(schema))
	}
	if schema["users"]["name"] != "text" {
		t.Errorf("unexpected column type: %v", schema["users"])
	}
}
