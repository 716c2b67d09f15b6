/*-------------------------------------------------------------------------
 *
 * config.go
 *    Configuration management for NeuronEval
 *
 * Provides configuration loading from YAML files and environment
 * variables with sensible defaults.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/internal/config/config.go
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	LLM        LLMConfig        `yaml:"llm"`
	Drift      DriftConfig      `yaml:"drift"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

type EvaluationConfig struct {
	/* PASS/FAIL cutoff on the weighted final score */
	Threshold float64 `yaml:"threshold"`

	/* Caller-level timeout wrapping a full evaluation */
	Timeout time.Duration `yaml:"timeout"`

	/* Per-statement execution limits */
	ExecutionTimeout time.Duration `yaml:"execution_timeout"`
	MaxRows          int           `yaml:"max_rows"`

	/* Confidence tier boundaries on GT-match similarity */
	HighConfidenceSimilarity   float64 `yaml:"high_confidence_similarity"`
	MediumConfidenceSimilarity float64 `yaml:"medium_confidence_similarity"`

	/* Persistence retry attempts before surfacing a failure */
	PersistRetries int `yaml:"persist_retries"`
}

type LLMConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
}

type DriftConfig struct {
	/* similarity >= NormalThreshold is normal traffic */
	NormalThreshold float64 `yaml:"normal_threshold"`
	/* similarity >= AnomalyThreshold (but below normal) is medium drift */
	AnomalyThreshold float64 `yaml:"anomaly_threshold"`
	/* Minimum corpus size for a baseline rebuild */
	MinCorpusSize int `yaml:"min_corpus_size"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

/* DefaultConfig returns the default configuration */
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8092,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "neurondb",
			User:            "postgres",
			Password:        "postgres",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 10 * time.Minute,
		},
		Evaluation: EvaluationConfig{
			Threshold:                  0.7,
			Timeout:                    60 * time.Second,
			ExecutionTimeout:           10 * time.Second,
			MaxRows:                    10000,
			HighConfidenceSimilarity:   0.90,
			MediumConfidenceSimilarity: 0.75,
			PersistRetries:             3,
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
		},
		Drift: DriftConfig{
			NormalThreshold:  0.7,
			AnomalyThreshold: 0.5,
			MinCorpusSize:    5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

/* LoadConfig loads configuration from a YAML file over defaults */
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: path='%s', error=%w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: path='%s', error=%w", path, err)
	}

	LoadFromEnv(cfg)
	return cfg, nil
}

/* LoadSchemaDescriptor reads a JSON map of table names to their
 * column name/type pairs */
func LoadSchemaDescriptor(path string) (map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema descriptor: path='%s', error=%w", path, err)
	}

	var schema map[string]map[string]string
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse schema descriptor: path='%s', error=%w", path, err)
	}
	return schema, nil
}

/* LoadFromEnv overrides configuration from environment variables */
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("NEURONEVAL_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("NEURONEVAL_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("NEURONEVAL_DB_NAME"); v != "" {
		cfg.Database.Database = v
	}
	if v := os.Getenv("NEURONEVAL_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("NEURONEVAL_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("NEURONEVAL_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("NEURONEVAL_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Evaluation.Threshold = f
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("NEURONEVAL_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("NEURONEVAL_EMBEDDING_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("NEURONEVAL_LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("NEURONEVAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("NEURONEVAL_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
