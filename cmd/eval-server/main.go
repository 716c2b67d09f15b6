/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for the NeuronEval server
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/cmd/eval-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/neurondb/NeuronEval/internal/api"
	"github.com/neurondb/NeuronEval/internal/config"
	"github.com/neurondb/NeuronEval/internal/db"
	"github.com/neurondb/NeuronEval/internal/drift"
	"github.com/neurondb/NeuronEval/internal/eval"
	"github.com/neurondb/NeuronEval/internal/executor"
	"github.com/neurondb/NeuronEval/internal/judge"
	"github.com/neurondb/NeuronEval/internal/metrics"
	"github.com/neurondb/NeuronEval/internal/semantic"
	"github.com/neurondb/NeuronEval/internal/validator"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		configPath  = flag.String("c", "", "Path to configuration file")
		corpusPath  = flag.String("corpus", "", "Path to ground truth corpus JSON")
		schemaPath  = flag.String("schema", "", "Path to schema descriptor JSON (tables to columns)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "NeuronEval Server - SQL evaluation and drift detection for NeuronDB agents\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          Start server with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml           Start server with custom config file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -corpus queries.json     Start with a ground truth corpus\n", os.Args[0])
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("neuroneval version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}

	/* Load configuration */
	cfg := config.DefaultConfig()
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v, using defaults\n", err)
		}
	} else {
		config.LoadFromEnv(cfg)
	}

	/* Initialize logging */
	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	/* Connect to database */
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Database)

	database, err := db.NewDBWithRetry(connStr, db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, 5, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	/* Run migrations */
	migrationRunner, err := db.NewMigrationRunner(database.DB, "./migrations")
	if err == nil {
		if err := migrationRunner.Run(context.Background()); err != nil {
			fmt.Printf("Warning: Migration failed: %v\n", err)
		}
	}

	queries := db.NewQueries(database.DB)

	/* Schema descriptor drives structural and semantic checks */
	schema, err := loadSchemaDescriptor(*schemaPath)
	if err != nil {
		fmt.Printf("Warning: schema descriptor not loaded: %v\n", err)
	}

	/* LLM clients. Without an API key the judge, the classifier
	 * fallback, and drift embedding are disabled; evaluation degrades
	 * to the remaining layers. */
	var llmClient *openai.Client
	var chatClient judge.ChatClient
	if cfg.LLM.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.LLM.APIKey)
		if cfg.LLM.BaseURL != "" {
			clientCfg.BaseURL = cfg.LLM.BaseURL
		}
		llmClient = openai.NewClientWithConfig(clientCfg)
		chatClient = llmClient
	}

	/* Scoring layers */
	structural := validator.NewStructuralValidator(schema)
	checker := semantic.NewChecker(schema)

	sqlJudge := judge.NewJudge(chatClient, cfg.LLM.Model)

	exec := executor.NewExecutor(cfg.Evaluation.ExecutionTimeout, cfg.Evaluation.MaxRows)
	defer exec.Close()
	resultValidator := validator.NewResultValidator(exec,
		cfg.Evaluation.HighConfidenceSimilarity, cfg.Evaluation.MediumConfidenceSimilarity)

	evaluator := eval.NewEvaluator(structural, checker, sqlJudge, resultValidator, queries,
		cfg.Evaluation.Threshold, cfg.Evaluation.PersistRetries)
	evaluator.SetTimeout(cfg.Evaluation.Timeout)

	/* Drift stack and ground truth corpus need the embedding client */
	var (
		detector *drift.Detector
		manager  *drift.Manager
		gtStore  *eval.GroundTruthStore
	)
	if llmClient != nil {
		embedder := drift.NewOpenAIEmbedder(llmClient, cfg.LLM.EmbeddingModel)
		detector = drift.NewDetector(embedder, queries, queries, cfg.Drift.NormalThreshold, cfg.Drift.AnomalyThreshold)
		manager = drift.NewManager(embedder, queries, cfg.Drift.MinCorpusSize)
		gtStore = eval.NewGroundTruthStore(embedder, eval.DefaultMatchThreshold)

		if *corpusPath != "" {
			if err := gtStore.LoadFromFile(*corpusPath); err != nil {
				fmt.Printf("Warning: ground truth corpus not loaded: %v\n", err)
			} else {
				bootstrapBaselines(gtStore, manager, queries)
			}
		}

		evaluator.SetDriftChecker(&eval.DriftHook{Detector: detector})
	}

	classifier := judge.NewClassifier(chatClient, cfg.LLM.Model)
	evaluator.SetFailureClassifier(&eval.TriageHook{Classifier: classifier, Sink: queries})

	/* Setup router */
	handlers := api.NewHandlers(queries, evaluator, detector, manager, classifier, gtStore)
	router := api.NewRouter(handlers)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		metrics.InfoWithContext(context.Background(), "NeuronEval server starting", map[string]interface{}{
			"addr":    srv.Addr,
			"version": version,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: Server failed: %v\n", err)
			os.Exit(1)
		}
	}()

	/* Graceful shutdown */
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	metrics.InfoWithContext(context.Background(), "NeuronEval server shutting down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server shutdown failed: %v\n", err)
	}
}

/* bootstrapBaselines builds a first baseline for any corpus agent
 * type that has none yet */
func bootstrapBaselines(gtStore *eval.GroundTruthStore, manager *drift.Manager, queries *db.Queries) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, agentType := range gtStore.AgentTypes() {
		if _, err := queries.ActiveBaseline(ctx, agentType); err == nil {
			continue
		}

		corpus := gtStore.CorpusFor(agentType, 50)
		if _, err := manager.Rebuild(ctx, agentType, corpus); err != nil {
			metrics.WarnWithContext(ctx, "Baseline bootstrap skipped", map[string]interface{}{
				"agent_type": agentType,
				"error":      err.Error(),
			})
		}
	}
}

/* loadSchemaDescriptor reads the tables-to-columns JSON map */
func loadSchemaDescriptor(path string) (map[string]map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	return config.LoadSchemaDescriptor(path)
}
