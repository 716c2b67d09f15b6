/*-------------------------------------------------------------------------
 *
 * root.go
 *    Root command and global flags for neuroneval
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/cli/cmd/root.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL       string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "neuroneval",
	Short: "NeuronEval CLI - SQL evaluation and drift detection",
	Long: `NeuronEval CLI submits generated SQL for evaluation, scores query drift,
rebuilds baselines, and classifies agent failures.

Examples:
  # Evaluate a generated statement against a ground truth
  neuroneval evaluate --query-id q1 --query "total sales by region" \
    --agent-type spend --sql "SELECT region, SUM(sales) FROM orders GROUP BY region" \
    --ground-truth "SELECT region, SUM(sales) FROM orders GROUP BY region"

  # Score a query against the agent's baseline
  neuroneval drift --query-id q1 --query "total sales by region" --agent-type spend

  # Rebuild a baseline from a corpus file
  neuroneval rebuild-baseline spend --corpus queries.json

  # Classify a failure message
  neuroneval classify-error --message "relation 'public.users' does not exist"
`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", getEnvOrDefault("NEURONEVAL_URL", "http://localhost:8092"), "NeuronEval API URL")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(driftCmd)
	rootCmd.AddCommand(rebuildBaselineCmd)
	rootCmd.AddCommand(classifyErrorCmd)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
