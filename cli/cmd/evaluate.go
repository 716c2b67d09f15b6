/*-------------------------------------------------------------------------
 *
 * evaluate.go
 *    Evaluation commands for neuroneval
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/cli/cmd/evaluate.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronEval/cli/pkg/client"
)

var (
	evalQueryID       string
	evalQueryText     string
	evalAgentType     string
	evalSQL           string
	evalGroundTruth   string
	evalConnDesc      string
	evalGTSimilarity  float64
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a generated SQL statement",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evalQueryID, "query-id", "", "Query identifier")
	evaluateCmd.Flags().StringVar(&evalQueryText, "query", "", "Natural language query")
	evaluateCmd.Flags().StringVar(&evalAgentType, "agent-type", "", "Agent type")
	evaluateCmd.Flags().StringVar(&evalSQL, "sql", "", "Generated SQL")
	evaluateCmd.Flags().StringVar(&evalGroundTruth, "ground-truth", "", "Ground truth SQL (optional)")
	evaluateCmd.Flags().StringVar(&evalConnDesc, "connection", "", "Connection descriptor for result validation (optional)")
	evaluateCmd.Flags().Float64Var(&evalGTSimilarity, "gt-similarity", 0, "Ground truth match similarity (optional)")
	evaluateCmd.MarkFlagRequired("query-id")
	evaluateCmd.MarkFlagRequired("query")
	evaluateCmd.MarkFlagRequired("agent-type")
	evaluateCmd.MarkFlagRequired("sql")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	evaluation, err := apiClient.Evaluate(client.EvaluationRequest{
		QueryID:              evalQueryID,
		QueryText:            evalQueryText,
		AgentType:            evalAgentType,
		GeneratedSQL:         evalSQL,
		GroundTruthSQL:       evalGroundTruth,
		ConnectionDescriptor: evalConnDesc,
		GTMatchSimilarity:    evalGTSimilarity,
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(evaluation)
	}

	fmt.Printf("\nEvaluation: %s\n", evaluation.QueryID)
	fmt.Println("─────────────────────────────────────────────────────────")
	fmt.Printf("Verdict:     %s (final score %.3f, confidence %.2f)\n",
		evaluation.Verdict, evaluation.FinalScore, evaluation.Confidence)
	fmt.Printf("Structural:  %.3f\n", evaluation.StructuralScore)
	fmt.Printf("Semantic:    %.3f\n", evaluation.SemanticScore)
	fmt.Printf("LLM judge:   %.3f\n", evaluation.LLMScore)
	if evaluation.ResultScore != nil {
		fmt.Printf("Result:      %.3f\n", *evaluation.ResultScore)
	}
	fmt.Printf("State:       %s\n", evaluation.State)
	if evaluation.Reasoning != "" {
		fmt.Printf("Reasoning:   %s\n", evaluation.Reasoning)
	}
	fmt.Println()

	return nil
}
