/*-------------------------------------------------------------------------
 *
 * drift.go
 *    Drift and baseline commands for neuroneval
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/cli/cmd/drift.go
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
	driftQueryID   string
	driftQueryText string
	driftAgentType string

	rebuildCorpusPath string
)

var driftCmd = &cobra.Command{
	Use:   "drift",
	Short: "Score a query against the agent's baseline",
	RunE:  runDrift,
}

var rebuildBaselineCmd = &cobra.Command{
	Use:   "rebuild-baseline [agent-type]",
	Short: "Rebuild the drift baseline for an agent type",
	Args:  cobra.ExactArgs(1),
	RunE:  runRebuildBaseline,
}

func init() {
	driftCmd.Flags().StringVar(&driftQueryID, "query-id", "", "Query identifier")
	driftCmd.Flags().StringVar(&driftQueryText, "query", "", "Natural language query")
	driftCmd.Flags().StringVar(&driftAgentType, "agent-type", "", "Agent type")
	driftCmd.MarkFlagRequired("query-id")
	driftCmd.MarkFlagRequired("query")
	driftCmd.MarkFlagRequired("agent-type")

	rebuildBaselineCmd.Flags().StringVar(&rebuildCorpusPath, "corpus", "", "Path to corpus JSON (array of query strings); omit to use the server's ground truth store")
}

func runDrift(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	score, err := apiClient.ScoreDrift(driftQueryID, driftQueryText, driftAgentType)
	if err != nil {
		return fmt.Errorf("drift scoring failed: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(score)
	}

	fmt.Printf("\nDrift: %s (%s)\n", score.QueryID, score.AgentType)
	fmt.Println("─────────────────────────────────────────────────────────")
	fmt.Printf("Classification: %s\n", score.Classification)
	fmt.Printf("Drift score:    %.3f (similarity %.3f)\n", score.DriftScore, score.SimilarityToBaseline)
	fmt.Printf("Anomaly:        %v\n", score.IsAnomaly)
	fmt.Println()

	return nil
}

func runRebuildBaseline(cmd *cobra.Command, args []string) error {
	agentType := args[0]
	apiClient := client.NewClient(apiURL)

	var corpus []string
	if rebuildCorpusPath != "" {
		data, err := os.ReadFile(rebuildCorpusPath)
		if err != nil {
			return fmt.Errorf("failed to read corpus file: %w", err)
		}
		if err := json.Unmarshal(data, &corpus); err != nil {
			return fmt.Errorf("failed to parse corpus file: %w", err)
		}
	}

	baseline, err := apiClient.RebuildBaseline(agentType, corpus)
	if err != nil {
		return fmt.Errorf("baseline rebuild failed: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(baseline)
	}

	fmt.Printf("\nBaseline rebuilt for '%s'\n", baseline.AgentType)
	fmt.Printf("Version: %d, corpus size: %d, active: %v\n\n",
		baseline.Version, baseline.CorpusSize, baseline.IsActive)

	return nil
}
