/*-------------------------------------------------------------------------
 *
 * errors.go
 *    Error classification command for neuroneval
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/cli/cmd/errors.go
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
	classifyQueryID string
	classifyMessage string
	classifyQuery   string
)

var classifyErrorCmd = &cobra.Command{
	Use:   "classify-error",
	Short: "Classify a failure message",
	RunE:  runClassifyError,
}

func init() {
	classifyErrorCmd.Flags().StringVar(&classifyQueryID, "query-id", "", "Query identifier (optional)")
	classifyErrorCmd.Flags().StringVar(&classifyMessage, "message", "", "Error message to classify")
	classifyErrorCmd.Flags().StringVar(&classifyQuery, "query", "", "Natural language query context (optional)")
	classifyErrorCmd.MarkFlagRequired("message")
}

func runClassifyError(cmd *cobra.Command, args []string) error {
	apiClient := client.NewClient(apiURL)

	cls, err := apiClient.ClassifyError(classifyQueryID, classifyMessage, classifyQuery)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(cls)
	}

	fmt.Printf("\nCategory:   %s\n", cls.Category)
	fmt.Printf("Severity:   %s\n", cls.Severity)
	fmt.Printf("Confidence: %.2f (%s)\n", cls.Confidence, cls.Method)
	fmt.Printf("Signature:  %s\n\n", cls.Signature)

	return nil
}
