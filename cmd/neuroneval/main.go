/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for the neuroneval CLI
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <support@neurondb.ai>
 *
 * IDENTIFICATION
 *    NeuronEval/cmd/neuroneval/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"github.com/neurondb/NeuronEval/cli/cmd"
)

func main() {
	cmd.Execute()
}
