// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "valnode",
	Short: "A validator node for a leader-based, proof-of-stake blockchain",
	Long: `valnode runs the validator pipeline end to end: shred ingestion and
FEC reconstruction, per-slot transaction execution, stake-weighted fork
choice, Tower-BFT vote generation, and vote submission, bootstrapped
from a local or downloaded snapshot.`,
}

func main() {
	rootCmd.AddCommand(
		runCmd(),
		keygenCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
