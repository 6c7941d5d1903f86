// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luxfi/valnode/crypto"
)

func keygenCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a new Ed25519 identity or vote-account keypair file (§6.1)",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, priv, err := crypto.GenerateKeypair()
			if err != nil {
				return fmt.Errorf("generating keypair: %w", err)
			}
			if err := crypto.WriteKeypairFile(outPath, priv); err != nil {
				return fmt.Errorf("writing keypair file: %w", err)
			}
			fmt.Printf("wrote %s: pubkey %s\n", outPath, kp.Pubkey.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "identity.json", "output keypair file path")
	return cmd
}
