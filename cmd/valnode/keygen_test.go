// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"path/filepath"
	"testing"

	"github.com/luxfi/valnode/crypto"
)

func TestKeygenCmdWritesLoadableKeypairFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "identity.json")
	cmd := keygenCmd()
	cmd.SetArgs([]string{"--out", out})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	kp, err := crypto.LoadKeypairFile(out)
	if err != nil {
		t.Fatalf("LoadKeypairFile: %v", err)
	}
	if kp.Pubkey.String() == "" {
		t.Fatal("expected a non-empty pubkey")
	}
}

func TestKeygenCmdDefaultsOutPathToIdentityJSON(t *testing.T) {
	cmd := keygenCmd()
	flag := cmd.Flags().Lookup("out")
	if flag == nil {
		t.Fatal("expected an --out flag to be registered")
	}
	if flag.DefValue != "identity.json" {
		t.Fatalf("default out path = %q, want identity.json", flag.DefValue)
	}
}
