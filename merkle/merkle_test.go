// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package merkle

import (
	"crypto/ed25519"
	"testing"

	"github.com/luxfi/valnode/types"
)

func leavesFromPayloads(payloads [][]byte) []types.Hash {
	leaves := make([]types.Hash, len(payloads))
	for i, p := range payloads {
		leaves[i] = LeafHash(p)
	}
	return leaves
}

func TestBuildAndVerifyProofEvenLeafCount(t *testing.T) {
	payloads := [][]byte{[]byte("a"), []byte("b"), []byte("c"), []byte("d")}
	tree, err := Build(leavesFromPayloads(payloads))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	root := tree.Root()

	for i, p := range payloads {
		proof, err := tree.Proof(i)
		if err != nil {
			t.Fatalf("Proof(%d): %v", i, err)
		}
		if !VerifyProof(LeafHash(p), proof, root) {
			t.Fatalf("leaf %d failed to verify against root", i)
		}
	}
}

func TestBuildAndVerifyProofOddLeafCount(t *testing.T) {
	payloads := [][]byte{[]byte("a"), []byte("b"), []byte("c")}
	tree, err := Build(leavesFromPayloads(payloads))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	root := tree.Root()

	for i, p := range payloads {
		proof, err := tree.Proof(i)
		if err != nil {
			t.Fatalf("Proof(%d): %v", i, err)
		}
		if !VerifyProof(LeafHash(p), proof, root) {
			t.Fatalf("leaf %d failed to verify against root", i)
		}
	}
}

func TestVerifyProofRejectsWrongLeaf(t *testing.T) {
	payloads := [][]byte{[]byte("a"), []byte("b")}
	tree, err := Build(leavesFromPayloads(payloads))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	proof, err := tree.Proof(0)
	if err != nil {
		t.Fatalf("Proof: %v", err)
	}
	if VerifyProof(LeafHash([]byte("not-a")), proof, tree.Root()) {
		t.Fatal("expected verification failure for wrong leaf")
	}
}

func TestBuildEmptyLeaves(t *testing.T) {
	if _, err := Build(nil); err != ErrEmptyLeaves {
		t.Fatalf("expected ErrEmptyLeaves, got %v", err)
	}
}

func TestSingleLeafTree(t *testing.T) {
	leaf := LeafHash([]byte("only"))
	tree, err := Build([]types.Hash{leaf})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if tree.Root() != leaf {
		t.Fatal("single-leaf tree root should equal the leaf hash")
	}
	proof, err := tree.Proof(0)
	if err != nil {
		t.Fatalf("Proof: %v", err)
	}
	if len(proof) != 0 {
		t.Fatalf("expected empty proof for single-leaf tree, got %d steps", len(proof))
	}
}

func TestSignAndVerifyRoot(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	var leader types.Pubkey
	copy(leader[:], pub)

	root := LeafHash([]byte("root-message"))
	sig := SignRoot(priv, root)
	if !VerifyRootSignature(leader, root[:], sig) {
		t.Fatal("expected signature to verify")
	}

	var other types.Pubkey
	other[0] = 0xFF
	if VerifyRootSignature(other, root[:], sig) {
		t.Fatal("expected signature to fail against wrong pubkey")
	}
}
