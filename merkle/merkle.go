// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package merkle implements C3: the per-FEC-set Merkle tree whose
// signed root authenticates every shred in a set (§4.3, §8 property 3).
package merkle

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"

	"github.com/luxfi/valnode/types"
)

const (
	leafPrefix   = 0x00
	branchPrefix = 0x01
)

// ErrEmptyLeaves is returned when building a tree over zero leaves.
var ErrEmptyLeaves = errors.New("merkle: tree requires at least one leaf")

// LeafHash hashes a single shred payload as a tree leaf: SHA256(0x00 ‖ payload).
func LeafHash(payload []byte) types.Hash {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(payload)
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

func branchHash(left, right types.Hash) types.Hash {
	h := sha256.New()
	h.Write([]byte{branchPrefix})
	h.Write(left[:])
	h.Write(right[:])
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// Tree is a binary Merkle tree built bottom-up over leaf hashes. When
// a level has an odd number of nodes, the last node is duplicated as
// its own sibling (the standard odd-leaf-count convention).
type Tree struct {
	levels [][]types.Hash // levels[0] = leaves, levels[len-1] = {root}
}

// Build constructs a Tree over already-hashed leaves.
func Build(leaves []types.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyLeaves
	}
	levels := [][]types.Hash{append([]types.Hash(nil), leaves...)}
	for len(levels[len(levels)-1]) > 1 {
		cur := levels[len(levels)-1]
		next := make([]types.Hash, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			if i+1 < len(cur) {
				next = append(next, branchHash(cur[i], cur[i+1]))
			} else {
				next = append(next, branchHash(cur[i], cur[i]))
			}
		}
		levels = append(levels, next)
	}
	return &Tree{levels: levels}, nil
}

// Root returns the tree's signed root.
func (t *Tree) Root() types.Hash {
	last := t.levels[len(t.levels)-1]
	return last[0]
}

// ProofStep is one sibling in an inclusion proof.
type ProofStep struct {
	Sibling types.Hash
	IsRight bool // true if Sibling is the right-hand node at this level
}

// Proof returns the inclusion proof for leaf index i: ⌈log2 leaves⌉ steps.
func (t *Tree) Proof(i int) ([]ProofStep, error) {
	if i < 0 || i >= len(t.levels[0]) {
		return nil, errors.New("merkle: index out of range")
	}
	var proof []ProofStep
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		cur := t.levels[level]
		var sibIdx int
		isRight := idx%2 == 0
		if isRight {
			sibIdx = idx + 1
			if sibIdx >= len(cur) {
				sibIdx = idx // duplicated last node
			}
		} else {
			sibIdx = idx - 1
		}
		proof = append(proof, ProofStep{Sibling: cur[sibIdx], IsRight: isRight})
		idx /= 2
	}
	return proof, nil
}

// VerifyProof recomputes the root from leaf and proof and compares it
// to root, returning true iff they match (§8 property 3).
func VerifyProof(leaf types.Hash, proof []ProofStep, root types.Hash) bool {
	cur := leaf
	for _, step := range proof {
		if step.IsRight {
			cur = branchHash(cur, step.Sibling)
		} else {
			cur = branchHash(step.Sibling, cur)
		}
	}
	return cur == root
}

// SignRoot signs a FEC set's Merkle root with the slot leader's key.
func SignRoot(priv ed25519.PrivateKey, root types.Hash) types.Signature {
	sig := ed25519.Sign(priv, root[:])
	var out types.Signature
	copy(out[:], sig)
	return out
}

// VerifyRootSignature verifies a FEC set's signature over its Merkle
// root (or, for legacy shreds, over the shred bytes directly — callers
// pass the appropriate message).
func VerifyRootSignature(leader types.Pubkey, message []byte, sig types.Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(leader[:]), message, sig[:])
}
