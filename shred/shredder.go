// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shred

import (
	"crypto/ed25519"

	"github.com/luxfi/valnode/fec"
	"github.com/luxfi/valnode/merkle"
	"github.com/luxfi/valnode/types"
)

// dataToParityCount maps a FEC set's data-shred count (index = k) to
// its parity-shred count, mirroring the reference DATA_TO_PARITY_CNT
// table (§4.11). Entries beyond the table use a flat 1:1 ratio.
var dataToParityCount = [33]int{
	0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14, 15, 15, 16, 16,
}

func parityCountFor(numData int) int {
	if numData <= 0 {
		return 0
	}
	if numData < len(dataToParityCount) {
		return dataToParityCount[numData]
	}
	return numData
}

// Set is a produced FEC set: its raw data/code shred envelopes, ready
// to sign and broadcast.
type Set struct {
	SlotIndex   uint32 // fec_set_index
	DataShreds  [][]byte
	CodeShreds  [][]byte
}

// Shredder is C11: the leader-path inverse of C1-C3. It chunks entry
// bytes into data shreds, computes parity code shreds, and signs each
// set's Merkle root once, copying the signature into every shred.
type Shredder struct {
	shredVersion uint16
	priv         ed25519.PrivateKey
}

// NewShredder creates a Shredder that signs with priv and stamps
// shredVersion into every shred it produces.
func NewShredder(shredVersion uint16, priv ed25519.PrivateKey) *Shredder {
	return &Shredder{shredVersion: shredVersion, priv: priv}
}

// Shred chunks entryBytes for slot into one or more signed FEC sets,
// marking the final data shred across all sets last_in_slot (§4.11).
func (sh *Shredder) Shred(slot types.Slot, entryBytes []byte) []*Set {
	var sets []*Set
	var fecSetIndex uint32
	offset := 0
	dataIndex := uint32(0)
	total := len(entryBytes)

	for {
		var chunks [][]byte
		for offset < total && len(chunks) < 32 {
			end := offset + DataShredPayloadSize
			if end > total {
				end = total
			}
			chunks = append(chunks, entryBytes[offset:end])
			offset = end
		}
		if len(chunks) == 0 {
			chunks = [][]byte{{}} // empty slot still produces one (empty) FEC set
		}

		lastInSlot := offset >= total
		sets = append(sets, sh.buildSet(slot, fecSetIndex, &dataIndex, chunks, lastInSlot))
		fecSetIndex++
		if lastInSlot {
			break
		}
	}
	return sets
}

func (sh *Shredder) buildSet(slot types.Slot, fecSetIndex uint32, dataIndex *uint32, chunks [][]byte, lastInSlot bool) *Set {
	numData := len(chunks)
	numCode := parityCountFor(numData)

	dataEnvelopes := make([][]byte, numData)
	leaves := make([]types.Hash, 0, numData+numCode)

	for i, chunk := range chunks {
		flags := byte(0)
		if i == numData-1 {
			flags |= FlagLastInFECSet
			if lastInSlot {
				flags |= FlagLastInSlot
			}
		}
		env := EncodeDataShred(slot, *dataIndex, sh.shredVersion, fecSetIndex, 0, flags, chunk)
		dataEnvelopes[i] = env
		leaves = append(leaves, merkle.LeafHash(chunk))
		*dataIndex++
	}

	// Position-0 coding payload is always the plain XOR parity of all
	// data chunks (generator entry G[0][j]=1 for every j), enabling
	// the FEC resolver's single-erasure fast path.
	codePayloadLen := 0
	for _, c := range chunks {
		if len(c) > codePayloadLen {
			codePayloadLen = len(c)
		}
	}
	codeEnvelopes := make([][]byte, numCode)
	codingPayloads := make([][]byte, numCode)
	for p := 0; p < numCode; p++ {
		codingPayloads[p] = computeCodingPayload(p, chunks, codePayloadLen)
	}
	for p := 0; p < numCode; p++ {
		env := EncodeCodeShred(slot, uint32(p), sh.shredVersion, fecSetIndex, uint16(numData), uint16(numCode), uint16(p), codingPayloads[p])
		codeEnvelopes[p] = env
		leaves = append(leaves, merkle.LeafHash(env[offVariant+codeOffPayload:]))
	}

	tree, err := merkle.Build(leaves)
	if err == nil {
		root := tree.Root()
		sig := merkle.SignRoot(sh.priv, root)
		for _, env := range dataEnvelopes {
			copyEnvelopeSignature(env, sig)
		}
		for _, env := range codeEnvelopes {
			copyEnvelopeSignature(env, sig)
		}
	}

	return &Set{SlotIndex: fecSetIndex, DataShreds: dataEnvelopes, CodeShreds: codeEnvelopes}
}

func copyEnvelopeSignature(env []byte, sig types.Signature) {
	copy(env[offSignature:], sig[:])
}

// computeCodingPayload evaluates the Vandermonde-style generator
// row p over the data chunks: Σ_j G[p][j]*chunk[j] in GF(2^8), so that
// p=0 reduces exactly to the plain XOR used by the resolver's fast
// path.
func computeCodingPayload(p int, chunks [][]byte, width int) []byte {
	out := make([]byte, width)
	for j, chunk := range chunks {
		coeff := fec.GeneratorElement(p, j)
		if coeff == 0 {
			continue
		}
		for k := 0; k < len(chunk) && k < width; k++ {
			out[k] ^= fec.Mul(coeff, chunk[k])
		}
	}
	return out
}
