// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package votesubmit implements C9: the vote submitter tile, which
// builds and dispatches TowerSync vote transactions at a fixed
// cadence with leader-ingress redundancy (§4.9, §6.4, §6.8).
package votesubmit

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/luxfi/valnode/entry"
	"github.com/luxfi/valnode/tower"
	"github.com/luxfi/valnode/types"
)

// compactUpdateVoteStateDiscriminant is the TowerSync instruction tag
// (§6.4).
const compactUpdateVoteStateDiscriminant uint32 = 12

// voteAccountIndex/identityAccountIndex/voteProgramIndex are the fixed
// account positions in a vote transaction (§6.4).
const (
	identityAccountIndex = 0
	voteAccountIndex     = 1
	voteProgramIndex     = 2
)

// encodeCompactU64 extends the compact-u16 scheme to 64 bits: 7-bit
// groups, high-bit continuation, as many bytes as needed (§6.4's
// "compact-u64 offset_from_root").
func encodeCompactU64(n uint64) []byte {
	var out []byte
	v := n
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

// BuildInstructionData encodes the minimal-form TowerSync instruction
// data: one lockout delta referencing the tower's single most recent
// vote (§6.4).
func BuildInstructionData(root types.Slot, haveRoot bool, latest tower.Lockout, bankHash types.Hash, timestampSeconds int64) []byte {
	var buf bytes.Buffer
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], compactUpdateVoteStateDiscriminant)
	buf.Write(u32[:])

	var rootValue uint64
	if haveRoot {
		rootValue = uint64(root)
	}
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], rootValue)
	buf.Write(u64[:])

	buf.Write(entry.EncodeCompactU16(1)) // lockout_count = 1, minimal form

	var offsetFromRoot uint64
	if haveRoot && uint64(latest.Slot) >= rootValue {
		offsetFromRoot = uint64(latest.Slot) - rootValue
	} else {
		offsetFromRoot = uint64(latest.Slot)
	}
	buf.Write(encodeCompactU64(offsetFromRoot))
	buf.WriteByte(byte(latest.ConfirmationCount))

	buf.Write(bankHash[:])

	buf.WriteByte(1) // has_timestamp = 1
	var i64 [8]byte
	binary.LittleEndian.PutUint64(i64[:], uint64(timestampSeconds))
	buf.Write(i64[:])

	return buf.Bytes()
}

// BuildVoteTransaction builds the full TowerSync vote transaction
// (§6.4): 3 accounts [identity, vote_account, vote_program_id], one
// instruction with program index 2, account indexes [1,0].
func BuildVoteTransaction(identityPriv ed25519.PrivateKey, identityPk, voteAccountPk, voteProgramPk types.Pubkey, recentBlockhash types.Hash, root types.Slot, haveRoot bool, latest tower.Lockout, candidateBankHash types.Hash, timestampSeconds int64) *entry.Transaction {
	data := BuildInstructionData(root, haveRoot, latest, candidateBankHash, timestampSeconds)

	tx := &entry.Transaction{
		Header: entry.MessageHeader{
			RequiredSigs:     1,
			ReadonlySigned:   0,
			ReadonlyUnsigned: 1, // vote program id is readonly & unsigned
		},
		AccountKeys:     []types.Pubkey{identityPk, voteAccountPk, voteProgramPk},
		RecentBlockhash: recentBlockhash,
		Instructions: []entry.Instruction{
			{
				ProgramIDIndex: voteProgramIndex,
				AccountIndexes: []byte{voteAccountIndex, identityAccountIndex},
				Data:           data,
			},
		},
	}

	msg := entry.EncodeTransaction(&entry.Transaction{
		Header:          tx.Header,
		AccountKeys:     tx.AccountKeys,
		RecentBlockhash: tx.RecentBlockhash,
		Instructions:    tx.Instructions,
	})
	// EncodeTransaction includes a leading sig-count byte (0 here since
	// Signatures is nil); strip it before signing the message body.
	sig := ed25519.Sign(identityPriv, msg[1:])
	var voteSig types.Signature
	copy(voteSig[:], sig)
	tx.Signatures = []types.Signature{voteSig}
	return tx
}
