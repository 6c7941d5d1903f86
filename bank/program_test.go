// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bank

import (
	"testing"

	"github.com/luxfi/valnode/accounts"
	"github.com/luxfi/valnode/entry"
	"github.com/luxfi/valnode/types"
)

func TestClassifyProgram(t *testing.T) {
	if classifyProgram(SystemProgramID) != programNative {
		t.Fatal("expected SystemProgramID to classify as native")
	}
	if classifyProgram(VoteProgramID) != programNative {
		t.Fatal("expected VoteProgramID to classify as native")
	}
	var other types.Pubkey
	other[0] = 0xEE
	if classifyProgram(other) != programBPF {
		t.Fatal("expected unknown program id to classify as BPF")
	}
}

func TestDispatchSystemTransferInsufficientFunds(t *testing.T) {
	from := &accounts.Account{Lamports: 10}
	to := &accounts.Account{Lamports: 0}
	loaded := []*accounts.Account{from, to}
	ins := entry.Instruction{AccountIndexes: []byte{0, 1}, Data: transferData(1000)}

	res := dispatchSystem(systemTransferDiscriminant, ins, loaded)
	if res.Err != types.ErrInsufficientFundsForFee {
		t.Fatalf("expected ErrInsufficientFundsForFee, got %v", res.Err)
	}
	if from.Lamports != 10 {
		t.Fatal("from account should be unmodified on failed transfer")
	}
}

func TestDispatchSystemTransferBadAccountIndexes(t *testing.T) {
	loaded := []*accounts.Account{{Lamports: 10}}
	ins := entry.Instruction{AccountIndexes: []byte{0, 5}, Data: transferData(1)}
	res := dispatchSystem(systemTransferDiscriminant, ins, loaded)
	if res.Err != types.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", res.Err)
	}
}

func TestDispatchNativeUnknownProgramFails(t *testing.T) {
	res := dispatchNative(types.Pubkey{0xFF}, entry.Instruction{Data: make([]byte, 4)}, nil)
	if res.Err != types.ErrInvalidInstruction {
		t.Fatalf("expected ErrInvalidInstruction, got %v", res.Err)
	}
}

func TestDispatchBPFWithNilVMFails(t *testing.T) {
	var other types.Pubkey
	other[0] = 0x99
	res := dispatch(other, entry.Instruction{}, nil, nil)
	if res.Err != types.ErrInvalidInstruction {
		t.Fatalf("expected ErrInvalidInstruction for BPF program with no VM wired, got %v", res.Err)
	}
}

func TestDispatchVoteDefault(t *testing.T) {
	res := dispatchVote(compactUpdateVoteStateDiscriminant, entry.Instruction{}, nil)
	if res.Err != nil {
		t.Fatalf("expected vote dispatch to succeed, got %v", res.Err)
	}
	if res.ComputeUnitsConsumed != computeUnitsVoteDefault {
		t.Fatalf("ComputeUnitsConsumed = %d, want %d", res.ComputeUnitsConsumed, computeUnitsVoteDefault)
	}
}
