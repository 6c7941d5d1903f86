// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bank

import (
	"encoding/binary"

	"github.com/luxfi/valnode/accounts"
	"github.com/luxfi/valnode/entry"
	"github.com/luxfi/valnode/types"
)

// Well-known native program ids. classifyProgram recognizes them by a
// full pubkey match; the 4-byte little-endian discriminant in the
// instruction data then selects the operation within the program.
var (
	SystemProgramID types.Pubkey
	VoteProgramID   types.Pubkey
	StakeProgramID  types.Pubkey
)

func init() {
	SystemProgramID[0] = 0x01
	VoteProgramID[0] = 0x02
	StakeProgramID[0] = 0x03
}

// programKind is the tagged-enum discriminant between the small,
// fixed set of native programs and everything else (BPF), avoiding
// virtual-table polymorphism per §9.
type programKind int

const (
	programNative programKind = iota
	programBPF
)

func classifyProgram(id types.Pubkey) programKind {
	switch id {
	case SystemProgramID, VoteProgramID, StakeProgramID:
		return programNative
	default:
		return programBPF
	}
}

// InstructionResult is dispatch's single return shape, shared by the
// native and BPF paths (§9).
type InstructionResult struct {
	ComputeUnitsConsumed uint64
	Err                  error
}

// Fixed per-instruction compute-unit costs for native programs. BPF
// compute units come back from the VM collaborator instead.
const (
	computeUnitsSystemTransfer = 150
	computeUnitsSystemDefault  = 150
	computeUnitsVoteDefault    = 2_100
	computeUnitsStakeDefault   = 750
)

// bpfVM is the out-of-scope virtual machine collaborator; the bank
// only needs the compute units and error it reports back (§4.5).
type bpfVM interface {
	Execute(programID types.Pubkey, data []byte, accountIndexes []byte, loaded []*accounts.Account) InstructionResult
}

// dispatch routes one instruction to its native handler or the BPF
// VM collaborator (§9 "single dispatch(...) entry point").
func dispatch(programID types.Pubkey, ins entry.Instruction, loaded []*accounts.Account, vm bpfVM) InstructionResult {
	switch classifyProgram(programID) {
	case programNative:
		return dispatchNative(programID, ins, loaded)
	default:
		if vm == nil {
			return InstructionResult{Err: types.ErrInvalidInstruction}
		}
		return vm.Execute(programID, ins.Data, ins.AccountIndexes, loaded)
	}
}

func dispatchNative(programID types.Pubkey, ins entry.Instruction, loaded []*accounts.Account) InstructionResult {
	if len(ins.Data) < 4 {
		return InstructionResult{Err: types.ErrInvalidInstruction}
	}
	discriminant := binary.LittleEndian.Uint32(ins.Data[:4])

	switch programID {
	case SystemProgramID:
		return dispatchSystem(discriminant, ins, loaded)
	case VoteProgramID:
		return dispatchVote(discriminant, ins, loaded)
	case StakeProgramID:
		return InstructionResult{ComputeUnitsConsumed: computeUnitsStakeDefault}
	default:
		return InstructionResult{Err: types.ErrInvalidInstruction}
	}
}

const systemTransferDiscriminant = 2

func dispatchSystem(discriminant uint32, ins entry.Instruction, loaded []*accounts.Account) InstructionResult {
	if discriminant != systemTransferDiscriminant {
		return InstructionResult{ComputeUnitsConsumed: computeUnitsSystemDefault}
	}
	if len(ins.AccountIndexes) < 2 || len(ins.Data) < 12 {
		return InstructionResult{Err: types.ErrInvalidInstruction}
	}
	fromIdx, toIdx := int(ins.AccountIndexes[0]), int(ins.AccountIndexes[1])
	if fromIdx >= len(loaded) || toIdx >= len(loaded) {
		return InstructionResult{Err: types.ErrAccountNotFound}
	}
	amount := binary.LittleEndian.Uint64(ins.Data[4:12])
	from, to := loaded[fromIdx], loaded[toIdx]
	if from.Lamports < amount {
		return InstructionResult{ComputeUnitsConsumed: computeUnitsSystemTransfer, Err: types.ErrInsufficientFundsForFee}
	}
	from.Lamports -= amount
	to.Lamports += amount
	return InstructionResult{ComputeUnitsConsumed: computeUnitsSystemTransfer}
}

// compactUpdateVoteStateDiscriminant is the TowerSync instruction tag
// the vote program observes (§6.4). The bank's own consensus tile
// (Tower, C7) interprets this instruction's effects on the tower; the
// bank only needs its compute-unit cost and that it always succeeds
// for a well-formed instruction.
const compactUpdateVoteStateDiscriminant = 12

func dispatchVote(discriminant uint32, ins entry.Instruction, _ []*accounts.Account) InstructionResult {
	if discriminant != compactUpdateVoteStateDiscriminant {
		return InstructionResult{ComputeUnitsConsumed: computeUnitsVoteDefault}
	}
	return InstructionResult{ComputeUnitsConsumed: computeUnitsVoteDefault}
}
