// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package entry

import (
	"errors"

	"github.com/luxfi/valnode/types"
)

// Hard caps from §4.4.
const (
	MaxAccounts         = 64
	MaxInstructions     = 64
	MaxTransactionBytes = 64 * 1024
)

// Errors returned while decoding a transaction. All are handled by the
// caller discarding the whole entry (§4.4 "over-cap -> discard entry").
var (
	ErrTooManyAccounts     = errors.New("entry: account key count exceeds cap")
	ErrTooManyInstructions = errors.New("entry: instruction count exceeds cap")
	ErrTruncated           = errors.New("entry: transaction bytes truncated")
	ErrProgramIndexBounds  = errors.New("entry: program_id_index out of range")
)

// MessageHeader is the 3-byte transaction message header (§6.3).
type MessageHeader struct {
	RequiredSigs     uint8
	ReadonlySigned   uint8
	ReadonlyUnsigned uint8
}

// Instruction is one decoded instruction (§6.3).
type Instruction struct {
	ProgramIDIndex uint8
	AccountIndexes []byte
	Data           []byte
}

// Transaction is a fully decoded transaction (§4.4/§6.3).
type Transaction struct {
	Signatures      []types.Signature
	Header          MessageHeader
	AccountKeys     []types.Pubkey
	RecentBlockhash types.Hash
	Instructions    []Instruction

	// Raw is the exact byte range the transaction occupied, for
	// signature verification over the message body.
	Raw []byte
}

// SignatureCount returns the number of signatures (and so the number
// of required signers) on the transaction.
func (tx *Transaction) SignatureCount() int { return len(tx.Signatures) }

// IsWritable reports, for account index i, whether it is
// writable under the header's signed/unsigned split (§6.3).
func (tx *Transaction) IsWritable(i int) bool {
	h := tx.Header
	n := len(tx.AccountKeys)
	required := int(h.RequiredSigs)
	if i < required {
		writableSigned := required - int(h.ReadonlySigned)
		return i < writableSigned
	}
	unsignedCount := n - required
	writableUnsigned := unsignedCount - int(h.ReadonlyUnsigned)
	return i-required < writableUnsigned
}

// DecodeTransaction parses a single transaction from the front of buf,
// returning the transaction and the number of bytes consumed (§6.3).
func DecodeTransaction(buf []byte) (*Transaction, int, error) {
	start := 0
	if len(buf) < 1 {
		return nil, 0, ErrTruncated
	}
	sigCount := int(buf[0])
	off := 1

	if off+sigCount*types.SignatureSize > len(buf) {
		return nil, 0, ErrTruncated
	}
	sigs := make([]types.Signature, sigCount)
	for i := 0; i < sigCount; i++ {
		copy(sigs[i][:], buf[off:off+types.SignatureSize])
		off += types.SignatureSize
	}

	if off+3 > len(buf) {
		return nil, 0, ErrTruncated
	}
	header := MessageHeader{
		RequiredSigs:     buf[off],
		ReadonlySigned:   buf[off+1],
		ReadonlyUnsigned: buf[off+2],
	}
	off += 3

	acctCount, n, err := DecodeCompactU16(buf[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	if int(acctCount) > MaxAccounts {
		return nil, 0, ErrTooManyAccounts
	}
	if off+int(acctCount)*types.PubkeySize > len(buf) {
		return nil, 0, ErrTruncated
	}
	keys := make([]types.Pubkey, acctCount)
	for i := range keys {
		copy(keys[i][:], buf[off:off+types.PubkeySize])
		off += types.PubkeySize
	}

	if off+types.HashSize > len(buf) {
		return nil, 0, ErrTruncated
	}
	var blockhash types.Hash
	copy(blockhash[:], buf[off:off+types.HashSize])
	off += types.HashSize

	instrCount, n, err := DecodeCompactU16(buf[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	if int(instrCount) > MaxInstructions {
		return nil, 0, ErrTooManyInstructions
	}

	instructions := make([]Instruction, instrCount)
	for i := range instructions {
		if off+1 > len(buf) {
			return nil, 0, ErrTruncated
		}
		programIdx := buf[off]
		off++
		if int(programIdx) >= int(acctCount) {
			return nil, 0, ErrProgramIndexBounds
		}

		idxCount, n, err := DecodeCompactU16(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if off+int(idxCount) > len(buf) {
			return nil, 0, ErrTruncated
		}
		idxBytes := buf[off : off+int(idxCount)]
		off += int(idxCount)

		dataLen, n, err := DecodeCompactU16(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if off+int(dataLen) > len(buf) {
			return nil, 0, ErrTruncated
		}
		data := buf[off : off+int(dataLen)]
		off += int(dataLen)

		instructions[i] = Instruction{ProgramIDIndex: programIdx, AccountIndexes: idxBytes, Data: data}
	}

	tx := &Transaction{
		Signatures:      sigs,
		Header:          header,
		AccountKeys:     keys,
		RecentBlockhash: blockhash,
		Instructions:    instructions,
		Raw:             buf[start:off],
	}
	return tx, off, nil
}
