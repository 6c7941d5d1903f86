// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package entry

import (
	"testing"

	"github.com/luxfi/valnode/types"
)

func sampleTransaction() *Transaction {
	var sig types.Signature
	sig[0] = 1
	var key0, key1 types.Pubkey
	key0[0] = 0xAA
	key1[0] = 0xBB
	var blockhash types.Hash
	blockhash[0] = 0xCC

	return &Transaction{
		Signatures: []types.Signature{sig},
		Header: MessageHeader{
			RequiredSigs:     1,
			ReadonlySigned:   0,
			ReadonlyUnsigned: 1,
		},
		AccountKeys:     []types.Pubkey{key0, key1},
		RecentBlockhash: blockhash,
		Instructions: []Instruction{
			{ProgramIDIndex: 1, AccountIndexes: []byte{0}, Data: []byte{0x01, 0x02}},
		},
	}
}

func TestTransactionEncodeDecodeRoundTrip(t *testing.T) {
	tx := sampleTransaction()
	raw := EncodeTransaction(tx)

	decoded, consumed, err := DecodeTransaction(raw)
	if err != nil {
		t.Fatalf("DecodeTransaction: %v", err)
	}
	if consumed != len(raw) {
		t.Fatalf("consumed %d, want %d", consumed, len(raw))
	}
	if decoded.SignatureCount() != 1 {
		t.Fatalf("expected 1 signature, got %d", decoded.SignatureCount())
	}
	if len(decoded.AccountKeys) != 2 || decoded.AccountKeys[0] != tx.AccountKeys[0] {
		t.Fatalf("account keys mismatch: %+v", decoded.AccountKeys)
	}
	if decoded.RecentBlockhash != tx.RecentBlockhash {
		t.Fatal("blockhash mismatch")
	}
	if len(decoded.Instructions) != 1 || decoded.Instructions[0].ProgramIDIndex != 1 {
		t.Fatalf("instructions mismatch: %+v", decoded.Instructions)
	}
}

func TestTransactionIsWritable(t *testing.T) {
	tx := sampleTransaction() // 1 required sig, 0 readonly-signed, 1 readonly-unsigned, 2 accounts total
	if !tx.IsWritable(0) {
		t.Fatal("account 0 (writable signer) should be writable")
	}
	if tx.IsWritable(1) {
		t.Fatal("account 1 (readonly unsigned) should not be writable")
	}
}

func TestDecodeTransactionTruncated(t *testing.T) {
	tx := sampleTransaction()
	raw := EncodeTransaction(tx)
	_, _, err := DecodeTransaction(raw[:len(raw)-5])
	if err == nil {
		t.Fatal("expected error decoding truncated transaction")
	}
}

func TestDecodeTransactionProgramIndexOutOfRange(t *testing.T) {
	tx := sampleTransaction()
	tx.Instructions[0].ProgramIDIndex = 99
	raw := EncodeTransaction(tx)
	_, _, err := DecodeTransaction(raw)
	if err != ErrProgramIndexBounds {
		t.Fatalf("expected ErrProgramIndexBounds, got %v", err)
	}
}

func TestDecodeTransactionTooManyAccounts(t *testing.T) {
	tx := sampleTransaction()
	keys := make([]types.Pubkey, MaxAccounts+1)
	tx.AccountKeys = keys
	tx.Instructions = nil
	raw := EncodeTransaction(tx)
	_, _, err := DecodeTransaction(raw)
	if err != ErrTooManyAccounts {
		t.Fatalf("expected ErrTooManyAccounts, got %v", err)
	}
}
