// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package accounts implements the accounts-store collaborator the
// Bank (C5) commits mutated accounts to: a durable, pubkey-keyed
// key/value store (§4.5, §5 "copy-on-write fork semantics"). The Bank
// itself owns the in-memory copy-on-write overlay chain across forks;
// this store is the flush target for the canonical rooted timeline.
package accounts

import (
	"encoding/binary"

	"github.com/luxfi/valnode/types"
)

// Account mirrors the fields the bank's native-program dispatch and
// fee pipeline need (§4.5).
type Account struct {
	Lamports   uint64
	Owner      types.Pubkey
	Data       []byte
	Executable bool
	RentEpoch  uint64
}

// Clone returns a deep copy, so a bank's mutation of a loaded account
// never aliases another bank's view of the same pubkey.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{
		Lamports:   a.Lamports,
		Owner:      a.Owner,
		Data:       data,
		Executable: a.Executable,
		RentEpoch:  a.RentEpoch,
	}
}

// encodeAccount serializes an account for storage.
func encodeAccount(a *Account) []byte {
	buf := make([]byte, 8+types.PubkeySize+1+8+8+len(a.Data))
	off := 0
	binary.LittleEndian.PutUint64(buf[off:], a.Lamports)
	off += 8
	copy(buf[off:], a.Owner[:])
	off += types.PubkeySize
	if a.Executable {
		buf[off] = 1
	}
	off++
	binary.LittleEndian.PutUint64(buf[off:], a.RentEpoch)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], uint64(len(a.Data)))
	off += 8
	copy(buf[off:], a.Data)
	return buf
}

// decodeAccount is the inverse of encodeAccount.
func decodeAccount(buf []byte) (*Account, bool) {
	const headerLen = 8 + types.PubkeySize + 1 + 8 + 8
	if len(buf) < headerLen {
		return nil, false
	}
	a := &Account{}
	off := 0
	a.Lamports = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	copy(a.Owner[:], buf[off:off+types.PubkeySize])
	off += types.PubkeySize
	a.Executable = buf[off] != 0
	off++
	a.RentEpoch = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	dataLen := binary.LittleEndian.Uint64(buf[off:])
	off += 8
	if off+int(dataLen) > len(buf) {
		return nil, false
	}
	a.Data = append([]byte(nil), buf[off:off+int(dataLen)]...)
	return a, true
}

// RentExemptMinimum computes the minimum balance exempt from rent for
// n bytes of account data (§4.5).
func RentExemptMinimum(n int, lamportsPerByteYear uint64, exemptionThresholdYears float64) uint64 {
	return uint64(float64(uint64(n+128)*lamportsPerByteYear) * exemptionThresholdYears)
}
