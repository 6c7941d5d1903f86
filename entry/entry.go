// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package entry

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/valnode/types"
)

// ErrEntryTruncated is returned when the entry header or its
// transactions run past the end of the buffer.
var ErrEntryTruncated = errors.New("entry: truncated entry header")

// Entry is one PoH entry: a tick (num_txs=0) or a batch of
// transactions all hashed together (§4.4).
type Entry struct {
	NumHashes    uint64
	Hash         types.Hash
	Transactions []*Transaction
}

// IsTick reports whether the entry carries no transactions.
func (e *Entry) IsTick() bool { return len(e.Transactions) == 0 }

// DecodeEntries iteratively parses every entry in an assembled slot's
// byte stream (§4.4). An entry whose declared transactions would
// exceed MaxAccounts/MaxInstructions/MaxTransactionBytes is discarded
// (skipped) rather than aborting the whole stream, matching the
// shred/entry-level failure model of §7.
func DecodeEntries(buf []byte) ([]*Entry, error) {
	var entries []*Entry
	off := 0
	for off < len(buf) {
		e, n, err := decodeOneEntry(buf[off:])
		if err != nil {
			return entries, err
		}
		if e != nil {
			entries = append(entries, e)
		}
		off += n
	}
	return entries, nil
}

func decodeOneEntry(buf []byte) (*Entry, int, error) {
	if len(buf) < 8+types.HashSize+8 {
		return nil, 0, ErrEntryTruncated
	}
	off := 0
	numHashes := binary.LittleEndian.Uint64(buf[off:])
	off += 8

	var hash types.Hash
	copy(hash[:], buf[off:off+types.HashSize])
	off += types.HashSize

	numTxs := binary.LittleEndian.Uint64(buf[off:])
	off += 8

	txs := make([]*Transaction, 0, numTxs)
	overCap := false
	entryBytes := 0

	for i := uint64(0); i < numTxs; i++ {
		txLen, n, err := DecodeCompactU16(buf[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if off+int(txLen) > len(buf) {
			return nil, 0, ErrEntryTruncated
		}
		txBytes := buf[off : off+int(txLen)]
		off += int(txLen)
		entryBytes += int(txLen)

		if entryBytes > MaxTransactionBytes {
			overCap = true
			continue
		}
		tx, consumed, err := DecodeTransaction(txBytes)
		if err != nil || consumed != len(txBytes) {
			overCap = true
			continue
		}
		txs = append(txs, tx)
	}

	if overCap {
		// Over-cap -> discard entry (§4.4), but still report how many
		// bytes were consumed so the caller can keep parsing the stream.
		return nil, off, nil
	}

	return &Entry{NumHashes: numHashes, Hash: hash, Transactions: txs}, off, nil
}
