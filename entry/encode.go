// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package entry

import (
	"bytes"
	"encoding/binary"

	"github.com/luxfi/valnode/types"
)

// EncodeTransaction serializes tx to the §6.3 wire format.
func EncodeTransaction(tx *Transaction) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(len(tx.Signatures)))
	for _, sig := range tx.Signatures {
		buf.Write(sig[:])
	}
	buf.WriteByte(tx.Header.RequiredSigs)
	buf.WriteByte(tx.Header.ReadonlySigned)
	buf.WriteByte(tx.Header.ReadonlyUnsigned)

	buf.Write(EncodeCompactU16(uint16(len(tx.AccountKeys))))
	for _, k := range tx.AccountKeys {
		buf.Write(k[:])
	}
	buf.Write(tx.RecentBlockhash[:])

	buf.Write(EncodeCompactU16(uint16(len(tx.Instructions))))
	for _, ins := range tx.Instructions {
		buf.WriteByte(ins.ProgramIDIndex)
		buf.Write(EncodeCompactU16(uint16(len(ins.AccountIndexes))))
		buf.Write(ins.AccountIndexes)
		buf.Write(EncodeCompactU16(uint16(len(ins.Data))))
		buf.Write(ins.Data)
	}
	return buf.Bytes()
}

// EncodeEntry serializes a tick or transaction-bearing entry to the
// §4.4 wire format, suitable for handing to the shredder (C11).
func EncodeEntry(numHashes uint64, hash types.Hash, txs []*Transaction) []byte {
	var buf bytes.Buffer
	var tmp [8]byte

	binary.LittleEndian.PutUint64(tmp[:], numHashes)
	buf.Write(tmp[:])
	buf.Write(hash[:])
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(txs)))
	buf.Write(tmp[:])

	for _, tx := range txs {
		raw := EncodeTransaction(tx)
		buf.Write(EncodeCompactU16(uint16(len(raw))))
		buf.Write(raw)
	}
	return buf.Bytes()
}
