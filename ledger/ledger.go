// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger implements the durable shred/entry store the
// bootstrap sequencer (C10) opens alongside the accounts store
// (§4.10 step 2): raw shred envelopes, keyed by (slot, kind, index),
// kept for repair and replay-from-disk after a restart.
package ledger

import (
	"encoding/binary"

	"github.com/cockroachdb/pebble"

	"github.com/luxfi/valnode/types"
)

// Store wraps a pebble database keyed by (slot, kind, index).
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) a pebble-backed ledger store at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Kind discriminates the stored shred's role, mirroring shred.Kind
// without importing the shred package (ledger sits below it).
type Kind byte

const (
	KindData Kind = 0
	KindCode Kind = 1
)

func key(slot types.Slot, kind Kind, index uint32) []byte {
	buf := make([]byte, 8+1+4)
	binary.BigEndian.PutUint64(buf[0:8], uint64(slot)) // big-endian: keys sort by slot
	buf[8] = byte(kind)
	binary.BigEndian.PutUint32(buf[9:13], index)
	return buf
}

// PutShred persists a raw shred envelope.
func (s *Store) PutShred(slot types.Slot, kind Kind, index uint32, raw []byte) error {
	return s.db.Set(key(slot, kind, index), raw, pebble.Sync)
}

// GetShred loads a previously persisted shred envelope, if present.
func (s *Store) GetShred(slot types.Slot, kind Kind, index uint32) ([]byte, bool, error) {
	value, closer, err := s.db.Get(key(slot, kind, index))
	if err == pebble.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// DeleteSlot removes slot's shreds of both kinds with index at most
// highestIndex.
func (s *Store) DeleteSlot(slot types.Slot, highestIndex uint32) error {
	batch := s.db.NewBatch()
	lowerData := key(slot, KindData, 0)
	upperData := key(slot, KindData, highestIndex+1)
	if err := batch.DeleteRange(lowerData, upperData, nil); err != nil {
		return err
	}
	lowerCode := key(slot, KindCode, 0)
	upperCode := key(slot, KindCode, highestIndex+1)
	if err := batch.DeleteRange(lowerCode, upperCode, nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

// Close closes the underlying pebble database.
func (s *Store) Close() error { return s.db.Close() }
