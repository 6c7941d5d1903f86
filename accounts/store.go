// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package accounts

import (
	"errors"
	"sort"

	"github.com/luxfi/database"

	"github.com/luxfi/valnode/merkle"
	"github.com/luxfi/valnode/types"
)

const keyPrefix = 'a'

func storeKey(pk types.Pubkey) []byte {
	key := make([]byte, 1+types.PubkeySize)
	key[0] = keyPrefix
	copy(key[1:], pk[:])
	return key
}

// Store is the durable, pubkey-keyed accounts table backing the
// rooted timeline (§5 shared-resource policy: "shared-readable,
// exclusively-writable per (slot, writer)"). Forked, not-yet-rooted
// banks hold their own in-memory copy-on-write overlay (owned by
// bank.Bank) and only flush into Store once their slot is rooted.
type Store struct {
	db database.Database
}

// New wraps a key/value database as an accounts Store.
func New(db database.Database) *Store {
	return &Store{db: db}
}

// Get loads the committed account for pk, if any.
func (s *Store) Get(pk types.Pubkey) (*Account, bool, error) {
	raw, err := s.db.Get(storeKey(pk))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	acct, ok := decodeAccount(raw)
	if !ok {
		return nil, false, nil
	}
	return acct, true, nil
}

// CommitSlot flushes a rooted bank's mutated accounts to the backing
// store in a single batch (§4.5 "commit mutated accounts back to the
// store").
func (s *Store) CommitSlot(mutations map[types.Pubkey]*Account) error {
	if len(mutations) == 0 {
		return nil
	}
	batch := s.db.NewBatch()
	for pk, acct := range mutations {
		if err := batch.Put(storeKey(pk), encodeAccount(acct)); err != nil {
			return err
		}
	}
	return batch.Write()
}

// Close releases the backing database.
func (s *Store) Close() error { return s.db.Close() }

// DeltaHash computes the Merkle root over a slot's modified accounts,
// sorted by pubkey, one leaf per account over pubkey ‖ encoded account,
// required by the bank-hash formula
// (§4.5: "this hash MUST be implemented for snapshots to be
// produced").
func DeltaHash(mutations map[types.Pubkey]*Account) types.Hash {
	if len(mutations) == 0 {
		var zero types.Hash
		return zero
	}
	pks := make([]types.Pubkey, 0, len(mutations))
	for pk := range mutations {
		pks = append(pks, pk)
	}
	sort.Slice(pks, func(i, j int) bool {
		for b := 0; b < types.PubkeySize; b++ {
			if pks[i][b] != pks[j][b] {
				return pks[i][b] < pks[j][b]
			}
		}
		return false
	})

	leaves := make([]types.Hash, 0, len(pks))
	for _, pk := range pks {
		leaf := append(append([]byte(nil), pk[:]...), encodeAccount(mutations[pk])...)
		leaves = append(leaves, merkle.LeafHash(leaf))
	}
	tree, err := merkle.Build(leaves)
	if err != nil {
		var zero types.Hash
		return zero
	}
	return tree.Root()
}
