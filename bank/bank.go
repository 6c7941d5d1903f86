// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bank implements C5: per-slot execution against a copy-on-
// write view of account state, producing a deterministic bank hash
// once frozen (§4.5).
package bank

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"

	"github.com/luxfi/valnode/accounts"
	"github.com/luxfi/valnode/entry"
	"github.com/luxfi/valnode/log"
	"github.com/luxfi/valnode/metrics"
	"github.com/luxfi/valnode/types"
)

// BaseFeeLamports is the fixed per-signature fee (§4.5).
const BaseFeeLamports = 5000

// BatchResult summarizes a process_batch call (§4.5).
type BatchResult struct {
	NSuccessful int
	NFailed     int
	Fees        uint64
}

// Bank is one slot's execution context. A non-frozen Bank inherits
// its parent's accounts view through an in-memory copy-on-write chain
// (§5 "shared resource policy"); the root bank of the chain falls
// back to the durable accounts.Store.
type Bank struct {
	mu sync.RWMutex

	slot           types.Slot
	parent         *Bank
	parentHash     types.Hash
	store          *accounts.Store // only consulted by the root of the in-memory chain
	overlay        map[types.Pubkey]*accounts.Account
	vm             bpfVM

	frozen          bool
	bankHash        types.Hash
	signatureCount  uint64
	transactionCount uint64
	feesCollected   uint64
	lastBlockhash   types.Hash

	metrics *metrics.Metrics
	log     log.Logger
}

// NewRoot creates the chain's root bank: no parent, accounts resolved
// through store (§4.10 "create the root bank at start_slot with no parent").
func NewRoot(slot types.Slot, store *accounts.Store, m *metrics.Metrics, lg log.Logger) *Bank {
	return &Bank{
		slot:          slot,
		store:         store,
		overlay:       make(map[types.Pubkey]*accounts.Account),
		lastBlockhash: genesisBlockhash(slot),
		metrics:       m,
		log:           lg,
	}
}

// genesisBlockhash seeds the root bank's blockhash register when no
// snapshot-derived hash is available.
func genesisBlockhash(slot types.Slot) types.Hash {
	h := sha256.New()
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], uint64(slot))
	h.Write([]byte("genesis"))
	h.Write(le[:])
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// NewChild creates a non-frozen child bank at newSlot inheriting
// parent's accounts view (§4.5 "new_child").
func (b *Bank) NewChild(newSlot types.Slot) *Bank {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Bank{
		slot:          newSlot,
		parent:        b,
		parentHash:    b.bankHash,
		overlay:       make(map[types.Pubkey]*accounts.Account),
		lastBlockhash: b.bankHash,
		vm:            b.vm,
		metrics:       b.metrics,
		log:           b.log,
	}
}

// Slot returns the bank's slot.
func (b *Bank) Slot() types.Slot { return b.slot }

// ParentBankHash returns the hash this bank was forked from.
func (b *Bank) ParentBankHash() types.Hash { return b.parentHash }

// IsFrozen reports whether the bank accepts further mutation.
func (b *Bank) IsFrozen() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frozen
}

// BankHash returns the frozen bank's hash; zero if not yet frozen.
func (b *Bank) BankHash() types.Hash {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bankHash
}

// SetVM wires the BPF VM collaborator post-construction (§9 wiring-
// by-setters pattern).
func (b *Bank) SetVM(vm bpfVM) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vm = vm
}

// GetAccount resolves pk by walking the overlay chain up to the root,
// then the backing store (§5 copy-on-write fork semantics).
func (b *Bank) GetAccount(pk types.Pubkey) (*accounts.Account, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.getAccountLocked(pk)
}

func (b *Bank) getAccountLocked(pk types.Pubkey) (*accounts.Account, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		if cur != b {
			cur.mu.RLock()
		}
		acct, ok := cur.overlay[pk]
		if cur != b {
			cur.mu.RUnlock()
		}
		if ok {
			return acct, true
		}
		if cur.parent == nil && cur.store != nil {
			stored, found, err := cur.store.Get(pk)
			if err == nil && found {
				return stored, true
			}
			return nil, false
		}
	}
	return nil, false
}

// GetBalance returns pk's lamport balance, 0 if the account does not exist.
func (b *Bank) GetBalance(pk types.Pubkey) uint64 {
	acct, ok := b.GetAccount(pk)
	if !ok {
		return 0
	}
	return acct.Lamports
}

// ErrFrozen is returned by ProcessBatch on an already-frozen bank.
var ErrFrozen = types.ErrBankFrozen

// ProcessBatch executes txs against the bank's copy-on-write view
// (§4.5 per-transaction pipeline).
func (b *Bank) ProcessBatch(txs []*entry.Transaction) (BatchResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return BatchResult{}, ErrFrozen
	}

	var result BatchResult
	for _, tx := range txs {
		ok, fee := b.processOneLocked(tx)
		result.Fees += fee
		b.feesCollected += fee
		b.signatureCount += uint64(tx.SignatureCount())
		if ok {
			result.NSuccessful++
			b.transactionCount++
		} else {
			result.NFailed++
		}
	}
	return result, nil
}

// processOneLocked runs the five-step pipeline in §4.5 for a single
// transaction, returning whether it committed and the fee charged.
func (b *Bank) processOneLocked(tx *entry.Transaction) (bool, uint64) {
	// Step 1: signatures are assumed pre-verified by the ingest path
	// (inline verification pool, §5); a transaction reaching the bank
	// with zero signatures cannot have been authorized.
	if tx.SignatureCount() == 0 {
		b.recordFailure(types.ErrSignatureFailure)
		return false, 0
	}

	fee := BaseFeeLamports * uint64(tx.SignatureCount())
	payerPk := tx.AccountKeys[0]
	payer := b.loadForMutation(payerPk)
	if payer.Lamports < fee {
		b.recordFailure(types.ErrInsufficientFundsForFee)
		return false, 0
	}

	if len(tx.AccountKeys) > entry.MaxAccounts {
		b.recordFailure(types.ErrTooManyAccounts)
		return false, 0
	}

	loaded := make([]*accounts.Account, len(tx.AccountKeys))
	seen := make(map[types.Pubkey]*accounts.Account, len(tx.AccountKeys))
	for i, pk := range tx.AccountKeys {
		if acct, ok := seen[pk]; ok {
			loaded[i] = acct
			continue
		}
		acct := b.loadForMutation(pk)
		seen[pk] = acct
		loaded[i] = acct
	}

	var totalComputeUnits uint64
	for _, ins := range tx.Instructions {
		if int(ins.ProgramIDIndex) >= len(loaded) {
			b.recordFailure(types.ErrInvalidInstruction)
			payer.Lamports -= fee
			return false, fee
		}
		programID := tx.AccountKeys[ins.ProgramIDIndex]
		res := dispatch(programID, ins, loaded, b.vm)

		next := totalComputeUnits + res.ComputeUnitsConsumed
		if next < totalComputeUnits { // overflow
			b.recordFailure(types.ErrComputeBudgetExceeded)
			payer.Lamports -= fee
			return false, fee
		}
		totalComputeUnits = next

		if res.Err != nil {
			b.recordFailureErr(res.Err)
			payer.Lamports -= fee
			return false, fee
		}
	}

	payer.Lamports -= fee
	b.lastBlockhash = tx.RecentBlockhash
	return true, fee
}

// loadForMutation returns the overlay's mutable copy of pk, cloning
// from an ancestor or the store on first touch within this bank
// (copy-on-write, §5).
func (b *Bank) loadForMutation(pk types.Pubkey) *accounts.Account {
	if acct, ok := b.overlay[pk]; ok {
		return acct
	}
	existing, _ := b.getAccountLocked(pk)
	clone := existing.Clone()
	if clone == nil {
		clone = &accounts.Account{}
	}
	b.overlay[pk] = clone
	return clone
}

func (b *Bank) recordFailure(err error) { b.recordFailureErr(err) }

func (b *Bank) recordFailureErr(err error) {
	if b.metrics != nil {
		b.metrics.TxFailed.WithLabelValues(err.Error()).Inc()
	}
}

// Freeze computes the bank hash and rejects further mutation (§4.5,
// idempotent).
func (b *Bank) Freeze() types.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return b.bankHash
	}
	deltaHash := accounts.DeltaHash(b.overlay)
	b.bankHash = computeBankHash(b.parentHash, deltaHash, b.signatureCount, b.lastBlockhash)
	b.frozen = true
	if b.metrics != nil {
		b.metrics.TxProcessed.Add(float64(b.transactionCount))
		b.metrics.FeesLamports.Add(float64(b.feesCollected))
	}
	return b.bankHash
}

// RecentBlockhash returns the blockhash the vote submitter's primary
// path (§4.9) reads directly off the bank with no network call.
func (b *Bank) RecentBlockhash() types.Hash {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastBlockhash
}

// computeBankHash implements §4.5's
// bank_hash = SHA256(parent_bank_hash ‖ accounts_delta_hash ‖ signature_count_le ‖ recent_blockhash).
func computeBankHash(parentHash, deltaHash types.Hash, signatureCount uint64, recentBlockhash types.Hash) types.Hash {
	h := sha256.New()
	h.Write(parentHash[:])
	h.Write(deltaHash[:])
	var sigCountLE [8]byte
	binary.LittleEndian.PutUint64(sigCountLE[:], signatureCount)
	h.Write(sigCountLE[:])
	h.Write(recentBlockhash[:])
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}
