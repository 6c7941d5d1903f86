// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package votesubmittest provides in-memory fakes of the vote
// submitter's collaborators, for exercising C9 without a real bank,
// fork manager, or network.
package votesubmittest

import (
	"context"
	"sync"

	"github.com/luxfi/valnode/types"
)

// FakeBankSource is a BankSource test double driven entirely by
// fields the test sets directly.
type FakeBankSource struct {
	mu sync.Mutex

	Slot        types.Slot
	HaveSlot    bool
	RootHash    types.Hash
	HaveRoot    bool
	BankHashes  map[types.Slot]types.Hash
	Descendants map[[2]types.Slot]bool
}

// NewFakeBankSource creates an empty fake.
func NewFakeBankSource() *FakeBankSource {
	return &FakeBankSource{
		BankHashes:  make(map[types.Slot]types.Hash),
		Descendants: make(map[[2]types.Slot]bool),
	}
}

func (f *FakeBankSource) CandidateSlot() (types.Slot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Slot, f.HaveSlot
}

func (f *FakeBankSource) RootBankBlockhash() (types.Hash, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RootHash, f.HaveRoot
}

func (f *FakeBankSource) CandidateBankHash(slot types.Slot) (types.Hash, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.BankHashes[slot]
	return h, ok
}

func (f *FakeBankSource) IsDescendant(ancestor, candidate types.Slot) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ancestor == candidate {
		return true
	}
	return f.Descendants[[2]types.Slot{ancestor, candidate}]
}

// SetSlot advances the candidate slot the fake reports.
func (f *FakeBankSource) SetSlot(slot types.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Slot, f.HaveSlot = slot, true
}

// SetBankHash records slot's bank hash, marking it frozen.
func (f *FakeBankSource) SetBankHash(slot types.Slot, hash types.Hash) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BankHashes[slot] = hash
}

// SetDescendant records that candidate descends from ancestor on the
// active fork.
func (f *FakeBankSource) SetDescendant(ancestor, candidate types.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Descendants[[2]types.Slot{ancestor, candidate}] = true
}

// FakeTPUClient records every send it receives instead of touching
// the network.
type FakeTPUClient struct {
	mu   sync.Mutex
	Sent []FakeSend

	// FailFor, if set, makes Send return an error for that address.
	FailFor map[string]bool
}

// FakeSend is one recorded dispatch.
type FakeSend struct {
	Address string
	TxBytes []byte
}

// NewFakeTPUClient creates an empty fake.
func NewFakeTPUClient() *FakeTPUClient {
	return &FakeTPUClient{FailFor: make(map[string]bool)}
}

func (f *FakeTPUClient) Send(_ context.Context, address string, txBytes []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailFor[address] {
		return errSendFailed
	}
	f.Sent = append(f.Sent, FakeSend{Address: address, TxBytes: txBytes})
	return nil
}

// SentCount returns the number of successful sends recorded so far.
func (f *FakeTPUClient) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}

var errSendFailed = &sendError{"votesubmittest: simulated send failure"}

type sendError struct{ msg string }

func (e *sendError) Error() string { return e.msg }
