// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runtime wires a bootstrapped node's collaborators into the
// running "tiles" of §5: the replay stage that drains completed slots
// from the shred assembler and drives the bank/fork/tower pipeline,
// and the vote-submission tile. Modeled on luxfi-consensus's
// mutex-guarded Engine with explicit Start/Stop/IsRunning.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/valnode/bank"
	"github.com/luxfi/valnode/bootstrap"
	"github.com/luxfi/valnode/entry"
	"github.com/luxfi/valnode/log"
	"github.com/luxfi/valnode/metrics"
	"github.com/luxfi/valnode/shred"
	"github.com/luxfi/valnode/types"
)

// Runtime supervises the long-lived tiles of a bootstrapped node. The
// zero value is not usable; construct with New.
type Runtime struct {
	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	group    *errgroup.Group

	result    *bootstrap.Result
	assembler *shred.Assembler
	metrics   *metrics.Metrics
	log       log.Logger

	// headSlot is the shared current-slot pointer (§9): written with
	// release semantics by the replay tile as each slot freezes, read
	// by the vote submitter tile without a mutex.
	headSlot atomic.Uint64

	banksMu sync.Mutex
	banks   map[types.Slot]*bank.Bank
	head    *bank.Bank
}

// New wires a Runtime from a completed bootstrap.Result. The shred
// assembler is constructed here (not in bootstrap) because its
// onSlotComplete callback must close over the Runtime driving replay.
func New(result *bootstrap.Result, shredVersion uint16, maxFECDepth int, m *metrics.Metrics, lg log.Logger) *Runtime {
	rt := &Runtime{
		result:  result,
		metrics: m,
		log:     lg,
		banks:   map[types.Slot]*bank.Bank{result.RootBank.Slot(): result.RootBank},
		head:    result.RootBank,
	}
	rt.headSlot.Store(uint64(result.RootBank.Slot()))
	rt.assembler = shred.NewAssembler(shredVersion, maxFECDepth, m, rt.handleSlotComplete)
	if result.Submitter != nil {
		result.Submitter.SetBankSource(rt)
	}
	return rt
}

// IngestShred feeds one raw wire-format shred (§6.2) into the
// assembler. The network RX tile that sources these bytes is an
// external boundary (§5) and out of scope here.
func (rt *Runtime) IngestShred(raw []byte) shred.InsertOutcome {
	return rt.assembler.Insert(raw)
}

// Start launches the vote-submission tile (if voting is enabled) and
// returns. The replay stage itself has no background goroutine: it
// runs synchronously inside handleSlotComplete, which the assembler
// invokes on whichever goroutine called IngestShred, matching §5's
// "replay stage is conceptually single-threaded."
func (rt *Runtime) Start(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.running {
		return fmt.Errorf("runtime: already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	rt.cancel = cancel
	rt.group = group
	rt.running = true

	if rt.result.Submitter != nil {
		group.Go(func() error {
			rt.result.Submitter.Start(groupCtx)
			<-groupCtx.Done()
			rt.result.Submitter.Stop()
			rt.result.Submitter.Wait()
			return nil
		})
	}
	return nil
}

// Stop cancels every tile and blocks until they exit.
func (rt *Runtime) Stop() error {
	rt.mu.Lock()
	if !rt.running {
		rt.mu.Unlock()
		return nil
	}
	cancel, group := rt.cancel, rt.group
	rt.running = false
	rt.mu.Unlock()

	cancel()
	return group.Wait()
}

// IsRunning reports whether Start has been called without a matching Stop.
func (rt *Runtime) IsRunning() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.running
}

// HeadSlot returns the most recently frozen slot (§9 shared pointer).
func (rt *Runtime) HeadSlot() types.Slot { return types.Slot(rt.headSlot.Load()) }

// handleSlotComplete is the replay stage (§4.5 orchestration): it
// assembles the slot's entries, executes them against a new child
// bank of the current head, freezes the bank, and folds the result
// into the fork manager before advancing the head.
func (rt *Runtime) handleSlotComplete(slot types.Slot) {
	raw, ok := rt.assembler.Assemble(slot)
	if !ok {
		return
	}
	entries, err := entry.DecodeEntries(raw)
	if err != nil {
		rt.log.Warn("replay: slot entries failed to decode, skipping slot", "slot", slot, "err", err)
		rt.assembler.Evict(slot)
		return
	}

	rt.banksMu.Lock()
	parent := rt.head
	rt.banksMu.Unlock()

	b := parent.NewChild(slot)
	for _, e := range entries {
		if e.IsTick() {
			continue
		}
		if _, err := b.ProcessBatch(e.Transactions); err != nil {
			rt.log.Warn("replay: batch processing error", "slot", slot, "err", err)
		}
	}
	b.Freeze()

	rt.banksMu.Lock()
	rt.banks[slot] = b
	rt.head = b
	rt.banksMu.Unlock()

	rt.result.Forks.AddFork(slot, parent.Slot(), b)
	rt.result.Forks.MarkComplete(slot)
	rt.headSlot.Store(uint64(slot))
	rt.assembler.Evict(slot)
}

// --- votesubmit.BankSource ---

// CandidateSlot returns the most recently frozen slot, loaded from the
// shared current-slot pointer; ok is false while that slot is still
// the fork manager's root.
func (rt *Runtime) CandidateSlot() (types.Slot, bool) {
	head := types.Slot(rt.headSlot.Load())
	if head == rt.result.Forks.Root() {
		return 0, false
	}
	return head, true
}

// RootBankBlockhash returns the root bank's recent blockhash.
func (rt *Runtime) RootBankBlockhash() (types.Hash, bool) {
	rt.banksMu.Lock()
	root, ok := rt.banks[rt.result.Forks.Root()]
	rt.banksMu.Unlock()
	if !ok {
		return types.Hash{}, false
	}
	return root.RecentBlockhash(), true
}

// CandidateBankHash returns slot's bank hash, if its bank has frozen.
func (rt *Runtime) CandidateBankHash(slot types.Slot) (types.Hash, bool) {
	rt.banksMu.Lock()
	b, ok := rt.banks[slot]
	rt.banksMu.Unlock()
	if !ok || !b.IsFrozen() {
		return types.Hash{}, false
	}
	return b.BankHash(), true
}

// IsDescendant reports whether candidate descends from ancestor on
// the fork manager's tracked tree.
func (rt *Runtime) IsDescendant(ancestor, candidate types.Slot) bool {
	return rt.result.Forks.IsAncestor(ancestor, candidate)
}

var _ interface {
	CandidateSlot() (types.Slot, bool)
	RootBankBlockhash() (types.Hash, bool)
	CandidateBankHash(types.Slot) (types.Hash, bool)
	IsDescendant(types.Slot, types.Slot) bool
} = (*Runtime)(nil)
