// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package votesubmit

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	"github.com/luxfi/valnode/entry"
	"github.com/luxfi/valnode/gossip"
	"github.com/luxfi/valnode/leader"
	"github.com/luxfi/valnode/log"
	"github.com/luxfi/valnode/metrics"
	"github.com/luxfi/valnode/rpcclient"
	"github.com/luxfi/valnode/tower"
	"github.com/luxfi/valnode/types"
)

// DefaultCadence matches the target slot time (§4.9).
const DefaultCadence = 400 * time.Millisecond

// DefaultRedundancy is the number of upcoming leaders a vote is
// broadcast to (§4.9, §6.8).
const DefaultRedundancy = 4

// BankSource supplies the submitter with the current candidate slot,
// the root bank's recent blockhash, and the tower's can-vote check
// without the submitter depending on the bank/fork packages directly
// (§9 "resolve cyclic references ... with explicit setters").
type BankSource interface {
	CandidateSlot() (types.Slot, bool)
	RootBankBlockhash() (types.Hash, bool)
	CandidateBankHash(slot types.Slot) (types.Hash, bool)
	IsDescendant(ancestor, candidate types.Slot) bool
}

// TPUClient dispatches a signed, encoded transaction to a resolved
// ingress address. Failures to send are non-fatal per §4.9: "fire and
// forget; confirmation is observed via later slot replay."
type TPUClient interface {
	Send(ctx context.Context, address string, txBytes []byte) error
}

// Submitter is C9: the dedicated vote-submission tile.
type Submitter struct {
	identity       ed25519.PrivateKey
	identityPubkey types.Pubkey
	voteAccountPk  types.Pubkey
	voteProgramPk  types.Pubkey

	cadence    time.Duration
	redundancy int

	tower    *tower.Tower
	bank     BankSource
	leaders  *leader.Cache
	contacts *gossip.ContactTable
	rpc      *rpcclient.Client
	tpu      TPUClient
	metrics  *metrics.Metrics
	log      log.Logger

	towerDir string

	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New constructs a Submitter. Collaborators absent at construction
// time (bank source, TPU client) are wired via setters, per the
// cyclic-reference resolution in §9.
func New(identity ed25519.PrivateKey, identityPubkey, voteAccountPk, voteProgramPk types.Pubkey, cadence time.Duration, redundancy int, t *tower.Tower, leaders *leader.Cache, contacts *gossip.ContactTable, rpc *rpcclient.Client, m *metrics.Metrics, lg log.Logger) *Submitter {
	if cadence <= 0 {
		cadence = DefaultCadence
	}
	if redundancy <= 0 {
		redundancy = DefaultRedundancy
	}
	return &Submitter{
		identity:       identity,
		identityPubkey: identityPubkey,
		voteAccountPk:  voteAccountPk,
		voteProgramPk:  voteProgramPk,
		cadence:        cadence,
		redundancy:     redundancy,
		tower:          t,
		leaders:        leaders,
		contacts:       contacts,
		rpc:            rpc,
		metrics:        m,
		log:            lg,
	}
}

// SetBankSource wires the replay-path collaborator post-construction.
func (s *Submitter) SetBankSource(b BankSource) { s.bank = b }

// SetTPUClient wires the network dispatch collaborator post-construction.
func (s *Submitter) SetTPUClient(tpu TPUClient) { s.tpu = tpu }

// SetTowerDir enables write-through tower persistence after every
// recorded vote (§4.7, §9: "Tower's on-disk persistence is a
// write-through after each vote"). Left unset, the tower is kept
// in-memory only, which callers must not do in production.
func (s *Submitter) SetTowerDir(dir string) { s.towerDir = dir }

// Start runs the tick loop until Stop is called (§4.9, §5). Start
// only runs if voting is enabled and a vote account is configured,
// per §4.9 lifecycle — callers are expected to gate that decision
// before calling Start.
func (s *Submitter) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cadence)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.stopped.Load() {
					return
				}
				s.tick(ctx)
			}
		}
	}()
}

// Stop sets the shutdown flag checked between sleeps (§4.9, §5).
func (s *Submitter) Stop() {
	s.stopped.Store(true)
}

// Wait blocks until the tick loop goroutine has exited.
func (s *Submitter) Wait() { s.wg.Wait() }

func (s *Submitter) tick(ctx context.Context) {
	candidateSlot, ok := s.bank.CandidateSlot()
	if !ok {
		s.skip("no_candidate_slot")
		return
	}

	if lastVote, have := s.tower.LastVoteSlot(); have && candidateSlot <= lastVote {
		s.skip("already_voted")
		return
	}

	if !s.tower.CanVote(candidateSlot, s.bank.IsDescendant) {
		s.skip("lockout_conflict")
		return
	}

	candidateHash, ok := s.bank.CandidateBankHash(candidateSlot)
	if !ok {
		s.skip("bank_not_frozen")
		return
	}

	blockhash := s.resolveBlockhash(ctx)

	now := time.Now()
	s.tower.RecordVote(candidateSlot, candidateHash, now)
	if s.towerDir != "" {
		if err := s.tower.Save(s.towerDir); err != nil {
			if s.log != nil {
				s.log.Error("tower persistence failed after vote, stopping vote submission", "err", err)
			}
			s.Stop()
			return
		}
	}
	root, haveRoot := s.tower.RootSlot()
	stack := s.tower.Stack()
	latest := stack[len(stack)-1]

	tx := BuildVoteTransaction(s.identity, s.identityPubkey, s.voteAccountPk, s.voteProgramPk, blockhash, root, haveRoot, latest, candidateHash, now.Unix())
	txBytes := entry.EncodeTransaction(tx)

	s.dispatch(ctx, candidateSlot, txBytes)
	if s.metrics != nil {
		s.metrics.VotesCast.Inc()
	}
}

func (s *Submitter) skip(reason string) {
	if s.metrics != nil {
		s.metrics.VoteSkipped.WithLabelValues(reason).Inc()
	}
}

// resolveBlockhash implements the three-tier strategy of §4.9: the
// root bank's blockhash, an RPC fallback while the bank isn't seeded
// yet, and a synthesized last-resort hash so voting degrades rather
// than stalls.
func (s *Submitter) resolveBlockhash(ctx context.Context) types.Hash {
	if h, ok := s.bank.RootBankBlockhash(); ok {
		return h
	}
	if s.rpc != nil {
		if h, err := s.rpc.GetLatestBlockhash(ctx); err == nil {
			return h
		} else if s.log != nil {
			s.log.Warn("getLatestBlockhash fallback failed, synthesizing blockhash", "err", err)
		}
	}
	return syntheticBlockhash()
}

// syntheticBlockhashSentinel tags a degraded, network-free blockhash
// so its origin is recognizable if it ever surfaces downstream.
var syntheticBlockhashSentinel = [8]byte{'d', 'e', 'g', 'r', 'a', 'd', 'e', 'd'}

func syntheticBlockhash() types.Hash {
	h := sha256.New()
	h.Write(syntheticBlockhashSentinel[:])
	var ts [8]byte
	binary.LittleEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))
	h.Write(ts[:])
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// dispatch sends txBytes to the next redundancy upcoming leaders'
// TPU ingress endpoints, resolved lazily; a resolution failure for one
// endpoint never blocks the others (§4.9).
func (s *Submitter) dispatch(ctx context.Context, fromSlot types.Slot, txBytes []byte) {
	if s.tpu == nil {
		return
	}
	leaders := s.leaders.NextLeaders(fromSlot+1, s.redundancy)
	sent := 0
	for _, pk := range leaders {
		addr, ok := s.contacts.TPUAddress(pk)
		if !ok {
			continue
		}
		if err := s.tpu.Send(ctx, addr, txBytes); err != nil {
			if s.metrics != nil {
				s.metrics.VoteTxDispatchFailed.Inc()
			}
			if s.log != nil {
				s.log.Warn("vote tx dispatch failed", "leader", pk.String(), "err", err)
			}
			continue
		}
		sent++
	}
	if sent > 0 && s.metrics != nil {
		s.metrics.VoteTxSent.Inc()
	}
}
