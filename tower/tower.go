// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tower implements C7: the Tower-BFT lockout stack. Tower
// consumes {candidate_slot, candidate_bank_hash} from the replay path
// and produces {vote_slot, vote_hash, timestamp, root_slot_at_vote}
// (§4.7). It never reads or writes accounts.
package tower

import (
	"sync"
	"time"

	"github.com/luxfi/valnode/types"
)

// MaxLockoutHistory is the stack's maximum depth (§4.7).
const MaxLockoutHistory = 31

// Lockout is one entry in the stack: a commitment not to vote on a
// competing fork for 2^ConfirmationCount slots (GLOSSARY).
type Lockout struct {
	Slot             types.Slot
	ConfirmationCount uint32
}

// ExpirationSlot is the slot below which this lockout no longer
// conflicts with a candidate.
func (l Lockout) ExpirationSlot() types.Slot {
	return l.Slot + types.Slot(1<<l.ConfirmationCount)
}

// AncestorTest is supplied by the replay/fork-choice collaborator so
// Tower can ask "is candidate a descendant of slot on the active
// fork" without depending on the fork package directly.
type AncestorTest func(ancestor, candidate types.Slot) bool

// Tower is the consensus tile's exclusive lockout state (§5 "exclusive
// to consensus tile").
type Tower struct {
	mu sync.Mutex

	identity types.Pubkey
	stack    []Lockout
	rootSlot types.Slot
	haveRoot bool

	lastVoteSlot  types.Slot
	haveLastVote  bool
	lastVotedHash types.Hash
	lastTimestamp int64
}

// New creates an empty tower bound to identity (§4.10 step 5).
func New(identity types.Pubkey) *Tower {
	return &Tower{identity: identity}
}

// Identity returns the validator identity this tower votes as.
func (t *Tower) Identity() types.Pubkey { return t.identity }

// RootSlot returns the tower's root and whether one has been set yet.
func (t *Tower) RootSlot() (types.Slot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rootSlot, t.haveRoot
}

// LastVoteSlot returns the most recent vote slot and whether any vote
// has been cast.
func (t *Tower) LastVoteSlot() (types.Slot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastVoteSlot, t.haveLastVote
}

// Stack returns a copy of the current lockout stack, oldest first.
func (t *Tower) Stack() []Lockout {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Lockout, len(t.stack))
	copy(out, t.stack)
	return out
}

// CanVote implements the can-vote predicate (§4.7): for every lockout
// whose expiration has not yet passed candidateSlot, candidateSlot
// must descend from that lockout's slot on the active fork.
func (t *Tower) CanVote(candidateSlot types.Slot, isDescendant AncestorTest) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.haveLastVote && candidateSlot <= t.lastVoteSlot {
		return false
	}
	for _, lockout := range t.stack {
		if lockout.ExpirationSlot() > candidateSlot {
			if !isDescendant(lockout.Slot, candidateSlot) {
				return false
			}
		}
	}
	return true
}

// RecordVote applies the §4.7 vote-application algorithm. It returns
// nothing; a root established by the vote is read with RootSlot.
func (t *Tower) RecordVote(candidateSlot types.Slot, candidateBankHash types.Hash, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Step 1: pop every back-of-stack lockout whose confirmation_count
	// has reached the cap; the highest popped slot becomes the new
	// root_slot (monotonic, per §4.7 and the Open Question on pop
	// ordering: only capped lockouts are popped, matching the
	// reference implementation precisely).
	i := 0
	for i < len(t.stack) && t.stack[i].ConfirmationCount >= MaxLockoutHistory {
		i++
	}
	if i > 0 {
		poppedRoot := t.stack[i-1].Slot
		if !t.haveRoot || poppedRoot > t.rootSlot {
			t.rootSlot = poppedRoot
			t.haveRoot = true
		}
		t.stack = t.stack[i:]
	}

	// Step 2: increment confirmation_count of every surviving lockout,
	// capped at MaxLockoutHistory.
	for j := range t.stack {
		if t.stack[j].ConfirmationCount < MaxLockoutHistory {
			t.stack[j].ConfirmationCount++
		}
	}

	// Step 3: push the new lockout.
	t.stack = append(t.stack, Lockout{Slot: candidateSlot, ConfirmationCount: 1})

	// Step 4: record the vote.
	t.lastVoteSlot = candidateSlot
	t.haveLastVote = true
	t.lastVotedHash = candidateBankHash
	t.lastTimestamp = now.Unix()
}

// LastVotedHash returns the bank hash of the most recent vote.
func (t *Tower) LastVotedHash() types.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastVotedHash
}

// LastTimestamp returns the unix timestamp of the most recent vote.
func (t *Tower) LastTimestamp() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastTimestamp
}
