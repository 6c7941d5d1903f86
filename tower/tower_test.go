// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tower

import (
	"testing"
	"time"

	"github.com/luxfi/valnode/types"
)

func allDescendant(types.Slot, types.Slot) bool { return true }
func noneDescendant(types.Slot, types.Slot) bool { return false }

func TestCanVoteBeforeAnyVote(t *testing.T) {
	tw := New(types.Pubkey{})
	if !tw.CanVote(10, allDescendant) {
		t.Fatal("expected CanVote true with empty stack")
	}
}

func TestCanVoteRejectsNonIncreasingSlot(t *testing.T) {
	tw := New(types.Pubkey{})
	tw.RecordVote(5, types.Hash{}, time.Unix(0, 0))
	if tw.CanVote(5, allDescendant) {
		t.Fatal("expected CanVote false for repeating the last-voted slot")
	}
	if tw.CanVote(4, allDescendant) {
		t.Fatal("expected CanVote false for a slot behind the last vote")
	}
}

func TestCanVoteRejectsLockoutViolation(t *testing.T) {
	tw := New(types.Pubkey{})
	tw.RecordVote(1, types.Hash{}, time.Unix(0, 0)) // lockout expires at 1+2^1=3
	if tw.CanVote(2, noneDescendant) {
		t.Fatal("expected CanVote false when candidate is not a descendant of an unexpired lockout")
	}
	if !tw.CanVote(2, allDescendant) {
		t.Fatal("expected CanVote true when candidate descends from the lockout")
	}
}

func TestRecordVoteIncrementsConfirmationCounts(t *testing.T) {
	tw := New(types.Pubkey{})
	tw.RecordVote(1, types.Hash{}, time.Unix(0, 0))
	tw.RecordVote(2, types.Hash{}, time.Unix(0, 0))

	stack := tw.Stack()
	if len(stack) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(stack))
	}
	if stack[0].Slot != 1 || stack[0].ConfirmationCount != 2 {
		t.Fatalf("expected slot 1 confirmation count 2, got %+v", stack[0])
	}
	if stack[1].Slot != 2 || stack[1].ConfirmationCount != 1 {
		t.Fatalf("expected slot 2 confirmation count 1, got %+v", stack[1])
	}
}

func TestRecordVotePopsAtMaxLockoutAndSetsRoot(t *testing.T) {
	tw := New(types.Pubkey{})
	slot := types.Slot(0)
	for i := 0; i <= MaxLockoutHistory; i++ {
		tw.RecordVote(slot, types.Hash{}, time.Unix(0, 0))
		slot++
	}
	root, haveRoot := tw.RootSlot()
	if !haveRoot {
		t.Fatal("expected a root to be established after enough votes to saturate lockout")
	}
	if root != 0 {
		t.Fatalf("expected root slot 0 (first vote popped), got %d", root)
	}
}

func TestRootIsMonotonic(t *testing.T) {
	tw := New(types.Pubkey{})
	slot := types.Slot(0)
	for i := 0; i <= MaxLockoutHistory+5; i++ {
		tw.RecordVote(slot, types.Hash{}, time.Unix(0, 0))
		slot++
	}
	root1, _ := tw.RootSlot()
	tw.RecordVote(slot, types.Hash{}, time.Unix(0, 0))
	root2, _ := tw.RootSlot()
	if root2 < root1 {
		t.Fatalf("root regressed: %d -> %d", root1, root2)
	}
}

func TestLastVotedHashAndTimestamp(t *testing.T) {
	tw := New(types.Pubkey{})
	var h types.Hash
	h[0] = 0x9
	now := time.Unix(12345, 0)
	tw.RecordVote(1, h, now)
	if tw.LastVotedHash() != h {
		t.Fatal("LastVotedHash mismatch")
	}
	if tw.LastTimestamp() != 12345 {
		t.Fatalf("LastTimestamp = %d, want 12345", tw.LastTimestamp())
	}
}

func TestExpirationSlot(t *testing.T) {
	l := Lockout{Slot: 10, ConfirmationCount: 3}
	if l.ExpirationSlot() != 18 {
		t.Fatalf("ExpirationSlot() = %d, want 18", l.ExpirationSlot())
	}
}
