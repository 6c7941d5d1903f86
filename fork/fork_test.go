// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fork

import (
	"testing"

	"github.com/luxfi/valnode/types"
)

func TestNewManagerStartsAtRoot(t *testing.T) {
	mgr := NewManager(10, nil, nil)
	if mgr.Root() != 10 {
		t.Fatalf("Root() = %d, want 10", mgr.Root())
	}
	if mgr.BestSlot() != 10 {
		t.Fatalf("BestSlot() = %d, want 10", mgr.BestSlot())
	}
}

func TestAddForkAndBestSlotWeightedByVotes(t *testing.T) {
	mgr := NewManager(1, nil, nil)
	mgr.AddFork(2, 1, nil)
	mgr.AddFork(3, 1, nil)
	mgr.MarkComplete(2)
	mgr.MarkComplete(3)

	mgr.RecordVote(2, 100)
	if mgr.BestSlot() != 2 {
		t.Fatalf("BestSlot() = %d, want 2 after heavier vote", mgr.BestSlot())
	}

	mgr.RecordVote(3, 200)
	if mgr.BestSlot() != 3 {
		t.Fatalf("BestSlot() = %d, want 3 after outweighing vote", mgr.BestSlot())
	}
}

func TestBestSlotTieBrokenByHigherSlot(t *testing.T) {
	mgr := NewManager(1, nil, nil)
	mgr.AddFork(2, 1, nil)
	mgr.AddFork(3, 1, nil)
	mgr.MarkComplete(2)
	mgr.MarkComplete(3)
	mgr.RecordVote(2, 50)
	mgr.RecordVote(3, 50)
	if mgr.BestSlot() != 3 {
		t.Fatalf("BestSlot() = %d, want 3 (higher slot on tie)", mgr.BestSlot())
	}
}

func TestWeightAccumulatesUpChain(t *testing.T) {
	// 1->2->3 and 1->4 compete at the root. 2 has no votes of its own,
	// but 3's stake accumulates up through weight(2), so 2 must still
	// beat the unvoted sibling 4 — exercising that a parent inherits
	// its descendants' weight without letting that inheritance make a
	// parent beat its own child (§4.6).
	mgr := NewManager(1, nil, nil)
	mgr.AddFork(2, 1, nil)
	mgr.AddFork(3, 2, nil)
	mgr.AddFork(4, 1, nil)
	mgr.MarkComplete(2)
	mgr.MarkComplete(3)
	mgr.MarkComplete(4)
	mgr.RecordVote(3, 10)
	if mgr.BestSlot() != 3 {
		t.Fatalf("BestSlot() = %d, want 3 (tip of the heavier branch)", mgr.BestSlot())
	}
}

func TestIsAncestor(t *testing.T) {
	mgr := NewManager(1, nil, nil)
	mgr.AddFork(2, 1, nil)
	mgr.AddFork(3, 2, nil)
	if !mgr.IsAncestor(1, 3) {
		t.Fatal("expected 1 to be an ancestor of 3")
	}
	if mgr.IsAncestor(3, 1) {
		t.Fatal("did not expect 3 to be an ancestor of 1")
	}
}

func TestSetRootOrphansSiblingForks(t *testing.T) {
	// Forks 1->2->3 and 1->2->4; set_root(3) must orphan 4 even though
	// 4 > 3, since 4 is neither an ancestor nor a descendant of 3.
	mgr := NewManager(1, nil, nil)
	mgr.AddFork(2, 1, nil)
	mgr.AddFork(3, 2, nil)
	mgr.AddFork(4, 2, nil)
	mgr.MarkComplete(2)
	mgr.MarkComplete(3)
	mgr.MarkComplete(4)

	mgr.SetRoot(3)

	e4, ok := mgr.Get(4)
	if !ok {
		t.Fatal("expected entry 4 to still exist (within retention window)")
	}
	if e4.Status != StatusOrphaned {
		t.Fatalf("expected slot 4 to be orphaned, got status %v", e4.Status)
	}
	e3, ok := mgr.Get(3)
	if !ok || e3.Status == StatusOrphaned {
		t.Fatal("expected slot 3 (the new root) to not be orphaned")
	}
}

func TestSetRootIgnoresRegression(t *testing.T) {
	mgr := NewManager(5, nil, nil)
	mgr.SetRoot(3)
	if mgr.Root() != 5 {
		t.Fatalf("Root() = %d, want 5 (regression ignored)", mgr.Root())
	}
}

func TestSetRootPrunesBeyondRetentionWindow(t *testing.T) {
	mgr := NewManager(1, nil, nil)
	mgr.AddFork(2, 1, nil)
	newRoot := types.Slot(retentionWindow + 100)
	mgr.SetRoot(newRoot)
	if _, ok := mgr.Get(2); ok {
		t.Fatal("expected slot 2 to be pruned once far below the retention window")
	}
}

func TestRecordVoteOnUnknownSlotIsNoop(t *testing.T) {
	mgr := NewManager(1, nil, nil)
	mgr.RecordVote(999, 100) // should not panic, should not affect best
	if mgr.BestSlot() != 1 {
		t.Fatalf("BestSlot() = %d, want 1", mgr.BestSlot())
	}
}
