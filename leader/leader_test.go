// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package leader

import (
	"testing"

	"github.com/luxfi/valnode/types"
)

func TestLeaderForUnknownSlot(t *testing.T) {
	c := New(types.Pubkey{1})
	if _, ok := c.LeaderFor(5); ok {
		t.Fatal("expected unknown slot to miss")
	}
}

func TestPopulateAndLeaderFor(t *testing.T) {
	var self, other types.Pubkey
	self[0], other[0] = 1, 2
	c := New(self)
	c.Populate(map[types.Slot]types.Pubkey{10: self, 11: other})

	pk, ok := c.LeaderFor(10)
	if !ok || pk != self {
		t.Fatalf("LeaderFor(10) = %v, %v", pk, ok)
	}
	pk, ok = c.LeaderFor(11)
	if !ok || pk != other {
		t.Fatalf("LeaderFor(11) = %v, %v", pk, ok)
	}
}

func TestPopulateMergesAcrossEpochs(t *testing.T) {
	c := New(types.Pubkey{1})
	c.Populate(map[types.Slot]types.Pubkey{1: {9}})
	c.Populate(map[types.Slot]types.Pubkey{2: {8}})

	if _, ok := c.LeaderFor(1); !ok {
		t.Fatal("expected slot from first Populate call to survive a second call")
	}
	if _, ok := c.LeaderFor(2); !ok {
		t.Fatal("expected slot from second Populate call to be present")
	}
}

func TestIsSelfLeader(t *testing.T) {
	var self, other types.Pubkey
	self[0], other[0] = 1, 2
	c := New(self)
	c.Populate(map[types.Slot]types.Pubkey{10: self, 11: other})

	if !c.IsSelfLeader(10) {
		t.Fatal("expected self to be leader at slot 10")
	}
	if c.IsSelfLeader(11) {
		t.Fatal("expected self to not be leader at slot 11")
	}
	if c.IsSelfLeader(12) {
		t.Fatal("expected unknown slot to not be self-led")
	}
}

func TestNextLeadersSkipsUnknownSlotsAndRespectsCount(t *testing.T) {
	c := New(types.Pubkey{1})
	c.Populate(map[types.Slot]types.Pubkey{10: {1}, 12: {2}, 14: {3}})

	leaders := c.NextLeaders(10, 2)
	if len(leaders) != 2 {
		t.Fatalf("expected 2 leaders, got %d", len(leaders))
	}
	if leaders[0] != (types.Pubkey{1}) || leaders[1] != (types.Pubkey{2}) {
		t.Fatalf("unexpected leaders: %v", leaders)
	}
}

func TestNextLeadersGivesUpAfterSearchWindow(t *testing.T) {
	c := New(types.Pubkey{1})
	// No schedule populated at all within the search window.
	leaders := c.NextLeaders(0, 3)
	if len(leaders) != 0 {
		t.Fatalf("expected no leaders, got %d", len(leaders))
	}
}
