// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package leader implements C8: the leader schedule cache, populated
// either from an RPC fetch at bootstrap or derived from a stake
// distribution snapshot via seeded shuffle (§4.8).
package leader

import (
	"sync"

	"github.com/luxfi/valnode/types"
)

// Cache maps slot -> leader pubkey for the current (and optionally
// next) epoch, refreshed under an RwLock-style discipline at epoch
// boundaries (§5).
type Cache struct {
	mu       sync.RWMutex
	schedule map[types.Slot]types.Pubkey
	self     types.Pubkey
}

// New creates an empty Cache; self identifies this validator so
// IsSelfLeader can answer without a map lookup round-trip.
func New(self types.Pubkey) *Cache {
	return &Cache{
		schedule: make(map[types.Slot]types.Pubkey),
		self:     self,
	}
}

// Populate merges schedule into the cache, e.g. after an RPC fetch or
// a derivation pass (§4.8): slots in schedule overwrite existing
// entries and all other entries are kept, so calling it once per epoch
// accumulates every epoch's slots.
func (c *Cache) Populate(schedule map[types.Slot]types.Pubkey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for slot, pk := range schedule {
		c.schedule[slot] = pk
	}
}

// LeaderFor returns the scheduled leader for slot, if known (§4.8).
func (c *Cache) LeaderFor(slot types.Slot) (types.Pubkey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pk, ok := c.schedule[slot]
	return pk, ok
}

// IsSelfLeader reports whether this validator leads slot, used to
// switch the runtime into the (out-of-scope) block-production path
// (§4.8).
func (c *Cache) IsSelfLeader(slot types.Slot) bool {
	pk, ok := c.LeaderFor(slot)
	return ok && pk == c.self
}

// NextLeaders returns up to n leaders, in slot order, of the first
// slots with a known leader among the 4n slots starting at fromSlot
// (inclusive), used by the vote submitter's redundancy policy (§4.9, §6.8).
func (c *Cache) NextLeaders(fromSlot types.Slot, n int) []types.Pubkey {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Pubkey, 0, n)
	for slot := fromSlot; len(out) < n && slot < fromSlot+types.Slot(n)*4; slot++ {
		if pk, ok := c.schedule[slot]; ok {
			out = append(out, pk)
		}
	}
	return out
}
