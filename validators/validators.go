// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validators holds the stake-weighted validator set used to
// derive a leader schedule deterministically from a stake snapshot,
// strategy (2) of C8 (§4.8).
package validators

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/luxfi/valnode/types"
)

// Set is an immutable snapshot of (pubkey, stake) pairs for one epoch.
type Set struct {
	entries []entry
	total   uint64
}

type entry struct {
	pubkey types.Pubkey
	stake  uint64
}

// NewSet builds a Set from a stake map, normalizing iteration order so
// schedule derivation is reproducible regardless of map order.
func NewSet(stakes map[types.Pubkey]uint64) *Set {
	s := &Set{entries: make([]entry, 0, len(stakes))}
	for pk, stake := range stakes {
		if stake == 0 {
			continue
		}
		s.entries = append(s.entries, entry{pubkey: pk, stake: stake})
		s.total += stake
	}
	sort.Slice(s.entries, func(i, j int) bool {
		for b := 0; b < types.PubkeySize; b++ {
			if s.entries[i].pubkey[b] != s.entries[j].pubkey[b] {
				return s.entries[i].pubkey[b] < s.entries[j].pubkey[b]
			}
		}
		return false
	})
	return s
}

// TotalStake returns the sum of all stake in the set.
func (s *Set) TotalStake() uint64 { return s.total }

// StakeOf returns pk's stake, 0 if not present.
func (s *Set) StakeOf(pk types.Pubkey) uint64 {
	for _, e := range s.entries {
		if e.pubkey == pk {
			return e.stake
		}
	}
	return 0
}

// DeriveSchedule produces a deterministic slot->leader map for
// [startSlot, startSlot+slotCount) via a seeded weighted shuffle over
// the stake distribution (§4.8 strategy 2, "required for
// self-sufficiency").
//
// The shuffle is a stake-weighted variant of Fisher-Yates: at each
// step every remaining candidate's selection probability is
// proportional to its stake, with the per-step draw derived from
// SHA-256(seed || index) so the result is reproducible from the seed
// alone (no external RNG state to synchronize across validators).
func (s *Set) DeriveSchedule(seed []byte, startSlot types.Slot, slotCount uint64) map[types.Slot]types.Pubkey {
	schedule := make(map[types.Slot]types.Pubkey, slotCount)
	if len(s.entries) == 0 || s.total == 0 {
		return schedule
	}

	remaining := make([]entry, len(s.entries))
	copy(remaining, s.entries)
	remainingTotal := s.total

	for i := uint64(0); i < slotCount; i++ {
		if len(remaining) == 0 {
			// Stake pool exhausted by draws-without-replacement;
			// restart the pool so the schedule never runs dry.
			remaining = make([]entry, len(s.entries))
			copy(remaining, s.entries)
			remainingTotal = s.total
		}

		draw := seededDraw(seed, i, remainingTotal)
		idx := selectWeighted(remaining, draw)
		schedule[startSlot+types.Slot(i)] = remaining[idx].pubkey

		remainingTotal -= remaining[idx].stake
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return schedule
}

// seededDraw derives a value in [0, bound) from SHA-256(seed || index).
func seededDraw(seed []byte, index uint64, bound uint64) uint64 {
	if bound == 0 {
		return 0
	}
	h := sha256.New()
	h.Write(seed)
	var idxBuf [8]byte
	binary.LittleEndian.PutUint64(idxBuf[:], index)
	h.Write(idxBuf[:])
	sum := h.Sum(nil)
	v := binary.LittleEndian.Uint64(sum[:8])
	return v % bound
}

// selectWeighted walks the cumulative stake distribution to find the
// entry containing draw.
func selectWeighted(entries []entry, draw uint64) int {
	var cumulative uint64
	for i, e := range entries {
		cumulative += e.stake
		if draw < cumulative {
			return i
		}
	}
	return len(entries) - 1
}
