// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bank

import "github.com/luxfi/valnode/types"

// DefaultSlotsPerEpoch is the steady-state epoch length (§4.5).
const DefaultSlotsPerEpoch = 432_000

// EpochSchedule computes epoch(slot) deterministically, optionally
// warming up with doubling epoch sizes until first_normal_epoch
// (§4.5).
type EpochSchedule struct {
	SlotsPerEpoch     uint64
	WarmupEnabled     bool
	FirstNormalEpoch  uint64
	FirstNormalSlot   uint64
}

// NewEpochSchedule builds a schedule with optional warmup: epoch sizes
// double starting from minimumSlotsPerEpoch (32) until slotsPerEpoch is
// reached, after which epochs are fixed-size.
func NewEpochSchedule(slotsPerEpoch uint64, warmup bool) EpochSchedule {
	const minimumSlotsPerEpoch = 32
	if !warmup || slotsPerEpoch <= minimumSlotsPerEpoch {
		return EpochSchedule{SlotsPerEpoch: slotsPerEpoch}
	}

	firstNormalEpoch := uint64(0)
	size := minimumSlotsPerEpoch
	total := uint64(0)
	for size < slotsPerEpoch {
		total += uint64(size)
		size *= 2
		firstNormalEpoch++
	}
	return EpochSchedule{
		SlotsPerEpoch:    slotsPerEpoch,
		WarmupEnabled:    true,
		FirstNormalEpoch: firstNormalEpoch,
		FirstNormalSlot:  total,
	}
}

// Epoch returns the epoch number containing slot.
func (s EpochSchedule) Epoch(slot types.Slot) uint64 {
	if !s.WarmupEnabled || uint64(slot) >= s.FirstNormalSlot {
		if !s.WarmupEnabled {
			return uint64(slot) / s.SlotsPerEpoch
		}
		remaining := uint64(slot) - s.FirstNormalSlot
		return s.FirstNormalEpoch + remaining/s.SlotsPerEpoch
	}

	const minimumSlotsPerEpoch = 32
	epoch := uint64(0)
	size := uint64(minimumSlotsPerEpoch)
	remaining := uint64(slot)
	for {
		if remaining < size {
			return epoch
		}
		remaining -= size
		size *= 2
		epoch++
	}
}
