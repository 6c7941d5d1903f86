// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shred

import (
	"sync"

	"github.com/luxfi/valnode/fec"
	"github.com/luxfi/valnode/metrics"
	"github.com/luxfi/valnode/types"
)

// InsertOutcome reports what happened to an inserted shred (§4.1).
type InsertOutcome struct {
	Duplicate    bool
	Accepted     bool
	SlotComplete bool
}

// slotState is the per-slot shred map (§3 "Slot Shreds").
type slotState struct {
	dataMap        map[uint32]*Shred
	codeMap        map[uint32]*Shred
	highestData    uint32
	haveHighest    bool
	lastInSlotSeen bool
	lastInSlotIdx  uint32
	complete       bool
}

func newSlotState() *slotState {
	return &slotState{
		dataMap: make(map[uint32]*Shred),
		codeMap: make(map[uint32]*Shred),
	}
}

// Assembler is C1: dedups, validates, and groups incoming shreds by
// (slot, FEC set), driving FEC recovery (C2) as code shreds arrive.
type Assembler struct {
	mu            sync.Mutex
	shredVersion  uint16
	slots         map[types.Slot]*slotState
	resolver      *fec.Resolver
	metrics       *metrics.Metrics
	onSlotComplete func(types.Slot)
}

// NewAssembler creates an Assembler expecting shredVersion on every
// inserted shred. onSlotComplete, if non-nil, is invoked (outside the
// assembler's lock) whenever a slot transitions to complete.
func NewAssembler(shredVersion uint16, maxFECDepth int, m *metrics.Metrics, onSlotComplete func(types.Slot)) *Assembler {
	return &Assembler{
		shredVersion:   shredVersion,
		slots:          make(map[types.Slot]*slotState),
		resolver:       fec.NewResolver(maxFECDepth),
		metrics:        m,
		onSlotComplete: onSlotComplete,
	}
}

func (a *Assembler) getOrCreateSlot(slot types.Slot) *slotState {
	s, ok := a.slots[slot]
	if !ok {
		s = newSlotState()
		a.slots[slot] = s
	}
	return s
}

// Insert parses and admits a raw shred envelope (§4.1). Parse failures
// are counted and swallowed, matching the shred-level failure model
// in §7: they never propagate to the caller as an error.
func (a *Assembler) Insert(raw []byte) InsertOutcome {
	parsed, err := Parse(raw, a.shredVersion)
	if err != nil {
		if a.metrics != nil {
			a.metrics.ShredsRejected.WithLabelValues(err.Error()).Inc()
		}
		return InsertOutcome{}
	}
	return a.insertParsed(parsed)
}

func (a *Assembler) insertParsed(s *Shred) InsertOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot := a.getOrCreateSlot(s.Slot)
	fecKey := fec.Key{Slot: s.Slot, SetIndex: s.FECSetIndex}

	switch s.Kind {
	case KindData:
		if _, dup := slot.dataMap[s.Index]; dup {
			if a.metrics != nil {
				a.metrics.ShredsDuplicate.Inc()
			}
			return InsertOutcome{Duplicate: true}
		}
		slot.dataMap[s.Index] = s
		if !slot.haveHighest || s.Index > slot.highestData {
			slot.highestData = s.Index
			slot.haveHighest = true
		}
		if s.Flags&FlagLastInSlot != 0 {
			slot.lastInSlotSeen = true
			slot.lastInSlotIdx = s.Index
		}
		a.resolver.AddDataShred(fecKey, int(s.Index), s.Payload, s.Signature)
		if a.metrics != nil {
			a.metrics.ShredsAccepted.Inc()
		}

	case KindCode:
		if _, dup := slot.codeMap[s.Index]; dup {
			if a.metrics != nil {
				a.metrics.ShredsDuplicate.Inc()
			}
			return InsertOutcome{Duplicate: true}
		}
		slot.codeMap[s.Index] = s
		if err := a.resolver.AddCodeShred(fecKey, int(s.Position), s.Payload, int(s.NumData), int(s.NumCode), s.Signature); err != nil {
			if a.metrics != nil {
				a.metrics.ShredsRejected.WithLabelValues("fec_count_mismatch").Inc()
			}
			return InsertOutcome{}
		}
		if a.metrics != nil {
			a.metrics.ShredsAccepted.Inc()
		}
		a.tryRecoverLocked(slot, fecKey, s)
	}

	wasComplete := slot.complete
	if a.isSlotAssembledLocked(slot) {
		slot.complete = true
	}
	nowComplete := slot.complete && !wasComplete
	if nowComplete && a.metrics != nil {
		a.metrics.SlotsAssembled.Inc()
	}

	out := InsertOutcome{Accepted: true, SlotComplete: slot.complete}
	if nowComplete && a.onSlotComplete != nil {
		cb, completedSlot := a.onSlotComplete, s.Slot
		a.mu.Unlock()
		cb(completedSlot)
		a.mu.Lock()
	}
	return out
}

// tryRecoverLocked attempts FEC recovery on key and, for every
// recovered data shred, synthesizes a Shred and re-inserts it into the
// data map with the latched set signature (§4.1, §4.2 invariants).
func (a *Assembler) tryRecoverLocked(slot *slotState, key fec.Key, triggering *Shred) {
	result, err := a.resolver.TryRecover(key)
	if err != nil || result.Status != fec.Recovered {
		if a.metrics != nil && result.Status == fec.CannotRecover {
			a.metrics.FECRecoverFailed.Inc()
		}
		return
	}
	multi := len(result.Recovered) > 1
	for pos, payload := range result.Recovered {
		if _, already := slot.dataMap[uint32(pos)]; already {
			continue
		}
		recovered := &Shred{
			Signature:    triggering.Signature,
			Kind:         KindData,
			Slot:         triggering.Slot,
			Index:        uint32(pos),
			ShredVersion: triggering.ShredVersion,
			FECSetIndex:  triggering.FECSetIndex,
			Payload:      payload,
		}
		slot.dataMap[uint32(pos)] = recovered
		if !slot.haveHighest || recovered.Index > slot.highestData {
			slot.highestData = recovered.Index
			slot.haveHighest = true
		}
	}
	if a.metrics != nil {
		if multi {
			a.metrics.FECRecoverMulti.Inc()
		} else {
			a.metrics.FECRecoverSingle.Inc()
		}
	}
}

func (a *Assembler) isSlotAssembledLocked(slot *slotState) bool {
	if !slot.lastInSlotSeen {
		return false
	}
	for i := uint32(0); i <= slot.lastInSlotIdx; i++ {
		if _, ok := slot.dataMap[i]; !ok {
			return false
		}
	}
	return true
}

// MissingIndices returns every index in [0, upper] absent from the data
// map, where upper is the highest data index seen, or the last_in_slot
// index when that is higher (§4.1). No index above the highest seen
// data shred is reported while last_in_slot has not been seen.
func (a *Assembler) MissingIndices(slot types.Slot) []uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.slots[slot]
	if !ok || !s.haveHighest {
		return nil
	}
	upper := s.highestData
	if s.lastInSlotSeen && s.lastInSlotIdx > upper {
		upper = s.lastInSlotIdx
	}
	var missing []uint32
	for i := uint32(0); i <= upper; i++ {
		if _, ok := s.dataMap[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Assemble returns the concatenation of data-shred payloads in index
// order iff the slot is complete (§4.1).
func (a *Assembler) Assemble(slot types.Slot) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.slots[slot]
	if !ok || !s.complete {
		return nil, false
	}
	var out []byte
	for i := uint32(0); i <= s.lastInSlotIdx; i++ {
		out = append(out, s.dataMap[i].Payload...)
	}
	return out, true
}

// Evict drops all state for slot (§4.1).
func (a *Assembler) Evict(slot types.Slot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.slots, slot)
}
