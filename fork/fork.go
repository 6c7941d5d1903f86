// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fork implements C6: the stake-weighted fork choice manager.
package fork

import (
	"sync"

	"github.com/luxfi/valnode/bank"
	"github.com/luxfi/valnode/metrics"
	"github.com/luxfi/valnode/types"
)

// Status is a ForkEntry's lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusComplete
	StatusOrphaned
)

// Entry is one slot's fork-choice bookkeeping.
type Entry struct {
	Slot        types.Slot
	Parent      types.Slot
	HasParent   bool
	Bank        *bank.Bank
	Status      Status
	VoteCount   uint64
	StakeWeight uint64
	Children    []types.Slot
}

// retentionWindow is how far below root pruned entries are kept for
// observability (§4.6 "set_root").
const retentionWindow = 1000

// Manager is C6: holds every known fork entry, a cached best slot, a
// cached root, and a memoized weight cache.
type Manager struct {
	mu         sync.RWMutex
	entries    map[types.Slot]*Entry
	root       types.Slot
	haveRoot   bool
	best       types.Slot
	haveBest   bool
	weightCache map[types.Slot]uint64
	metrics    *metrics.Metrics
}

// NewManager creates a Manager rooted at root (§4.10 "instantiate the
// fork manager with root = start_slot").
func NewManager(root types.Slot, rootBank *bank.Bank, m *metrics.Metrics) *Manager {
	mgr := &Manager{
		entries: make(map[types.Slot]*Entry),
		root:    root,
		haveRoot: true,
		best:    root,
		haveBest: true,
		metrics: m,
	}
	mgr.entries[root] = &Entry{Slot: root, Bank: rootBank, Status: StatusComplete}
	return mgr
}

// AddFork creates a new entry under parent and resets the weight
// cache (§4.6).
func (m *Manager) AddFork(slot, parent types.Slot, b *bank.Bank) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[slot] = &Entry{Slot: slot, Parent: parent, HasParent: true, Bank: b, Status: StatusPending}
	if p, ok := m.entries[parent]; ok {
		p.Children = append(p.Children, slot)
	}
	m.invalidateWeightsLocked()
}

// MarkComplete transitions slot to complete and recomputes the best
// fork (§4.6).
func (m *Manager) MarkComplete(slot types.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[slot]
	if !ok {
		return
	}
	e.Status = StatusComplete
	m.recomputeBestLocked()
}

// RecordVote increments vote_count/stake_weight at slot and
// recomputes the best fork (§4.6).
func (m *Manager) RecordVote(slot types.Slot, stake uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[slot]
	if !ok {
		return
	}
	e.VoteCount++
	e.StakeWeight += stake
	m.invalidateWeightsLocked()
	m.recomputeBestLocked()
}

// SetRoot advances the root; every entry that is neither an ancestor
// nor a descendant of newRoot is orphaned, then entries older than newRoot-retentionWindow are pruned
// (§4.6). newRoot must be >= the current root.
func (m *Manager) SetRoot(newRoot types.Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.haveRoot && newRoot < m.root {
		return
	}

	// Any entry that is neither an ancestor of the new root nor a
	// descendant of it sits on a fork that lost — orphan it (§4.6).
	// This includes both slots below the new root on an abandoned
	// branch and slots "alongside" it (e.g. a sibling fork tip whose
	// slot number happens to be higher than the new root).
	for slot, e := range m.entries {
		if m.isAncestorLocked(slot, newRoot) || m.isAncestorLocked(newRoot, slot) {
			continue
		}
		e.Status = StatusOrphaned
	}

	if newRoot > retentionWindow {
		floor := newRoot - retentionWindow
		for slot := range m.entries {
			if slot < floor {
				delete(m.entries, slot)
			}
		}
	}

	m.root = newRoot
	m.haveRoot = true
	m.invalidateWeightsLocked()
	m.recomputeBestLocked()
	if m.metrics != nil {
		m.metrics.RootSlot.Set(float64(newRoot))
	}
}

// Root returns the current root slot.
func (m *Manager) Root() types.Slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root
}

// BestSlot returns the tip reached by descending from the root along
// the heaviest non-orphaned child at each step, tie-broken by higher
// slot (§4.6).
func (m *Manager) BestSlot() types.Slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.best
}

// Get returns the fork entry for slot, if known.
func (m *Manager) Get(slot types.Slot) (*Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[slot]
	return e, ok
}

// IsAncestor reports whether a is an ancestor of b by walking parent
// links, O(depth) (§4.6).
func (m *Manager) IsAncestor(a, b types.Slot) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isAncestorLocked(a, b)
}

func (m *Manager) isAncestorLocked(a, b types.Slot) bool {
	cur := b
	for {
		if cur == a {
			return true
		}
		e, ok := m.entries[cur]
		if !ok || !e.HasParent {
			return false
		}
		cur = e.Parent
	}
}

func (m *Manager) invalidateWeightsLocked() {
	m.weightCache = nil
}

// weightLocked computes weight(slot) = stake_weight + sum(weight(child))
// over non-orphaned children, memoized per call batch (§4.6).
func (m *Manager) weightLocked(slot types.Slot) uint64 {
	if m.weightCache == nil {
		m.weightCache = make(map[types.Slot]uint64)
	}
	if w, ok := m.weightCache[slot]; ok {
		return w
	}
	e, ok := m.entries[slot]
	if !ok {
		return 0
	}
	total := e.StakeWeight
	for _, child := range e.Children {
		ce, ok := m.entries[child]
		if !ok || ce.Status == StatusOrphaned {
			continue
		}
		total += m.weightLocked(child)
	}
	m.weightCache[slot] = total
	return total
}

// recomputeBestLocked walks from the root down to a tip, at each step
// following the heaviest non-orphaned child (ties broken by higher
// slot), GHOST-style (§4.6). A global argmax over weightLocked would
// always pick an ancestor over its descendants, since an ancestor's
// weight includes every descendant's — descending the tree is what
// actually picks the fork carrying the most stake.
func (m *Manager) recomputeBestLocked() {
	if !m.haveRoot {
		return
	}
	cur, ok := m.entries[m.root]
	if !ok || cur.Status == StatusOrphaned {
		return
	}
	bestSlot := m.root
	for {
		var nextChild types.Slot
		var nextWeight uint64
		haveNext := false
		for _, child := range cur.Children {
			ce, ok := m.entries[child]
			if !ok || ce.Status == StatusOrphaned {
				continue
			}
			w := m.weightLocked(child)
			if !haveNext || w > nextWeight || (w == nextWeight && child > nextChild) {
				nextChild, nextWeight, haveNext = child, w, true
			}
		}
		if !haveNext {
			break
		}
		bestSlot = nextChild
		cur = m.entries[nextChild]
	}

	switched := m.haveBest && bestSlot != m.best
	m.best = bestSlot
	m.haveBest = true
	if switched && m.metrics != nil {
		m.metrics.ForkSwitches.Inc()
	}
	if m.metrics != nil {
		m.metrics.BestSlot.Set(float64(bestSlot))
	}
}
