// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gossip provides the minimal contact-info collaborator the
// vote submitter (C9) needs: resolving a leader pubkey to its TPU
// ingress address (§4.9, §6.8). Full gossip membership/discovery is
// out of this core's scope; this is the narrow read side it depends on.
package gossip

import (
	"sync"

	"github.com/luxfi/valnode/types"
)

// ContactInfo is the subset of a peer's gossip-advertised metadata the
// vote submitter needs.
type ContactInfo struct {
	TPUAddress string
}

// ContactTable is an in-memory pubkey -> contact-info map, populated
// externally as gossip CRDS entries are observed.
type ContactTable struct {
	mu      sync.RWMutex
	entries map[types.Pubkey]ContactInfo
}

// NewContactTable creates an empty table.
func NewContactTable() *ContactTable {
	return &ContactTable{entries: make(map[types.Pubkey]ContactInfo)}
}

// Put records or replaces pk's contact info.
func (t *ContactTable) Put(pk types.Pubkey, info ContactInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[pk] = info
}

// TPUAddress resolves pk's TPU ingress address, if known (§6.8:
// "Endpoints are resolved by looking up each leader pubkey in the
// gossip contact-info table... and reading its TPU address").
func (t *ContactTable) TPUAddress(pk types.Pubkey) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	info, ok := t.entries[pk]
	if !ok || info.TPUAddress == "" {
		return "", false
	}
	return info.TPUAddress, true
}
