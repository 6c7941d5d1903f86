// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package gossip

import (
	"testing"

	"github.com/luxfi/valnode/types"
)

func TestTPUAddressUnknownPubkey(t *testing.T) {
	table := NewContactTable()
	if _, ok := table.TPUAddress(types.Pubkey{1}); ok {
		t.Fatal("expected unknown pubkey to miss")
	}
}

func TestPutAndTPUAddress(t *testing.T) {
	table := NewContactTable()
	pk := types.Pubkey{1}
	table.Put(pk, ContactInfo{TPUAddress: "127.0.0.1:8001"})

	addr, ok := table.TPUAddress(pk)
	if !ok || addr != "127.0.0.1:8001" {
		t.Fatalf("TPUAddress = %q, %v", addr, ok)
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	table := NewContactTable()
	pk := types.Pubkey{1}
	table.Put(pk, ContactInfo{TPUAddress: "127.0.0.1:8001"})
	table.Put(pk, ContactInfo{TPUAddress: "127.0.0.1:9001"})

	addr, ok := table.TPUAddress(pk)
	if !ok || addr != "127.0.0.1:9001" {
		t.Fatalf("expected updated address, got %q, %v", addr, ok)
	}
}

func TestTPUAddressEmptyStringTreatedAsUnknown(t *testing.T) {
	table := NewContactTable()
	pk := types.Pubkey{1}
	table.Put(pk, ContactInfo{TPUAddress: ""})

	if _, ok := table.TPUAddress(pk); ok {
		t.Fatal("expected an empty TPUAddress to be treated as unresolved")
	}
}
