// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luxfi/valnode/types"
)

func TestParseFilenameFull(t *testing.T) {
	meta, ok := ParseFilename("snapshot-12345-3Bx4fRk9.tar.zst")
	if !ok {
		t.Fatal("expected full snapshot filename to parse")
	}
	if meta.Incremental {
		t.Fatal("expected Incremental false")
	}
	if meta.Slot != 12345 {
		t.Fatalf("Slot = %d, want 12345", meta.Slot)
	}
	if meta.HashBase58 != "3Bx4fRk9" {
		t.Fatalf("HashBase58 = %q", meta.HashBase58)
	}
}

func TestParseFilenameIncremental(t *testing.T) {
	meta, ok := ParseFilename("incremental-snapshot-100-200-3Bx4fRk9.tar.zst")
	if !ok {
		t.Fatal("expected incremental snapshot filename to parse")
	}
	if !meta.Incremental {
		t.Fatal("expected Incremental true")
	}
	if meta.BaseSlot != 100 || meta.Slot != 200 {
		t.Fatalf("BaseSlot/Slot = %d/%d, want 100/200", meta.BaseSlot, meta.Slot)
	}
}

func TestParseFilenameRejectsGarbage(t *testing.T) {
	for _, name := range []string{"not-a-snapshot.tar.zst", "snapshot-abc-xyz.tar.zst", "snapshot-1-0OIl.tar.zst"} {
		if _, ok := ParseFilename(name); ok {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestFormatAndParseRoundTrip(t *testing.T) {
	var hash types.Hash
	hash[0] = 0xAB
	name := FormatFullFilename(500, hash)
	meta, ok := ParseFilename(filepath.Base(name))
	if !ok {
		t.Fatalf("expected formatted filename %q to parse back", name)
	}
	if meta.Slot != 500 {
		t.Fatalf("Slot = %d, want 500", meta.Slot)
	}

	incName := FormatIncrementalFilename(100, 500, hash)
	incMeta, ok := ParseFilename(incName)
	if !ok {
		t.Fatalf("expected formatted incremental filename %q to parse back", incName)
	}
	if incMeta.BaseSlot != 100 || incMeta.Slot != 500 {
		t.Fatalf("BaseSlot/Slot = %d/%d, want 100/500", incMeta.BaseSlot, incMeta.Slot)
	}
}

func TestDiscoverPrefersFullOverIncremental(t *testing.T) {
	dir := t.TempDir()
	var hash types.Hash
	mustTouch(t, dir, FormatFullFilename(100, hash))
	mustTouch(t, dir, FormatIncrementalFilename(100, 500, hash))

	meta, path, found, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !found {
		t.Fatal("expected a snapshot to be found")
	}
	if meta.Incremental {
		t.Fatal("expected the full snapshot to be preferred over the incremental one")
	}
	if filepath.Base(path) != FormatFullFilename(100, hash) {
		t.Fatalf("path = %q", path)
	}
}

func TestDiscoverPicksHighestSlot(t *testing.T) {
	dir := t.TempDir()
	var hash types.Hash
	mustTouch(t, dir, FormatFullFilename(100, hash))
	mustTouch(t, dir, FormatFullFilename(500, hash))

	meta, _, found, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if !found || meta.Slot != 500 {
		t.Fatalf("expected slot 500 to be preferred, got found=%v slot=%d", found, meta.Slot)
	}
}

func TestDiscoverMissingDirReturnsNotFound(t *testing.T) {
	meta, path, found, err := Discover(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found || path != "" || meta.Slot != 0 {
		t.Fatal("expected not-found result for missing directory")
	}
}

func mustTouch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
}
