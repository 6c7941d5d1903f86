// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package snapshot implements snapshot discovery and extraction for
// the bootstrap sequencer (C10): filename parsing (§6.6), archive
// extraction, and account-record replay into the accounts store.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/mr-tron/base58"

	"github.com/luxfi/valnode/types"
)

var (
	fullRe        = regexp.MustCompile(`^snapshot-(\d+)-([1-9A-HJ-NP-Za-km-z]+)\.tar\.zst$`)
	incrementalRe = regexp.MustCompile(`^incremental-snapshot-(\d+)-(\d+)-([1-9A-HJ-NP-Za-km-z]+)\.tar\.zst$`)
)

// Meta describes one discovered snapshot file (§6.6).
type Meta struct {
	Path         string
	Incremental  bool
	BaseSlot     types.Slot // only meaningful when Incremental
	Slot         types.Slot
	HashBase58   string
}

// ParseFilename parses a snapshot filename per §6.6's two patterns.
func ParseFilename(name string) (Meta, bool) {
	if m := fullRe.FindStringSubmatch(name); m != nil {
		slot, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return Meta{}, false
		}
		return Meta{Slot: types.Slot(slot), HashBase58: m[2]}, true
	}
	if m := incrementalRe.FindStringSubmatch(name); m != nil {
		baseSlot, err1 := strconv.ParseUint(m[1], 10, 64)
		slot, err2 := strconv.ParseUint(m[2], 10, 64)
		if err1 != nil || err2 != nil {
			return Meta{}, false
		}
		return Meta{Incremental: true, BaseSlot: types.Slot(baseSlot), Slot: types.Slot(slot), HashBase58: m[3]}, true
	}
	return Meta{}, false
}

// FormatFullFilename renders the canonical full-snapshot filename.
func FormatFullFilename(slot types.Slot, hash types.Hash) string {
	return fmt.Sprintf("snapshot-%d-%s.tar.zst", slot, base58.Encode(hash[:]))
}

// FormatIncrementalFilename renders the canonical incremental-snapshot filename.
func FormatIncrementalFilename(baseSlot, slot types.Slot, hash types.Hash) string {
	return fmt.Sprintf("incremental-snapshot-%d-%d-%s.tar.zst", baseSlot, slot, base58.Encode(hash[:]))
}

// Discover scans dir for snapshot files and returns the preferred
// choice: the highest-slot full snapshot if any exist, else the
// highest-slot incremental snapshot (§4.10 step 3: "Prefer a local
// full snapshot over an incremental one").
func Discover(dir string) (Meta, string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, "", false, nil
		}
		return Meta{}, "", false, err
	}

	var bestFull, bestIncremental Meta
	var fullPath, incrementalPath string
	haveFull, haveIncremental := false, false

	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		meta, ok := ParseFilename(de.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, de.Name())
		if meta.Incremental {
			if !haveIncremental || meta.Slot > bestIncremental.Slot {
				bestIncremental, incrementalPath, haveIncremental = meta, path, true
			}
		} else {
			if !haveFull || meta.Slot > bestFull.Slot {
				bestFull, fullPath, haveFull = meta, path, true
			}
		}
	}

	if haveFull {
		return bestFull, fullPath, true, nil
	}
	if haveIncremental {
		return bestIncremental, incrementalPath, true, nil
	}
	return Meta{}, "", false, nil
}
