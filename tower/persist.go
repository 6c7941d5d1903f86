// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tower

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/luxfi/valnode/types"
)

// ErrTowerFileTruncated is returned when a persisted tower file is
// shorter than its declared vote_count implies.
var ErrTowerFileTruncated = errors.New("tower: persisted file truncated")

// Encode serializes the tower to the §6.7 wire format:
// last_vote_slot (u64) || root_slot (u64) || vote_count (u32) ||
// (slot u64, conf_count u32) * vote_count.
func (t *Tower) Encode() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	buf := make([]byte, 0, 8+8+4+len(t.stack)*12)
	var tmp8 [8]byte
	var tmp4 [4]byte

	binary.LittleEndian.PutUint64(tmp8[:], uint64(t.lastVoteSlot))
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint64(tmp8[:], uint64(t.rootSlot))
	buf = append(buf, tmp8[:]...)
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(t.stack)))
	buf = append(buf, tmp4[:]...)
	for _, l := range t.stack {
		binary.LittleEndian.PutUint64(tmp8[:], uint64(l.Slot))
		buf = append(buf, tmp8[:]...)
		binary.LittleEndian.PutUint32(tmp4[:], l.ConfirmationCount)
		buf = append(buf, tmp4[:]...)
	}
	return buf
}

// Decode parses the §6.7 wire format into a Tower bound to identity.
func Decode(identity types.Pubkey, data []byte) (*Tower, error) {
	if len(data) < 8+8+4 {
		return nil, ErrTowerFileTruncated
	}
	off := 0
	lastVoteSlot := types.Slot(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	rootSlot := types.Slot(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	voteCount := binary.LittleEndian.Uint32(data[off:])
	off += 4

	stack := make([]Lockout, voteCount)
	for i := range stack {
		if off+12 > len(data) {
			return nil, ErrTowerFileTruncated
		}
		stack[i].Slot = types.Slot(binary.LittleEndian.Uint64(data[off:]))
		off += 8
		stack[i].ConfirmationCount = binary.LittleEndian.Uint32(data[off:])
		off += 4
	}

	return &Tower{
		identity:     identity,
		stack:        stack,
		rootSlot:     rootSlot,
		haveRoot:     true,
		lastVoteSlot: lastVoteSlot,
		haveLastVote: voteCount > 0 || lastVoteSlot != 0,
	}, nil
}

// Save persists the tower to dir/tower with crash-safe write-tmp,
// fsync, rename discipline (§4.7, §9). Disk I/O errors here are fatal
// per §7: voting must not proceed with an unsaved tower.
func (t *Tower) Save(dir string) error {
	path := filepath.Join(dir, "tower")
	return atomic.WriteFile(path, bytes.NewReader(t.Encode()))
}

// Load loads a persisted tower from dir, preferring the committed
// "tower" file over a leftover "tower.tmp" from an interrupted write
// (§9: "On startup, if both files exist, prefer tower and delete
// tower.tmp").
func Load(dir string, identity types.Pubkey) (*Tower, error) {
	tmpPath := filepath.Join(dir, "tower.tmp")
	path := filepath.Join(dir, "tower")

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, err
	}
	_ = os.Remove(tmpPath) // best-effort cleanup of an interrupted prior write

	return Decode(identity, data)
}
