// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package snapshot

import (
	"archive/tar"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/luxfi/valnode/accounts"
	"github.com/luxfi/valnode/types"
)

// Result summarizes a completed snapshot load (§4.10 step 4).
type Result struct {
	StartSlot     types.Slot
	AccountsLoaded int
	TotalLamports  uint64
}

// accountRecordHeaderSize is the fixed-size header of each per-account
// record inside a snapshot archive's accounts file: pubkey(32) ||
// lamports(u64 LE) || owner(32) || executable(1) || rent_epoch(u64 LE) ||
// data_len(u64 LE), followed by data_len bytes of data.
const accountRecordHeaderSize = types.PubkeySize + 8 + types.PubkeySize + 1 + 8 + 8

// Extract decompresses and replays a snapshot archive at path into
// store, tolerating any regular file named "accounts.bin" inside the
// tar stream as the account-record log; any other file is skipped.
func Extract(path string, store *accounts.Store) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return Result{}, err
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	var result Result
	mutations := make(map[types.Pubkey]*accounts.Account)

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if filepath.Base(hdr.Name) != "accounts.bin" {
			continue
		}
		if err := replayAccountsFile(tr, mutations, &result); err != nil {
			return Result{}, err
		}
	}

	if err := store.CommitSlot(mutations); err != nil {
		return Result{}, err
	}
	return result, nil
}

func replayAccountsFile(r io.Reader, mutations map[types.Pubkey]*accounts.Account, result *Result) error {
	header := make([]byte, accountRecordHeaderSize)
	for {
		_, err := io.ReadFull(r, header)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("snapshot: reading account record: %w", err)
		}

		off := 0
		var pk types.Pubkey
		copy(pk[:], header[off:off+types.PubkeySize])
		off += types.PubkeySize
		lamports := binary.LittleEndian.Uint64(header[off:])
		off += 8
		var owner types.Pubkey
		copy(owner[:], header[off:off+types.PubkeySize])
		off += types.PubkeySize
		executable := header[off] != 0
		off++
		rentEpoch := binary.LittleEndian.Uint64(header[off:])
		off += 8
		dataLen := binary.LittleEndian.Uint64(header[off:])

		data := make([]byte, dataLen)
		if _, err := io.ReadFull(r, data); err != nil {
			return fmt.Errorf("snapshot: reading account data: %w", err)
		}

		mutations[pk] = &accounts.Account{
			Lamports:   lamports,
			Owner:      owner,
			Data:       data,
			Executable: executable,
			RentEpoch:  rentEpoch,
		}
		result.AccountsLoaded++
		result.TotalLamports += lamports
	}
}
