// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateKeypairSignVerify(t *testing.T) {
	kp, priv, err := GenerateKeypair()
	require.NoError(t, err)
	require.NotNil(t, priv)
	require.False(t, kp.Pubkey.IsZero())

	msg := []byte("hello validator")
	sig := kp.Sign(msg)
	require.True(t, Verify(kp.Pubkey, msg, sig))
	require.False(t, Verify(kp.Pubkey, []byte("tampered"), sig))
}

func TestWriteAndLoadKeypairFileRoundTrip(t *testing.T) {
	kp, priv, err := GenerateKeypair()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, WriteKeypairFile(path, priv))

	loaded, err := LoadKeypairFile(path)
	require.NoError(t, err)
	require.Equal(t, kp.Pubkey, loaded.Pubkey)

	msg := []byte("round trip")
	sig := loaded.Sign(msg)
	require.True(t, Verify(kp.Pubkey, msg, sig))
}

func TestParseKeypairFileUsesStoredPubkeyDirectly(t *testing.T) {
	kp, priv, err := GenerateKeypair()
	require.NoError(t, err)

	nums := make([]int, 64)
	for i, b := range priv {
		nums[i] = int(b)
	}
	// Corrupt the stored public half; ParseKeypairFile must take it
	// verbatim rather than re-deriving from the seed (§6.1).
	nums[32] ^= 0xFF
	data, err := json.Marshal(nums)
	require.NoError(t, err)

	parsed, err := ParseKeypairFile(data)
	require.NoError(t, err)
	require.NotEqual(t, kp.Pubkey, parsed.Pubkey)
}

func TestParseKeypairFileRejectsWrongShape(t *testing.T) {
	_, err := ParseKeypairFile([]byte(`[1,2,3]`))
	require.ErrorIs(t, err, ErrKeypairFileShape)

	_, err = ParseKeypairFile([]byte(`not json`))
	require.ErrorIs(t, err, ErrKeypairFileShape)

	nums := make([]int, 64)
	nums[0] = 300
	data, _ := json.Marshal(nums)
	_, err = ParseKeypairFile(data)
	require.ErrorIs(t, err, ErrKeypairFileShape)
}

func TestLoadKeypairFileMissing(t *testing.T) {
	_, err := LoadKeypairFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
