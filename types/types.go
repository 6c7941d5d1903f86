// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package types holds the opaque wire primitives shared across the
// validator: public keys, signatures, hashes and slot numbers.
package types

import (
	"encoding/hex"
	"errors"

	"github.com/luxfi/ids"
)

// Hash aliases the pack's 32-byte comparable identifier type so that
// bank hashes, Merkle roots and block/FEC-set identifiers all share one
// representation with a String() and Empty already defined upstream.
type Hash = ids.ID

// Slot is the monotonic per-block time unit. Not necessarily contiguous.
type Slot uint64

// PubkeySize and SignatureSize are the Ed25519 key/signature sizes (§6.1).
// HashSize is the SHA-256 digest size shared by Merkle roots, bank
// hashes, and recent blockhashes.
const (
	PubkeySize    = 32
	SignatureSize = 64
	HashSize      = 32
)

var (
	// ErrInvalidPubkeyLen is returned when decoding a pubkey of the wrong length.
	ErrInvalidPubkeyLen = errors.New("types: invalid pubkey length")
	// ErrInvalidSignatureLen is returned when decoding a signature of the wrong length.
	ErrInvalidSignatureLen = errors.New("types: invalid signature length")
)

// Pubkey is an Ed25519 public key, equality is bytewise.
type Pubkey [PubkeySize]byte

// Signature is an Ed25519 signature, equality is bytewise.
type Signature [SignatureSize]byte

// String returns the hex encoding of the pubkey.
func (p Pubkey) String() string { return hex.EncodeToString(p[:]) }

// IsZero reports whether the pubkey is the all-zero sentinel.
func (p Pubkey) IsZero() bool { return p == Pubkey{} }

// PubkeyFromBytes copies b into a Pubkey, requiring an exact length match.
func PubkeyFromBytes(b []byte) (Pubkey, error) {
	var pk Pubkey
	if len(b) != PubkeySize {
		return pk, ErrInvalidPubkeyLen
	}
	copy(pk[:], b)
	return pk, nil
}

// String returns the hex encoding of the signature.
func (s Signature) String() string { return hex.EncodeToString(s[:]) }

// IsZero reports whether the signature is the all-zero sentinel.
func (s Signature) IsZero() bool { return s == Signature{} }

// SignatureFromBytes copies b into a Signature, requiring an exact length match.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureSize {
		return sig, ErrInvalidSignatureLen
	}
	copy(sig[:], b)
	return sig, nil
}

// HashFromBytes copies b into a Hash, requiring an exact length match.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != len(h) {
		return h, errors.New("types: invalid hash length")
	}
	copy(h[:], b)
	return h, nil
}
