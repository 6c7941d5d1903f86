// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package shred implements C1 (Shred Assembler) and C11 (Shredder),
// together with the §6.2 fixed 1228-byte wire envelope both share.
package shred

import (
	"encoding/binary"
	"errors"

	"github.com/luxfi/valnode/types"
)

// EnvelopeSize is the fixed shred wire size (§6.2).
const EnvelopeSize = 1228

// DataShredPayloadSize is the maximum data payload a data shred carries
// (§4.11).
const DataShredPayloadSize = 1051

// Kind discriminates a shred's role within its FEC set.
type Kind int

const (
	KindData Kind = iota
	KindCode
)

// Flags bits carried in a data shred's flags byte.
const (
	FlagLastInFECSet byte = 1 << 0
	FlagLastInSlot   byte = 1 << 1
	FlagReferenceTick byte = 1 << 2
)

// Errors returned by Parse; all are non-fatal per §7 (shred discarded,
// counter incremented, never propagated).
var (
	ErrTooShort      = errors.New("shred: envelope shorter than fixed size")
	ErrUnknownType   = errors.New("shred: type byte not in lookup table")
	ErrVersionMismatch = errors.New("shred: shred_version does not match node")
)

const (
	offSignature    = 0
	offType         = 64
	offSlot         = 65
	offIndex        = 73
	offShredVersion = 77
	offFECSetIndex  = 79
	offVariant      = 83

	// Data-shred-only sub-offsets, relative to offVariant.
	dataOffParentOffset = 0 // 83..85
	dataOffFlags        = 2 // 85
	dataOffSize         = 3 // 86..88
	dataOffPayload      = 5 // 88..

	// Code-shred-only sub-offsets, relative to offVariant.
	codeOffNumData  = 0 // 83..85
	codeOffNumCode  = 2 // 85..87
	codeOffPosition = 4 // 87..89
	codeOffPayload  = 6 // 89..
)

// legacyData/legacyCode are the original (pre-Merkle) type bytes.
const (
	legacyCode byte = 0x5A
	legacyData byte = 0xA5
)

// classifyType applies the §6.2 lookup table to a shred's type byte.
func classifyType(b byte) (Kind, bool) {
	switch {
	case b == legacyData:
		return KindData, true
	case b == legacyCode:
		return KindCode, true
	case b >= 0x60 && b <= 0x7F:
		return KindCode, true
	case b >= 0x80 && b <= 0xBF && b != legacyData:
		return KindData, true
	default:
		return 0, false
	}
}

// Shred is a parsed shred envelope (§3, §6.2).
type Shred struct {
	Signature    types.Signature
	Type         byte
	Kind         Kind
	Slot         types.Slot
	Index        uint32
	ShredVersion uint16
	FECSetIndex  uint32

	// Data-shred fields.
	ParentOffset uint16
	Flags        byte
	Size         uint16

	// Code-shred fields.
	NumData  uint16
	NumCode  uint16
	Position uint16

	// Payload is the data payload (data shred, trimmed to Size) or the
	// coding payload (code shred: everything after the variant header,
	// including any zero padding up to the envelope end).
	Payload []byte

	// Raw is the full 1228-byte envelope, kept so the signature can be
	// re-verified or the shred re-broadcast verbatim.
	Raw []byte
}

// Parse decodes a fixed-size shred envelope per §6.2. expectedVersion
// of 0 disables the shred_version check (used by tests).
func Parse(raw []byte, expectedVersion uint16) (*Shred, error) {
	if len(raw) < EnvelopeSize {
		return nil, ErrTooShort
	}
	typeByte := raw[offType]
	kind, ok := classifyType(typeByte)
	if !ok {
		return nil, ErrUnknownType
	}

	s := &Shred{
		Type:         typeByte,
		Kind:         kind,
		Slot:         types.Slot(binary.LittleEndian.Uint64(raw[offSlot:])),
		Index:        binary.LittleEndian.Uint32(raw[offIndex:]),
		ShredVersion: binary.LittleEndian.Uint16(raw[offShredVersion:]),
		FECSetIndex:  binary.LittleEndian.Uint32(raw[offFECSetIndex:]),
		Raw:          raw,
	}
	copy(s.Signature[:], raw[offSignature:offSignature+types.SignatureSize])

	if expectedVersion != 0 && s.ShredVersion != expectedVersion {
		return nil, ErrVersionMismatch
	}

	switch kind {
	case KindData:
		v := raw[offVariant:]
		s.ParentOffset = binary.LittleEndian.Uint16(v[dataOffParentOffset:])
		s.Flags = v[dataOffFlags]
		s.Size = binary.LittleEndian.Uint16(v[dataOffSize:])
		payloadStart := offVariant + dataOffPayload
		payloadEnd := payloadStart + int(s.Size)
		if payloadEnd > EnvelopeSize {
			payloadEnd = EnvelopeSize
		}
		s.Payload = raw[payloadStart:payloadEnd]
	case KindCode:
		v := raw[offVariant:]
		s.NumData = binary.LittleEndian.Uint16(v[codeOffNumData:])
		s.NumCode = binary.LittleEndian.Uint16(v[codeOffNumCode:])
		s.Position = binary.LittleEndian.Uint16(v[codeOffPosition:])
		s.Payload = raw[offVariant+codeOffPayload : EnvelopeSize]
	}
	return s, nil
}

// EncodeDataShred builds a fixed-size envelope for a data shred, with
// the signature field zeroed (filled in by the caller once the set's
// Merkle root is signed — all shreds in a set share one signature).
func EncodeDataShred(slot types.Slot, index uint32, shredVersion uint16, fecSetIndex uint32, parentOffset uint16, flags byte, payload []byte) []byte {
	raw := make([]byte, EnvelopeSize)
	raw[offType] = 0x80 // merkle data range, excluding legacy 0xA5
	binary.LittleEndian.PutUint64(raw[offSlot:], uint64(slot))
	binary.LittleEndian.PutUint32(raw[offIndex:], index)
	binary.LittleEndian.PutUint16(raw[offShredVersion:], shredVersion)
	binary.LittleEndian.PutUint32(raw[offFECSetIndex:], fecSetIndex)

	v := raw[offVariant:]
	binary.LittleEndian.PutUint16(v[dataOffParentOffset:], parentOffset)
	v[dataOffFlags] = flags
	binary.LittleEndian.PutUint16(v[dataOffSize:], uint16(len(payload)))
	copy(raw[offVariant+dataOffPayload:], payload)
	return raw
}

// EncodeCodeShred builds a fixed-size envelope for a code shred.
func EncodeCodeShred(slot types.Slot, index uint32, shredVersion uint16, fecSetIndex uint32, numData, numCode, position uint16, coding []byte) []byte {
	raw := make([]byte, EnvelopeSize)
	raw[offType] = 0x60 // merkle code range
	binary.LittleEndian.PutUint64(raw[offSlot:], uint64(slot))
	binary.LittleEndian.PutUint32(raw[offIndex:], index)
	binary.LittleEndian.PutUint16(raw[offShredVersion:], shredVersion)
	binary.LittleEndian.PutUint32(raw[offFECSetIndex:], fecSetIndex)

	v := raw[offVariant:]
	binary.LittleEndian.PutUint16(v[codeOffNumData:], numData)
	binary.LittleEndian.PutUint16(v[codeOffNumCode:], numCode)
	binary.LittleEndian.PutUint16(v[codeOffPosition:], position)
	copy(raw[offVariant+codeOffPayload:], coding)
	return raw
}

// SetSignature stamps sig into the envelope's signature field, both in
// the Shred struct and its backing Raw bytes.
func (s *Shred) SetSignature(sig types.Signature) {
	s.Signature = sig
	copy(s.Raw[offSignature:], sig[:])
}
