// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shred

import (
	"bytes"
	"testing"

	"github.com/luxfi/valnode/types"
)

func TestEncodeParseDataShredRoundTrip(t *testing.T) {
	payload := []byte("hello shred payload")
	raw := EncodeDataShred(42, 3, 7, 1, 0, FlagLastInFECSet, payload)
	if len(raw) != EnvelopeSize {
		t.Fatalf("expected envelope size %d, got %d", EnvelopeSize, len(raw))
	}

	s, err := Parse(raw, 7)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Kind != KindData {
		t.Fatalf("expected KindData, got %v", s.Kind)
	}
	if s.Slot != 42 || s.Index != 3 || s.ShredVersion != 7 || s.FECSetIndex != 1 {
		t.Fatalf("unexpected header fields: %+v", s)
	}
	if s.Flags&FlagLastInFECSet == 0 {
		t.Fatal("expected FlagLastInFECSet set")
	}
	if !bytes.Equal(s.Payload, payload) {
		t.Fatalf("payload mismatch: got %q, want %q", s.Payload, payload)
	}
}

func TestEncodeParseCodeShredRoundTrip(t *testing.T) {
	coding := make([]byte, DataShredPayloadSize)
	coding[0] = 0xAB
	raw := EncodeCodeShred(10, 2, 5, 0, 4, 2, 1, coding)

	s, err := Parse(raw, 5)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Kind != KindCode {
		t.Fatalf("expected KindCode, got %v", s.Kind)
	}
	if s.NumData != 4 || s.NumCode != 2 || s.Position != 1 {
		t.Fatalf("unexpected code fields: %+v", s)
	}
	if !bytes.Equal(s.Payload, coding) {
		t.Fatal("coding payload mismatch")
	}
}

func TestParseRejectsShortEnvelope(t *testing.T) {
	_, err := Parse(make([]byte, 10), 0)
	if err != ErrTooShort {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	raw := make([]byte, EnvelopeSize)
	raw[offType] = 0x01
	_, err := Parse(raw, 0)
	if err != ErrUnknownType {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestParseRejectsVersionMismatch(t *testing.T) {
	raw := EncodeDataShred(1, 0, 7, 0, 0, 0, []byte("x"))
	_, err := Parse(raw, 99)
	if err != ErrVersionMismatch {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestParseZeroVersionDisablesCheck(t *testing.T) {
	raw := EncodeDataShred(1, 0, 7, 0, 0, 0, []byte("x"))
	if _, err := Parse(raw, 0); err != nil {
		t.Fatalf("expected version check disabled, got %v", err)
	}
}

func TestSetSignatureUpdatesRaw(t *testing.T) {
	raw := EncodeDataShred(1, 0, 7, 0, 0, 0, []byte("x"))
	s, err := Parse(raw, 7)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var sig types.Signature
	sig[0] = 0x42
	s.SetSignature(sig)
	if s.Signature != sig {
		t.Fatal("Signature field not updated")
	}
	if !bytes.Equal(s.Raw[offSignature:offSignature+types.SignatureSize], sig[:]) {
		t.Fatal("Raw bytes not updated")
	}
}
