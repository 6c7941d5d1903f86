// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package entry

import "testing"

func TestCompactU16RoundTrip(t *testing.T) {
	cases := []uint16{0, 1, 127, 128, 129, 16383, 16384, 65535}
	for _, n := range cases {
		enc := EncodeCompactU16(n)
		if len(enc) == 0 || len(enc) > 3 {
			t.Fatalf("n=%d: unexpected encoded length %d", n, len(enc))
		}
		got, consumed, err := DecodeCompactU16(enc)
		if err != nil {
			t.Fatalf("n=%d: decode error: %v", n, err)
		}
		if got != n {
			t.Fatalf("n=%d: round trip got %d", n, got)
		}
		if consumed != len(enc) {
			t.Fatalf("n=%d: consumed %d, want %d", n, consumed, len(enc))
		}
	}
}

func TestDecodeCompactU16TrailingBytesIgnored(t *testing.T) {
	enc := EncodeCompactU16(300)
	buf := append(enc, 0xFF, 0xFF)
	got, consumed, err := DecodeCompactU16(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 300 || consumed != len(enc) {
		t.Fatalf("got %d/%d, want 300/%d", got, consumed, len(enc))
	}
}

func TestDecodeCompactU16Truncated(t *testing.T) {
	_, _, err := DecodeCompactU16([]byte{0x80})
	if err != ErrCompactU16Truncated {
		t.Fatalf("expected ErrCompactU16Truncated, got %v", err)
	}
	_, _, err = DecodeCompactU16(nil)
	if err != ErrCompactU16Truncated {
		t.Fatalf("expected ErrCompactU16Truncated for empty buf, got %v", err)
	}
}

func TestDecodeCompactU16TooLong(t *testing.T) {
	_, _, err := DecodeCompactU16([]byte{0x80, 0x80, 0x80})
	if err != ErrCompactU16TooLong {
		t.Fatalf("expected ErrCompactU16TooLong, got %v", err)
	}
}
