// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fec implements C2: Reed-Solomon erasure recovery over the
// FEC sets produced by the shred assembler (§4.2). All arithmetic is
// GF(2⁸) with primitive polynomial x⁸+x⁴+x³+x²+1 (0x11D) and
// primitive element α=2, built here directly rather than pulled from
// a third-party Reed-Solomon library: the field tables and the
// Vandermonde-style generator (§4.2, §9 open question) are a from-
// scratch ~100-line numeric routine with no natural library seam, and
// getting the exact generator right is the part the spec calls out as
// needing to match the reference protocol bit-for-bit — see DESIGN.md.
package fec

// fieldSize is the number of non-zero elements in GF(2^8); exponents
// of the primitive element wrap modulo fieldSize.
const fieldSize = 255

// primitivePoly is x^8+x^4+x^3+x^2+1.
const primitivePoly = 0x11D

var (
	expTable [2 * fieldSize]byte // double length avoids a modulo on every multiply
	logTable [256]byte
)

func init() {
	x := 1
	for i := 0; i < fieldSize; i++ {
		expTable[i] = byte(x)
		logTable[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= primitivePoly
		}
	}
	for i := fieldSize; i < 2*fieldSize; i++ {
		expTable[i] = expTable[i-fieldSize]
	}
}

// Mul multiplies two GF(2^8) elements.
func Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[int(logTable[a])+int(logTable[b])]
}

// Inv returns the multiplicative inverse of a non-zero GF(2^8) element.
func Inv(a byte) byte {
	if a == 0 {
		panic("fec: inverse of zero")
	}
	return expTable[fieldSize-int(logTable[a])]
}

// Div divides a by b in GF(2^8).
func Div(a, b byte) byte {
	if a == 0 {
		return 0
	}
	return expTable[(int(logTable[a])-int(logTable[b])+fieldSize)%fieldSize]
}

// Pow raises α (=2) to the given exponent, reduced mod fieldSize.
func Pow(exponent int) byte {
	e := exponent % fieldSize
	if e < 0 {
		e += fieldSize
	}
	if e == 0 {
		return 1
	}
	return expTable[e]
}

// generatorElement returns the Vandermonde-style generator matrix
// entry G[p][j] = α^(p*j) used for code-shred position p, data column
// j (§4.2's required multi-erasure generator).
func generatorElement(p, j int) byte {
	return Pow(p * j)
}

// GeneratorElement exports generatorElement for the shredder (C11),
// which must encode coding payloads with the same generator the
// resolver (C2) decodes with.
func GeneratorElement(p, j int) byte {
	return generatorElement(p, j)
}

// xorInto XORs src into dst up to the shorter of the two lengths,
// treating any excess as implicit zero padding.
func xorInto(dst, src []byte) {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[i] ^= src[i]
	}
}
