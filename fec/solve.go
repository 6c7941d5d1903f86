// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fec

import "errors"

// ErrSingularMatrix is returned when the chosen code-shred rows do not
// span the missing data columns (degenerate equation system). Per
// §4.2/§7 this is non-fatal: the caller discards the set's state and
// lets repair refetch it.
var ErrSingularMatrix = errors.New("fec: singular recovery matrix")

// gaussianSolve row-reduces the augmented matrix [a | b] over GF(2^8)
// and returns the solved X such that a*X = b, operating on every
// column of b independently (one column per payload byte offset).
// a is n×n, b is n×width.
func gaussianSolve(a [][]byte, b [][]byte) ([][]byte, error) {
	n := len(a)
	width := 0
	if n > 0 {
		width = len(b[0])
	}

	// Build the augmented matrix so row operations keep both sides in sync.
	aug := make([][]byte, n)
	for i := 0; i < n; i++ {
		row := make([]byte, n+width)
		copy(row, a[i])
		copy(row[n:], b[i])
		aug[i] = row
	}

	for col := 0; col < n; col++ {
		pivot := -1
		for r := col; r < n; r++ {
			if aug[r][col] != 0 {
				pivot = r
				break
			}
		}
		if pivot == -1 {
			return nil, ErrSingularMatrix
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]

		inv := Inv(aug[col][col])
		if inv != 1 {
			row := aug[col]
			for k := range row {
				row[k] = Mul(row[k], inv)
			}
		}

		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			if factor == 0 {
				continue
			}
			pivotRow := aug[col]
			row := aug[r]
			for k := 0; k < len(row); k++ {
				row[k] ^= Mul(factor, pivotRow[k])
			}
		}
	}

	x := make([][]byte, n)
	for i := 0; i < n; i++ {
		x[i] = aug[i][n:]
	}
	return x, nil
}
