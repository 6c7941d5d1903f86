// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fec

import (
	"errors"
	"sort"
	"sync"

	"github.com/luxfi/valnode/types"
)

// ErrCountMismatch is returned when a code shred's embedded
// num_data/num_code header disagrees with the set's already-latched
// counts (§4.2 invariant).
var ErrCountMismatch = errors.New("fec: code shred counts disagree with latched set counts")

// Key identifies a FEC set by (slot, fec_set_index).
type Key struct {
	Slot     types.Slot
	SetIndex uint32
}

// Status is the outcome of a TryRecover call.
type Status int

const (
	// NotEnough means received_data+received_code < expected_data_count.
	NotEnough Status = iota
	// AlreadyComplete means every data shred in [0, expected_data) is present.
	AlreadyComplete
	// Recovered means missing data shreds were reconstructed.
	Recovered
	// CannotRecover means enough shreds were present but the equation
	// system was singular or otherwise unsolvable (non-fatal; repair
	// will refetch per §7).
	CannotRecover
)

// set is one FEC set's accumulated shred state.
type set struct {
	key            Key
	expectedData   int
	expectedCode   int
	dataShreds     map[int][]byte // data position -> payload
	codeShreds     map[int][]byte // code position -> coding payload
	dataPayloadLen int            // widest payload among received (non-recovered) data shreds
	signature      types.Signature
	haveSig        bool
}

func newSet(key Key) *set {
	return &set{
		key:        key,
		dataShreds: make(map[int][]byte),
		codeShreds: make(map[int][]byte),
	}
}

func (s *set) missingDataIndices() []int {
	var missing []int
	for j := 0; j < s.expectedData; j++ {
		if _, ok := s.dataShreds[j]; !ok {
			missing = append(missing, j)
		}
	}
	return missing
}

// Resolver holds the in-flight FEC sets, evicting the oldest when full
// (§4.2 "keeps at most max_depth sets").
type Resolver struct {
	mu       sync.Mutex
	maxDepth int
	sets     map[Key]*set
	order    []Key // insertion order, oldest first
}

// NewResolver creates a Resolver retaining at most maxDepth sets.
func NewResolver(maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = 128
	}
	return &Resolver{
		maxDepth: maxDepth,
		sets:     make(map[Key]*set),
	}
}

func (r *Resolver) getOrCreate(key Key) *set {
	s, ok := r.sets[key]
	if ok {
		return s
	}
	s = newSet(key)
	r.sets[key] = s
	r.order = append(r.order, key)
	if len(r.order) > r.maxDepth {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.sets, oldest)
	}
	return s
}

// AddDataShred records a received data shred's payload at position j.
func (r *Resolver) AddDataShred(key Key, position int, payload []byte, sig types.Signature) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.getOrCreate(key)
	s.dataShreds[position] = payload
	// Code shred payloads occupy the envelope's full padded width
	// (§6.2), so the width of a genuinely-received data shred is the
	// only reliable signal for how far a recovered data shred's
	// payload must be trimmed (§4.2).
	if len(payload) > s.dataPayloadLen {
		s.dataPayloadLen = len(payload)
	}
	if !s.haveSig {
		s.signature = sig
		s.haveSig = true
	}
}

// AddCodeShred records a received code shred. On the first code shred
// seen for the set, expectedData/expectedCode are latched; later code
// shreds must agree (§3 FEC Set invariant).
func (r *Resolver) AddCodeShred(key Key, position int, payload []byte, numData, numCode int, sig types.Signature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.getOrCreate(key)
	if len(s.codeShreds) == 0 && s.expectedData == 0 {
		s.expectedData = numData
		s.expectedCode = numCode
	} else if s.expectedData != numData || s.expectedCode != numCode {
		return ErrCountMismatch
	}
	s.codeShreds[position] = payload
	if !s.haveSig {
		s.signature = sig
		s.haveSig = true
	}
	return nil
}

// Evict drops all state for a FEC set, e.g. once its slot is rooted.
func (r *Resolver) Evict(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sets[key]; !ok {
		return
	}
	delete(r.sets, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Signature returns the set's latched signature, if any shred has
// been seen yet.
func (r *Resolver) Signature(key Key) (types.Signature, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sets[key]
	if !ok || !s.haveSig {
		return types.Signature{}, false
	}
	return s.signature, true
}

// Result is the outcome of a recovery attempt.
type Result struct {
	Status    Status
	Recovered map[int][]byte // data position -> recovered payload
}

// TryRecover attempts to reconstruct any missing data shreds in the
// set named by key (§4.2).
func (r *Resolver) TryRecover(key Key) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sets[key]
	if !ok || s.expectedData == 0 {
		return Result{Status: NotEnough}, nil
	}

	received := len(s.dataShreds) + len(s.codeShreds)
	if received < s.expectedData {
		return Result{Status: NotEnough}, nil
	}

	missing := s.missingDataIndices()
	if len(missing) == 0 {
		return Result{Status: AlreadyComplete}, nil
	}

	if len(s.codeShreds) < len(missing) {
		return Result{Status: NotEnough}, nil
	}

	// Single-erasure fast path (§4.2): if exactly one data shred is
	// missing and the position-0 code shred (pure XOR parity, since
	// G[0][j]=α^0=1 for every j) is available, recover by XOR alone.
	if len(missing) == 1 {
		if parity, ok := s.codeShreds[0]; ok {
			recovered := make([]byte, len(parity))
			copy(recovered, parity)
			for pos, payload := range s.dataShreds {
				if pos == missing[0] {
					continue
				}
				xorInto(recovered, payload)
			}
			return Result{
				Status:    Recovered,
				Recovered: map[int][]byte{missing[0]: trimRecovered(recovered, s.dataPayloadLen)},
			}, nil
		}
	}

	// General multi-erasure path: Gaussian elimination over GF(2^8) on
	// the Vandermonde-style generator restricted to the received rows
	// (§4.2, full conformance).
	recovered, err := r.solveMissing(s, missing)
	if err != nil {
		return Result{Status: CannotRecover}, nil //nolint:nilerr // non-fatal per §7
	}
	return Result{Status: Recovered, Recovered: recovered}, nil
}

func (r *Resolver) solveMissing(s *set, missing []int) (map[int][]byte, error) {
	// Choose the first len(missing) code positions, ascending, for determinism.
	codePositions := make([]int, 0, len(s.codeShreds))
	for p := range s.codeShreds {
		codePositions = append(codePositions, p)
	}
	sort.Ints(codePositions)
	codePositions = codePositions[:len(missing)]

	payloadLen := 0
	for _, payload := range s.codeShreds {
		if len(payload) > payloadLen {
			payloadLen = len(payload)
		}
	}
	for _, payload := range s.dataShreds {
		if len(payload) > payloadLen {
			payloadLen = len(payload)
		}
	}

	a := make([][]byte, len(missing))
	b := make([][]byte, len(missing))
	for i, p := range codePositions {
		row := make([]byte, len(missing))
		for j, dataIdx := range missing {
			row[j] = generatorElement(p, dataIdx)
		}
		a[i] = row

		rhs := make([]byte, payloadLen)
		copy(rhs, s.codeShreds[p])
		for dataIdx, payload := range s.dataShreds {
			coeff := generatorElement(p, dataIdx)
			if coeff == 0 {
				continue
			}
			for k := 0; k < len(payload) && k < payloadLen; k++ {
				rhs[k] ^= Mul(coeff, payload[k])
			}
		}
		b[i] = rhs
	}

	x, err := gaussianSolve(a, b)
	if err != nil {
		return nil, err
	}

	out := make(map[int][]byte, len(missing))
	for i, dataIdx := range missing {
		recovered := make([]byte, payloadLen)
		copy(recovered, x[i])
		out[dataIdx] = trimRecovered(recovered, s.dataPayloadLen)
	}
	return out, nil
}

// trimRecovered cuts a recovered payload down to width, the widest
// payload among the set's genuinely-received data shreds. Code shred
// payloads are zero-padded out to the full envelope width (§6.2), so
// without this the recovered payload would carry that padding as
// trailing garbage instead of matching the original data shred's size.
// width is 0 when no data shred was ever received for the set (every
// data shred recovered via code alone); in that case there is no
// narrower width to trim to, so the payload is returned unchanged.
func trimRecovered(payload []byte, width int) []byte {
	if width <= 0 || width >= len(payload) {
		return payload
	}
	return payload[:width]
}
