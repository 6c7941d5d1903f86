// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bootstrap implements the bootstrap sequencer (C10): a
// single-threaded, stateful phase machine that takes a freshly
// started node from nothing on disk to a running replay pipeline
// (§4.10).
package bootstrap

import "fmt"

// Phase names the sequencer's current step, reported through the
// progress callback passed to Run.
type Phase string

const (
	PhaseInitializing        Phase = "Initializing"
	PhaseFindingSnapshot     Phase = "FindingSnapshot"
	PhaseDownloadingSnapshot Phase = "DownloadingSnapshot"
	PhaseExtractingSnapshot  Phase = "ExtractingSnapshot"
	PhaseLoadingAccounts     Phase = "LoadingAccounts"
	PhaseLoadingTower        Phase = "LoadingTower"
	PhaseInitializingBank    Phase = "InitializingBank"
	PhaseInitializingReplay  Phase = "InitializingReplay"
	PhaseConnectingGossip    Phase = "ConnectingGossip"
	PhaseReady               Phase = "Ready"
)

// PhaseError wraps a failure in one of the required phases (steps
// 1-7 of §4.10); bootstrap.Run returns this type so callers like
// cmd/valnode can report which phase failed and exit non-zero.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("bootstrap: phase %s failed: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// ProgressFunc is invoked as the sequencer enters each phase.
type ProgressFunc func(phase Phase)
