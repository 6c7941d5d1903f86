// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics exposes the validator's Prometheus counters and
// gauges behind a small registry so each component registers its own
// metrics without reaching into a global default registerer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry collects every metric a component wants to export.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry returns an empty Registry backed by its own
// prometheus.Registry (not the global DefaultRegisterer, so tests can
// construct independent registries side by side).
func NewRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// Registerer exposes the underlying prometheus.Registerer for
// components that want to register their own collector directly.
func (r *Registry) Registerer() prometheus.Registerer { return r.reg }

// Gatherer exposes the underlying prometheus.Gatherer for an HTTP
// /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Counter registers and returns a new counter, panicking on duplicate
// registration (a programmer error at startup, not a runtime one).
func (r *Registry) Counter(name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
	r.reg.MustRegister(c)
	return c
}

// Gauge registers and returns a new gauge.
func (r *Registry) Gauge(name, help string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	r.reg.MustRegister(g)
	return g
}

// Histogram registers and returns a new histogram.
func (r *Registry) Histogram(name, help string, buckets []float64) prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: name, Help: help, Buckets: buckets})
	r.reg.MustRegister(h)
	return h
}

// CounterVec registers and returns a new counter vector.
func (r *Registry) CounterVec(name, help string, labels []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	r.reg.MustRegister(c)
	return c
}

// Metrics is the set of counters/gauges the validator's core
// components report. One instance is constructed at bootstrap and
// threaded through every component's constructor.
type Metrics struct {
	// C1 Shred Assembler
	ShredsAccepted   prometheus.Counter
	ShredsDuplicate  prometheus.Counter
	ShredsRejected   *prometheus.CounterVec // label: reason
	SlotsAssembled   prometheus.Counter

	// C2 FEC Resolver
	FECRecoverSingle prometheus.Counter
	FECRecoverMulti  prometheus.Counter
	FECRecoverFailed prometheus.Counter

	// C5 Bank
	TxProcessed prometheus.Counter
	TxFailed    *prometheus.CounterVec // label: error
	FeesLamports prometheus.Counter

	// C6 Fork Manager
	ForkSwitches prometheus.Counter
	BestSlot     prometheus.Gauge

	// C7 Tower
	VotesCast      prometheus.Counter
	VoteSkipped    *prometheus.CounterVec // label: reason
	RootSlot       prometheus.Gauge

	// C9 Vote Submitter
	VoteTxSent     prometheus.Counter
	VoteTxDispatchFailed prometheus.Counter
}

// New constructs and registers every metric on reg.
func New(reg *Registry) *Metrics {
	return &Metrics{
		ShredsAccepted:  reg.Counter("valnode_shreds_accepted_total", "shreds accepted by the assembler"),
		ShredsDuplicate: reg.Counter("valnode_shreds_duplicate_total", "duplicate shreds dropped"),
		ShredsRejected:  reg.CounterVec("valnode_shreds_rejected_total", "shreds rejected by reason", []string{"reason"}),
		SlotsAssembled:  reg.Counter("valnode_slots_assembled_total", "slots fully assembled"),

		FECRecoverSingle: reg.Counter("valnode_fec_recover_single_total", "single-erasure FEC recoveries"),
		FECRecoverMulti:  reg.Counter("valnode_fec_recover_multi_total", "multi-erasure FEC recoveries"),
		FECRecoverFailed: reg.Counter("valnode_fec_recover_failed_total", "FEC recovery attempts that could not recover"),

		TxProcessed:  reg.Counter("valnode_tx_processed_total", "transactions committed successfully"),
		TxFailed:     reg.CounterVec("valnode_tx_failed_total", "transactions that failed execution", []string{"error"}),
		FeesLamports: reg.Counter("valnode_fees_lamports_total", "lamports collected in fees"),

		ForkSwitches: reg.Counter("valnode_fork_switches_total", "best-fork switch events"),
		BestSlot:     reg.Gauge("valnode_best_slot", "current best fork slot"),

		VotesCast:   reg.Counter("valnode_votes_cast_total", "votes applied to the tower"),
		VoteSkipped: reg.CounterVec("valnode_vote_skipped_total", "tick skipped without voting", []string{"reason"}),
		RootSlot:    reg.Gauge("valnode_root_slot", "tower root slot"),

		VoteTxSent:           reg.Counter("valnode_vote_tx_sent_total", "vote transactions dispatched"),
		VoteTxDispatchFailed: reg.Counter("valnode_vote_tx_dispatch_failed_total", "vote transaction dispatch failures"),
	}
}
