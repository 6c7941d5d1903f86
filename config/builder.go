// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "time"

// Builder provides a fluent interface for constructing a Config in
// tests without juggling a literal struct (grounded on the teacher's
// config.Builder).
type Builder struct {
	cfg Config
	err error
}

// NewBuilder starts from Default().
func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

// WithIdentity sets the identity keypair path.
func (b *Builder) WithIdentity(path string) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.IdentityKeypairPath = path
	return b
}

// WithVoting enables voting with the given vote-account keypair path.
func (b *Builder) WithVoting(votePath string) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.VotingEnabled = true
	b.cfg.VoteKeypairPath = votePath
	return b
}

// WithShredVersion sets the expected shred version.
func (b *Builder) WithShredVersion(v uint16) *Builder {
	if b.err != nil {
		return b
	}
	if v == 0 {
		b.err = ErrInvalidShredVersion
		return b
	}
	b.cfg.ShredVersion = v
	return b
}

// WithVoteCadence overrides the default 400ms vote interval and
// redundancy N.
func (b *Builder) WithVoteCadence(interval time.Duration, redundancy int) *Builder {
	if b.err != nil {
		return b
	}
	if interval < time.Millisecond {
		b.err = ErrInvalidVoteInterval
		return b
	}
	if redundancy < 1 {
		b.err = ErrInvalidRedundancy
		return b
	}
	b.cfg.VoteInterval = interval
	b.cfg.VoteRedundancy = redundancy
	return b
}

// WithStorageDirs overrides the default storage locations.
func (b *Builder) WithStorageDirs(ledger, accounts, snapshots, tower string) *Builder {
	if b.err != nil {
		return b
	}
	b.cfg.LedgerDir = ledger
	b.cfg.AccountsDir = accounts
	b.cfg.SnapshotDir = snapshots
	b.cfg.TowerDir = tower
	return b
}

// Build validates and returns the assembled Config.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if err := b.cfg.Validate(); err != nil {
		return Config{}, err
	}
	return b.cfg, nil
}
