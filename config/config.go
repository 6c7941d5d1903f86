// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the validator's node configuration: identity
// and storage locations, network endpoints, and the tunables named
// throughout spec §4 (shred version, vote cadence, redundancy).
package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Error variables for validation (grounded on the teacher's
// config/parameters.go sentinel-error style).
var (
	ErrInvalidShredVersion = errors.New("config: shred_version must be non-zero")
	ErrInvalidVoteInterval = errors.New("config: vote_interval must be >= 1ms")
	ErrInvalidRedundancy   = errors.New("config: vote_redundancy must be >= 1")
	ErrMissingIdentity     = errors.New("config: identity_keypair_path is required")
	ErrMissingLedgerDir    = errors.New("config: ledger_dir is required")
)

// Config is the full node configuration, loadable from YAML.
type Config struct {
	// Identity & voting
	IdentityKeypairPath string `yaml:"identity_keypair_path"`
	VoteKeypairPath     string `yaml:"vote_keypair_path,omitempty"`
	VotingEnabled       bool   `yaml:"voting_enabled"`

	// Storage (§4.10 step 2: four local storage directories)
	LedgerDir   string `yaml:"ledger_dir"`
	AccountsDir string `yaml:"accounts_dir"`
	SnapshotDir string `yaml:"snapshot_dir"`
	TowerDir    string `yaml:"tower_dir"`

	// Network
	ShredVersion   uint16        `yaml:"shred_version"`
	RPCEndpoints   []string      `yaml:"rpc_endpoints,omitempty"`
	RPCTimeout     time.Duration `yaml:"rpc_timeout"`

	// C9 Vote Submitter
	VoteInterval   time.Duration `yaml:"vote_interval"`
	VoteRedundancy int           `yaml:"vote_redundancy"`

	// C2 FEC Resolver
	FECMaxSets int `yaml:"fec_max_sets"`

	// C6 Fork Manager
	ForkRetentionWindow uint64 `yaml:"fork_retention_window"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
}

// Default returns a Config with the spec's defaults: 400ms vote
// cadence (§4.9), redundancy N=4 (§4.9 step 6), a 128-set FEC cache
// (§4.2), and a 1000-slot fork retention window (§4.6).
func Default() Config {
	return Config{
		VotingEnabled:       false,
		LedgerDir:           "ledger",
		AccountsDir:         "accounts",
		SnapshotDir:         "snapshots",
		TowerDir:            "tower",
		ShredVersion:        0,
		RPCTimeout:          30 * time.Second,
		VoteInterval:        400 * time.Millisecond,
		VoteRedundancy:      4,
		FECMaxSets:          128,
		ForkRetentionWindow: 1000,
		LogLevel:            "info",
	}
}

// Validate checks the invariants constructors rely on.
func (c Config) Validate() error {
	if c.ShredVersion == 0 {
		return ErrInvalidShredVersion
	}
	if c.VoteInterval < time.Millisecond {
		return ErrInvalidVoteInterval
	}
	if c.VoteRedundancy < 1 {
		return ErrInvalidRedundancy
	}
	if c.IdentityKeypairPath == "" {
		return ErrMissingIdentity
	}
	if c.LedgerDir == "" {
		return ErrMissingLedgerDir
	}
	return nil
}

// Load reads and parses a YAML config file. It starts from Default()
// and overlays only the fields present in the file, so any field the
// file omits keeps its default value.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
