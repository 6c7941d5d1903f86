// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bootstrap

import (
	"context"
	"os"
	"time"

	"github.com/luxfi/version"

	"github.com/luxfi/database/memdb"

	"github.com/mr-tron/base58"

	"github.com/luxfi/valnode/accounts"
	"github.com/luxfi/valnode/bank"
	"github.com/luxfi/valnode/config"
	"github.com/luxfi/valnode/crypto"
	"github.com/luxfi/valnode/fork"
	"github.com/luxfi/valnode/gossip"
	"github.com/luxfi/valnode/leader"
	"github.com/luxfi/valnode/ledger"
	"github.com/luxfi/valnode/log"
	"github.com/luxfi/valnode/metrics"
	"github.com/luxfi/valnode/rpcclient"
	"github.com/luxfi/valnode/snapshot"
	"github.com/luxfi/valnode/tower"
	"github.com/luxfi/valnode/types"
	"github.com/luxfi/valnode/votesubmit"
)

// AppVersion identifies this node in any future peer handshake, the
// same shape the teacher's version.Application reports over gossip.
var AppVersion = &version.Application{Name: "valnode", Major: 1, Minor: 0, Patch: 0}

// Deps are the inputs the sequencer needs but does not construct
// itself: the parsed node configuration and shared ambient
// collaborators (logging, metrics, an optional RPC client for the
// snapshot/leader-schedule fallbacks of §4.10 steps 3 and 8).
type Deps struct {
	Config  config.Config
	Log     log.Logger
	Metrics *metrics.Metrics
	RPC     *rpcclient.Client // nil disables every RPC fallback
}

// Result is everything a fully bootstrapped node needs to hand to its
// runtime: every long-lived collaborator, already wired together.
type Result struct {
	Identity    *crypto.Keypair
	VoteKeypair *crypto.Keypair // nil when voting is disabled

	Accounts *accounts.Store
	Ledger   *ledger.Store
	Tower    *tower.Tower

	RootBank *bank.Bank
	Forks    *fork.Manager
	Leaders  *leader.Cache
	Contacts *gossip.ContactTable

	Submitter *votesubmit.Submitter // nil when voting is disabled

	StartSlot types.Slot
	Snapshot  snapshot.Result
}

// Run executes the ordered steps of §4.10, reporting progress through
// progress as each phase begins. A failure in any of steps 1-7
// returns a *PhaseError and aborts; step 8 (leader schedule) and step
// 9 (gossip connect, vote submitter start) are advisory and degrade
// instead of failing the whole sequence.
func Run(ctx context.Context, deps Deps, progress ProgressFunc) (*Result, error) {
	if progress == nil {
		progress = func(Phase) {}
	}
	lg := deps.Log
	if lg == nil {
		lg = log.NewNop()
	}

	progress(PhaseInitializing)
	lg.Info("bootstrapping", "app", AppVersion.String(), "shred_version", deps.Config.ShredVersion)

	identity, err := crypto.LoadKeypairFile(deps.Config.IdentityKeypairPath)
	if err != nil {
		return nil, &PhaseError{PhaseInitializing, err}
	}
	var voteKeypair *crypto.Keypair
	if deps.Config.VotingEnabled {
		voteKeypair, err = crypto.LoadKeypairFile(deps.Config.VoteKeypairPath)
		if err != nil {
			return nil, &PhaseError{PhaseInitializing, err}
		}
	}

	for _, dir := range []string{deps.Config.LedgerDir, deps.Config.AccountsDir, deps.Config.SnapshotDir, deps.Config.TowerDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &PhaseError{PhaseInitializing, err}
		}
	}

	ledgerStore, err := ledger.Open(deps.Config.LedgerDir)
	if err != nil {
		return nil, &PhaseError{PhaseInitializing, err}
	}
	// memdb backs the accounts store: no durable third-party KV
	// implementation of github.com/luxfi/database was found in the
	// retrieved pack beyond this in-memory one (see DESIGN.md).
	accountsStore := accounts.New(memdb.New())

	progress(PhaseFindingSnapshot)
	meta, path, found, err := snapshot.Discover(deps.Config.SnapshotDir)
	if err != nil {
		return nil, &PhaseError{PhaseFindingSnapshot, err}
	}
	if !found {
		lg.Warn("no local snapshot found, starting from genesis", "dir", deps.Config.SnapshotDir)
	}

	var startSlot types.Slot
	var snapResult snapshot.Result
	if found {
		progress(PhaseDownloadingSnapshot) // already local; phase reported for a uniform progress sequence
		progress(PhaseExtractingSnapshot)
		progress(PhaseLoadingAccounts)
		snapResult, err = snapshot.Extract(path, accountsStore)
		if err != nil {
			return nil, &PhaseError{PhaseLoadingAccounts, err}
		}
		startSlot = meta.Slot
		snapResult.StartSlot = startSlot
	} else {
		progress(PhaseLoadingAccounts)
		startSlot = 0
	}

	progress(PhaseLoadingTower)
	t, err := tower.Load(deps.Config.TowerDir, identity.Pubkey)
	if err != nil {
		if os.IsNotExist(err) {
			t = tower.New(identity.Pubkey)
		} else {
			return nil, &PhaseError{PhaseLoadingTower, err}
		}
	}

	progress(PhaseInitializingBank)
	rootBank := bank.NewRoot(startSlot, accountsStore, deps.Metrics, lg)

	progress(PhaseInitializingReplay)
	forks := fork.NewManager(startSlot, rootBank, deps.Metrics)

	progress(PhaseConnectingGossip)
	contacts := gossip.NewContactTable()
	leaders := leader.New(identity.Pubkey)
	fetchLeaderSchedule(ctx, deps, leaders, startSlot, lg)

	var submitter *votesubmit.Submitter
	if deps.Config.VotingEnabled && voteKeypair != nil {
		submitter = votesubmit.New(
			identity.Private, identity.Pubkey, voteKeypair.Pubkey, bank.VoteProgramID,
			deps.Config.VoteInterval, deps.Config.VoteRedundancy,
			t, leaders, contacts, deps.RPC, deps.Metrics, lg,
		)
	}

	progress(PhaseReady)
	return &Result{
		Identity:    identity,
		VoteKeypair: voteKeypair,
		Accounts:    accountsStore,
		Ledger:      ledgerStore,
		Tower:       t,
		RootBank:    rootBank,
		Forks:       forks,
		Leaders:     leaders,
		Contacts:    contacts,
		Submitter:   submitter,
		StartSlot:   startSlot,
		Snapshot:    snapResult,
	}, nil
}

// fetchLeaderSchedule implements step 8 of §4.10: advisory, warns and
// proceeds with an empty cache on any failure instead of aborting.
func fetchLeaderSchedule(ctx context.Context, deps Deps, leaders *leader.Cache, startSlot types.Slot, lg log.Logger) {
	if deps.RPC == nil {
		lg.Warn("no RPC endpoints configured, leader schedule cache starts empty")
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	byPubkey, err := deps.RPC.GetLeaderSchedule(callCtx, startSlot)
	if err != nil {
		lg.Warn("getLeaderSchedule fallback failed, leader schedule cache starts empty", "err", err)
		return
	}
	schedule := make(map[types.Slot]types.Pubkey)
	for pkBase58, offsets := range byPubkey {
		decoded, err := base58.Decode(pkBase58)
		if err != nil {
			continue
		}
		pk, err := types.PubkeyFromBytes(decoded)
		if err != nil {
			continue
		}
		for _, offset := range offsets {
			schedule[startSlot+types.Slot(offset)] = pk
		}
	}
	leaders.Populate(schedule)
}
