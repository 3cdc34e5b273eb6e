// Package sequencer implements the single trusted sequencer core: genesis
// bootstrap, mempool-draining block production, settlement-layer
// submission, and restart recovery (spec §4-§6).
package sequencer

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/nssa-network/sequencer/internal/indexer"
	"github.com/nssa-network/sequencer/internal/logging"
	"github.com/nssa-network/sequencer/internal/mempool"
	"github.com/nssa-network/sequencer/internal/p2p"
	"github.com/nssa-network/sequencer/internal/program"
	"github.com/nssa-network/sequencer/internal/settlement"
	"github.com/nssa-network/sequencer/internal/state"
	"github.com/nssa-network/sequencer/internal/storage"
	"github.com/nssa-network/sequencer/internal/zkp"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// Core is the sequencer's top-level object: it owns the world state, the
// block store, the mempool, and the settlement/indexer/p2p clients, and
// drives block production from them.
type Core struct {
	mu sync.Mutex // serializes produceBlock calls

	cfg *Config

	state   *state.WorldState
	store   *storage.Store
	mempool *mempool.Mempool

	signingKey ed25519.PrivateKey

	settlementClient settlement.Client
	submitter        *settlement.Submitter
	indexerClient    indexer.Client
	p2pNode          *p2p.Node

	chainHeight uint64

	log *logging.Logger
}

// New constructs a Core, bootstrapping genesis state (or restoring
// persisted state) and wiring the settlement/indexer/p2p collaborators.
// indexerClient and p2pNode may be nil; a nil settlementClient is an
// error.
func New(cfg *Config, settlementClient settlement.Client, indexerClient indexer.Client, p2pNode *p2p.Node) (*Core, error) {
	if settlementClient == nil {
		return nil, fmt.Errorf("sequencer: settlement client is required")
	}

	store, err := storage.Open(filepath.Join(cfg.Home, "db"))
	if err != nil {
		return nil, fmt.Errorf("sequencer: open store: %w", err)
	}

	signer, err := resolveSigningKey(cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("sequencer: resolve signing key: %w", err)
	}

	registry := program.NewRegistry()
	registry.RegisterNative(program.TransferProgram{})

	circuits := zkp.NewCircuitManager()
	numAccounts := cfg.PrivacyCircuitAccounts
	if numAccounts == 0 {
		numAccounts = 2
	}
	if err := circuits.CompilePrivacyCircuit(numAccounts); err != nil {
		store.Close()
		return nil, fmt.Errorf("sequencer: compile privacy circuit: %w", err)
	}

	accumulator := zkp.NewCommitmentAccumulator(zkp.NewInMemoryAccumulatorStore(), 0)
	nullifiers := zkp.NewNullifierSet(zkp.NewInMemoryNullifierStore(), zkp.DefaultNullifierConfig())
	ws := state.New(accumulator, nullifiers, registry, state.AlwaysValidSignatureVerifier{}, circuits)

	ctx := context.Background()
	if err := ws.Initialize(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("sequencer: initialize accumulator: %w", err)
	}

	chainHeight, err := bootstrapState(ctx, ws, store, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	mp := mempool.NewMempool(&mempool.Config{MaxSize: cfg.MempoolMaxSize})

	c := &Core{
		cfg:              cfg,
		state:            ws,
		store:            store,
		mempool:          mp,
		signingKey:       signer,
		settlementClient: settlementClient,
		submitter: settlement.NewSubmitter(settlementClient, &settlement.Config{
			StartDelayMs: cfg.Settlement.StartDelayMs,
			MaxRetries:   cfg.Settlement.MaxRetries,
			ChannelID:    cfg.Settlement.ChannelID,
			NodeURL:      cfg.Settlement.NodeURL,
			Auth:         cfg.Settlement.Auth,
		}),
		indexerClient: indexerClient,
		p2pNode:       p2pNode,
		chainHeight:   chainHeight,
		log:           logging.New("sequencer", logging.LevelInfo),
	}
	return c, nil
}

// bootstrapState restores persisted account state from the store, or, if
// the store is empty, seeds genesis accounts and commitments from cfg
// (mirroring the original's `start_from_config`). It returns the chain
// height to resume block production from: the id of the last *stored*
// block, not the last finalized one (spec's restart-equivalence
// semantics).
func bootstrapState(ctx context.Context, ws *state.WorldState, store *storage.Store, cfg *Config) (uint64, error) {
	lastID, ok, err := store.LastBlockID()
	if err != nil {
		return 0, err
	}
	if ok {
		blob, err := store.LoadWorldState()
		if err != nil {
			return 0, fmt.Errorf("sequencer: load persisted state: %w", err)
		}
		if err := ws.RestoreSnapshot(blob); err != nil {
			return 0, fmt.Errorf("sequencer: restore snapshot: %w", err)
		}
		return lastID, nil
	}

	accounts := make(map[primitives.AccountId]account.Account, len(cfg.InitialAccounts))
	for _, ia := range cfg.InitialAccounts {
		accounts[ia.AccountID] = account.Account{
			ProgramOwner: primitives.DefaultProgramId,
			Balance:      primitives.NewUint128(ia.Balance),
			Nonce:        0,
		}
	}
	ws.LoadAccounts(accounts)

	transferProgramID := program.AuthenticatedTransferProgramID()
	for _, ic := range cfg.InitialCommitments {
		acc := account.Account{
			ProgramOwner: transferProgramID,
			Balance:      primitives.NewUint128(ic.Balance),
			Data:         ic.Data,
			Nonce:        0,
		}
		commitment := zkp.NewCommitment(ic.NPK, acc)
		if _, err := ws.CommitGenesisCommitment(ctx, commitment); err != nil {
			return 0, fmt.Errorf("sequencer: seed genesis commitment: %w", err)
		}
	}

	if cfg.GenesisID == 0 {
		return 0, nil
	}
	return cfg.GenesisID - 1, nil
}
