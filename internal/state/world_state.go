package state

import (
	"context"
	"sync"

	"github.com/nssa-network/sequencer/internal/program"
	"github.com/nssa-network/sequencer/internal/zkp"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// WorldState is the sequencer's single authoritative account/commitment/
// nullifier/program store (spec §4.6). The ApplyX methods take its lock
// only around their pre-state reads and their final commit, so callers
// serialize ApplyX calls themselves (the sequencer Core does so under its
// own mutex); concurrent readers use the Get/Query methods freely.
type WorldState struct {
	mu sync.RWMutex

	accounts map[primitives.AccountId]account.Account

	accumulator *zkp.CommitmentAccumulator
	nullifiers  *zkp.NullifierSet
	programs    *program.Registry

	sigVerifier  SignatureVerifier
	proofBackend zkp.ProofBackend
}

// New constructs an empty world state over the given accumulator,
// nullifier set and program registry. Callers typically call Initialize
// afterward to restore persisted accumulator state.
func New(accumulator *zkp.CommitmentAccumulator, nullifiers *zkp.NullifierSet, programs *program.Registry, sigVerifier SignatureVerifier, proofBackend zkp.ProofBackend) *WorldState {
	return &WorldState{
		accounts:     make(map[primitives.AccountId]account.Account),
		accumulator:  accumulator,
		nullifiers:   nullifiers,
		programs:     programs,
		sigVerifier:  sigVerifier,
		proofBackend: proofBackend,
	}
}

// Initialize loads the commitment accumulator's persisted root/size.
// Accounts are loaded separately: LoadAccounts seeds them at genesis and
// RestoreSnapshot restores them on restart.
func (w *WorldState) Initialize(ctx context.Context) error {
	return w.accumulator.Initialize(ctx)
}

// LoadAccounts seeds the account map at genesis
// (config.initial_accounts). Restart recovery from the persisted
// `nssa_state` blob goes through RestoreSnapshot instead.
func (w *WorldState) LoadAccounts(accounts map[primitives.AccountId]account.Account) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, acc := range accounts {
		w.accounts[id] = acc
	}
}

// GetAccount returns the account stored at id, or the default
// (uninitialized) value if id has never been written.
func (w *WorldState) GetAccount(id primitives.AccountId) account.Account {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if acc, ok := w.accounts[id]; ok {
		return acc
	}
	return account.Default()
}

// AccountsNonces returns the stored nonce for each id, in order.
func (w *WorldState) AccountsNonces(ids []primitives.AccountId) []uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]uint64, len(ids))
	for i, id := range ids {
		if acc, ok := w.accounts[id]; ok {
			out[i] = acc.Nonce
		}
	}
	return out
}

// Root returns the commitment accumulator's current digest.
func (w *WorldState) Root() primitives.CommitmentSetDigest {
	return w.accumulator.Root()
}

// MembershipProof returns the authentication path for the commitment at
// leaf position, or an error if no commitment has been inserted there.
func (w *WorldState) MembershipProof(ctx context.Context, position uint64) (*zkp.MembershipProof, error) {
	return w.accumulator.ProofForPosition(ctx, position)
}

// HasProgram reports whether id is registered, native or deployed.
func (w *WorldState) HasProgram(id primitives.ProgramId) bool {
	return w.programs.Has(id)
}

// preStatesFor loads the current account values for ids into
// account.WithMetadata entries, marking every one IsAuthorized=false; the
// caller flips authorization for whichever entries it verifies.
func (w *WorldState) preStatesFor(ids []primitives.AccountId) []account.WithMetadata {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]account.WithMetadata, len(ids))
	for i, id := range ids {
		acc, ok := w.accounts[id]
		if !ok {
			acc = account.Default()
		}
		out[i] = account.WithMetadata{Account: acc, AccountId: id, IsAuthorized: false}
	}
	return out
}

// postStateWrite is one account's new value pending commit.
type postStateWrite struct {
	id   primitives.AccountId
	post account.Account
}

// commitPostStates validates every write in writes against the
// OwnershipDowngrade invariant before applying any of them, so a
// transaction's mutations either all succeed or none do (spec §4.6
// "Atomicity").
func (w *WorldState) commitPostStates(writes []postStateWrite) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, wr := range writes {
		if existing, ok := w.accounts[wr.id]; ok {
			if existing.ProgramOwner != primitives.DefaultProgramId && wr.post.ProgramOwner == primitives.DefaultProgramId {
				return ErrOwnershipDowngrade
			}
		}
	}
	for _, wr := range writes {
		w.accounts[wr.id] = wr.post
	}
	return nil
}
