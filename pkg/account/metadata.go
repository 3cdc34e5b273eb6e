package account

import "github.com/nssa-network/sequencer/pkg/primitives"

// WithMetadata pairs an account with the id it lives at and whether the
// current invocation frame has proved it may mutate it.
type WithMetadata struct {
	Account       Account
	AccountId     primitives.AccountId
	IsAuthorized  bool
}

// PostStateKind distinguishes a program's claim decision for an account
// it touched but did not previously own.
type PostStateKind uint8

const (
	// Claimed: program_owner is set to the invoking program.
	Claimed PostStateKind = iota
	// Unclaimed: program_owner retains DEFAULT_PROGRAM_ID; an outer
	// caller may later claim it.
	Unclaimed
)

// PostState is the post-invocation state of one account, tagged with
// whether the invoking program claimed it.
type PostState struct {
	Kind    PostStateKind
	account Account
}

// NewClaimedPostState builds a post-state with program_owner set to the
// invoking program.
func NewClaimedPostState(programID primitives.ProgramId, acc Account) PostState {
	acc.ProgramOwner = programID
	return PostState{Kind: Claimed, account: acc}
}

// NewUnclaimedPostState builds a post-state that retains
// DEFAULT_PROGRAM_ID.
func NewUnclaimedPostState(acc Account) PostState {
	acc.ProgramOwner = primitives.DefaultProgramId
	return PostState{Kind: Unclaimed, account: acc}
}

// RequiresClaim reports whether this post-state is tagged to be claimed
// by the invoking program but has not yet had its program_owner set
// (used by the chained-call merge in internal/engine).
func (p PostState) RequiresClaim() bool {
	return p.Kind == Claimed && p.account.ProgramOwner == primitives.DefaultProgramId
}

// Account returns the underlying post-account value.
func (p PostState) Account() Account { return p.account }

// SetProgramOwner mutates the underlying account's program owner in
// place, used when an outer frame performs a pending claim.
func (p *PostState) SetProgramOwner(id primitives.ProgramId) {
	p.account.ProgramOwner = id
}
