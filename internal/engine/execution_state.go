// Package engine expands a chain of program invocations into the single
// pre/post account-state diff a transaction applies to world state.
package engine

import (
	"errors"
	"fmt"

	"github.com/nssa-network/sequencer/internal/program"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// MaxNumberChainedCalls bounds the total number of program invocations one
// transaction may expand to, guarding against unbounded recursion in
// adversarial chained calls (spec §4.4, "call-depth bound").
const MaxNumberChainedCalls = 64

var (
	// ErrNoProgramOutputs is returned when a transaction's call produced no
	// outputs at all.
	ErrNoProgramOutputs = errors.New("no program outputs provided")
	// ErrInsufficientOutputs is returned when the queue of pending chained
	// calls is non-empty but the output list is exhausted.
	ErrInsufficientOutputs = errors.New("insufficient program outputs for chained calls")
	// ErrUnconsumedOutputs is returned when outputs remain after the
	// chained-call queue has emptied.
	ErrUnconsumedOutputs = errors.New("inner call without a chained call found")
	// ErrCallDepthExceeded is returned when expansion exceeds
	// MaxNumberChainedCalls.
	ErrCallDepthExceeded = errors.New("max chained calls depth is exceeded")
	// ErrMismatchedInstructionData is returned when a chained call's
	// recorded instruction data disagrees with the corresponding output.
	ErrMismatchedInstructionData = errors.New("mismatched instruction data between chained call and program output")
	// ErrBadBehavedProgram wraps a program.ValidateExecution failure.
	ErrBadBehavedProgram = errors.New("bad behaved program")
	// ErrInconsistentPreState is returned when an account reappears with a
	// pre-state that disagrees with its previously recorded post-state.
	ErrInconsistentPreState = errors.New("inconsistent pre state for account")
	// ErrInconsistentAuthorization is returned when a reused account's
	// authorization bit disagrees with what PDA propagation implies.
	ErrInconsistentAuthorization = errors.New("inconsistent authorization for account")
	// ErrAccountNotInExecution is returned by validate_and_sync_states's
	// internal invariant: an account reused across frames must already
	// have a recorded pre-state.
	ErrAccountNotInExecution = errors.New("pre state must exist in execution state for account")
	// ErrCannotClaimInitialized is returned when a program tries to claim
	// an account whose post-state program_owner is already non-default.
	ErrCannotClaimInitialized = errors.New("cannot claim an initialized account")
	// ErrProgramNotFound is returned when a chained call targets a program
	// id absent from the registry.
	ErrProgramNotFound = errors.New("program not found in registry")
	// ErrProgramExecutionFailed wraps a program's own Execute error.
	ErrProgramExecutionFailed = errors.New("program execution failed")
)

type pendingCall struct {
	call   program.ChainedCall
	caller *primitives.ProgramId
}

// StatePair is one account's pre- and post-invocation state, paired by
// AccountId.
type StatePair struct {
	Pre  account.WithMetadata
	Post account.Account
}

// ExecutionState is the world-state diff implied by one transaction's
// (possibly chained) program invocations, ported from the privacy
// circuit's `ExecutionState`.
type ExecutionState struct {
	order      []primitives.AccountId
	preStates  map[primitives.AccountId]account.WithMetadata
	postStates map[primitives.AccountId]account.Account
}

// DeriveFromOutputs walks program_outputs in the pre-order the queue
// expansion implies, validating well-behavedness and account-state
// continuity at each step, and returns the merged execution state. This
// is the Go equivalent of `ExecutionState::derive_from_outputs`; it is
// used when the per-invocation outputs were already produced and
// proof-verified elsewhere (the privacy-preserving transaction path).
func DeriveFromOutputs(programID primitives.ProgramId, outputs []program.Output) (*ExecutionState, error) {
	if len(outputs) == 0 {
		return nil, ErrNoProgramOutputs
	}
	first := outputs[0]
	outputIdx := 0

	next := func(pending pendingCall) (program.Output, error) {
		if outputIdx >= len(outputs) {
			return program.Output{}, ErrInsufficientOutputs
		}
		out := outputs[outputIdx]
		outputIdx++

		if !bytesEqual(pending.call.InstructionData, out.InstructionData) {
			return program.Output{}, ErrMismatchedInstructionData
		}
		// The corresponding execution proof for `out` is checked by the
		// caller against pending.call.ProgramId before this function is
		// invoked; by the time outputs reach here they are already
		// proof-verified per-invocation (spec §4.2).
		return out, nil
	}

	initial := pendingCall{
		call: program.ChainedCall{
			ProgramId:       programID,
			InstructionData: first.InstructionData,
			PreStates:       first.PreStates,
			PDASeeds:        nil,
		},
		caller: nil,
	}

	state, err := expand(initial, next)
	if err != nil {
		return nil, err
	}
	if outputIdx < len(outputs) {
		return nil, ErrUnconsumedOutputs
	}
	return state, nil
}

// Run performs live chained-call execution, invoking each program from
// registry as the queue is expanded, instead of replaying a pre-computed
// output list. This is the direct-execution mode spec §4.6 allows for the
// public-transaction transition.
func Run(
	registry *program.Registry,
	programID primitives.ProgramId,
	preStates []account.WithMetadata,
	instructionData []byte,
) (*ExecutionState, error) {
	next := func(pending pendingCall) (program.Output, error) {
		prog, err := registry.Get(pending.call.ProgramId)
		if err != nil {
			return program.Output{}, fmt.Errorf("%w: %s", ErrProgramNotFound, pending.call.ProgramId.String())
		}
		out, err := prog.Execute(pending.call.PreStates, pending.call.InstructionData, pending.call.PDASeeds, pending.caller)
		if err != nil {
			return program.Output{}, fmt.Errorf("%w: %v", ErrProgramExecutionFailed, err)
		}
		return out, nil
	}

	initial := pendingCall{
		call: program.ChainedCall{
			ProgramId:       programID,
			InstructionData: instructionData,
			PreStates:       preStates,
			PDASeeds:        nil,
		},
		caller: nil,
	}

	return expand(initial, next)
}

// expand drains the chained-call queue seeded with initial, sourcing each
// frame's ProgramOutput from next, and folds every frame into a merged
// ExecutionState. Shared by DeriveFromOutputs (replayed outputs) and Run
// (live execution).
func expand(initial pendingCall, next func(pendingCall) (program.Output, error)) (*ExecutionState, error) {
	queue := []pendingCall{initial}

	state := &ExecutionState{
		preStates:  make(map[primitives.AccountId]account.WithMetadata),
		postStates: make(map[primitives.AccountId]account.Account),
	}

	lastProgramID := initial.call.ProgramId
	callsCounter := 0

	for len(queue) > 0 {
		if callsCounter > MaxNumberChainedCalls {
			return nil, ErrCallDepthExceeded
		}

		pending := queue[0]
		queue = queue[1:]

		out, err := next(pending)
		if err != nil {
			return nil, err
		}

		if err := program.ValidateExecution(out.PreStates, out.PostStates, pending.call.ProgramId); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadBehavedProgram, err)
		}

		for i := len(out.ChainedCalls) - 1; i >= 0; i-- {
			id := pending.call.ProgramId
			queue = append([]pendingCall{{call: out.ChainedCalls[i], caller: &id}}, queue...)
		}

		authorizedPDAs := program.ComputeAuthorizedPDAs(pending.caller, pending.call.PDASeeds)
		if err := state.validateAndSync(pending.call.ProgramId, authorizedPDAs, out.PreStates, out.PostStates); err != nil {
			return nil, err
		}

		lastProgramID = pending.call.ProgramId
		callsCounter++
	}

	for id, acc := range state.postStates {
		if acc.ProgramOwner == primitives.DefaultProgramId {
			acc.ProgramOwner = lastProgramID
			state.postStates[id] = acc
		}
	}

	return state, nil
}

// validateAndSync folds one invocation's pre/post states into the running
// execution state, checking cross-frame continuity and authorization
// propagation. Ports `validate_and_sync_states`.
func (s *ExecutionState) validateAndSync(
	programID primitives.ProgramId,
	authorizedPDAs map[primitives.AccountId]struct{},
	preStates []account.WithMetadata,
	postStates []account.PostState,
) error {
	for i := range preStates {
		pre := preStates[i]
		post := postStates[i]
		id := pre.AccountId

		if existingPost, ok := s.postStates[id]; ok {
			if !existingPost.Equal(pre.Account) {
				return fmt.Errorf("%w: %s", ErrInconsistentPreState, id.String())
			}

			existingPre, ok := s.preStates[id]
			if !ok {
				return fmt.Errorf("%w: %s", ErrAccountNotInExecution, id.String())
			}
			_, isPDA := authorizedPDAs[id]
			expectedAuthorized := existingPre.IsAuthorized || isPDA
			if pre.IsAuthorized != expectedAuthorized {
				return fmt.Errorf("%w: %s", ErrInconsistentAuthorization, id.String())
			}
		} else {
			s.order = append(s.order, id)
			s.preStates[id] = pre
		}

		postAcc := post.Account()
		if post.RequiresClaim() {
			if postAcc.ProgramOwner == primitives.DefaultProgramId {
				postAcc.ProgramOwner = programID
			} else {
				return fmt.Errorf("%w: %s", ErrCannotClaimInitialized, id.String())
			}
		}

		s.postStates[id] = postAcc
	}
	return nil
}

// StatePairs returns (pre, post) pairs for every account touched, in first
// -seen order, the Go equivalent of `into_states_iter`.
func (s *ExecutionState) StatePairs() []StatePair {
	out := make([]StatePair, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, StatePair{
			Pre:  s.preStates[id],
			Post: s.postStates[id],
		})
	}
	return out
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
