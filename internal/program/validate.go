package program

import (
	"errors"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// ErrAccountIdMismatch is returned when pre/post states at the same index
// reference different account ids.
var ErrAccountIdMismatch = errors.New("pre and post account id mismatch at same index")

// ErrUnauthorizedMutation is returned when a program mutates an account it
// does not own.
var ErrUnauthorizedMutation = errors.New("program mutated an account it does not own")

// ErrBadPostOwner is returned when a post-state's program_owner is
// neither the invoking program nor DEFAULT_PROGRAM_ID.
var ErrBadPostOwner = errors.New("post-state program_owner is neither the invoking program nor default")

// ValidateExecution checks the well-behavedness invariants of spec §4.4
// for one program invocation: same account positions, no unauthorized
// mutation of unowned accounts, valid post-state ownership, and the
// DATA_MAX_LEN bound.
func ValidateExecution(pre []account.WithMetadata, post []account.PostState, programID primitives.ProgramId) error {
	if len(pre) != len(post) {
		return ErrAccountIdMismatch
	}
	for i := range pre {
		preAcc := pre[i].Account
		postAcc := post[i].Account()

		if len(postAcc.Data) > account.DataMaxLen {
			return account.ErrDataTooLarge
		}

		if postAcc.ProgramOwner != programID && postAcc.ProgramOwner != primitives.DefaultProgramId {
			return ErrBadPostOwner
		}

		ownedByCaller := preAcc.ProgramOwner == programID || preAcc.ProgramOwner == primitives.DefaultProgramId
		if !ownedByCaller && !preAcc.Equal(postAcc) {
			return ErrUnauthorizedMutation
		}
	}
	return nil
}
