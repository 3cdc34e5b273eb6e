package engine

import (
	"testing"

	"github.com/nssa-network/sequencer/internal/program"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

func idFromLabel(label string) primitives.AccountId {
	h := primitives.HashBytes([]byte(label))
	return primitives.AccountIdFromBytes(h[:])
}

func TestDeriveFromOutputsSingleCallClaimsDefaultAccounts(t *testing.T) {
	progID := program.AuthenticatedTransferProgramID()
	acc1 := idFromLabel("acc1")
	acc2 := idFromLabel("acc2")

	sender := account.Default()
	sender.Balance = primitives.NewUint128(100)

	preStates := []account.WithMetadata{
		{Account: sender, AccountId: acc1, IsAuthorized: true},
		{Account: account.Default(), AccountId: acc2, IsAuthorized: false},
	}

	out, err := program.TransferProgram{}.Execute(preStates, program.EncodeTransferInstruction(primitives.NewUint128(40)), nil, nil)
	if err != nil {
		t.Fatalf("unexpected program error: %v", err)
	}

	state, err := DeriveFromOutputs(progID, []program.Output{out})
	if err != nil {
		t.Fatalf("unexpected derive error: %v", err)
	}

	pairs := state.StatePairs()
	if len(pairs) != 2 {
		t.Fatalf("expected 2 state pairs, got %d", len(pairs))
	}

	byID := map[primitives.AccountId]StatePair{}
	for _, p := range pairs {
		byID[p.Pre.AccountId] = p
	}

	if got := byID[acc1].Post.Balance.Uint64(); got != 60 {
		t.Fatalf("sender post balance = %d, want 60", got)
	}
	if got := byID[acc2].Post.Balance.Uint64(); got != 40 {
		t.Fatalf("recipient post balance = %d, want 40", got)
	}
	if byID[acc1].Post.ProgramOwner != progID {
		t.Fatalf("sender post program owner not claimed by invoking program")
	}
}

func TestDeriveFromOutputsNoOutputsFails(t *testing.T) {
	progID := program.AuthenticatedTransferProgramID()
	if _, err := DeriveFromOutputs(progID, nil); err != ErrNoProgramOutputs {
		t.Fatalf("expected ErrNoProgramOutputs, got %v", err)
	}
}

func TestTransferProgramInsufficientBalanceRejected(t *testing.T) {
	acc1 := idFromLabel("acc1")
	acc2 := idFromLabel("acc2")

	preStates := []account.WithMetadata{
		{Account: account.Default(), AccountId: acc1, IsAuthorized: true},
		{Account: account.Default(), AccountId: acc2, IsAuthorized: false},
	}

	_, err := program.TransferProgram{}.Execute(preStates, program.EncodeTransferInstruction(primitives.NewUint128(1)), nil, nil)
	if err != program.ErrInsufficientBalance {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestDeriveFromOutputsMismatchedInstructionDataRejected(t *testing.T) {
	progID := program.AuthenticatedTransferProgramID()
	acc1 := idFromLabel("acc1")
	acc2 := idFromLabel("acc2")

	preStates := []account.WithMetadata{
		{Account: account.Default(), AccountId: acc1, IsAuthorized: true},
		{Account: account.Default(), AccountId: acc2, IsAuthorized: false},
	}
	out, err := program.TransferProgram{}.Execute(preStates, program.EncodeTransferInstruction(primitives.NewUint128(0)), nil, nil)
	if err != nil {
		t.Fatalf("unexpected program error: %v", err)
	}
	// The first output seeds the initial call's instruction data itself,
	// so a mismatch is only detectable on a chained call: the outer output
	// chains into the transfer with data that disagrees with its output.
	outer := program.Output{
		InstructionData: []byte{0},
		ChainedCalls: []program.ChainedCall{{
			ProgramId:       progID,
			InstructionData: program.EncodeTransferInstruction(primitives.NewUint128(1)),
			PreStates:       preStates,
		}},
	}

	if _, err := DeriveFromOutputs(progID, []program.Output{outer, out}); err != ErrMismatchedInstructionData {
		t.Fatalf("expected ErrMismatchedInstructionData, got %v", err)
	}
}
