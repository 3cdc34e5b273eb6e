package engine

import (
	"testing"

	"github.com/nssa-network/sequencer/internal/program"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

func TestRunDirectExecutionAgainstRegistry(t *testing.T) {
	registry := program.NewRegistry()
	registry.RegisterNative(program.TransferProgram{})

	progID := program.AuthenticatedTransferProgramID()
	acc1 := idFromLabel("run-acc1")
	acc2 := idFromLabel("run-acc2")

	sender := account.Default()
	sender.Balance = primitives.NewUint128(100)

	preStates := []account.WithMetadata{
		{Account: sender, AccountId: acc1, IsAuthorized: true},
		{Account: account.Default(), AccountId: acc2, IsAuthorized: false},
	}

	state, err := Run(registry, progID, preStates, program.EncodeTransferInstruction(primitives.NewUint128(30)))
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	byID := map[primitives.AccountId]StatePair{}
	for _, p := range state.StatePairs() {
		byID[p.Pre.AccountId] = p
	}

	if got := byID[acc1].Post.Balance.Uint64(); got != 70 {
		t.Fatalf("sender post balance = %d, want 70", got)
	}
	if got := byID[acc2].Post.Balance.Uint64(); got != 30 {
		t.Fatalf("recipient post balance = %d, want 30", got)
	}
}

func TestRunUnknownProgramFails(t *testing.T) {
	registry := program.NewRegistry()
	var unknown primitives.ProgramId
	unknown[0] = 1

	_, err := Run(registry, unknown, nil, nil)
	if err == nil {
		t.Fatalf("expected error for unknown program")
	}
}
