package state

import (
	"context"
	"testing"

	"github.com/nssa-network/sequencer/internal/program"
	"github.com/nssa-network/sequencer/internal/zkp"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

func idFromLabel(label string) primitives.AccountId {
	h := primitives.HashBytes([]byte(label))
	return primitives.AccountIdFromBytes(h[:])
}

func newTestWorldState(t *testing.T) *WorldState {
	t.Helper()
	accumulator := zkp.NewCommitmentAccumulator(zkp.NewInMemoryAccumulatorStore(), 0)
	nullifiers := zkp.NewNullifierSet(zkp.NewInMemoryNullifierStore(), nil)
	registry := program.NewRegistry()
	registry.RegisterNative(program.TransferProgram{})

	w := New(accumulator, nullifiers, registry, AlwaysValidSignatureVerifier{}, zkp.AlwaysValidProofBackend{})
	if err := w.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return w
}

func TestApplyPublicTransactionTransfersBalance(t *testing.T) {
	w := newTestWorldState(t)

	sender := idFromLabel("sender")
	recipient := idFromLabel("recipient")

	senderAccount := account.Default()
	senderAccount.Balance = primitives.NewUint128(100)
	w.LoadAccounts(map[primitives.AccountId]account.Account{
		sender: senderAccount,
	})

	tx := &types.PublicTransaction{
		ProgramID:   program.AuthenticatedTransferProgramID(),
		AccountIDs:  []primitives.AccountId{sender, recipient},
		Nonces:      []uint64{0, 0},
		Instruction: program.EncodeTransferInstruction(primitives.NewUint128(40)),
		Signatures:  []types.AccountSignature{{0x01}, {}},
	}

	if err := w.ApplyPublicTransaction(tx); err != nil {
		t.Fatalf("apply public transaction: %v", err)
	}

	if got := w.GetAccount(sender).Balance.Uint64(); got != 60 {
		t.Fatalf("sender balance = %d, want 60", got)
	}
	if got := w.GetAccount(recipient).Balance.Uint64(); got != 40 {
		t.Fatalf("recipient balance = %d, want 40", got)
	}
	if got := w.GetAccount(sender).Nonce; got != 1 {
		t.Fatalf("sender nonce = %d, want 1", got)
	}
}

func TestApplyPublicTransactionRejectsBadNonce(t *testing.T) {
	w := newTestWorldState(t)

	sender := idFromLabel("sender")
	recipient := idFromLabel("recipient")
	senderAccount := account.Default()
	senderAccount.Balance = primitives.NewUint128(100)
	w.LoadAccounts(map[primitives.AccountId]account.Account{sender: senderAccount})

	tx := &types.PublicTransaction{
		ProgramID:   program.AuthenticatedTransferProgramID(),
		AccountIDs:  []primitives.AccountId{sender, recipient},
		Nonces:      []uint64{7, 0},
		Instruction: program.EncodeTransferInstruction(primitives.NewUint128(40)),
		Signatures:  []types.AccountSignature{{0x01}, {}},
	}

	err := w.ApplyPublicTransaction(tx)
	if err != ErrBadNonce {
		t.Fatalf("expected ErrBadNonce, got %v", err)
	}
}

func TestApplyPrivacyPreservingTransactionRejectsDoubleSpend(t *testing.T) {
	w := newTestWorldState(t)

	var nf primitives.Nullifier
	nf[0] = 0x42
	if err := w.nullifiers.MarkSpent(context.Background(), nf, primitives.Hash{}, 1); err != nil {
		t.Fatalf("seed nullifier: %v", err)
	}

	tx := &types.PrivacyPreservingTransaction{
		NewNullifiers: []primitives.Nullifier{nf},
	}

	err := w.ApplyPrivacyPreservingTransaction(context.Background(), tx, [32]byte{}, 2)
	if err != ErrDoubleSpend {
		t.Fatalf("expected ErrDoubleSpend, got %v", err)
	}
}

func TestApplyPrivacyPreservingTransactionCommitsPublicPostStatesAndCommitments(t *testing.T) {
	w := newTestWorldState(t)

	recipient := idFromLabel("priv-recipient")
	post := account.Default()
	post.Balance = primitives.NewUint128(15)

	var commitment primitives.Commitment
	commitment[0] = 0x09

	tx := &types.PrivacyPreservingTransaction{
		PublicAccountIDs: []primitives.AccountId{recipient},
		Nonces:           []uint64{0},
		PublicPostStates: [][]byte{post.Encode()},
		NewCommitments:   []primitives.Commitment{commitment},
		Signatures:       []types.AccountSignature{{}},
	}

	if err := w.ApplyPrivacyPreservingTransaction(context.Background(), tx, [32]byte{0x01}, 3); err != nil {
		t.Fatalf("apply privacy-preserving transaction: %v", err)
	}

	if got := w.GetAccount(recipient).Balance.Uint64(); got != 15 {
		t.Fatalf("recipient balance = %d, want 15", got)
	}
	if w.accumulator.Size() != 1 {
		t.Fatalf("accumulator size = %d, want 1", w.accumulator.Size())
	}
}

func TestApplyProgramDeploymentTransactionRegistersAndRejectsDuplicate(t *testing.T) {
	w := newTestWorldState(t)

	tx := &types.ProgramDeploymentTransaction{Bytecode: []byte("a tiny program")}

	if err := w.ApplyProgramDeploymentTransaction(tx); err != nil {
		t.Fatalf("deploy: %v", err)
	}
	if !w.HasProgram(tx.DeployedProgramID()) {
		t.Fatalf("expected program to be registered")
	}

	err := w.ApplyProgramDeploymentTransaction(tx)
	if err != program.ErrProgramExists {
		t.Fatalf("expected ErrProgramExists on redeploy, got %v", err)
	}
}
