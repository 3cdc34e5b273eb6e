package zkp

import (
	"context"
	"testing"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

func TestNullifierSetMarkSpentRejectsReplay(t *testing.T) {
	ctx := context.Background()
	set := NewNullifierSet(NewInMemoryNullifierStore(), nil)

	n := primitives.Nullifier(primitives.HashBytes([]byte("nullifier-1")))
	txHash := primitives.HashBytes([]byte("tx-1"))

	if err := set.MarkSpent(ctx, n, txHash, 1); err != nil {
		t.Fatalf("first mark spent: %v", err)
	}
	if err := set.MarkSpent(ctx, n, txHash, 1); err != ErrNullifierSpent {
		t.Fatalf("expected ErrNullifierSpent on replay, got %v", err)
	}
}

func TestNullifierForAccountInitializationDiffersFromUpdate(t *testing.T) {
	npk := primitives.NullifierPublicKey(primitives.HashBytes([]byte("npk")))
	nsk := primitives.NullifierSecretKey(primitives.HashBytes([]byte("nsk")))
	commitment := primitives.Commitment(primitives.HashBytes([]byte("commitment")))

	init := NullifierForAccountInitialization(npk)
	update := NullifierForAccountUpdate(commitment, nsk)

	if init == update {
		t.Fatalf("initialization and update nullifiers must differ")
	}
}
