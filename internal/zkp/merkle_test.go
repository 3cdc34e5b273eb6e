package zkp

import (
	"context"
	"testing"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

func TestCommitmentAccumulatorMembershipProofRoundTrip(t *testing.T) {
	ctx := context.Background()
	acc := NewCommitmentAccumulator(NewInMemoryAccumulatorStore(), 0)
	if err := acc.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	c := primitives.Commitment(primitives.HashBytes([]byte("commitment-1")))
	pos, err := acc.Insert(ctx, c)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	proof, err := acc.ProofForPosition(ctx, pos)
	if err != nil {
		t.Fatalf("proof for position: %v", err)
	}

	got := ComputeDigestForPath(c, proof)
	if got != acc.Root() {
		t.Fatalf("recomputed digest does not match accumulator root")
	}
}

func TestCommitmentAccumulatorRootChangesOnInsert(t *testing.T) {
	ctx := context.Background()
	acc := NewCommitmentAccumulator(NewInMemoryAccumulatorStore(), 0)
	if err := acc.Initialize(ctx); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	before := acc.Root()

	if _, err := acc.Insert(ctx, primitives.Commitment(primitives.HashBytes([]byte("c")))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	after := acc.Root()

	if before == after {
		t.Fatalf("root did not change after insert")
	}
}
