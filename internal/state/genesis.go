package state

import (
	"context"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

// CommitGenesisCommitment inserts commitment directly into the
// commitment accumulator, bypassing the privacy-preserving transition's
// nullifier/signature/proof checks. It exists solely for genesis
// bootstrap (spec's `initial_commitments`, pre-claimed into the
// authenticated-transfer program before any transaction has run).
func (w *WorldState) CommitGenesisCommitment(ctx context.Context, commitment primitives.Commitment) (uint64, error) {
	return w.accumulator.Insert(ctx, commitment)
}
