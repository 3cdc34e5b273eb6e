package state

import (
	"github.com/nssa-network/sequencer/internal/engine"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// signingMessage is the canonical message a public transaction's signers
// authorize: everything but the signatures themselves.
func signingMessage(tx *types.PublicTransaction) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, tx.ProgramID.Encode()...)
	for _, id := range tx.AccountIDs {
		buf = append(buf, id.Bytes()...)
	}
	for _, n := range tx.Nonces {
		buf = primitives.PutUint64LE(buf, n)
	}
	return append(buf, tx.Instruction...)
}

// ApplyPublicTransaction implements spec §4.6's public-transaction
// transition: nonce-gated signature authorization, direct program
// execution via the chained-call engine, then an all-or-nothing commit of
// the resulting post-states.
func (w *WorldState) ApplyPublicTransaction(tx *types.PublicTransaction) error {
	if len(tx.AccountIDs) != len(tx.Nonces) || len(tx.AccountIDs) != len(tx.Signatures) {
		return ErrMismatchedArity
	}

	message := signingMessage(tx)

	preStates := w.preStatesFor(tx.AccountIDs)
	for i, sig := range tx.Signatures {
		if !isSigner(sig) {
			continue
		}
		if !w.sigVerifier.Verify(tx.AccountIDs[i], message, sig) {
			return ErrBadSignature
		}
		if tx.Nonces[i] != preStates[i].Account.Nonce {
			return ErrBadNonce
		}
		preStates[i].Account.Nonce = tx.Nonces[i] + 1
		preStates[i].IsAuthorized = true
	}

	execState, err := engine.Run(w.programs, tx.ProgramID, preStates, tx.Instruction)
	if err != nil {
		return err
	}

	pairs := execState.StatePairs()
	writes := make([]postStateWrite, 0, len(pairs))
	for _, p := range pairs {
		writes = append(writes, postStateWrite{id: p.Pre.AccountId, post: p.Post})
	}
	return w.commitPostStates(writes)
}
