package state

import (
	"context"

	"github.com/nssa-network/sequencer/internal/zkp"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/types"
)

// ApplyPrivacyPreservingTransaction implements spec §4.6's
// privacy-preserving transition: nullifier-set insertion (double-spend
// check), public-account signature authorization, proof verification
// against the current commitment-set root, public post-state commit, and
// commitment-accumulator insertion. Encrypted private post-states are not
// applied here — they carry no authenticated state and are the block
// store's concern to retain for offline recipient scanning.
func (w *WorldState) ApplyPrivacyPreservingTransaction(ctx context.Context, tx *types.PrivacyPreservingTransaction, txHash [32]byte, blockID uint64) error {
	if len(tx.PublicAccountIDs) != len(tx.Nonces) || len(tx.PublicAccountIDs) != len(tx.Signatures) {
		return ErrMismatchedArity
	}

	for _, n := range tx.NewNullifiers {
		spent, err := w.nullifiers.IsSpent(ctx, n)
		if err != nil {
			return err
		}
		if spent {
			return ErrDoubleSpend
		}
	}

	message := privacyTxSigningMessage(tx)
	preStates := w.preStatesFor(tx.PublicAccountIDs)
	for i, sig := range tx.Signatures {
		if !isSigner(sig) {
			continue
		}
		if !w.sigVerifier.Verify(tx.PublicAccountIDs[i], message, sig) {
			return ErrBadSignature
		}
		if tx.Nonces[i] != preStates[i].Account.Nonce {
			return ErrBadNonce
		}
	}

	root := w.accumulator.Root()
	publicInputs := privacyProofPublicInputs(tx, root)
	ok, err := w.proofBackend.Verify(&zkp.ProofData{
		Kind:         zkp.PrivacyProofKind,
		Proof:        tx.Proof.Proof,
		PublicInputs: publicInputs,
	})
	if err != nil || !ok {
		return ErrProofInvalid
	}

	writes := make([]postStateWrite, 0, len(tx.PublicPostStates))
	for i, encoded := range tx.PublicPostStates {
		acc, err := account.Decode(encoded)
		if err != nil {
			return err
		}
		writes = append(writes, postStateWrite{id: tx.PublicAccountIDs[i], post: acc})
	}
	if err := w.commitPostStates(writes); err != nil {
		return err
	}

	for _, n := range tx.NewNullifiers {
		if err := w.nullifiers.MarkSpent(ctx, n, txHash, blockID); err != nil {
			return err
		}
	}

	for _, c := range tx.NewCommitments {
		if _, err := w.accumulator.Insert(ctx, c); err != nil {
			return err
		}
	}

	return nil
}

func privacyTxSigningMessage(tx *types.PrivacyPreservingTransaction) []byte {
	var buf []byte
	for _, id := range tx.PublicAccountIDs {
		buf = append(buf, id.Bytes()...)
	}
	for _, c := range tx.NewCommitments {
		buf = append(buf, c.Bytes()...)
	}
	for _, n := range tx.NewNullifiers {
		buf = append(buf, n.Bytes()...)
	}
	return buf
}

// privacyProofPublicInputs assembles the statement the privacy circuit's
// proof is checked against: the public diff, commitments, nullifiers, and
// the commitment-set root the membership proofs were checked against
// (spec §4.5, "Proof").
func privacyProofPublicInputs(tx *types.PrivacyPreservingTransaction, root [32]byte) []byte {
	var buf []byte
	buf = append(buf, root[:]...)
	for _, ps := range tx.PublicPostStates {
		buf = append(buf, ps...)
	}
	for _, c := range tx.NewCommitments {
		buf = append(buf, c.Bytes()...)
	}
	for _, n := range tx.NewNullifiers {
		buf = append(buf, n.Bytes()...)
	}
	return buf
}
