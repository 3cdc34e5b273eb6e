package state

import (
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// SignatureVerifier checks a public transaction's per-account
// authorization signatures. Concrete signature schemes are an external
// collaborator (spec §1); the world state only depends on this contract.
type SignatureVerifier interface {
	Verify(accountID primitives.AccountId, message []byte, sig types.AccountSignature) bool
}

// AlwaysValidSignatureVerifier accepts every signature. Used in tests and
// by the sequencer core, which wires no concrete signature scheme, mirroring
// internal/zkp.AlwaysValidProofBackend.
type AlwaysValidSignatureVerifier struct{}

func (AlwaysValidSignatureVerifier) Verify(primitives.AccountId, []byte, types.AccountSignature) bool {
	return true
}

var zeroSignature types.AccountSignature

// isSigner reports whether sig is a real signature rather than the
// all-zero sentinel marking "this account is not a signer for this
// transaction" (spec's account_ids list
// covers every touched account, but only a subset author a signature).
func isSigner(sig types.AccountSignature) bool {
	return sig != zeroSignature
}
