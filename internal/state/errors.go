// Package state implements the world state: the account map, commitment
// accumulator, nullifier set and program registry, and the transitions
// that apply each of the three transaction kinds against them (spec §4.6).
package state

import "errors"

// Error taxonomy for the three transitions, per spec §7. These are all
// tx-local: a transition either fully applies or fully fails, and the
// caller (the mempool pre-check or block producer) drops the offending
// transaction without aborting the rest of the block.
var (
	ErrBadNonce           = errors.New("account nonce does not match expected value")
	ErrBadSignature       = errors.New("signature verification failed")
	ErrNotAuthorized      = errors.New("account not authorized for this invocation")
	ErrOwnershipDowngrade = errors.New("write would clear an already-set program owner")
	ErrDoubleSpend        = errors.New("nullifier already present in the nullifier set")
	ErrProofInvalid       = errors.New("zero-knowledge proof failed verification")
	ErrMismatchedArity    = errors.New("mismatched account/nonce/signature arity")
)
