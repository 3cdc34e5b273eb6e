package zkp

import (
	"errors"

	"github.com/nssa-network/sequencer/internal/engine"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// Privacy circuit errors, ported from `compute_circuit_output`'s panics.
var (
	ErrInvalidVisibilityMaskLength = errors.New("invalid visibility mask length")
	ErrMissingPrivateAccountKey    = errors.New("missing private account key")
	ErrMissingNullifierSecretKey   = errors.New("missing private account nullifier secret key")
	ErrMissingMembershipProof      = errors.New("missing membership proof")
	ErrMissingPrivateNonce         = errors.New("missing private account nonce")
	ErrAccountIDMismatch           = errors.New("account id mismatch")
	ErrNullifierPublicKeyMismatch  = errors.New("nullifier public key mismatch")
	ErrPreStateNotAuthorized       = errors.New("pre-state not authorized for authenticated private account")
	ErrNewPrivateAccountNotDefault = errors.New("found new private account with non default values")
	ErrNewPrivateAccountAuthorized = errors.New("found new private account marked as authorized")
	ErrUnexpectedMembershipProof   = errors.New("membership proof must be none for unauthorized accounts")
	ErrTooManyPrivateInputs        = errors.New("too many private account inputs supplied")
	ErrInvalidVisibilityMaskValue  = errors.New("invalid visibility mask value")
)

// VisibilityMask values, one per account touched by a transaction.
const (
	VisibilityPublic                    uint8 = 0
	VisibilityPrivateAuthenticated       uint8 = 1
	VisibilityPrivateUnauthenticatedNew  uint8 = 2
)

// PrivateAccountKeys is one private account's (NPK, shared secret) pair.
type PrivateAccountKeys struct {
	NPK          primitives.NullifierPublicKey
	SharedSecret primitives.SharedSecretKey
}

// PrivacyPreservingCircuitInput is the witness to the privacy circuit:
// the chained program outputs plus, for every account touched, a
// visibility tag and (for private accounts) the keys/proofs needed to
// authenticate and re-commit it.
type PrivacyPreservingCircuitInput struct {
	VisibilityMask                []uint8
	PrivateAccountNonces          []uint64
	PrivateAccountKeys            []PrivateAccountKeys
	PrivateAccountNSKs            []primitives.NullifierSecretKey
	PrivateAccountMembershipProof []*MembershipProof
}

// PrivacyPreservingCircuitOutput is the circuit's public output: the
// publicly visible state transitions plus the opaque private-pool deltas
// (new commitments, ciphertexts, nullifiers) a verifier and the world
// state consume without learning the private accounts' contents.
type PrivacyPreservingCircuitOutput struct {
	PublicPreStates  []account.WithMetadata
	PublicPostStates []account.Account
	Ciphertexts      []Ciphertext
	NewCommitments   []primitives.Commitment
	NewNullifiers    []primitives.Nullifier
}

// ComputeCircuitOutput lowers a merged ExecutionState into the circuit's
// public output, branching per account on its visibility mask exactly as
// `compute_circuit_output` does.
func ComputeCircuitOutput(state *engine.ExecutionState, in PrivacyPreservingCircuitInput) (PrivacyPreservingCircuitOutput, error) {
	pairs := state.StatePairs()
	if len(in.VisibilityMask) != len(pairs) {
		return PrivacyPreservingCircuitOutput{}, ErrInvalidVisibilityMaskLength
	}

	var out PrivacyPreservingCircuitOutput

	var keyIdx, nskIdx, proofIdx, nonceIdx int
	var outputIndex uint32

	for i, mask := range in.VisibilityMask {
		pre := pairs[i].Pre
		post := pairs[i].Post

		switch mask {
		case VisibilityPublic:
			out.PublicPreStates = append(out.PublicPreStates, pre)
			out.PublicPostStates = append(out.PublicPostStates, post)

		case VisibilityPrivateAuthenticated, VisibilityPrivateUnauthenticatedNew:
			if keyIdx >= len(in.PrivateAccountKeys) {
				return PrivacyPreservingCircuitOutput{}, ErrMissingPrivateAccountKey
			}
			keys := in.PrivateAccountKeys[keyIdx]
			keyIdx++

			if primitives.AccountIdFromNPK(keys.NPK) != pre.AccountId {
				return PrivacyPreservingCircuitOutput{}, ErrAccountIDMismatch
			}

			var nullifier primitives.Nullifier
			if mask == VisibilityPrivateAuthenticated {
				if nskIdx >= len(in.PrivateAccountNSKs) {
					return PrivacyPreservingCircuitOutput{}, ErrMissingNullifierSecretKey
				}
				nsk := in.PrivateAccountNSKs[nskIdx]
				nskIdx++

				if NullifierPublicKeyFromSecret(nsk) != keys.NPK {
					return PrivacyPreservingCircuitOutput{}, ErrNullifierPublicKeyMismatch
				}
				if !pre.IsAuthorized {
					return PrivacyPreservingCircuitOutput{}, ErrPreStateNotAuthorized
				}
				if proofIdx >= len(in.PrivateAccountMembershipProof) {
					return PrivacyPreservingCircuitOutput{}, ErrMissingMembershipProof
				}
				proof := in.PrivateAccountMembershipProof[proofIdx]
				proofIdx++

				nullifier = computeNullifierForSpend(proof, pre.Account, keys.NPK, nsk)
			} else {
				if !pre.Account.IsDefault() {
					return PrivacyPreservingCircuitOutput{}, ErrNewPrivateAccountNotDefault
				}
				if pre.IsAuthorized {
					return PrivacyPreservingCircuitOutput{}, ErrNewPrivateAccountAuthorized
				}
				if proofIdx >= len(in.PrivateAccountMembershipProof) {
					return PrivacyPreservingCircuitOutput{}, ErrMissingMembershipProof
				}
				if in.PrivateAccountMembershipProof[proofIdx] != nil {
					return PrivacyPreservingCircuitOutput{}, ErrUnexpectedMembershipProof
				}
				proofIdx++
				nullifier = NullifierForAccountInitialization(keys.NPK)
			}
			out.NewNullifiers = append(out.NewNullifiers, nullifier)

			if nonceIdx >= len(in.PrivateAccountNonces) {
				return PrivacyPreservingCircuitOutput{}, ErrMissingPrivateNonce
			}
			postWithNonce := post
			postWithNonce.Nonce = in.PrivateAccountNonces[nonceIdx]
			nonceIdx++

			commitmentPost := NewCommitment(keys.NPK, postWithNonce)
			ciphertext, err := EncryptionScheme{}.Encrypt(postWithNonce, keys.SharedSecret, commitmentPost, outputIndex)
			if err != nil {
				return PrivacyPreservingCircuitOutput{}, err
			}

			out.NewCommitments = append(out.NewCommitments, commitmentPost)
			out.Ciphertexts = append(out.Ciphertexts, ciphertext)
			outputIndex++

		default:
			return PrivacyPreservingCircuitOutput{}, ErrInvalidVisibilityMaskValue
		}
	}

	if nonceIdx != len(in.PrivateAccountNonces) ||
		keyIdx != len(in.PrivateAccountKeys) ||
		nskIdx != len(in.PrivateAccountNSKs) ||
		proofIdx != len(in.PrivateAccountMembershipProof) {
		return PrivacyPreservingCircuitOutput{}, ErrTooManyPrivateInputs
	}

	return out, nil
}

// computeNullifierForSpend is `compute_nullifier_and_set_digest`, minus
// the set-digest half: the digest is computed separately by
// SetDigestForSpend, and nothing here compares it against an accumulator
// root.
func computeNullifierForSpend(
	proof *MembershipProof,
	preAccount account.Account,
	npk primitives.NullifierPublicKey,
	nsk primitives.NullifierSecretKey,
) primitives.Nullifier {
	if proof == nil {
		return NullifierForAccountInitialization(npk)
	}
	commitmentPre := NewCommitment(npk, preAccount)
	return NullifierForAccountUpdate(commitmentPre, nsk)
}

// SetDigestForSpend recomputes the commitment-set digest a spend's
// membership proof implies, for the caller to compare against a known
// accumulator root. Returns DummyCommitmentHash's digest equivalent
// (zero digest) when proof is nil, matching the initialization case.
func SetDigestForSpend(proof *MembershipProof, preAccount account.Account, npk primitives.NullifierPublicKey) primitives.CommitmentSetDigest {
	if proof == nil {
		return primitives.CommitmentSetDigest{}
	}
	commitmentPre := NewCommitment(npk, preAccount)
	return ComputeDigestForPath(commitmentPre, proof)
}
