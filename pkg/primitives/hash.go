// Package primitives defines the typed value wrappers shared across the
// sequencer: account/program identifiers, nullifiers, commitments and the
// canonical binary encoding used to persist and hash them.
package primitives

import "encoding/hex"

// HashSize is the width, in bytes, of every fixed-size identifier in the
// protocol (account ids, nullifiers, commitments, block/tx hashes).
const HashSize = 32

// Hash is a generic 32-byte collision-resistant hash, used for block and
// transaction hashes and as the underlying representation of the more
// specific identifier types below.
type Hash [HashSize]byte

// ZeroHash is the all-zero hash, used as the genesis previous-block-hash.
var ZeroHash = Hash{}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == ZeroHash }

// HashFromBytes copies up to HashSize bytes of b into a Hash, left-padding
// is not performed: callers must supply exactly HashSize bytes for a
// well-formed value.
func HashFromBytes(b []byte) Hash {
	var h Hash
	copy(h[:], b)
	return h
}

// AccountId is a 32-byte opaque account address. The all-zero value is
// the distinguished "default" id and is never used for a real account.
type AccountId [HashSize]byte

var DefaultAccountId = AccountId{}

func (a AccountId) Bytes() []byte { return a[:] }

func (a AccountId) String() string { return hex.EncodeToString(a[:]) }

func (a AccountId) IsDefault() bool { return a == DefaultAccountId }

func AccountIdFromBytes(b []byte) AccountId {
	var a AccountId
	copy(a[:], b)
	return a
}

// Nullifier is the unique tag emitted to retire a commitment (update case)
// or to mark an account initialization (init case).
type Nullifier [HashSize]byte

func (n Nullifier) Bytes() []byte { return n[:] }

func (n Nullifier) String() string { return hex.EncodeToString(n[:]) }

// Commitment is a binding, hiding commitment to (NullifierPublicKey,
// Account), created whenever a private account is updated or initialized.
type Commitment [HashSize]byte

func (c Commitment) Bytes() []byte { return c[:] }

func (c Commitment) String() string { return hex.EncodeToString(c[:]) }

// DummyCommitmentHash is emitted as the "commitment" half of an
// initialization nullifier's set-digest computation, where no prior
// commitment exists to look up membership for.
var DummyCommitmentHash = Commitment{}

// CommitmentSetDigest is the root of the commitment accumulator implied by
// a (commitment, membership proof) pair, or the accumulator's current
// root when produced directly.
type CommitmentSetDigest [HashSize]byte

func (d CommitmentSetDigest) Bytes() []byte { return d[:] }

func (d CommitmentSetDigest) String() string { return hex.EncodeToString(d[:]) }
