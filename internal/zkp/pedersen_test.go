package zkp

import (
	"testing"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

func TestNewCommitmentDeterministic(t *testing.T) {
	npk := primitives.NullifierPublicKey(primitives.HashBytes([]byte("npk-1")))
	acc := account.Default()
	acc.Balance = primitives.NewUint128(42)

	c1 := NewCommitment(npk, acc)
	c2 := NewCommitment(npk, acc)
	if c1 != c2 {
		t.Fatalf("NewCommitment is not deterministic: %v != %v", c1, c2)
	}

	otherNPK := primitives.NullifierPublicKey(primitives.HashBytes([]byte("npk-2")))
	c3 := NewCommitment(otherNPK, acc)
	if c1 == c3 {
		t.Fatalf("commitments for different NPKs collided")
	}
}

func TestNewCommitmentSensitiveToAccountContents(t *testing.T) {
	npk := primitives.NullifierPublicKey(primitives.HashBytes([]byte("npk-1")))
	acc := account.Default()
	acc.Balance = primitives.NewUint128(1)

	other := acc
	other.Balance = primitives.NewUint128(2)

	if NewCommitment(npk, acc) == NewCommitment(npk, other) {
		t.Fatalf("commitments for different account contents collided")
	}
}
