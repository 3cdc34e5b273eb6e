// Package zkp implements zero-knowledge cryptographic primitives: account
// commitments, the commitment accumulator, nullifier derivation and the
// per-output encryption scheme.
package zkp

import (
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// Commitment errors
var (
	ErrInvalidValue     = errors.New("invalid commitment value")
	ErrInvalidBlinder   = errors.New("invalid blinder")
	ErrInvalidPoint     = errors.New("invalid elliptic curve point")
	ErrCommitmentFailed = errors.New("commitment computation failed")
)

// Generator points for the account Pedersen commitment.
var (
	// G is the base generator point
	generatorG bn254.G1Affine
	// H is the secondary generator for the blinding factor (no known discrete log relation to G)
	generatorH bn254.G1Affine

	// initialized tracks if generators have been set up
	initialized = false
)

// InitializeGenerators sets up the account commitment generators
func InitializeGenerators() error {
	if initialized {
		return nil
	}

	// Use the standard BN254 generator for G
	_, _, g1Gen, _ := bn254.Generators()
	generatorG = g1Gen

	// Derive H by hashing a domain-separation label into a scalar and
	// multiplying G by it, so H carries no known discrete log relative to G.
	hBytes := primitives.HashBytes([]byte("nssa/commitment/H")).Bytes()
	generatorH.ScalarMultiplication(&generatorG, new(big.Int).SetBytes(hBytes))

	initialized = true
	return nil
}

// PedersenCommitment is a binding, hiding commitment point C = v*G + r*H.
type PedersenCommitment struct {
	Point bn254.G1Affine
}

// newPedersenCommitment computes C = value*G + blinder*H.
func newPedersenCommitment(value, blinder *big.Int) (*PedersenCommitment, error) {
	if err := InitializeGenerators(); err != nil {
		return nil, err
	}
	if value == nil || blinder == nil {
		return nil, ErrInvalidValue
	}

	var valueG, blinderH, commitment bn254.G1Affine
	valueG.ScalarMultiplication(&generatorG, value)
	blinderH.ScalarMultiplication(&generatorH, blinder)
	commitment.Add(&valueG, &blinderH)

	return &PedersenCommitment{Point: commitment}, nil
}

// Bytes returns the uncompressed byte representation
func (c *PedersenCommitment) Bytes() []byte {
	return c.Point.Marshal()
}

// NewCommitment is `Commitment::new(npk, account)`: a commitment to the
// account's canonical encoding, blinded by its nullifier public key so
// that only a holder of the NPK can recompute it (spec §4.5). This is
// the one constructor the privacy circuit and the world state call; every
// other helper in this file exists to support it.
func NewCommitment(npk primitives.NullifierPublicKey, acc account.Account) primitives.Commitment {
	valueScalar := new(big.Int).SetBytes(fieldReduce(acc.Encode()))
	blinderScalar := new(big.Int).SetBytes(fieldReduce(npk.Bytes()))

	c, err := newPedersenCommitment(valueScalar, blinderScalar)
	if err != nil {
		// Generator setup is deterministic and infallible past the first
		// call; a failure here means the bn254 backend itself is broken.
		panic(err)
	}
	return primitives.Commitment(primitives.HashBytes(c.Bytes()))
}

// fieldReduce reduces arbitrary-length bytes into the BN254 scalar field
// via a fixed-size hash, so callers can feed it values of any length.
func fieldReduce(data []byte) []byte {
	var e fr.Element
	e.SetBytes(primitives.HashBytes(data).Bytes())
	b := e.Bytes()
	return b[:]
}

// RandomScalar generates a random scalar in the BN254 scalar field.
func RandomScalar() (*big.Int, error) {
	var scalar fr.Element
	if _, err := scalar.SetRandom(); err != nil {
		return nil, err
	}
	return scalar.BigInt(new(big.Int)), nil
}

// RandomBytes generates n cryptographically random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}
