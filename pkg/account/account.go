// Package account defines the Account record and the metadata wrappers
// used while an invocation executes.
package account

import (
	"bytes"
	"errors"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

// DataMaxLen bounds the length of an account's opaque data payload.
const DataMaxLen = 4096

// ErrDataTooLarge is returned when a post-state's data field exceeds
// DataMaxLen.
var ErrDataTooLarge = errors.New("account data exceeds DATA_MAX_LEN")

// Account is the value record mutated by program execution. Equality with
// the zero value identifies an uninitialized slot.
type Account struct {
	ProgramOwner primitives.ProgramId
	Balance      primitives.Uint128
	Data         []byte
	Nonce        uint64
}

// Default returns the uninitialized Account value: default program owner,
// zero balance, empty data, zero nonce.
func Default() Account {
	return Account{
		ProgramOwner: primitives.DefaultProgramId,
		Balance:      primitives.NewUint128(0),
		Data:         nil,
		Nonce:        0,
	}
}

// Equal reports whether a and other have byte-identical fields.
func (a Account) Equal(other Account) bool {
	return a.ProgramOwner == other.ProgramOwner &&
		a.Balance.Cmp(other.Balance) == 0 &&
		bytes.Equal(a.Data, other.Data) &&
		a.Nonce == other.Nonce
}

// IsDefault reports whether a is the uninitialized-slot value.
func (a Account) IsDefault() bool {
	return a.Equal(Default())
}

// WithData returns a copy of a with Data replaced, validating the
// DATA_MAX_LEN protocol constant.
func (a Account) WithData(data []byte) (Account, error) {
	if len(data) > DataMaxLen {
		return Account{}, ErrDataTooLarge
	}
	out := a
	out.Data = data
	return out, nil
}

// Encode produces the canonical deterministic binary encoding of the
// account, used both for hashing/commitments and for persistence.
func (a Account) Encode() []byte {
	buf := make([]byte, 0, 32+16+8+len(a.Data))
	buf = append(buf, a.ProgramOwner.Encode()...)
	buf = primitives.PutUint128LE(buf, a.Balance)
	buf = primitives.PutUint64LE(buf, uint64(len(a.Data)))
	buf = append(buf, a.Data...)
	buf = primitives.PutUint64LE(buf, a.Nonce)
	return buf
}

// ErrTruncatedAccount is returned by Decode when b is shorter than the
// canonical encoding requires.
var ErrTruncatedAccount = errors.New("truncated account encoding")

// Decode parses the canonical encoding produced by Encode.
func Decode(b []byte) (Account, error) {
	if len(b) < 32+16+8 {
		return Account{}, ErrTruncatedAccount
	}
	programOwner := primitives.ProgramIdFromBytes(b[:32])
	b = b[32:]

	balance := primitives.Uint128FromLE(b[:16])
	b = b[16:]

	dataLen := primitives.Uint64FromLE(b[:8])
	b = b[8:]
	if uint64(len(b)) < dataLen+8 {
		return Account{}, ErrTruncatedAccount
	}
	data := append([]byte(nil), b[:dataLen]...)
	b = b[dataLen:]

	nonce := primitives.Uint64FromLE(b[:8])

	return Account{
		ProgramOwner: programOwner,
		Balance:      balance,
		Data:         data,
		Nonce:        nonce,
	}, nil
}
