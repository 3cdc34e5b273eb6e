package primitives

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
)

// Canonical little-endian encoding helpers. Every persistent structure in
// the protocol uses these so that two independent implementations produce
// byte-identical serializations for the same value (spec §4.1, §8).

// PutUint64LE appends the little-endian encoding of v to buf.
func PutUint64LE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// PutUint32LE appends the little-endian encoding of v to buf.
func PutUint32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Uint64FromLE decodes 8 little-endian bytes into a uint64.
func Uint64FromLE(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// Uint32FromLE decodes 4 little-endian bytes into a uint32.
func Uint32FromLE(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// Uint128 is a 128-bit unsigned integer, carried as a big.Int internally
// and always encoded as 16 little-endian bytes.
type Uint128 struct {
	v *big.Int
}

func NewUint128(v uint64) Uint128 {
	return Uint128{v: new(big.Int).SetUint64(v)}
}

func Uint128FromBigInt(v *big.Int) Uint128 {
	return Uint128{v: new(big.Int).Set(v)}
}

func (u Uint128) BigInt() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(u.v)
}

func (u Uint128) Uint64() uint64 {
	if u.v == nil {
		return 0
	}
	return u.v.Uint64()
}

// Add returns u+other, wrapping is never expected in practice (balances
// are bounds-checked by callers before arithmetic).
func (u Uint128) Add(other Uint128) Uint128 {
	return Uint128FromBigInt(new(big.Int).Add(u.BigInt(), other.BigInt()))
}

func (u Uint128) Sub(other Uint128) Uint128 {
	return Uint128FromBigInt(new(big.Int).Sub(u.BigInt(), other.BigInt()))
}

func (u Uint128) Cmp(other Uint128) int {
	return u.BigInt().Cmp(other.BigInt())
}

func (u Uint128) LessThan(other Uint128) bool {
	return u.Cmp(other) < 0
}

// PutUint128LE appends the canonical 16-byte little-endian encoding of u
// to buf.
func PutUint128LE(buf []byte, u Uint128) []byte {
	b := u.BigInt().Bytes() // big-endian, variable length
	// Reverse into little-endian, aligned to the low end.
	var out [16]byte
	n := len(b)
	if n > 16 {
		n = 16
	}
	for i := 0; i < n; i++ {
		out[i] = b[n-1-i]
	}
	return append(buf, out[:]...)
}

// Uint128FromLE decodes 16 little-endian bytes into a Uint128.
func Uint128FromLE(b []byte) Uint128 {
	be := make([]byte, len(b))
	for i, v := range b {
		be[len(b)-1-i] = v
	}
	return Uint128FromBigInt(new(big.Int).SetBytes(be))
}

func sumSHA256(data ...[]byte) []byte {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// HashBytes computes the protocol's collision-resistant hash over the
// concatenation of data, used for block/transaction hashing, PDA
// derivation and program-id derivation from bytecode.
func HashBytes(data ...[]byte) Hash {
	return HashFromBytes(sumSHA256(data...))
}
