package zkp

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// ErrDecryptionFailed is returned when a ciphertext fails to authenticate
// against its bound (shared_secret, commitment, output_index).
var ErrDecryptionFailed = errors.New("ciphertext authentication failed")

// Ciphertext is an encrypted private-account post-state, plus the nonce
// used to produce it.
type Ciphertext struct {
	Nonce [chacha20poly1305.NonceSizeX]byte
	Data  []byte
}

// EncryptionScheme implements `EncryptionScheme::encrypt/decrypt`: an
// XChaCha20-Poly1305 AEAD over the account's canonical encoding, keyed by
// the output's shared secret and bound via associated data to the
// commitment and output index it belongs to, so a ciphertext cannot be
// replayed against a different commitment or position.
type EncryptionScheme struct{}

func associatedData(commitment primitives.Commitment, outputIndex uint32) []byte {
	ad := make([]byte, 0, primitives.HashSize+4)
	ad = append(ad, commitment.Bytes()...)
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], outputIndex)
	return append(ad, idx[:]...)
}

// Encrypt seals acc under sharedSecret, binding the ciphertext to
// (commitment, outputIndex).
func (EncryptionScheme) Encrypt(
	acc account.Account,
	sharedSecret primitives.SharedSecretKey,
	commitment primitives.Commitment,
	outputIndex uint32,
) (Ciphertext, error) {
	aead, err := chacha20poly1305.NewX(sharedSecret.Bytes())
	if err != nil {
		return Ciphertext{}, err
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	nonceSeed := primitives.HashBytes(commitment.Bytes(), associatedData(commitment, outputIndex))
	copy(nonce[:], nonceSeed.Bytes())

	ad := associatedData(commitment, outputIndex)
	sealed := aead.Seal(nil, nonce[:], acc.Encode(), ad)
	return Ciphertext{Nonce: nonce, Data: sealed}, nil
}

// Decrypt opens a ciphertext previously produced by Encrypt, returning
// ErrDecryptionFailed if the binding does not match.
func (EncryptionScheme) Decrypt(
	ct Ciphertext,
	sharedSecret primitives.SharedSecretKey,
	commitment primitives.Commitment,
	outputIndex uint32,
) (account.Account, error) {
	aead, err := chacha20poly1305.NewX(sharedSecret.Bytes())
	if err != nil {
		return account.Account{}, err
	}

	ad := associatedData(commitment, outputIndex)
	plaintext, err := aead.Open(nil, ct.Nonce[:], ct.Data, ad)
	if err != nil {
		return account.Account{}, ErrDecryptionFailed
	}

	return decodeAccount(plaintext)
}

// decodeAccount is the inverse of Account.Encode: program_owner (32B) |
// balance (16B LE) | data_len (8B LE) | data | nonce (8B LE).
func decodeAccount(b []byte) (account.Account, error) {
	const minLen = 32 + 16 + 8 + 8
	if len(b) < minLen {
		return account.Account{}, ErrDecryptionFailed
	}

	programOwner := primitives.ProgramIdFromBytes(b[0:32])
	balance := primitives.Uint128FromLE(b[32:48])
	dataLen := binary.LittleEndian.Uint64(b[48:56])

	rest := b[56:]
	if uint64(len(rest)) < dataLen+8 {
		return account.Account{}, ErrDecryptionFailed
	}
	data := append([]byte(nil), rest[:dataLen]...)
	nonce := binary.LittleEndian.Uint64(rest[dataLen : dataLen+8])

	return account.Account{
		ProgramOwner: programOwner,
		Balance:      balance,
		Data:         data,
		Nonce:        nonce,
	}, nil
}
