package zkp

import (
	"testing"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

func TestEncryptionSchemeRoundTrip(t *testing.T) {
	secret := primitives.SharedSecretKey(primitives.HashBytes([]byte("shared-secret")))
	commitment := primitives.Commitment(primitives.HashBytes([]byte("commitment")))

	acc := account.Default()
	acc.Balance = primitives.NewUint128(7)
	acc.Nonce = 3

	scheme := EncryptionScheme{}
	ct, err := scheme.Encrypt(acc, secret, commitment, 0)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got, err := scheme.Decrypt(ct, secret, commitment, 0)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !got.Equal(acc) {
		t.Fatalf("round-tripped account does not match: got %+v want %+v", got, acc)
	}
}

func TestEncryptionSchemeRejectsWrongOutputIndex(t *testing.T) {
	secret := primitives.SharedSecretKey(primitives.HashBytes([]byte("shared-secret")))
	commitment := primitives.Commitment(primitives.HashBytes([]byte("commitment")))
	acc := account.Default()

	scheme := EncryptionScheme{}
	ct, err := scheme.Encrypt(acc, secret, commitment, 0)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if _, err := scheme.Decrypt(ct, secret, commitment, 1); err != ErrDecryptionFailed {
		t.Fatalf("expected ErrDecryptionFailed for mismatched output index, got %v", err)
	}
}
