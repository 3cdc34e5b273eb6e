package types

import (
	"testing"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

func TestPublicTransactionEncodeDecodeRoundTrip(t *testing.T) {
	tx := NewPublicTransaction(&PublicTransaction{
		ProgramID:   primitives.ProgramId{9, 8, 7, 6, 5, 4, 3, 2},
		AccountIDs:  []primitives.AccountId{primitives.AccountIdFromBytes([]byte("alice")), primitives.AccountIdFromBytes([]byte("bob"))},
		Nonces:      []uint64{3, 7},
		Instruction: []byte("transfer"),
		Signatures:  []AccountSignature{{1, 2, 3}, {4, 5, 6}},
	})

	encoded := tx.Encode()
	if TxKind(encoded[0]) != TxKindPublic {
		t.Fatalf("expected tag byte 0x00, got %#x", encoded[0])
	}

	decoded, err := DecodeTransaction(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Hash() != tx.Hash() {
		t.Fatalf("round-tripped public transaction hash mismatch")
	}
	if len(decoded.Public.AccountIDs) != 2 || decoded.Public.Nonces[1] != 7 {
		t.Fatalf("round-tripped public transaction fields mismatch: %+v", decoded.Public)
	}
}

func TestPrivacyPreservingTransactionEncodeDecodeRoundTrip(t *testing.T) {
	tx := NewPrivacyPreservingTransaction(&PrivacyPreservingTransaction{
		PublicAccountIDs: []primitives.AccountId{primitives.AccountIdFromBytes([]byte("pub-1"))},
		Nonces:           []uint64{1},
		PublicPostStates: [][]byte{[]byte("encoded-account")},
		EncryptedPrivatePostStates: []EncryptedPostState{
			{Ciphertext: []byte("secret-bytes")},
		},
		NewCommitments: []primitives.Commitment{primitives.Commitment(primitives.HashBytes([]byte("c1")))},
		NewNullifiers:  []primitives.Nullifier{primitives.Nullifier(primitives.HashBytes([]byte("n1")))},
		Signatures:     []AccountSignature{{9, 9, 9}},
		Proof: ProofBytes{
			Kind:         1,
			Proof:        []byte("proof-bytes"),
			PublicInputs: []byte("public-inputs"),
		},
	})

	if TxKind(tx.Encode()[0]) != TxKindPrivacyPreserving {
		t.Fatalf("expected tag byte 0x01")
	}

	decoded, err := DecodeTransaction(tx.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	pp := decoded.PrivacyPreserving
	if len(pp.NewCommitments) != 1 || pp.NewCommitments[0] != tx.PrivacyPreserving.NewCommitments[0] {
		t.Fatalf("commitments did not round-trip")
	}
	if string(pp.Proof.Proof) != "proof-bytes" || string(pp.Proof.PublicInputs) != "public-inputs" {
		t.Fatalf("proof bytes did not round-trip: %+v", pp.Proof)
	}
	if len(pp.EncryptedPrivatePostStates) != 1 || string(pp.EncryptedPrivatePostStates[0].Ciphertext) != "secret-bytes" {
		t.Fatalf("encrypted post states did not round-trip")
	}
}

func TestProgramDeploymentTransactionRoundTripAndID(t *testing.T) {
	tx := NewProgramDeploymentTransaction(&ProgramDeploymentTransaction{Bytecode: []byte("my bytecode")})

	if TxKind(tx.Encode()[0]) != TxKindProgramDeployment {
		t.Fatalf("expected tag byte 0x02")
	}

	decoded, err := DecodeTransaction(tx.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded.ProgramDeployment.Bytecode) != "my bytecode" {
		t.Fatalf("bytecode did not round-trip")
	}

	wantID := primitives.ProgramIdFromHash(primitives.HashBytes([]byte("my bytecode")))
	if decoded.ProgramDeployment.DeployedProgramID() != wantID {
		t.Fatalf("deployed program id mismatch")
	}
}

func TestDecodeTransactionRejectsUnknownTag(t *testing.T) {
	if _, err := DecodeTransaction([]byte{0xff}); err != ErrUnknownTxKind {
		t.Fatalf("expected ErrUnknownTxKind, got %v", err)
	}
}

func TestDecodeTransactionRejectsTruncatedInput(t *testing.T) {
	if _, err := DecodeTransaction(nil); err != ErrTruncatedTx {
		t.Fatalf("expected ErrTruncatedTx, got %v", err)
	}
}
