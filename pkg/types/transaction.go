package types

import (
	"encoding/binary"
	"errors"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

// EncryptedNonceSize matches the privacy circuit's XChaCha20-Poly1305
// nonce width (internal/zkp.Ciphertext); duplicated here so this package
// stays a leaf over pkg/primitives only.
const EncryptedNonceSize = 24

// TxKind is the wire tag byte distinguishing the three transaction kinds.
type TxKind uint8

const (
	TxKindPublic            TxKind = 0x00
	TxKindPrivacyPreserving TxKind = 0x01
	TxKindProgramDeployment TxKind = 0x02
)

var (
	ErrUnknownTxKind     = errors.New("unknown transaction tag byte")
	ErrTruncatedTx       = errors.New("truncated transaction encoding")
	ErrMismatchedTxArity = errors.New("mismatched account/nonce/signature count")
)

// AccountSignature is a single signer's authorization over a public
// transaction's signing message.
type AccountSignature [SignatureSize]byte

// PublicTransaction authorizes a program invocation over cleartext
// accounts: one signature per account whose nonce is bumped.
type PublicTransaction struct {
	ProgramID   primitives.ProgramId
	AccountIDs  []primitives.AccountId
	Nonces      []uint64
	Instruction []byte
	Signatures  []AccountSignature
}

// EncryptedPostState is an opaque, indistinguishable-from-random private
// account post-state ciphertext, bound to (shared_secret, commitment,
// output_index) by the encryption scheme (internal/zkp.EncryptionScheme).
type EncryptedPostState struct {
	Nonce      [EncryptedNonceSize]byte
	Ciphertext []byte
}

// ProofBytes is the opaque succinct-proof payload attached to a
// privacy-preserving transaction; verified externally against a proof
// backend (internal/zkp.ProofBackend).
type ProofBytes struct {
	Kind         uint8
	Proof        []byte
	PublicInputs []byte
}

// PrivacyPreservingTransaction carries the privacy circuit's public output
// plus the opaque private-pool deltas recipients scan for offline.
type PrivacyPreservingTransaction struct {
	PublicAccountIDs           []primitives.AccountId
	Nonces                     []uint64
	PublicPostStates           [][]byte // canonical account.Account encodings
	EncryptedPrivatePostStates []EncryptedPostState
	NewCommitments             []primitives.Commitment
	NewNullifiers              []primitives.Nullifier
	Signatures                 []AccountSignature
	Proof                      ProofBytes
}

// ProgramDeploymentTransaction registers new program bytecode; its id is
// the hash of the bytecode.
type ProgramDeploymentTransaction struct {
	Bytecode []byte
}

// Transaction is the tagged union of the three wire transaction kinds.
// Exactly one of the Public/PrivacyPreserving/ProgramDeployment fields is
// populated, selected by Kind.
type Transaction struct {
	Kind              TxKind
	Public            *PublicTransaction
	PrivacyPreserving *PrivacyPreservingTransaction
	ProgramDeployment *ProgramDeploymentTransaction
}

func NewPublicTransaction(tx *PublicTransaction) *Transaction {
	return &Transaction{Kind: TxKindPublic, Public: tx}
}

func NewPrivacyPreservingTransaction(tx *PrivacyPreservingTransaction) *Transaction {
	return &Transaction{Kind: TxKindPrivacyPreserving, PrivacyPreserving: tx}
}

func NewProgramDeploymentTransaction(tx *ProgramDeploymentTransaction) *Transaction {
	return &Transaction{Kind: TxKindProgramDeployment, ProgramDeployment: tx}
}

// Hash returns the collision-resistant hash of the transaction's canonical
// encoding, used as its mempool/block identity.
func (t *Transaction) Hash() primitives.Hash {
	return primitives.HashBytes(t.Encode())
}

// Encode produces the canonical tagged on-wire encoding: a single tag byte
// followed by the kind-specific body.
func (t *Transaction) Encode() []byte {
	switch t.Kind {
	case TxKindPublic:
		return append([]byte{byte(TxKindPublic)}, encodePublic(t.Public)...)
	case TxKindPrivacyPreserving:
		return append([]byte{byte(TxKindPrivacyPreserving)}, encodePrivacyPreserving(t.PrivacyPreserving)...)
	case TxKindProgramDeployment:
		return append([]byte{byte(TxKindProgramDeployment)}, encodeProgramDeployment(t.ProgramDeployment)...)
	default:
		return nil
	}
}

// DecodeTransaction parses a transaction encoded by Transaction.Encode.
func DecodeTransaction(b []byte) (*Transaction, error) {
	if len(b) < 1 {
		return nil, ErrTruncatedTx
	}
	switch TxKind(b[0]) {
	case TxKindPublic:
		pt, err := decodePublic(b[1:])
		if err != nil {
			return nil, err
		}
		return NewPublicTransaction(pt), nil
	case TxKindPrivacyPreserving:
		pp, err := decodePrivacyPreserving(b[1:])
		if err != nil {
			return nil, err
		}
		return NewPrivacyPreservingTransaction(pp), nil
	case TxKindProgramDeployment:
		pd, err := decodeProgramDeployment(b[1:])
		if err != nil {
			return nil, err
		}
		return NewProgramDeploymentTransaction(pd), nil
	default:
		return nil, ErrUnknownTxKind
	}
}

func putBytes(buf []byte, data []byte) []byte {
	buf = primitives.PutUint32LE(buf, uint32(len(data)))
	return append(buf, data...)
}

func takeBytes(b []byte) (data []byte, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, ErrTruncatedTx
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	b = b[4:]
	if uint64(len(b)) < uint64(n) {
		return nil, nil, ErrTruncatedTx
	}
	return b[:n], b[n:], nil
}

func encodePublic(tx *PublicTransaction) []byte {
	buf := make([]byte, 0, 64+len(tx.Instruction))
	buf = append(buf, tx.ProgramID.Encode()...)
	buf = primitives.PutUint32LE(buf, uint32(len(tx.AccountIDs)))
	for _, id := range tx.AccountIDs {
		buf = append(buf, id.Bytes()...)
	}
	buf = primitives.PutUint32LE(buf, uint32(len(tx.Nonces)))
	for _, n := range tx.Nonces {
		buf = primitives.PutUint64LE(buf, n)
	}
	buf = putBytes(buf, tx.Instruction)
	buf = primitives.PutUint32LE(buf, uint32(len(tx.Signatures)))
	for _, sig := range tx.Signatures {
		buf = append(buf, sig[:]...)
	}
	return buf
}

func decodePublic(b []byte) (*PublicTransaction, error) {
	if len(b) < 32 {
		return nil, ErrTruncatedTx
	}
	programID := primitives.ProgramIdFromBytes(b[:32])
	b = b[32:]

	if len(b) < 4 {
		return nil, ErrTruncatedTx
	}
	nAccounts := binary.LittleEndian.Uint32(b[0:4])
	b = b[4:]
	accountIDs := make([]primitives.AccountId, 0, nAccounts)
	for i := uint32(0); i < nAccounts; i++ {
		if len(b) < 32 {
			return nil, ErrTruncatedTx
		}
		accountIDs = append(accountIDs, primitives.AccountIdFromBytes(b[:32]))
		b = b[32:]
	}

	if len(b) < 4 {
		return nil, ErrTruncatedTx
	}
	nNonces := binary.LittleEndian.Uint32(b[0:4])
	b = b[4:]
	nonces := make([]uint64, 0, nNonces)
	for i := uint32(0); i < nNonces; i++ {
		if len(b) < 8 {
			return nil, ErrTruncatedTx
		}
		nonces = append(nonces, binary.LittleEndian.Uint64(b[0:8]))
		b = b[8:]
	}

	instruction, b, err := takeBytes(b)
	if err != nil {
		return nil, err
	}

	if len(b) < 4 {
		return nil, ErrTruncatedTx
	}
	nSigs := binary.LittleEndian.Uint32(b[0:4])
	b = b[4:]
	sigs := make([]AccountSignature, 0, nSigs)
	for i := uint32(0); i < nSigs; i++ {
		if len(b) < SignatureSize {
			return nil, ErrTruncatedTx
		}
		var sig AccountSignature
		copy(sig[:], b[:SignatureSize])
		sigs = append(sigs, sig)
		b = b[SignatureSize:]
	}

	if len(accountIDs) != len(nonces) {
		return nil, ErrMismatchedTxArity
	}

	return &PublicTransaction{
		ProgramID:   programID,
		AccountIDs:  accountIDs,
		Nonces:      nonces,
		Instruction: instruction,
		Signatures:  sigs,
	}, nil
}

func encodePrivacyPreserving(tx *PrivacyPreservingTransaction) []byte {
	var buf []byte
	buf = primitives.PutUint32LE(buf, uint32(len(tx.PublicAccountIDs)))
	for _, id := range tx.PublicAccountIDs {
		buf = append(buf, id.Bytes()...)
	}
	buf = primitives.PutUint32LE(buf, uint32(len(tx.Nonces)))
	for _, n := range tx.Nonces {
		buf = primitives.PutUint64LE(buf, n)
	}
	buf = primitives.PutUint32LE(buf, uint32(len(tx.PublicPostStates)))
	for _, ps := range tx.PublicPostStates {
		buf = putBytes(buf, ps)
	}
	buf = primitives.PutUint32LE(buf, uint32(len(tx.EncryptedPrivatePostStates)))
	for _, eps := range tx.EncryptedPrivatePostStates {
		buf = append(buf, eps.Nonce[:]...)
		buf = putBytes(buf, eps.Ciphertext)
	}
	buf = primitives.PutUint32LE(buf, uint32(len(tx.NewCommitments)))
	for _, c := range tx.NewCommitments {
		buf = append(buf, c.Bytes()...)
	}
	buf = primitives.PutUint32LE(buf, uint32(len(tx.NewNullifiers)))
	for _, n := range tx.NewNullifiers {
		buf = append(buf, n.Bytes()...)
	}
	buf = primitives.PutUint32LE(buf, uint32(len(tx.Signatures)))
	for _, sig := range tx.Signatures {
		buf = append(buf, sig[:]...)
	}
	buf = append(buf, tx.Proof.Kind)
	buf = putBytes(buf, tx.Proof.Proof)
	buf = putBytes(buf, tx.Proof.PublicInputs)
	return buf
}

func decodePrivacyPreserving(b []byte) (*PrivacyPreservingTransaction, error) {
	readU32 := func() (uint32, error) {
		if len(b) < 4 {
			return 0, ErrTruncatedTx
		}
		v := binary.LittleEndian.Uint32(b[0:4])
		b = b[4:]
		return v, nil
	}

	nAccounts, err := readU32()
	if err != nil {
		return nil, err
	}
	accountIDs := make([]primitives.AccountId, 0, nAccounts)
	for i := uint32(0); i < nAccounts; i++ {
		if len(b) < 32 {
			return nil, ErrTruncatedTx
		}
		accountIDs = append(accountIDs, primitives.AccountIdFromBytes(b[:32]))
		b = b[32:]
	}

	nNonces, err := readU32()
	if err != nil {
		return nil, err
	}
	nonces := make([]uint64, 0, nNonces)
	for i := uint32(0); i < nNonces; i++ {
		if len(b) < 8 {
			return nil, ErrTruncatedTx
		}
		nonces = append(nonces, binary.LittleEndian.Uint64(b[0:8]))
		b = b[8:]
	}

	nPublicPost, err := readU32()
	if err != nil {
		return nil, err
	}
	publicPostStates := make([][]byte, 0, nPublicPost)
	for i := uint32(0); i < nPublicPost; i++ {
		var data []byte
		data, b, err = takeBytes(b)
		if err != nil {
			return nil, err
		}
		publicPostStates = append(publicPostStates, data)
	}

	nEncrypted, err := readU32()
	if err != nil {
		return nil, err
	}
	encrypted := make([]EncryptedPostState, 0, nEncrypted)
	for i := uint32(0); i < nEncrypted; i++ {
		if len(b) < EncryptedNonceSize {
			return nil, ErrTruncatedTx
		}
		var eps EncryptedPostState
		copy(eps.Nonce[:], b[:EncryptedNonceSize])
		b = b[EncryptedNonceSize:]
		eps.Ciphertext, b, err = takeBytes(b)
		if err != nil {
			return nil, err
		}
		encrypted = append(encrypted, eps)
	}

	nCommitments, err := readU32()
	if err != nil {
		return nil, err
	}
	commitments := make([]primitives.Commitment, 0, nCommitments)
	for i := uint32(0); i < nCommitments; i++ {
		if len(b) < 32 {
			return nil, ErrTruncatedTx
		}
		var c primitives.Commitment
		copy(c[:], b[:32])
		commitments = append(commitments, c)
		b = b[32:]
	}

	nNullifiers, err := readU32()
	if err != nil {
		return nil, err
	}
	nullifiers := make([]primitives.Nullifier, 0, nNullifiers)
	for i := uint32(0); i < nNullifiers; i++ {
		if len(b) < 32 {
			return nil, ErrTruncatedTx
		}
		var n primitives.Nullifier
		copy(n[:], b[:32])
		nullifiers = append(nullifiers, n)
		b = b[32:]
	}

	nSigs, err := readU32()
	if err != nil {
		return nil, err
	}
	sigs := make([]AccountSignature, 0, nSigs)
	for i := uint32(0); i < nSigs; i++ {
		if len(b) < SignatureSize {
			return nil, ErrTruncatedTx
		}
		var sig AccountSignature
		copy(sig[:], b[:SignatureSize])
		sigs = append(sigs, sig)
		b = b[SignatureSize:]
	}

	if len(b) < 1 {
		return nil, ErrTruncatedTx
	}
	proofKind := b[0]
	b = b[1:]

	proofBytes, b, err := takeBytes(b)
	if err != nil {
		return nil, err
	}
	publicInputs, _, err := takeBytes(b)
	if err != nil {
		return nil, err
	}

	if len(accountIDs) != len(nonces) {
		return nil, ErrMismatchedTxArity
	}

	return &PrivacyPreservingTransaction{
		PublicAccountIDs:           accountIDs,
		Nonces:                     nonces,
		PublicPostStates:           publicPostStates,
		EncryptedPrivatePostStates: encrypted,
		NewCommitments:             commitments,
		NewNullifiers:              nullifiers,
		Signatures:                 sigs,
		Proof: ProofBytes{
			Kind:         proofKind,
			Proof:        proofBytes,
			PublicInputs: publicInputs,
		},
	}, nil
}

func encodeProgramDeployment(tx *ProgramDeploymentTransaction) []byte {
	return putBytes(nil, tx.Bytecode)
}

func decodeProgramDeployment(b []byte) (*ProgramDeploymentTransaction, error) {
	bytecode, _, err := takeBytes(b)
	if err != nil {
		return nil, err
	}
	return &ProgramDeploymentTransaction{Bytecode: bytecode}, nil
}

// DeployedProgramID computes the program id a deployment transaction would
// register: the hash of its bytecode, per spec §4.6's program-deployment
// transition.
func (tx *ProgramDeploymentTransaction) DeployedProgramID() primitives.ProgramId {
	return primitives.ProgramIdFromHash(primitives.HashBytes(tx.Bytecode))
}
