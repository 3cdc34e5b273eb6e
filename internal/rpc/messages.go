package rpc

import (
	"encoding/binary"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// SubmitRequest wraps a canonically-encoded transaction for admission.
type SubmitRequest struct {
	Transaction *types.Transaction
}

func encodeSubmitRequest(r SubmitRequest) []byte {
	return putBytes(nil, r.Transaction.Encode())
}

func decodeSubmitRequest(b []byte) (SubmitRequest, error) {
	raw, _, err := takeBytes(b)
	if err != nil {
		return SubmitRequest{}, err
	}
	tx, err := types.DecodeTransaction(raw)
	if err != nil {
		return SubmitRequest{}, err
	}
	return SubmitRequest{Transaction: tx}, nil
}

// SubmitResponse reports whether a submitted transaction was accepted
// into the mempool.
type SubmitResponse struct {
	Accepted bool
	Reason   string
}

func encodeSubmitResponse(r SubmitResponse) []byte {
	var buf []byte
	if r.Accepted {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	return putBytes(buf, []byte(r.Reason))
}

func decodeSubmitResponse(b []byte) (SubmitResponse, error) {
	if len(b) < 1 {
		return SubmitResponse{}, ErrTruncatedFrame
	}
	accepted := b[0] == 1
	reason, _, err := takeBytes(b[1:])
	if err != nil {
		return SubmitResponse{}, err
	}
	return SubmitResponse{Accepted: accepted, Reason: string(reason)}, nil
}

// GetAccountRequest names the account to look up.
type GetAccountRequest struct {
	AccountID primitives.AccountId
}

func encodeGetAccountRequest(r GetAccountRequest) []byte {
	return append([]byte{}, r.AccountID.Bytes()...)
}

func decodeGetAccountRequest(b []byte) (GetAccountRequest, error) {
	if len(b) < 32 {
		return GetAccountRequest{}, ErrTruncatedFrame
	}
	return GetAccountRequest{AccountID: primitives.AccountIdFromBytes(b[:32])}, nil
}

// GetAccountResponse carries an account's canonical encoding.
type GetAccountResponse struct {
	Account account.Account
}

func encodeGetAccountResponse(r GetAccountResponse) []byte {
	return r.Account.Encode()
}

func decodeGetAccountResponse(b []byte) (GetAccountResponse, error) {
	acc, err := account.Decode(b)
	if err != nil {
		return GetAccountResponse{}, err
	}
	return GetAccountResponse{Account: acc}, nil
}

// GetAccountsNoncesRequest names the accounts whose nonces to look up, in
// the order they should be returned.
type GetAccountsNoncesRequest struct {
	AccountIDs []primitives.AccountId
}

func encodeGetAccountsNoncesRequest(r GetAccountsNoncesRequest) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(r.AccountIDs)))
	for _, id := range r.AccountIDs {
		buf = append(buf, id.Bytes()...)
	}
	return buf
}

func decodeGetAccountsNoncesRequest(b []byte) (GetAccountsNoncesRequest, error) {
	if len(b) < 4 {
		return GetAccountsNoncesRequest{}, ErrTruncatedFrame
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	b = b[4:]
	ids := make([]primitives.AccountId, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(b) < 32 {
			return GetAccountsNoncesRequest{}, ErrTruncatedFrame
		}
		ids = append(ids, primitives.AccountIdFromBytes(b[:32]))
		b = b[32:]
	}
	return GetAccountsNoncesRequest{AccountIDs: ids}, nil
}

// GetAccountsNoncesResponse carries one nonce per requested account, in
// the same order.
type GetAccountsNoncesResponse struct {
	Nonces []uint64
}

func encodeGetAccountsNoncesResponse(r GetAccountsNoncesResponse) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, uint32(len(r.Nonces)))
	for _, n := range r.Nonces {
		buf = binary.LittleEndian.AppendUint64(buf, n)
	}
	return buf
}

func decodeGetAccountsNoncesResponse(b []byte) (GetAccountsNoncesResponse, error) {
	if len(b) < 4 {
		return GetAccountsNoncesResponse{}, ErrTruncatedFrame
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	b = b[4:]
	nonces := make([]uint64, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(b) < 8 {
			return GetAccountsNoncesResponse{}, ErrTruncatedFrame
		}
		nonces = append(nonces, binary.LittleEndian.Uint64(b[0:8]))
		b = b[8:]
	}
	return GetAccountsNoncesResponse{Nonces: nonces}, nil
}

// GetTransactionRequest names the transaction hash to look up.
type GetTransactionRequest struct {
	Hash primitives.Hash
}

func encodeGetTransactionRequest(r GetTransactionRequest) []byte {
	return append([]byte{}, r.Hash.Bytes()...)
}

func decodeGetTransactionRequest(b []byte) (GetTransactionRequest, error) {
	if len(b) < 32 {
		return GetTransactionRequest{}, ErrTruncatedFrame
	}
	return GetTransactionRequest{Hash: primitives.HashFromBytes(b[:32])}, nil
}

// GetTransactionResponse carries the transaction and the id of the block
// it was included in.
type GetTransactionResponse struct {
	Transaction *types.Transaction
	BlockID     uint64
}

func encodeGetTransactionResponse(r GetTransactionResponse) []byte {
	buf := binary.LittleEndian.AppendUint64(nil, r.BlockID)
	return putBytes(buf, r.Transaction.Encode())
}

func decodeGetTransactionResponse(b []byte) (GetTransactionResponse, error) {
	if len(b) < 8 {
		return GetTransactionResponse{}, ErrTruncatedFrame
	}
	blockID := binary.LittleEndian.Uint64(b[0:8])
	raw, _, err := takeBytes(b[8:])
	if err != nil {
		return GetTransactionResponse{}, err
	}
	tx, err := types.DecodeTransaction(raw)
	if err != nil {
		return GetTransactionResponse{}, err
	}
	return GetTransactionResponse{Transaction: tx, BlockID: blockID}, nil
}

// GetBlockRequest names the block id to look up.
type GetBlockRequest struct {
	BlockID uint64
}

func encodeGetBlockRequest(r GetBlockRequest) []byte {
	return binary.LittleEndian.AppendUint64(nil, r.BlockID)
}

func decodeGetBlockRequest(b []byte) (GetBlockRequest, error) {
	if len(b) < 8 {
		return GetBlockRequest{}, ErrTruncatedFrame
	}
	return GetBlockRequest{BlockID: binary.LittleEndian.Uint64(b[0:8])}, nil
}

// GetBlockResponse carries a full block, in its canonical (hashed) wire
// encoding; settlement sidecar metadata is not exposed over the Submit
// API.
type GetBlockResponse struct {
	Block *types.Block
}

func encodeGetBlockResponse(r GetBlockResponse) []byte {
	return putBytes(nil, r.Block.Encode())
}

func decodeGetBlockResponse(b []byte) (GetBlockResponse, error) {
	raw, _, err := takeBytes(b)
	if err != nil {
		return GetBlockResponse{}, err
	}
	header, err := types.DecodeHeader(raw)
	if err != nil {
		return GetBlockResponse{}, err
	}
	const headerLen = 8 + 32 + 8 + 32 + types.SignatureSize
	txs, err := types.DecodeBody(raw[headerLen:])
	if err != nil {
		return GetBlockResponse{}, err
	}
	return GetBlockResponse{Block: types.NewBlock(header, txs, types.MsgID{})}, nil
}

// GetLastBlockRequest takes no parameters; it is encoded as an empty
// payload.
type GetLastBlockRequest struct{}

// GetProofForCommitmentRequest names the accumulator leaf position to
// prove membership for.
type GetProofForCommitmentRequest struct {
	Position uint64
}

func encodeGetProofForCommitmentRequest(r GetProofForCommitmentRequest) []byte {
	return binary.LittleEndian.AppendUint64(nil, r.Position)
}

func decodeGetProofForCommitmentRequest(b []byte) (GetProofForCommitmentRequest, error) {
	if len(b) < 8 {
		return GetProofForCommitmentRequest{}, ErrTruncatedFrame
	}
	return GetProofForCommitmentRequest{Position: binary.LittleEndian.Uint64(b[0:8])}, nil
}

// GetProofForCommitmentResponse carries an accumulator membership proof:
// a leaf position and its sibling authentication path. Found is false
// when no commitment exists at the requested position (the wire
// equivalent of Option<MembershipProof>).
type GetProofForCommitmentResponse struct {
	Found    bool
	Position uint64
	Siblings []primitives.CommitmentSetDigest
}

func encodeGetProofForCommitmentResponse(r GetProofForCommitmentResponse) []byte {
	var buf []byte
	if r.Found {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = binary.LittleEndian.AppendUint64(buf, r.Position)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.Siblings)))
	for _, s := range r.Siblings {
		buf = append(buf, s[:]...)
	}
	return buf
}

func decodeGetProofForCommitmentResponse(b []byte) (GetProofForCommitmentResponse, error) {
	if len(b) < 1+8+4 {
		return GetProofForCommitmentResponse{}, ErrTruncatedFrame
	}
	found := b[0] == 1
	position := binary.LittleEndian.Uint64(b[1:9])
	n := binary.LittleEndian.Uint32(b[9:13])
	b = b[13:]
	siblings := make([]primitives.CommitmentSetDigest, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(b) < 32 {
			return GetProofForCommitmentResponse{}, ErrTruncatedFrame
		}
		var d primitives.CommitmentSetDigest
		copy(d[:], b[:32])
		siblings = append(siblings, d)
		b = b[32:]
	}
	return GetProofForCommitmentResponse{Found: found, Position: position, Siblings: siblings}, nil
}

// errorResponse is the payload carried by every non-OK status: a short
// human-readable reason.
func encodeErrorResponse(reason string) []byte {
	return putBytes(nil, []byte(reason))
}

func decodeErrorResponse(b []byte) (string, error) {
	reason, _, err := takeBytes(b)
	if err != nil {
		return "", err
	}
	return string(reason), nil
}
