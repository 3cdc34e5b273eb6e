package rpc

import (
	"context"
	"errors"
	"testing"

	"github.com/nssa-network/sequencer/internal/mempool"
	"github.com/nssa-network/sequencer/internal/program"
	"github.com/nssa-network/sequencer/internal/storage"
	"github.com/nssa-network/sequencer/internal/zkp"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

type fakeCore struct {
	accounts   map[primitives.AccountId]account.Account
	blocks     map[uint64]*types.Block
	lastBlock  uint64
	submitErr  error
	submitted  []*types.Transaction
	proof      *zkp.MembershipProof
}

func (f *fakeCore) SubmitTransaction(tx *types.Transaction) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, tx)
	return nil
}

func (f *fakeCore) GetAccount(id primitives.AccountId) account.Account {
	return f.accounts[id]
}

func (f *fakeCore) GetAccountsNonces(ids []primitives.AccountId) []uint64 {
	nonces := make([]uint64, len(ids))
	for i, id := range ids {
		nonces[i] = f.accounts[id].Nonce
	}
	return nonces
}

func (f *fakeCore) GetBlock(blockID uint64) (*types.Block, error) {
	b, ok := f.blocks[blockID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (f *fakeCore) GetLastBlock() (*types.Block, error) {
	return f.GetBlock(f.lastBlock)
}

func (f *fakeCore) GetTransaction(hash primitives.Hash) (*types.Transaction, uint64, error) {
	for id, b := range f.blocks {
		for _, tx := range b.Transactions {
			if tx.Hash() == hash {
				return tx, id, nil
			}
		}
	}
	return nil, 0, storage.ErrNotFound
}

func (f *fakeCore) GetProofForCommitment(ctx context.Context, position uint64) (*zkp.MembershipProof, error) {
	if f.proof == nil {
		return nil, errors.New("not found")
	}
	return f.proof, nil
}

func accountID(label byte) primitives.AccountId {
	var id primitives.AccountId
	id[0] = label
	return id
}

func transferTx(sender, recipient primitives.AccountId) *types.Transaction {
	return types.NewPublicTransaction(&types.PublicTransaction{
		ProgramID:   program.AuthenticatedTransferProgramID(),
		AccountIDs:  []primitives.AccountId{sender, recipient},
		Nonces:      []uint64{0, 0},
		Instruction: program.EncodeTransferInstruction(primitives.NewUint128(10)),
		Signatures:  []types.AccountSignature{{1}, {}},
	})
}

func startTestServer(t *testing.T, core Core) (*Client, func()) {
	t.Helper()
	srv, err := Listen("127.0.0.1:0", core)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve()

	cli, err := Dial(context.Background(), srv.Addr().String())
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return cli, func() {
		cli.Close()
		srv.Close()
	}
}

func TestSubmitRoundTrip(t *testing.T) {
	core := &fakeCore{accounts: map[primitives.AccountId]account.Account{}}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	tx := transferTx(accountID(0xAA), accountID(0xBB))
	resp, err := cli.Submit(tx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !resp.Accepted {
		t.Fatalf("expected accepted")
	}
	if len(core.submitted) != 1 {
		t.Fatalf("expected 1 submitted tx, got %d", len(core.submitted))
	}
}

func TestSubmitRejectedSurfacesReason(t *testing.T) {
	core := &fakeCore{submitErr: mempool.ErrPoolFull}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	resp, err := cli.Submit(transferTx(accountID(0xAA), accountID(0xBB)))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.Accepted {
		t.Fatalf("expected rejected")
	}
	if resp.Reason == "" {
		t.Fatalf("expected a reason")
	}
}

func TestGetAccountRoundTrip(t *testing.T) {
	id := accountID(0xAA)
	want := account.Account{ProgramOwner: primitives.DefaultProgramId, Balance: primitives.NewUint128(500), Nonce: 3}
	core := &fakeCore{accounts: map[primitives.AccountId]account.Account{id: want}}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	got, err := cli.GetAccount(id)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestGetAccountsNoncesRoundTrip(t *testing.T) {
	a, b := accountID(0xAA), accountID(0xBB)
	core := &fakeCore{accounts: map[primitives.AccountId]account.Account{
		a: {Nonce: 7},
		b: {Nonce: 9},
	}}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	nonces, err := cli.GetAccountsNonces([]primitives.AccountId{a, b})
	if err != nil {
		t.Fatalf("get nonces: %v", err)
	}
	if len(nonces) != 2 || nonces[0] != 7 || nonces[1] != 9 {
		t.Fatalf("got %v, want [7 9]", nonces)
	}
}

func TestGetBlockNotFound(t *testing.T) {
	core := &fakeCore{blocks: map[uint64]*types.Block{}}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	_, err := cli.GetBlock(42)
	if err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestGetBlockAndLastBlockRoundTrip(t *testing.T) {
	header := types.BlockHeader{BlockID: 1, BodyHash: primitives.HashBytes([]byte("body"))}
	tx := transferTx(accountID(0xAA), accountID(0xBB))
	block := types.NewBlock(header, []*types.Transaction{tx}, types.MsgID{})

	core := &fakeCore{blocks: map[uint64]*types.Block{1: block}, lastBlock: 1}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	got, err := cli.GetBlock(1)
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if got.Header.Hash() != block.Header.Hash() {
		t.Fatalf("header mismatch")
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Hash() != tx.Hash() {
		t.Fatalf("transactions mismatch")
	}

	last, err := cli.GetLastBlock()
	if err != nil {
		t.Fatalf("get last block: %v", err)
	}
	if last.Header.Hash() != block.Header.Hash() {
		t.Fatalf("last block header mismatch")
	}
}

func TestGetTransactionRoundTrip(t *testing.T) {
	header := types.BlockHeader{BlockID: 5}
	tx := transferTx(accountID(0xAA), accountID(0xBB))
	block := types.NewBlock(header, []*types.Transaction{tx}, types.MsgID{})
	core := &fakeCore{blocks: map[uint64]*types.Block{5: block}}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	got, blockID, err := cli.GetTransaction(tx.Hash())
	if err != nil {
		t.Fatalf("get transaction: %v", err)
	}
	if blockID != 5 {
		t.Fatalf("block id = %d, want 5", blockID)
	}
	if got.Hash() != tx.Hash() {
		t.Fatalf("transaction hash mismatch")
	}
}

func TestGetProofForCommitmentFoundAndNotFound(t *testing.T) {
	core := &fakeCore{proof: &zkp.MembershipProof{
		LeafPosition: 3,
		Siblings:     []primitives.CommitmentSetDigest{{1}, {2}, {3}},
	}}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	proof, err := cli.GetProofForCommitment(3)
	if err != nil {
		t.Fatalf("get proof: %v", err)
	}
	if proof == nil || proof.LeafPosition != 3 || len(proof.Siblings) != 3 {
		t.Fatalf("got %+v", proof)
	}

	core.proof = nil
	proof, err = cli.GetProofForCommitment(9)
	if err != nil {
		t.Fatalf("get proof (missing): %v", err)
	}
	if proof != nil {
		t.Fatalf("expected nil proof, got %+v", proof)
	}
}

func TestUnsupportedProtocolVersionRejected(t *testing.T) {
	core := &fakeCore{}
	cli, cleanup := startTestServer(t, core)
	defer cleanup()

	if err := writeFrame(cli.conn, frame{Version: ProtocolVersion + 1, Opcode: OpGetLastBlock}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := readFrame(cli.conn); err == nil {
		t.Fatalf("expected the server to close the connection on unsupported version")
	}
}
