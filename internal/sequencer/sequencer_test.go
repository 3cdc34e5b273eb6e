package sequencer

import (
	"context"
	"testing"

	"github.com/nssa-network/sequencer/internal/program"
	"github.com/nssa-network/sequencer/internal/settlement"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

func accountID(label byte) primitives.AccountId {
	var id primitives.AccountId
	id[0] = label
	return id
}

func transferTx(t *testing.T, sender, recipient primitives.AccountId, nonce uint64, amount uint64) *types.Transaction {
	t.Helper()
	return types.NewPublicTransaction(&types.PublicTransaction{
		ProgramID:   program.AuthenticatedTransferProgramID(),
		AccountIDs:  []primitives.AccountId{sender, recipient},
		Nonces:      []uint64{nonce, 0},
		Instruction: program.EncodeTransferInstruction(primitives.NewUint128(amount)),
		Signatures:  []types.AccountSignature{{1}, {}},
	})
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Home = t.TempDir()
	cfg.GenesisID = 1
	cfg.InitialAccounts = []InitialAccount{
		{AccountID: accountID(0xAA), Balance: 1000},
	}
	return cfg
}

func TestNewBootstrapsGenesisAccounts(t *testing.T) {
	cfg := testConfig(t)
	core, err := New(cfg, settlement.NewMockClient(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer core.Close()

	acc := core.GetAccount(accountID(0xAA))
	if acc.Balance.Cmp(primitives.NewUint128(1000)) != 0 {
		t.Fatalf("genesis balance = %v, want 1000", acc.Balance)
	}
	if core.ChainHeight() != cfg.GenesisID-1 {
		t.Fatalf("chain height = %d, want %d", core.ChainHeight(), cfg.GenesisID-1)
	}
}

func TestProduceBlockAppliesTransferAndPersists(t *testing.T) {
	cfg := testConfig(t)
	sender := accountID(0xAA)
	recipient := accountID(0xBB)

	core, err := New(cfg, settlement.NewMockClient(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer core.Close()

	tx := transferTx(t, sender, recipient, 0, 100)
	if err := core.SubmitTransaction(tx); err != nil {
		t.Fatalf("submit: %v", err)
	}

	block, err := core.ProduceBlock(context.Background())
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if block == nil {
		t.Fatalf("expected a block")
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("expected 1 tx in block, got %d", len(block.Transactions))
	}
	if block.Header.BlockID != cfg.GenesisID {
		t.Fatalf("block id = %d, want %d", block.Header.BlockID, cfg.GenesisID)
	}

	senderAcc := core.GetAccount(sender)
	recipientAcc := core.GetAccount(recipient)
	if senderAcc.Balance.Cmp(primitives.NewUint128(900)) != 0 {
		t.Fatalf("sender balance = %v, want 900", senderAcc.Balance)
	}
	if recipientAcc.Balance.Cmp(primitives.NewUint128(100)) != 0 {
		t.Fatalf("recipient balance = %v, want 100", recipientAcc.Balance)
	}

	stored, err := core.GetBlock(block.Header.BlockID)
	if err != nil {
		t.Fatalf("get block: %v", err)
	}
	if stored.Header.Hash() != block.Header.Hash() {
		t.Fatalf("stored block header does not match produced block")
	}
}

func TestProduceBlockDropsFailingTransactionWithoutAbortingBatch(t *testing.T) {
	cfg := testConfig(t)
	sender := accountID(0xAA)
	recipient := accountID(0xBB)
	unrelated := accountID(0xCC)

	core, err := New(cfg, settlement.NewMockClient(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer core.Close()

	overdraft := transferTx(t, unrelated, recipient, 0, 1)
	ok := transferTx(t, sender, recipient, 0, 50)

	if err := core.SubmitTransaction(overdraft); err != nil {
		t.Fatalf("submit overdraft: %v", err)
	}
	if err := core.SubmitTransaction(ok); err != nil {
		t.Fatalf("submit ok: %v", err)
	}

	block, err := core.ProduceBlock(context.Background())
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if len(block.Transactions) != 1 {
		t.Fatalf("expected overdraft tx dropped, kept %d txs", len(block.Transactions))
	}
	if block.Transactions[0].Hash() != ok.Hash() {
		t.Fatalf("expected the valid transfer to survive")
	}
}

func TestRestartRecoversFromLastStoredBlock(t *testing.T) {
	cfg := testConfig(t)
	sender := accountID(0xAA)
	recipient := accountID(0xBB)

	core, err := New(cfg, settlement.NewMockClient(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := core.SubmitTransaction(transferTx(t, sender, recipient, 0, 250)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	block, err := core.ProduceBlock(context.Background())
	if err != nil {
		t.Fatalf("produce: %v", err)
	}
	if err := core.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopen against the same home directory, without re-seeding genesis.
	cfg2 := DefaultConfig()
	cfg2.Home = cfg.Home
	cfg2.GenesisID = cfg.GenesisID

	restarted, err := New(cfg2, settlement.NewMockClient(), nil, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer restarted.Close()

	if restarted.ChainHeight() != block.Header.BlockID {
		t.Fatalf("chain height after restart = %d, want %d (last stored, not last finalized)", restarted.ChainHeight(), block.Header.BlockID)
	}
	recipientAcc := restarted.GetAccount(recipient)
	if recipientAcc.Balance.Cmp(primitives.NewUint128(250)) != 0 {
		t.Fatalf("recipient balance after restart = %v, want 250", recipientAcc.Balance)
	}
}

func TestSecondBlockChainsSettlementParentToFirstBlocksMsgID(t *testing.T) {
	cfg := testConfig(t)
	sender := accountID(0xAA)
	recipient := accountID(0xBB)

	core, err := New(cfg, settlement.NewMockClient(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer core.Close()

	if err := core.SubmitTransaction(transferTx(t, sender, recipient, 0, 10)); err != nil {
		t.Fatalf("submit 1: %v", err)
	}
	first, err := core.ProduceBlock(context.Background())
	if err != nil {
		t.Fatalf("produce 1: %v", err)
	}

	if err := core.SubmitTransaction(transferTx(t, sender, recipient, 1, 10)); err != nil {
		t.Fatalf("submit 2: %v", err)
	}
	second, err := core.ProduceBlock(context.Background())
	if err != nil {
		t.Fatalf("produce 2: %v", err)
	}

	if second.SettlementParent != first.SettlementMsgID {
		t.Fatalf("second block's settlement parent %v does not match first block's own msg id %v", second.SettlementParent, first.SettlementMsgID)
	}
	if second.Header.PrevBlockHash != first.Header.Hash() {
		t.Fatalf("second block's prev hash does not match first block's header hash")
	}
}
