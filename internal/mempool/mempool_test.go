package mempool

import (
	"testing"

	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

func publicTx(label string) *types.Transaction {
	return types.NewPublicTransaction(&types.PublicTransaction{
		ProgramID:   primitives.ProgramIdFromHash(primitives.HashBytes([]byte(label))),
		AccountIDs:  nil,
		Nonces:      nil,
		Instruction: []byte(label),
		Signatures:  nil,
	})
}

func privacyTxWithNullifier(n primitives.Nullifier) *types.Transaction {
	return types.NewPrivacyPreservingTransaction(&types.PrivacyPreservingTransaction{
		NewNullifiers: []primitives.Nullifier{n},
	})
}

func TestMempoolAddAndGet(t *testing.T) {
	m := NewMempool(nil)
	tx := publicTx("tx1")

	if err := m.Add(tx); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !m.Has(tx.Hash()) {
		t.Fatalf("expected tx to be admitted")
	}
	if got := m.Get(tx.Hash()); got != tx {
		t.Fatalf("get returned different transaction")
	}
}

func TestMempoolRejectsDuplicate(t *testing.T) {
	m := NewMempool(nil)
	tx := publicTx("dup")
	if err := m.Add(tx); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.Add(tx); err != ErrTxAlreadyExists {
		t.Fatalf("expected ErrTxAlreadyExists, got %v", err)
	}
}

func TestMempoolRejectsNullifierConflict(t *testing.T) {
	m := NewMempool(nil)
	var n primitives.Nullifier
	n[0] = 7

	if err := m.Add(privacyTxWithNullifier(n)); err != nil {
		t.Fatalf("add: %v", err)
	}
	err := m.Add(privacyTxWithNullifier(n))
	if err == nil {
		t.Fatalf("expected nullifier conflict error")
	}
}

func TestMempoolRejectsWhenFull(t *testing.T) {
	m := NewMempool(&Config{MaxSize: 1})
	if err := m.Add(publicTx("a")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.Add(publicTx("b")); err != ErrPoolFull {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}
}

func TestMempoolSelectForBlockRespectsFIFO(t *testing.T) {
	m := NewMempool(nil)
	var n primitives.Nullifier
	n[0] = 3

	first := privacyTxWithNullifier(n)
	second := privacyTxWithNullifier(n)
	third := publicTx("plain")

	if err := m.Add(first); err != nil {
		t.Fatalf("add first: %v", err)
	}
	// A second tx with the same nullifier would be rejected by Add, so
	// replace it with one carrying a distinct nullifier; this test checks
	// selection order only.
	var n2 primitives.Nullifier
	n2[0] = 4
	second = privacyTxWithNullifier(n2)
	if err := m.Add(second); err != nil {
		t.Fatalf("add second: %v", err)
	}
	if err := m.Add(third); err != nil {
		t.Fatalf("add third: %v", err)
	}

	selected := m.SelectForBlock(10)
	if len(selected) != 3 {
		t.Fatalf("expected all 3 non-conflicting txs selected, got %d", len(selected))
	}
	if selected[0].Hash() != first.Hash() {
		t.Fatalf("expected FIFO order, first selected should be the first admitted")
	}
}

func TestMempoolRemoveConfirmed(t *testing.T) {
	m := NewMempool(nil)
	tx := publicTx("to-remove")
	if err := m.Add(tx); err != nil {
		t.Fatalf("add: %v", err)
	}
	m.RemoveConfirmed([]*types.Transaction{tx})
	if m.Has(tx.Hash()) {
		t.Fatalf("expected tx to be removed")
	}
	if m.Len() != 0 {
		t.Fatalf("expected empty mempool, got len %d", m.Len())
	}
}
