package storage

import (
	"path/filepath"
	"testing"

	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testBlock(id uint64) *types.Block {
	header := types.BlockHeader{
		BlockID:     id,
		TimestampMs: 1000 + id,
	}
	header.BodyHash = primitives.HashBytes([]byte("body"))
	return types.NewBlock(header, nil, types.MsgID{})
}

func TestStorePutAndGetBlockRoundTrip(t *testing.T) {
	s := openTestStore(t)
	block := testBlock(1)

	if err := s.PutBlockAndState(block, []byte("state-blob")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetBlock(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Header.BlockID != 1 || got.Header.TimestampMs != 1001 {
		t.Fatalf("unexpected header: %+v", got.Header)
	}
}

func TestStorePreservesDistinctSettlementParentAndMsgID(t *testing.T) {
	s := openTestStore(t)

	header := types.BlockHeader{BlockID: 1, BodyHash: primitives.HashBytes([]byte("body"))}
	block := types.NewBlock(header, nil, types.MsgID{1})
	block.SettlementMsgID = types.MsgID{2}

	if err := s.PutBlockAndState(block, []byte("state")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetBlock(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.SettlementParent != (types.MsgID{1}) {
		t.Fatalf("settlement parent = %v, want {1}", got.SettlementParent)
	}
	if got.SettlementMsgID != (types.MsgID{2}) {
		t.Fatalf("settlement msg id = %v, want {2}", got.SettlementMsgID)
	}
}

func TestStoreMetaTracksFirstAndLastBlock(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutBlockAndState(testBlock(5), []byte("s5")); err != nil {
		t.Fatalf("put 5: %v", err)
	}
	if err := s.PutBlockAndState(testBlock(6), []byte("s6")); err != nil {
		t.Fatalf("put 6: %v", err)
	}

	first, ok, err := s.FirstBlockID()
	if err != nil || !ok || first != 5 {
		t.Fatalf("first block id = %d, ok=%v, err=%v, want 5", first, ok, err)
	}
	last, ok, err := s.LastBlockID()
	if err != nil || !ok || last != 6 {
		t.Fatalf("last block id = %d, ok=%v, err=%v, want 6", last, ok, err)
	}
}

func TestStoreFinalizeMarksWithoutDeleting(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutBlockAndState(testBlock(1), []byte("s1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.Finalize(1); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	finalized, err := s.IsFinalized(1)
	if err != nil || !finalized {
		t.Fatalf("expected block 1 finalized, err=%v", err)
	}

	if _, err := s.GetBlock(1); err != nil {
		t.Fatalf("expected finalized block to remain readable, got %v", err)
	}

	lastFinalized, ok, err := s.LastFinalizedBlockID()
	if err != nil || !ok || lastFinalized != 1 {
		t.Fatalf("last finalized = %d, ok=%v, err=%v, want 1", lastFinalized, ok, err)
	}
}

func TestStoreGetBlockMissingReturnsErrNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetBlock(42); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreLoadWorldStateMissingReturnsErrNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadWorldState(); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
