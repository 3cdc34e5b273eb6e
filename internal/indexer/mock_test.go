package indexer

import (
	"context"
	"testing"

	"github.com/nssa-network/sequencer/pkg/types"
)

func TestMockClientRecordsNotifiedBlocks(t *testing.T) {
	m := NewMockClient()
	block := &types.Block{Header: types.BlockHeader{BlockID: 3}}

	if err := m.NotifyBlock(context.Background(), block); err != nil {
		t.Fatalf("notify: %v", err)
	}

	got := m.Notified()
	if len(got) != 1 || got[0].Header.BlockID != 3 {
		t.Fatalf("unexpected notified blocks: %+v", got)
	}
}
