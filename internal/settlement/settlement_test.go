package settlement

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/nssa-network/sequencer/pkg/types"
)

type flakyClient struct {
	failuresLeft int32
}

func (f *flakyClient) CreateInscribeTx(block *types.Block) (InscribeTx, types.MsgID, error) {
	return block, types.MsgID{}, nil
}

func (f *flakyClient) SubmitInscribeTx(context.Context, InscribeTx) error {
	if atomic.AddInt32(&f.failuresLeft, -1) >= 0 {
		return errors.New("transient settlement failure")
	}
	return nil
}

func TestSubmitterRetriesUntilSuccess(t *testing.T) {
	client := &flakyClient{failuresLeft: 2}
	submitter := NewSubmitter(client, &Config{StartDelayMs: 1, MaxRetries: 5})

	block := &types.Block{Header: types.BlockHeader{BlockID: 1}}
	tx, _, _ := client.CreateInscribeTx(block)

	if err := submitter.Submit(context.Background(), tx); err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
}

func TestSubmitterAbandonsAfterMaxRetries(t *testing.T) {
	client := &flakyClient{failuresLeft: 1000}
	submitter := NewSubmitter(client, &Config{StartDelayMs: 1, MaxRetries: 2})

	err := submitter.Submit(context.Background(), &types.Block{})
	if !errors.Is(err, ErrSubmissionAbandoned) {
		t.Fatalf("expected ErrSubmissionAbandoned, got %v", err)
	}
}

func TestMockClientRecordsSubmissions(t *testing.T) {
	m := NewMockClient()
	block := &types.Block{Header: types.BlockHeader{BlockID: 7}}

	tx, msgID, err := m.CreateInscribeTx(block)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if msgID == (types.MsgID{}) {
		t.Fatalf("expected non-zero msg id")
	}
	if err := m.SubmitInscribeTx(context.Background(), tx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(m.Submitted()) != 1 {
		t.Fatalf("expected 1 submitted tx, got %d", len(m.Submitted()))
	}
}
