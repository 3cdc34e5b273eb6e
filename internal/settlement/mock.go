package settlement

import (
	"context"
	"sync"

	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// MockClient is an in-memory Client that accepts every submission
// unconditionally, mirroring the original sequencer's `mock` feature
// used to exercise the core state machine without a live settlement
// layer.
type MockClient struct {
	mu        sync.Mutex
	submitted []InscribeTx
	nextSeq   uint64
}

// NewMockClient constructs a MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// CreateInscribeTx returns block itself as the opaque tx, paired with a
// msg_id derived deterministically from the block id and an internal
// sequence counter, chaining genesis from the zero msg-id.
func (m *MockClient) CreateInscribeTx(block *types.Block) (InscribeTx, types.MsgID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSeq++

	var buf []byte
	buf = primitives.PutUint64LE(buf, block.Header.BlockID)
	buf = primitives.PutUint64LE(buf, m.nextSeq)
	digest := primitives.HashBytes(buf)

	var msgID types.MsgID
	copy(msgID[:], digest.Bytes())
	return block, msgID, nil
}

// SubmitInscribeTx records tx as submitted and always succeeds.
func (m *MockClient) SubmitInscribeTx(_ context.Context, tx InscribeTx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted = append(m.submitted, tx)
	return nil
}

// Submitted returns every transaction accepted so far, in submission
// order.
func (m *MockClient) Submitted() []InscribeTx {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]InscribeTx(nil), m.submitted...)
}
