package indexer

import (
	"context"
	"sync"

	"github.com/nssa-network/sequencer/pkg/types"
)

// MockClient is an in-memory Client used by sequencer tests that don't
// stand up a real Postgres instance.
type MockClient struct {
	mu       sync.Mutex
	notified []*types.Block
}

// NewMockClient constructs a MockClient.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// NotifyBlock records block and always succeeds.
func (m *MockClient) NotifyBlock(_ context.Context, block *types.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, block)
	return nil
}

// Close is a no-op for the mock client.
func (m *MockClient) Close() {}

// Notified returns every block recorded so far, in notification order.
func (m *MockClient) Notified() []*types.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*types.Block(nil), m.notified...)
}

var _ Client = (*MockClient)(nil)
