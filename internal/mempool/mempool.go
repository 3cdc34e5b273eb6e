// Package mempool implements the sequencer's transaction memory pool: a
// bounded FIFO admission queue with nullifier-conflict detection. Unlike
// a fee-market chain, this protocol has no fee concept (spec §4.6 Public
// transitions have no fee field), so ordering is plain admission order
// rather than a priority queue.
package mempool

import (
	"container/list"
	"errors"
	"sync"

	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

var (
	ErrPoolFull          = errors.New("mempool is full")
	ErrTxAlreadyExists   = errors.New("transaction already in mempool")
	ErrNullifierConflict = errors.New("nullifier conflicts with a transaction already in the mempool")
)

// MempoolTx wraps a transaction with admission-queue metadata.
type MempoolTx struct {
	Tx       *types.Transaction
	Hash     primitives.Hash
	AddedSeq uint64
}

// Config holds mempool configuration.
type Config struct {
	MaxSize int
}

// DefaultConfig returns the default mempool configuration.
func DefaultConfig() *Config {
	return &Config{MaxSize: 10000}
}

// Mempool is a bounded FIFO queue of admitted transactions, indexed by
// hash, with an auxiliary nullifier index to reject double-spends before
// they ever reach the world state.
type Mempool struct {
	mu sync.RWMutex

	maxSize int
	seq     uint64

	order      *list.List
	elems      map[primitives.Hash]*list.Element
	nullifiers map[primitives.Nullifier]primitives.Hash
}

// NewMempool creates a new transaction mempool.
func NewMempool(cfg *Config) *Mempool {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Mempool{
		maxSize:    cfg.MaxSize,
		order:      list.New(),
		elems:      make(map[primitives.Hash]*list.Element),
		nullifiers: make(map[primitives.Nullifier]primitives.Hash),
	}
}

// Add admits tx to the back of the queue. It is rejected if the pool is
// full, the transaction hash is already present, or any nullifier it
// spends conflicts with a transaction already admitted.
func (m *Mempool) Add(tx *types.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := tx.Hash()
	if _, exists := m.elems[hash]; exists {
		return ErrTxAlreadyExists
	}
	if len(m.elems) >= m.maxSize {
		return ErrPoolFull
	}

	var nullifiers []primitives.Nullifier
	if tx.Kind == types.TxKindPrivacyPreserving {
		nullifiers = tx.PrivacyPreserving.NewNullifiers
		for _, n := range nullifiers {
			if conflict, exists := m.nullifiers[n]; exists {
				return conflictError{conflict: conflict}
			}
		}
	}

	m.seq++
	mpt := &MempoolTx{Tx: tx, Hash: hash, AddedSeq: m.seq}
	m.elems[hash] = m.order.PushBack(mpt)
	for _, n := range nullifiers {
		m.nullifiers[n] = hash
	}
	return nil
}

// conflictError reports ErrNullifierConflict alongside the hash of the
// transaction already holding the contested nullifier.
type conflictError struct {
	conflict primitives.Hash
}

func (e conflictError) Error() string {
	return ErrNullifierConflict.Error() + ": " + e.conflict.String()
}
func (e conflictError) Unwrap() error { return ErrNullifierConflict }

// Remove drops a transaction and its nullifier reservations from the
// pool.
func (m *Mempool) Remove(hash primitives.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(hash)
}

func (m *Mempool) removeLocked(hash primitives.Hash) {
	elem, exists := m.elems[hash]
	if !exists {
		return
	}
	mpt := elem.Value.(*MempoolTx)
	if mpt.Tx.Kind == types.TxKindPrivacyPreserving {
		for _, n := range mpt.Tx.PrivacyPreserving.NewNullifiers {
			delete(m.nullifiers, n)
		}
	}
	m.order.Remove(elem)
	delete(m.elems, hash)
}

// Get retrieves a transaction by hash, or nil if absent.
func (m *Mempool) Get(hash primitives.Hash) *types.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if elem, exists := m.elems[hash]; exists {
		return elem.Value.(*MempoolTx).Tx
	}
	return nil
}

// Has reports whether hash is currently admitted.
func (m *Mempool) Has(hash primitives.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.elems[hash]
	return exists
}

// Len reports the number of admitted transactions.
func (m *Mempool) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.elems)
}

// SelectForBlock returns up to maxCount transactions in FIFO admission
// order, skipping any whose nullifiers conflict with one already chosen
// for this block (defense in depth against races between Add and a
// concurrent Remove/finalization).
func (m *Mempool) SelectForBlock(maxCount int) []*types.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	selected := make([]*types.Transaction, 0, maxCount)
	usedNullifiers := make(map[primitives.Nullifier]bool)

	for e := m.order.Front(); e != nil && len(selected) < maxCount; e = e.Next() {
		mpt := e.Value.(*MempoolTx)
		if mpt.Tx.Kind == types.TxKindPrivacyPreserving {
			conflict := false
			for _, n := range mpt.Tx.PrivacyPreserving.NewNullifiers {
				if usedNullifiers[n] {
					conflict = true
					break
				}
			}
			if conflict {
				continue
			}
			for _, n := range mpt.Tx.PrivacyPreserving.NewNullifiers {
				usedNullifiers[n] = true
			}
		}
		selected = append(selected, mpt.Tx)
	}
	return selected
}

// RemoveConfirmed drops every transaction in txs from the pool, used
// after a block is produced to evict exactly what it included.
func (m *Mempool) RemoveConfirmed(txs []*types.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range txs {
		m.removeLocked(tx.Hash())
	}
}
