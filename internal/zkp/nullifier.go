// Package zkp implements nullifier derivation and tracking.
package zkp

import (
	"context"
	"errors"
	"sync"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

// Nullifier errors
var (
	ErrNullifierSpent   = errors.New("nullifier already spent")
	ErrNullifierInvalid = errors.New("invalid nullifier")
)

// NullifierSet tracks spent nullifiers to prevent a private account's
// commitment (or its initialization) from being consumed twice.
type NullifierSet struct {
	mu sync.RWMutex

	// In-memory cache of recent nullifiers
	cache map[primitives.Nullifier]struct{}

	// Persistent storage
	store NullifierStore

	// Cache size limit
	maxCacheSize int
}

// NullifierStore defines the interface for persistent nullifier storage.
type NullifierStore interface {
	HasNullifier(ctx context.Context, nullifier primitives.Nullifier) (bool, error)
	AddNullifier(ctx context.Context, nullifier primitives.Nullifier, txHash primitives.Hash, blockID uint64) error
	GetNullifierInfo(ctx context.Context, nullifier primitives.Nullifier) (*NullifierInfo, error)
}

// NullifierInfo contains information about a spent nullifier.
type NullifierInfo struct {
	Nullifier primitives.Nullifier
	TxHash    primitives.Hash
	BlockID   uint64
}

// NullifierConfig holds configuration for the nullifier set.
type NullifierConfig struct {
	MaxCacheSize int
}

func DefaultNullifierConfig() *NullifierConfig {
	return &NullifierConfig{MaxCacheSize: 100000}
}

func NewNullifierSet(store NullifierStore, cfg *NullifierConfig) *NullifierSet {
	if cfg == nil {
		cfg = DefaultNullifierConfig()
	}
	return &NullifierSet{
		cache:        make(map[primitives.Nullifier]struct{}),
		store:        store,
		maxCacheSize: cfg.MaxCacheSize,
	}
}

// IsSpent checks if a nullifier has already been spent.
func (ns *NullifierSet) IsSpent(ctx context.Context, nullifier primitives.Nullifier) (bool, error) {
	ns.mu.RLock()
	_, inCache := ns.cache[nullifier]
	ns.mu.RUnlock()
	if inCache {
		return true, nil
	}
	return ns.store.HasNullifier(ctx, nullifier)
}

// MarkSpent marks a nullifier as spent, returning ErrNullifierSpent if it
// already was (spec's DoubleSpend rejection).
func (ns *NullifierSet) MarkSpent(ctx context.Context, nullifier primitives.Nullifier, txHash primitives.Hash, blockID uint64) error {
	spent, err := ns.IsSpent(ctx, nullifier)
	if err != nil {
		return err
	}
	if spent {
		return ErrNullifierSpent
	}

	if err := ns.store.AddNullifier(ctx, nullifier, txHash, blockID); err != nil {
		return err
	}

	ns.mu.Lock()
	ns.cache[nullifier] = struct{}{}
	if len(ns.cache) > ns.maxCacheSize {
		for k := range ns.cache {
			delete(ns.cache, k)
			break
		}
	}
	ns.mu.Unlock()
	return nil
}

// BatchCheck checks multiple nullifiers at once.
func (ns *NullifierSet) BatchCheck(ctx context.Context, nullifiers []primitives.Nullifier) ([]bool, error) {
	results := make([]bool, len(nullifiers))
	for i, n := range nullifiers {
		spent, err := ns.IsSpent(ctx, n)
		if err != nil {
			return nil, err
		}
		results[i] = spent
	}
	return results, nil
}

// NullifierForAccountInitialization is `Nullifier::for_account_initialization`:
// the tag emitted the first time a private account (identified by its NPK)
// is brought into existence, before any commitment for it exists.
func NullifierForAccountInitialization(npk primitives.NullifierPublicKey) primitives.Nullifier {
	return primitives.Nullifier(primitives.HashBytes([]byte("nssa/nullifier/init"), npk.Bytes()))
}

// NullifierForAccountUpdate is `Nullifier::for_account_update`: the tag
// emitted to retire a previously committed private account state,
// computed from the commitment being spent and the spender's NSK.
func NullifierForAccountUpdate(commitment primitives.Commitment, nsk primitives.NullifierSecretKey) primitives.Nullifier {
	return primitives.Nullifier(primitives.HashBytes([]byte("nssa/nullifier/update"), commitment.Bytes(), nsk.Bytes()))
}

// NullifierPublicKeyFromSecret derives `NullifierPublicKey::from(nsk)`.
func NullifierPublicKeyFromSecret(nsk primitives.NullifierSecretKey) primitives.NullifierPublicKey {
	h := primitives.HashBytes([]byte("nssa/npk-from-nsk"), nsk.Bytes())
	return primitives.NullifierPublicKey(h)
}

// InMemoryNullifierStore is a simple in-memory NullifierStore, used in
// tests and wherever a bbolt-backed store is not wired.
type InMemoryNullifierStore struct {
	mu         sync.RWMutex
	nullifiers map[primitives.Nullifier]*NullifierInfo
}

func NewInMemoryNullifierStore() *InMemoryNullifierStore {
	return &InMemoryNullifierStore{nullifiers: make(map[primitives.Nullifier]*NullifierInfo)}
}

func (s *InMemoryNullifierStore) HasNullifier(_ context.Context, nullifier primitives.Nullifier) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nullifiers[nullifier]
	return ok, nil
}

func (s *InMemoryNullifierStore) AddNullifier(_ context.Context, nullifier primitives.Nullifier, txHash primitives.Hash, blockID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nullifiers[nullifier]; ok {
		return ErrNullifierSpent
	}
	s.nullifiers[nullifier] = &NullifierInfo{Nullifier: nullifier, TxHash: txHash, BlockID: blockID}
	return nil
}

func (s *InMemoryNullifierStore) GetNullifierInfo(_ context.Context, nullifier primitives.Nullifier) (*NullifierInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.nullifiers[nullifier]
	if !ok {
		return nil, ErrNullifierInvalid
	}
	return info, nil
}

func (s *InMemoryNullifierStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nullifiers)
}
