// Package storage implements the sequencer's persistent block/meta/state
// key-value store (spec §6): column families `meta`, `block`, `state`,
// backed by go.etcd.io/bbolt, with atomic block+state commits and
// mark-not-delete finalization.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

var (
	bucketMeta  = []byte("meta")
	bucketBlock = []byte("block")
	bucketState = []byte("state")
)

// Meta keys, per spec §6.
var (
	metaKeyFirstBlockInDB      = []byte("first_block_in_db")
	metaKeyLastBlockInDB       = []byte("last_block_in_db")
	metaKeyFirstBlockSet       = []byte("first_block_set")
	metaKeyLastFinalizedBlock  = []byte("last_finalized_block_id")
	stateKeyNSSAState          = []byte("nssa_state")
	finalizedSuffix            = []byte("\x00finalized")
)

// ErrNotFound is returned when a lookup key is absent from the store.
var ErrNotFound = errors.New("storage: not found")

// Store is the bbolt-backed block/meta/state key-value store.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt database at path and ensures
// the meta/block/state buckets exist.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt: %w", err)
	}

	s := &Store{db: db}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketMeta, bucketBlock, bucketState} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", string(b), err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func blockIDKey(blockID uint64) []byte {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], blockID)
	return key[:]
}

func finalizedKey(blockID uint64) []byte {
	return append(blockIDKey(blockID), finalizedSuffix...)
}

// PutBlockAndState atomically commits a block and the serialized world
// state resulting from applying it, and advances the `last_block_in_db`
// (and, on the first write, `first_block_in_db`/`first_block_set`) meta
// keys in the same transaction (spec §6, "Atomic updates write block +
// state in one batch").
func (s *Store) PutBlockAndState(block *types.Block, stateBytes []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		blocks := tx.Bucket(bucketBlock)
		meta := tx.Bucket(bucketMeta)
		state := tx.Bucket(bucketState)

		if err := blocks.Put(blockIDKey(block.Header.BlockID), block.EncodeForStorage()); err != nil {
			return err
		}
		if err := state.Put(stateKeyNSSAState, stateBytes); err != nil {
			return err
		}
		if meta.Get(metaKeyFirstBlockInDB) == nil {
			if err := meta.Put(metaKeyFirstBlockInDB, blockIDKey(block.Header.BlockID)); err != nil {
				return err
			}
			if err := meta.Put(metaKeyFirstBlockSet, []byte{1}); err != nil {
				return err
			}
		}
		return meta.Put(metaKeyLastBlockInDB, blockIDKey(block.Header.BlockID))
	})
}

// GetBlock returns the block stored at blockID.
func (s *Store) GetBlock(blockID uint64) (*types.Block, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlock).Get(blockIDKey(blockID))
		if v == nil {
			return nil
		}
		raw = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}

	return types.DecodeBlockFromStorage(raw)
}

// LastBlockID returns the highest block id written, and whether the
// store has any blocks at all.
func (s *Store) LastBlockID() (uint64, bool, error) {
	var id uint64
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(metaKeyLastBlockInDB)
		if v == nil {
			return nil
		}
		id = binary.LittleEndian.Uint64(v)
		ok = true
		return nil
	})
	return id, ok, err
}

// FirstBlockID returns the lowest block id written, and whether the
// store has any blocks at all.
func (s *Store) FirstBlockID() (uint64, bool, error) {
	var id uint64
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(metaKeyFirstBlockInDB)
		if v == nil {
			return nil
		}
		id = binary.LittleEndian.Uint64(v)
		ok = true
		return nil
	})
	return id, ok, err
}

// LastBlockMeta returns the header hash and settlement msg id of the
// highest-numbered stored block, for chaining the next block's
// PrevBlockHash and SettlementParent (spec §6, block production step:
// "prev = block_store.latest_block_meta()").
func (s *Store) LastBlockMeta() (hash primitives.Hash, msgID types.MsgID, ok bool, err error) {
	id, ok, err := s.LastBlockID()
	if err != nil || !ok {
		return primitives.Hash{}, types.MsgID{}, ok, err
	}
	block, err := s.GetBlock(id)
	if err != nil {
		return primitives.Hash{}, types.MsgID{}, false, err
	}
	return block.Header.Hash(), block.SettlementMsgID, true, nil
}

// LastFinalizedBlockID returns the highest finalized block id, and
// whether any block has been finalized yet.
func (s *Store) LastFinalizedBlockID() (uint64, bool, error) {
	var id uint64
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(metaKeyLastFinalizedBlock)
		if v == nil {
			return nil
		}
		id = binary.LittleEndian.Uint64(v)
		ok = true
		return nil
	})
	return id, ok, err
}

// Finalize marks blockID as finalized by advancing the
// `last_finalized_block_id` meta key and tagging the block's finalized
// marker; finalized blocks are never deleted (spec §6, "mark-not-delete
// finalization").
func (s *Store) Finalize(blockID uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(finalizedKey(blockID), []byte{1}); err != nil {
			return err
		}
		return meta.Put(metaKeyLastFinalizedBlock, blockIDKey(blockID))
	})
}

// IsFinalized reports whether blockID has been marked finalized.
func (s *Store) IsFinalized(blockID uint64) (bool, error) {
	var finalized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		finalized = tx.Bucket(bucketMeta).Get(finalizedKey(blockID)) != nil
		return nil
	})
	return finalized, err
}

// LoadWorldState returns the last persisted serialized world-state blob,
// or ErrNotFound if none has been written yet (the genesis/bootstrap
// case).
func (s *Store) LoadWorldState() ([]byte, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketState).Get(stateKeyNSSAState)
		if v == nil {
			return nil
		}
		raw = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	return raw, nil
}
