package sequencer

import (
	"context"

	"github.com/nssa-network/sequencer/internal/storage"
	"github.com/nssa-network/sequencer/internal/zkp"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// SubmitTransaction admits tx into the mempool, to be picked up by a
// future ProduceBlock call.
func (c *Core) SubmitTransaction(tx *types.Transaction) error {
	return c.mempool.Add(tx)
}

// GetAccount returns the current value of account id.
func (c *Core) GetAccount(id primitives.AccountId) account.Account {
	return c.state.GetAccount(id)
}

// GetAccountsNonces returns the current nonce of each account in ids, in
// order.
func (c *Core) GetAccountsNonces(ids []primitives.AccountId) []uint64 {
	return c.state.AccountsNonces(ids)
}

// GetBlock returns the block stored at blockID.
func (c *Core) GetBlock(blockID uint64) (*types.Block, error) {
	return c.store.GetBlock(blockID)
}

// GetLastBlock returns the most recently produced block, or
// storage.ErrNotFound if none has been produced yet.
func (c *Core) GetLastBlock() (*types.Block, error) {
	id, ok, err := c.store.LastBlockID()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}
	return c.store.GetBlock(id)
}

// GetTransaction scans stored blocks from the tip backward for a
// transaction with the given hash. The sequencer keeps no separate
// transaction index (spec §1 Non-goals: no explorer-grade indexing —
// that is the indexer's job); this is a best-effort lookup for recently
// produced blocks.
func (c *Core) GetTransaction(hash primitives.Hash) (*types.Transaction, uint64, error) {
	last, ok, err := c.store.LastBlockID()
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, storage.ErrNotFound
	}
	first, _, err := c.store.FirstBlockID()
	if err != nil {
		return nil, 0, err
	}

	for id := last; id >= first; id-- {
		block, err := c.store.GetBlock(id)
		if err != nil {
			return nil, 0, err
		}
		for _, tx := range block.Transactions {
			if tx.Hash() == hash {
				return tx, id, nil
			}
		}
		if id == first {
			break
		}
	}
	return nil, 0, storage.ErrNotFound
}

// GetProofForCommitment returns the accumulator membership proof for the
// commitment inserted at position.
func (c *Core) GetProofForCommitment(ctx context.Context, position uint64) (*zkp.MembershipProof, error) {
	return c.state.MembershipProof(ctx, position)
}

// Root returns the commitment accumulator's current digest.
func (c *Core) Root() primitives.CommitmentSetDigest {
	return c.state.Root()
}

// FinalizeBlock marks blockID finalized. Finalized blocks are retained,
// never deleted (spec §6).
func (c *Core) FinalizeBlock(blockID uint64) error {
	return c.store.Finalize(blockID)
}

// ChainHeight returns the id of the last produced block.
func (c *Core) ChainHeight() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chainHeight
}

// Close releases the store and, if configured, the p2p node.
func (c *Core) Close() error {
	if c.p2pNode != nil {
		_ = c.p2pNode.Close()
	}
	return c.store.Close()
}
