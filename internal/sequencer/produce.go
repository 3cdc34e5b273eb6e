package sequencer

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/nssa-network/sequencer/internal/settlement"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// timeSource returns the current wall-clock time in milliseconds since
// the Unix epoch. It is a var, not a direct time.Now() call, so tests can
// stub a deterministic clock.
var timeSource = defaultTimeSource

// ProduceBlock drains up to cfg.MaxNumTxInBlock transactions from the
// mempool, applies each to the world state (dropping, with a warning log,
// any that fail, and silently skipping any that duplicate a hash already
// included in this same pass, per the original's replay-rejection
// semantics), signs the resulting block,
// and persists it atomically with the post-execution world-state
// snapshot. It never blocks on settlement-layer submission: that happens
// asynchronously after the block is durable.
//
// Returns (nil, nil) if the mempool was empty.
func (c *Core) ProduceBlock(ctx context.Context) (*types.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidates := c.mempool.SelectForBlock(c.cfg.MaxNumTxInBlock)
	if len(candidates) == 0 {
		return nil, nil
	}

	nextID := c.chainHeight + 1
	seen := make(map[primitives.Hash]bool, len(candidates))
	included := make([]*types.Transaction, 0, len(candidates))

	for _, tx := range candidates {
		hash := tx.Hash()
		if seen[hash] {
			continue
		}
		if err := c.state.ApplyTransaction(ctx, tx, hash, nextID); err != nil {
			c.log.Warnf("dropping transaction %s from block %d: %v", hash, nextID, err)
			continue
		}
		seen[hash] = true
		included = append(included, tx)
	}

	prevHash, prevMsgID, hasPrev, err := c.store.LastBlockMeta()
	if err != nil {
		return nil, fmt.Errorf("sequencer: read last block meta: %w", err)
	}
	var prevBlockHash primitives.Hash
	var settlementParent types.MsgID
	if hasPrev {
		prevBlockHash = prevHash
		settlementParent = prevMsgID
	}

	block := &types.Block{
		Transactions:     included,
		SettlementParent: settlementParent,
	}
	block.Header = types.BlockHeader{
		BlockID:       nextID,
		PrevBlockHash: prevBlockHash,
		TimestampMs:   timeSource(),
		BodyHash:      block.BodyHash(),
	}
	copy(block.Header.SequencerSig[:], ed25519.Sign(c.signingKey, block.Header.Encode()[:8+32+8+32]))

	inscribeTx, msgID, err := c.settlementClient.CreateInscribeTx(block)
	if err != nil {
		return nil, fmt.Errorf("sequencer: create inscribe tx: %w", err)
	}
	block.SettlementMsgID = msgID

	if err := c.store.PutBlockAndState(block, c.state.Snapshot()); err != nil {
		return nil, fmt.Errorf("sequencer: persist block: %w", err)
	}
	c.chainHeight = nextID
	c.mempool.RemoveConfirmed(included)

	go c.notifyDownstream(block, inscribeTx)

	return block, nil
}

// notifyDownstream submits the block's already-constructed inscribe
// transaction to the settlement layer with retry, notifies the indexer,
// and announces the block over p2p. None of these block production:
// failures are logged, not propagated.
func (c *Core) notifyDownstream(block *types.Block, inscribeTx settlement.InscribeTx) {
	ctx := context.Background()
	if err := c.submitter.Submit(ctx, inscribeTx); err != nil {
		c.log.Errorf("settlement submission for block %d abandoned: %v", block.Header.BlockID, err)
	}

	if c.indexerClient != nil {
		if err := c.indexerClient.NotifyBlock(ctx, block); err != nil {
			c.log.Errorf("indexer notification for block %d failed: %v", block.Header.BlockID, err)
		}
	}

	if c.p2pNode != nil {
		if err := c.p2pNode.AnnounceBlock(block); err != nil {
			c.log.Errorf("p2p announcement for block %d failed: %v", block.Header.BlockID, err)
		}
	}
}
