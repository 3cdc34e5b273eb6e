package rpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/nssa-network/sequencer/internal/zkp"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// Client is a Submit API client: one connection, requests answered
// strictly in order. Not safe for concurrent use by multiple goroutines;
// callers needing concurrency should pool Clients.
type Client struct {
	conn net.Conn
}

// Dial opens a Submit API connection to addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultDialTimeout)
		defer cancel()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) roundTrip(opcode Opcode, payload []byte) (Status, []byte, error) {
	if err := writeFrame(c.conn, frame{Version: ProtocolVersion, Opcode: opcode, Payload: payload}); err != nil {
		return 0, nil, err
	}
	resp, err := readFrame(c.conn)
	if err != nil {
		return 0, nil, err
	}
	if resp.Opcode != opcode {
		return 0, nil, fmt.Errorf("rpc: response opcode %d does not match request opcode %d", resp.Opcode, opcode)
	}
	if len(resp.Payload) < 1 {
		return 0, nil, ErrTruncatedFrame
	}
	status := Status(resp.Payload[0])
	body := resp.Payload[1:]
	if status != StatusOK {
		reason, err := decodeErrorResponse(body)
		if err != nil {
			return status, nil, err
		}
		return status, nil, fmt.Errorf("rpc: %s", reason)
	}
	return status, body, nil
}

// Submit sends tx to the sequencer's mempool.
func (c *Client) Submit(tx *types.Transaction) (SubmitResponse, error) {
	_, body, err := c.roundTrip(OpSubmit, encodeSubmitRequest(SubmitRequest{Transaction: tx}))
	if err != nil {
		return SubmitResponse{}, err
	}
	return decodeSubmitResponse(body)
}

// GetAccount fetches the current value of account id.
func (c *Client) GetAccount(id primitives.AccountId) (account.Account, error) {
	_, body, err := c.roundTrip(OpGetAccount, encodeGetAccountRequest(GetAccountRequest{AccountID: id}))
	if err != nil {
		return account.Account{}, err
	}
	r, err := decodeGetAccountResponse(body)
	return r.Account, err
}

// GetAccountsNonces fetches the current nonces of ids, in order.
func (c *Client) GetAccountsNonces(ids []primitives.AccountId) ([]uint64, error) {
	_, body, err := c.roundTrip(OpGetAccountsNonces, encodeGetAccountsNoncesRequest(GetAccountsNoncesRequest{AccountIDs: ids}))
	if err != nil {
		return nil, err
	}
	r, err := decodeGetAccountsNoncesResponse(body)
	return r.Nonces, err
}

// GetTransaction fetches a previously-included transaction by hash.
func (c *Client) GetTransaction(hash primitives.Hash) (*types.Transaction, uint64, error) {
	_, body, err := c.roundTrip(OpGetTransaction, encodeGetTransactionRequest(GetTransactionRequest{Hash: hash}))
	if err != nil {
		return nil, 0, err
	}
	r, err := decodeGetTransactionResponse(body)
	return r.Transaction, r.BlockID, err
}

// GetBlock fetches the block stored at blockID.
func (c *Client) GetBlock(blockID uint64) (*types.Block, error) {
	_, body, err := c.roundTrip(OpGetBlock, encodeGetBlockRequest(GetBlockRequest{BlockID: blockID}))
	if err != nil {
		return nil, err
	}
	r, err := decodeGetBlockResponse(body)
	return r.Block, err
}

// GetLastBlock fetches the most recently produced block.
func (c *Client) GetLastBlock() (*types.Block, error) {
	_, body, err := c.roundTrip(OpGetLastBlock, nil)
	if err != nil {
		return nil, err
	}
	r, err := decodeGetBlockResponse(body)
	return r.Block, err
}

// GetProofForCommitment fetches the accumulator membership proof for the
// commitment at position. Returns (nil, nil) if none exists there.
func (c *Client) GetProofForCommitment(position uint64) (*zkp.MembershipProof, error) {
	_, body, err := c.roundTrip(OpGetProofForCommitment, encodeGetProofForCommitmentRequest(GetProofForCommitmentRequest{Position: position}))
	if err != nil {
		return nil, err
	}
	r, err := decodeGetProofForCommitmentResponse(body)
	if err != nil {
		return nil, err
	}
	if !r.Found {
		return nil, nil
	}
	return &zkp.MembershipProof{Siblings: r.Siblings, LeafPosition: r.Position}, nil
}

// DefaultDialTimeout bounds how long Dial waits to establish a
// connection when the caller's context carries no deadline.
const DefaultDialTimeout = 5 * time.Second
