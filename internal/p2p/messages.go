// Package p2p implements the sequencer's block-inclusion announcement
// publisher: a libp2p GossipSub topic that downstream indexers/explorers
// subscribe to (spec §5, one of the four suspension points: "indexer
// notifications"). No multi-sequencer consensus or chain-sync protocol
// is implemented here (spec §1 Non-goals: single trusted sequencer).
package p2p

import (
	"encoding/binary"
	"errors"

	"github.com/nssa-network/sequencer/pkg/types"
)

// MaxMessageSize bounds a decoded announcement's body.
const MaxMessageSize = 32 * 1024 * 1024

// ErrMessageTooLarge is returned when a decoded announcement would
// exceed MaxMessageSize.
var ErrMessageTooLarge = errors.New("p2p: announcement too large")

// ErrTruncatedMessage is returned when an announcement's bytes are
// shorter than its own length prefix promises.
var ErrTruncatedMessage = errors.New("p2p: truncated announcement")

// BlockAnnouncement is the payload published to BlockTopic whenever the
// sequencer persists a new block.
type BlockAnnouncement struct {
	Block *types.Block
}

// EncodeBlockAnnouncement serializes ann using the block's own canonical
// wire encoding (pkg/types), so subscribers decode it with
// types.DecodeHeader/types.DecodeBody exactly as the sequencer's RPC
// surface does.
func EncodeBlockAnnouncement(ann *BlockAnnouncement) []byte {
	body := ann.Block.Encode()
	buf := make([]byte, 0, 4+len(body))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(body)))
	buf = append(buf, body...)
	return buf
}

// DecodeBlockAnnouncement parses bytes produced by
// EncodeBlockAnnouncement.
func DecodeBlockAnnouncement(b []byte) (*BlockAnnouncement, error) {
	if len(b) < 4 {
		return nil, ErrTruncatedMessage
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	if uint64(n) > MaxMessageSize {
		return nil, ErrMessageTooLarge
	}
	if uint64(len(b)-4) < uint64(n) {
		return nil, ErrTruncatedMessage
	}
	body := b[4 : 4+n]

	const headerLen = 8 + 32 + 8 + 32 + types.SignatureSize
	if len(body) < headerLen {
		return nil, ErrTruncatedMessage
	}
	header, err := types.DecodeHeader(body)
	if err != nil {
		return nil, err
	}
	txs, err := types.DecodeBody(body[headerLen:])
	if err != nil {
		return nil, err
	}
	return &BlockAnnouncement{Block: types.NewBlock(header, txs, types.MsgID{})}, nil
}
