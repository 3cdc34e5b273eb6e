// Package types defines the on-wire block and transaction structures
// exchanged between the sequencer, its block store and the settlement
// layer.
package types

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

// SignatureSize is the width, in bytes, of a sequencer block signature.
const SignatureSize = 64

// MsgIDSize is the width, in bytes, of a settlement-layer message id.
const MsgIDSize = 32

var (
	ErrTruncatedHeader  = errors.New("truncated block header")
	ErrTruncatedBody    = errors.New("truncated block body")
	ErrTruncatedMessage = errors.New("truncated length-prefixed message")
)

// Signature is a sequencer signature over a block header.
type Signature [SignatureSize]byte

// MsgID is the settlement layer's 32-byte opaque message identifier. Block
// headers chain through it alongside prev_block_hash, forming a parallel
// parent chain rooted in the settlement layer.
type MsgID [MsgIDSize]byte

func (m MsgID) Bytes() []byte { return m[:] }

// BlockHeader is the sequencer's per-block header: a single previous-block
// pointer (not a DAG of parents), a body hash, and a sequencer signature.
// `block_id` is strictly monotonic by 1 starting from a genesis id.
type BlockHeader struct {
	BlockID       uint64
	PrevBlockHash primitives.Hash
	TimestampMs   uint64
	BodyHash      primitives.Hash
	SequencerSig  Signature
}

// Block is a header, its transaction body, and two settlement-layer
// pointers: SettlementParent is the msg_id the previous block was
// assigned when it was inscribed, and SettlementMsgID is the msg_id this
// block itself is assigned when its own inscribe transaction is
// constructed. Neither is part of the hashed header: the settlement
// layer only assigns a msg_id once the header has already been signed,
// so both travel as sidecar metadata alongside the block.
type Block struct {
	Header           BlockHeader
	Transactions     []*Transaction
	SettlementParent MsgID
	SettlementMsgID  MsgID
}

// NewBlock assembles a block from an already-signed header and its body.
// SettlementMsgID is left zero; set it once the settlement client has
// returned this block's own msg_id.
func NewBlock(header BlockHeader, txs []*Transaction, settlementParent MsgID) *Block {
	return &Block{
		Header:           header,
		Transactions:     txs,
		SettlementParent: settlementParent,
	}
}

// Encode produces the canonical on-wire header encoding:
// block_id: u64 LE | prev_block_hash: 32B | timestamp_ms: u64 LE | body_hash: 32B | sequencer_sig: 64B.
func (h BlockHeader) Encode() []byte {
	buf := make([]byte, 0, 8+32+8+32+SignatureSize)
	buf = primitives.PutUint64LE(buf, h.BlockID)
	buf = append(buf, h.PrevBlockHash.Bytes()...)
	buf = primitives.PutUint64LE(buf, h.TimestampMs)
	buf = append(buf, h.BodyHash.Bytes()...)
	buf = append(buf, h.SequencerSig[:]...)
	return buf
}

// DecodeHeader parses a header encoded by Encode.
func DecodeHeader(b []byte) (BlockHeader, error) {
	const headerLen = 8 + 32 + 8 + 32 + SignatureSize
	if len(b) < headerLen {
		return BlockHeader{}, ErrTruncatedHeader
	}
	var h BlockHeader
	h.BlockID = binary.LittleEndian.Uint64(b[0:8])
	h.PrevBlockHash = primitives.HashFromBytes(b[8:40])
	h.TimestampMs = binary.LittleEndian.Uint64(b[40:48])
	h.BodyHash = primitives.HashFromBytes(b[48:80])
	copy(h.SequencerSig[:], b[80:80+SignatureSize])
	return h, nil
}

// Hash returns the collision-resistant hash of the header, the value the
// next block's PrevBlockHash must equal.
func (h BlockHeader) Hash() primitives.Hash {
	return sha256.Sum256(h.Encode())
}

// IsGenesis reports whether h is the first block of the chain: its
// prev_block_hash is the all-zero hash and its block_id is the configured
// genesis id.
func (h BlockHeader) IsGenesis(genesisID uint64) bool {
	return h.BlockID == genesisID && h.PrevBlockHash.IsZero()
}

// EncodeBody produces the canonical on-wire body encoding: n: u32 LE
// followed by n length-prefixed transactions.
func (b *Block) EncodeBody() []byte {
	buf := make([]byte, 0, 4)
	buf = primitives.PutUint32LE(buf, uint32(len(b.Transactions)))
	for _, tx := range b.Transactions {
		encoded := tx.Encode()
		buf = primitives.PutUint32LE(buf, uint32(len(encoded)))
		buf = append(buf, encoded...)
	}
	return buf
}

// BodyHash hashes the canonical body encoding, the value stored in the
// header's BodyHash field.
func (b *Block) BodyHash() primitives.Hash {
	return sha256.Sum256(b.EncodeBody())
}

// DecodeBody parses a body encoded by EncodeBody.
func DecodeBody(b []byte) ([]*Transaction, error) {
	if len(b) < 4 {
		return nil, ErrTruncatedBody
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	rest := b[4:]

	txs := make([]*Transaction, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(rest) < 4 {
			return nil, ErrTruncatedBody
		}
		l := binary.LittleEndian.Uint32(rest[0:4])
		rest = rest[4:]
		if uint64(len(rest)) < uint64(l) {
			return nil, ErrTruncatedBody
		}
		tx, err := DecodeTransaction(rest[:l])
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
		rest = rest[l:]
	}
	return txs, nil
}

// Encode produces the full on-wire block encoding: header followed by body.
// This is the form exchanged over P2P and signed against indirectly via
// BodyHash; it carries no settlement-layer metadata.
func (b *Block) Encode() []byte {
	buf := b.Header.Encode()
	buf = append(buf, b.EncodeBody()...)
	return buf
}

// EncodeForStorage produces the persisted block encoding: Encode's
// header+body followed by the settlement parent and this block's own
// settlement msg id (spec §6: the store must be able to answer
// `store.get(B.block_id - 1).settlement_msg_id` for every stored block).
func (b *Block) EncodeForStorage() []byte {
	buf := b.Encode()
	buf = append(buf, b.SettlementParent.Bytes()...)
	buf = append(buf, b.SettlementMsgID.Bytes()...)
	return buf
}

// DecodeBlockFromStorage parses a block encoded by EncodeForStorage.
func DecodeBlockFromStorage(b []byte) (*Block, error) {
	header, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}
	const headerLen = 8 + 32 + 8 + 32 + SignatureSize
	if len(b) < headerLen+MsgIDSize*2 {
		return nil, ErrTruncatedBody
	}
	bodyEnd := len(b) - MsgIDSize*2
	txs, err := DecodeBody(b[headerLen:bodyEnd])
	if err != nil {
		return nil, err
	}

	var parent, msgID MsgID
	copy(parent[:], b[bodyEnd:bodyEnd+MsgIDSize])
	copy(msgID[:], b[bodyEnd+MsgIDSize:])

	blk := NewBlock(header, txs, parent)
	blk.SettlementMsgID = msgID
	return blk, nil
}
