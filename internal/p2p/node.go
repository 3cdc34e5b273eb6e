package p2p

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/multiformats/go-multiaddr"

	"github.com/nssa-network/sequencer/pkg/types"
)

// BlockTopic is the GossipSub topic block announcements are published
// on.
const BlockTopic = "nssa/blocks"

// Node is a publish-only libp2p participant: it joins BlockTopic and
// announces every block the sequencer persists. It does not dial peers
// for chain sync or consensus (spec §1 Non-goals: single trusted
// sequencer, no multi-sequencer consensus protocol).
type Node struct {
	mu sync.RWMutex

	host   host.Host
	pubsub *pubsub.PubSub

	blockTopic *pubsub.Topic

	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds P2P publisher configuration.
type Config struct {
	ListenAddrs []string
	PrivateKey  crypto.PrivKey
}

// DefaultConfig returns a default publisher configuration.
func DefaultConfig() *Config {
	return &Config{ListenAddrs: []string{"/ip4/0.0.0.0/tcp/9000"}}
}

// NewNode creates a publisher node: a libp2p host with a GossipSub
// instance joined to BlockTopic.
func NewNode(ctx context.Context, cfg *Config) (*Node, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	nodeCtx, cancel := context.WithCancel(ctx)

	privKey := cfg.PrivateKey
	if privKey == nil {
		var err error
		privKey, _, err = crypto.GenerateKeyPairWithReader(crypto.Ed25519, -1, rand.Reader)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
	}

	listenAddrs := make([]multiaddr.Multiaddr, len(cfg.ListenAddrs))
	for i, addr := range cfg.ListenAddrs {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("invalid listen address: %w", err)
		}
		listenAddrs[i] = ma
	}

	h, err := libp2p.New(
		libp2p.Identity(privKey),
		libp2p.ListenAddrs(listenAddrs...),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(nodeCtx, h)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("failed to create pubsub: %w", err)
	}

	blockTopic, err := ps.Join(BlockTopic)
	if err != nil {
		h.Close()
		cancel()
		return nil, fmt.Errorf("failed to join block topic: %w", err)
	}

	return &Node{
		host:       h,
		pubsub:     ps,
		blockTopic: blockTopic,
		ctx:        nodeCtx,
		cancel:     cancel,
	}, nil
}

// AnnounceBlock publishes block to BlockTopic, notifying any connected
// indexer/explorer subscribers of its inclusion.
func (n *Node) AnnounceBlock(block *types.Block) error {
	data := EncodeBlockAnnouncement(&BlockAnnouncement{Block: block})
	return n.blockTopic.Publish(n.ctx, data)
}

// ID returns the node's peer ID.
func (n *Node) ID() peer.ID {
	return n.host.ID()
}

// Addrs returns the node's listen addresses.
func (n *Node) Addrs() []multiaddr.Multiaddr {
	return n.host.Addrs()
}

// Close shuts the node down.
func (n *Node) Close() error {
	n.cancel()
	if n.blockTopic != nil {
		n.blockTopic.Close()
	}
	return n.host.Close()
}
