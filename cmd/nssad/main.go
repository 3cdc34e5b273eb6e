// nssad is the sequencer daemon entry point.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nssa-network/sequencer/internal/indexer"
	"github.com/nssa-network/sequencer/internal/p2p"
	"github.com/nssa-network/sequencer/internal/rpc"
	"github.com/nssa-network/sequencer/internal/sequencer"
	"github.com/nssa-network/sequencer/internal/settlement"
)

const (
	version = "0.1.0"
	banner  = `
  NSSA Sequencer Daemon v%s
  Single trusted sequencer for the privacy-preserving account rollup
`
)

type flags struct {
	home            string
	configFile      string
	port            int
	p2pListen       string
	indexerHost     string
	indexerPort     int
	indexerUser     string
	indexerPassword string
	indexerDatabase string
	blockIntervalMs int
	enableIndexer   bool
	enableP2P       bool
}

func main() {
	f := parseFlags()
	fmt.Printf(banner, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.home, "home", "./nssa-home", "sequencer home directory (signing key, block store)")
	flag.StringVar(&f.configFile, "config", "", "path to a JSON sequencer config file (overrides defaults; -home, -port and -block-interval-ms always replace its values)")
	flag.IntVar(&f.port, "port", 9000, "RPC submit-API port")
	flag.StringVar(&f.p2pListen, "p2p-listen", "/ip4/0.0.0.0/tcp/9001", "P2P listen multiaddr for block announcements")
	flag.BoolVar(&f.enableP2P, "enable-p2p", true, "publish block announcements over libp2p GossipSub")
	flag.BoolVar(&f.enableIndexer, "enable-indexer", false, "notify a Postgres-backed indexer of block inclusion")
	flag.StringVar(&f.indexerHost, "indexer-host", "localhost", "indexer Postgres host")
	flag.IntVar(&f.indexerPort, "indexer-port", 5432, "indexer Postgres port")
	flag.StringVar(&f.indexerUser, "indexer-user", "nssa", "indexer Postgres user")
	flag.StringVar(&f.indexerPassword, "indexer-password", "", "indexer Postgres password")
	flag.StringVar(&f.indexerDatabase, "indexer-database", "nssa_indexer", "indexer Postgres database")
	flag.IntVar(&f.blockIntervalMs, "block-interval-ms", 2000, "interval between block-production attempts")
	flag.Parse()
	return f
}

func run(ctx context.Context, f *flags) error {
	fmt.Println("Loading sequencer configuration...")

	var cfg *sequencer.Config
	if f.configFile != "" {
		loaded, err := sequencer.LoadConfigFile(f.configFile)
		if err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
		cfg = loaded
	} else {
		cfg = sequencer.DefaultConfig()
	}
	cfg.Home = f.home
	cfg.Port = f.port
	cfg.BlockCreateTimeoutMs = f.blockIntervalMs

	if err := os.MkdirAll(cfg.Home, 0o755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}

	var indexerClient indexer.Client
	if f.enableIndexer {
		fmt.Println("Connecting to indexer database...")
		client, err := indexer.NewPostgresClient(ctx, &indexer.Config{
			Host:     f.indexerHost,
			Port:     f.indexerPort,
			User:     f.indexerUser,
			Password: f.indexerPassword,
			Database: f.indexerDatabase,
			SSLMode:  "disable",
			MaxConns: 10,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to indexer database: %w", err)
		}
		defer client.Close()
		indexerClient = client
		fmt.Println("Indexer connected.")
	}

	var p2pNode *p2p.Node
	if f.enableP2P {
		fmt.Println("Starting P2P block-announcement node...")
		node, err := p2p.NewNode(ctx, &p2p.Config{ListenAddrs: []string{f.p2pListen}})
		if err != nil {
			return fmt.Errorf("failed to start p2p node: %w", err)
		}
		defer node.Close()
		p2pNode = node
		fmt.Printf("P2P node started. Peer id: %s\n", node.ID())
	}

	fmt.Println("Initializing sequencer core...")
	settlementClient := settlement.NewMockClient()
	core, err := sequencer.New(cfg, settlementClient, indexerClient, p2pNode)
	if err != nil {
		return fmt.Errorf("failed to initialize sequencer core: %w", err)
	}
	defer core.Close()
	fmt.Printf("Sequencer core ready. Chain height: %d\n", core.ChainHeight())

	rpcServer, err := rpc.Listen(fmt.Sprintf(":%d", cfg.Port), core)
	if err != nil {
		return fmt.Errorf("failed to start Submit API server: %w", err)
	}
	defer rpcServer.Close()
	go func() {
		if err := rpcServer.Serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Submit API server stopped: %v\n", err)
		}
	}()
	fmt.Printf("Submit API listening on %s\n", rpcServer.Addr())

	fmt.Println("Sequencer started successfully!")
	fmt.Println("Press Ctrl+C to stop.")

	ticker := time.NewTicker(time.Duration(cfg.BlockCreateTimeoutMs) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Sequencer stopped.")
			return nil
		case <-ticker.C:
			block, err := core.ProduceBlock(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "block production failed: %v\n", err)
				continue
			}
			if block != nil {
				fmt.Printf("produced block %d with %d transactions\n", block.Header.BlockID, len(block.Transactions))
			}
		}
	}
}
