// nssa-cli is a debug client for the sequencer's Submit API.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/nssa-network/sequencer/internal/rpc"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	addr := os.Getenv("NSSA_RPC_ADDR")
	if addr == "" {
		addr = "127.0.0.1:9000"
	}

	command := os.Args[1]
	var err error
	switch command {
	case "version":
		fmt.Printf("nssa-cli v%s\n", version)
		return
	case "help":
		printUsage()
		return
	case "account":
		err = cmdAccount(addr, os.Args[2:])
	case "nonces":
		err = cmdNonces(addr, os.Args[2:])
	case "block":
		err = cmdBlock(addr, os.Args[2:])
	case "last-block":
		err = cmdLastBlock(addr)
	case "tx":
		err = cmdTransaction(addr, os.Args[2:])
	case "proof":
		err = cmdProof(addr, os.Args[2:])
	case "submit":
		err = cmdSubmit(addr, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("nssa-cli - debug client for the sequencer's Submit API")
	fmt.Println()
	fmt.Println("Usage: nssa-cli <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  version               Show version information")
	fmt.Println("  help                  Show this help message")
	fmt.Println("  account <id-hex>      Fetch an account by hex-encoded id")
	fmt.Println("  nonces <id-hex>...    Fetch one or more accounts' nonces")
	fmt.Println("  block <id>            Fetch the block at a given id")
	fmt.Println("  last-block            Fetch the most recently produced block")
	fmt.Println("  tx <hash-hex>         Fetch a transaction by hex-encoded hash")
	fmt.Println("  proof <position>      Fetch an accumulator membership proof")
	fmt.Println("  submit <tx-hex>       Submit a hex-encoded, canonically-encoded transaction")
	fmt.Println()
	fmt.Println("Connects to NSSA_RPC_ADDR (default 127.0.0.1:9000).")
}

func dial(addr string) (*rpc.Client, error) {
	return rpc.Dial(context.Background(), addr)
}

func parseHash(label, s string) (primitives.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return primitives.Hash{}, fmt.Errorf("%s must be 32 hex-encoded bytes", label)
	}
	return primitives.HashFromBytes(b), nil
}

func parseAccountID(s string) (primitives.AccountId, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return primitives.AccountId{}, fmt.Errorf("account id must be 32 hex-encoded bytes")
	}
	return primitives.AccountIdFromBytes(b), nil
}

func cmdAccount(addr string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nssa-cli account <id-hex>")
	}
	id, err := parseAccountID(args[0])
	if err != nil {
		return err
	}
	cli, err := dial(addr)
	if err != nil {
		return err
	}
	defer cli.Close()

	acc, err := cli.GetAccount(id)
	if err != nil {
		return err
	}
	fmt.Printf("program_owner: %s\n", acc.ProgramOwner)
	fmt.Printf("balance:       %s\n", acc.Balance.BigInt())
	fmt.Printf("nonce:         %d\n", acc.Nonce)
	fmt.Printf("data_len:      %d\n", len(acc.Data))
	return nil
}

func cmdNonces(addr string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: nssa-cli nonces <id-hex>...")
	}
	ids := make([]primitives.AccountId, 0, len(args))
	for _, a := range args {
		id, err := parseAccountID(a)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	cli, err := dial(addr)
	if err != nil {
		return err
	}
	defer cli.Close()

	nonces, err := cli.GetAccountsNonces(ids)
	if err != nil {
		return err
	}
	for i, n := range nonces {
		fmt.Printf("%s: %d\n", args[i], n)
	}
	return nil
}

func cmdBlock(addr string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nssa-cli block <id>")
	}
	var id uint64
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		return fmt.Errorf("invalid block id: %w", err)
	}
	cli, err := dial(addr)
	if err != nil {
		return err
	}
	defer cli.Close()

	block, err := cli.GetBlock(id)
	if err != nil {
		return err
	}
	printBlock(block)
	return nil
}

func cmdLastBlock(addr string) error {
	cli, err := dial(addr)
	if err != nil {
		return err
	}
	defer cli.Close()

	block, err := cli.GetLastBlock()
	if err != nil {
		return err
	}
	printBlock(block)
	return nil
}

func printBlock(block *types.Block) {
	fmt.Printf("block_id:        %d\n", block.Header.BlockID)
	fmt.Printf("prev_block_hash: %s\n", block.Header.PrevBlockHash)
	fmt.Printf("timestamp_ms:    %d\n", block.Header.TimestampMs)
	fmt.Printf("body_hash:       %s\n", block.Header.BodyHash)
	fmt.Printf("num_tx:          %d\n", len(block.Transactions))
}

func cmdTransaction(addr string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nssa-cli tx <hash-hex>")
	}
	hash, err := parseHash("transaction hash", args[0])
	if err != nil {
		return err
	}
	cli, err := dial(addr)
	if err != nil {
		return err
	}
	defer cli.Close()

	tx, blockID, err := cli.GetTransaction(hash)
	if err != nil {
		return err
	}
	fmt.Printf("kind:     %d\n", tx.Kind)
	fmt.Printf("block_id: %d\n", blockID)
	return nil
}

func cmdProof(addr string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nssa-cli proof <position>")
	}
	var position uint64
	if _, err := fmt.Sscanf(args[0], "%d", &position); err != nil {
		return fmt.Errorf("invalid position: %w", err)
	}
	cli, err := dial(addr)
	if err != nil {
		return err
	}
	defer cli.Close()

	proof, err := cli.GetProofForCommitment(position)
	if err != nil {
		return err
	}
	if proof == nil {
		fmt.Println("no commitment at that position")
		return nil
	}
	fmt.Printf("leaf_position: %d\n", proof.LeafPosition)
	fmt.Printf("siblings:      %d\n", len(proof.Siblings))
	return nil
}

func cmdSubmit(addr string, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: nssa-cli submit <tx-hex>")
	}
	raw, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("invalid hex transaction: %w", err)
	}
	tx, err := types.DecodeTransaction(raw)
	if err != nil {
		return fmt.Errorf("invalid transaction encoding: %w", err)
	}
	cli, err := dial(addr)
	if err != nil {
		return err
	}
	defer cli.Close()

	resp, err := cli.Submit(tx)
	if err != nil {
		return err
	}
	if resp.Accepted {
		fmt.Println("accepted")
	} else {
		fmt.Printf("rejected: %s\n", resp.Reason)
	}
	return nil
}
