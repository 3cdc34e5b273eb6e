// Package indexer implements the sequencer's indexer-client boundary
// (spec §6 "indexer_client"): a Postgres-backed sink that receives
// block-inclusion notifications so external indexers/explorers (out of
// core scope per spec §1 Non-goals) can be built against it.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nssa-network/sequencer/pkg/types"
)

// ErrConnection wraps Postgres connection failures.
var ErrConnection = errors.New("indexer: database connection error")

// Client is the indexer-client interface the sequencer notifies after
// every persisted block (one of spec §5's four suspension points).
type Client interface {
	NotifyBlock(ctx context.Context, block *types.Block) error
	Close()
}

// Config holds the indexer sink's Postgres connection parameters.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DefaultConfig returns a conservative local-development configuration.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		User:     "nssa",
		Database: "nssa_indexer",
		SSLMode:  "disable",
		MaxConns: 10,
	}
}

// PostgresClient notifies a Postgres-backed indexer database of every
// block the sequencer persists, so external readers can query inclusion
// history without touching the sequencer's own bbolt store.
type PostgresClient struct {
	pool *pgxpool.Pool
}

// NewPostgresClient opens a pool against cfg and ensures the blocks
// table exists.
func NewPostgresClient(ctx context.Context, cfg *Config) (*PostgresClient, error) {
	connString := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode, cfg.MaxConns,
	)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	c := &PostgresClient{pool: pool}
	if err := c.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func (c *PostgresClient) ensureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS indexed_blocks (
			block_id BIGINT PRIMARY KEY,
			body_hash BYTEA NOT NULL,
			timestamp_ms BIGINT NOT NULL,
			tx_count INTEGER NOT NULL
		)
	`)
	return err
}

// NotifyBlock records block's inclusion in the indexer database,
// idempotently under concurrent restarts.
func (c *PostgresClient) NotifyBlock(ctx context.Context, block *types.Block) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO indexed_blocks (block_id, body_hash, timestamp_ms, tx_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (block_id) DO NOTHING
	`,
		block.Header.BlockID,
		block.Header.BodyHash.Bytes(),
		block.Header.TimestampMs,
		len(block.Transactions),
	)
	return err
}

// Close releases the connection pool.
func (c *PostgresClient) Close() {
	c.pool.Close()
}

var _ Client = (*PostgresClient)(nil)
