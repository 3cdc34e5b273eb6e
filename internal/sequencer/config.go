package sequencer

import (
	"encoding/json"
	"os"

	"github.com/nssa-network/sequencer/pkg/primitives"
)

// InitialAccount seeds a public account at genesis.
type InitialAccount struct {
	AccountID primitives.AccountId `json:"account_id"`
	Balance   uint64               `json:"balance"`
}

// InitialCommitment seeds a private account's commitment at genesis,
// pre-claimed into the native authenticated-transfer program exactly as
// the original's `start_from_config` does.
type InitialCommitment struct {
	NPK     primitives.NullifierPublicKey `json:"npk"`
	Balance uint64                        `json:"balance"`
	Data    []byte                        `json:"data,omitempty"`
}

// SettlementConfig mirrors spec §6's `settlement` configuration block.
type SettlementConfig struct {
	StartDelayMs int    `json:"start_delay_ms"`
	MaxRetries   int    `json:"max_retries"`
	ChannelID    string `json:"channel_id"`
	NodeURL      string `json:"node_url"`
	Auth         string `json:"auth,omitempty"`
}

// Config is the sequencer's top-level configuration, matching spec §6's
// Configuration section field-for-field.
type Config struct {
	Home                        string              `json:"home"`
	GenesisID                   uint64              `json:"genesis_id"`
	MaxNumTxInBlock             int                 `json:"max_num_tx_in_block"`
	MempoolMaxSize              int                 `json:"mempool_max_size"`
	BlockCreateTimeoutMs        int                 `json:"block_create_timeout_ms"`
	Port                        int                 `json:"port"`
	InitialAccounts             []InitialAccount    `json:"initial_accounts"`
	InitialCommitments          []InitialCommitment `json:"initial_commitments"`
	SigningKey                  [32]byte            `json:"signing_key"`
	Settlement                  SettlementConfig    `json:"settlement"`
	RetryPendingBlocksTimeoutMs int                 `json:"retry_pending_blocks_timeout_ms"`
	IndexerRPCURL               string              `json:"indexer_rpc_url"`
	PrivacyCircuitAccounts      int                 `json:"privacy_circuit_accounts"`
}

// DefaultConfig returns a development-friendly configuration.
func DefaultConfig() *Config {
	return &Config{
		Home:                        "./nssa-home",
		GenesisID:                   1,
		MaxNumTxInBlock:             1000,
		MempoolMaxSize:              10000,
		BlockCreateTimeoutMs:        2000,
		Port:                        9000,
		Settlement:                  SettlementConfig{StartDelayMs: 500, MaxRetries: 8},
		RetryPendingBlocksTimeoutMs: 30000,
		PrivacyCircuitAccounts:      2,
	}
}

// LoadConfigFile reads and parses a JSON configuration file at path,
// matching the original's config-file-driven startup (the teacher's own
// cmd/ccoind takes CLI flags only; this sequencer's CLI surface requires
// a config-file path, so a JSON loader is layered on top, per DESIGN.md).
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
