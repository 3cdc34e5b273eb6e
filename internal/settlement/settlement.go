// Package settlement implements the sequencer's settlement-layer client
// boundary (spec §5, §6): construct an inscribe transaction for a block,
// then submit it with exponential-backoff retry, without ever blocking
// block production.
package settlement

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nssa-network/sequencer/pkg/types"
)

// ErrSubmissionAbandoned is returned when retry exhausts max_retries
// without the settlement layer accepting the submission.
var ErrSubmissionAbandoned = errors.New("settlement: submission abandoned after max retries")

// InscribeTx is the opaque, settlement-layer-specific payload produced by
// CreateInscribeTx and handed to SubmitInscribeTx. The sequencer never
// inspects its contents (spec §5: "No payload format is mandated here").
type InscribeTx interface{}

// Client is the settlement-layer client interface the sequencer depends
// on (spec §5 "Settlement client interface"): construct an inscribe
// message for a block, then submit it.
type Client interface {
	// CreateInscribeTx builds the opaque settlement transaction for
	// block, returning it alongside the msg_id that chains this block to
	// its settlement-layer parent.
	CreateInscribeTx(block *types.Block) (InscribeTx, types.MsgID, error)
	// SubmitInscribeTx submits a previously constructed inscribe
	// transaction. Transient failures are retried by Submitter; a
	// non-nil error here means "try again later."
	SubmitInscribeTx(ctx context.Context, tx InscribeTx) error
}

// Config controls the submitter's retry policy, per spec §6's
// `settlement: {start_delay_ms, max_retries, channel_id, node_url, auth?}`.
type Config struct {
	StartDelayMs int
	MaxRetries   int
	ChannelID    string
	NodeURL      string
	Auth         string
}

// DefaultConfig returns a conservative retry policy.
func DefaultConfig() *Config {
	return &Config{StartDelayMs: 500, MaxRetries: 8}
}

// Submitter drives a Client's SubmitInscribeTx with exponential backoff,
// never blocking block production: callers dispatch Submit as its own
// task and inspect the error independently.
type Submitter struct {
	client Client
	cfg    *Config
}

// NewSubmitter constructs a Submitter over client with the given retry
// config (nil selects DefaultConfig).
func NewSubmitter(client Client, cfg *Config) *Submitter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Submitter{client: client, cfg: cfg}
}

// Submit retries client.SubmitInscribeTx with exponential backoff until
// it succeeds, ctx is cancelled, or max_retries is exhausted.
func (s *Submitter) Submit(ctx context.Context, tx InscribeTx) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Duration(s.cfg.StartDelayMs) * time.Millisecond

	var attempts int
	operation := func() error {
		attempts++
		if attempts > s.cfg.MaxRetries {
			return backoff.Permanent(ErrSubmissionAbandoned)
		}
		return s.client.SubmitInscribeTx(ctx, tx)
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}
