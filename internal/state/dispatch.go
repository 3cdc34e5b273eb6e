package state

import (
	"context"
	"fmt"

	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// ApplyTransaction dispatches tx to the transition matching its kind,
// mirroring the original's `execute_check_transaction_on_state`.
func (w *WorldState) ApplyTransaction(ctx context.Context, tx *types.Transaction, txHash primitives.Hash, blockID uint64) error {
	switch tx.Kind {
	case types.TxKindPublic:
		return w.ApplyPublicTransaction(tx.Public)
	case types.TxKindPrivacyPreserving:
		return w.ApplyPrivacyPreservingTransaction(ctx, tx.PrivacyPreserving, [32]byte(txHash), blockID)
	case types.TxKindProgramDeployment:
		return w.ApplyProgramDeploymentTransaction(tx.ProgramDeployment)
	default:
		return fmt.Errorf("state: unknown transaction kind %d", tx.Kind)
	}
}
