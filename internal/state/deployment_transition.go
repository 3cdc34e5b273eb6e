package state

import (
	"github.com/nssa-network/sequencer/pkg/types"
)

// ApplyProgramDeploymentTransaction implements spec §4.6's
// program-deployment transition: the program id is the hash of the
// bytecode, so deployment is pure registration — no account touches
// occur. Duplicate deployment of identical bytecode is rejected by the
// registry.
func (w *WorldState) ApplyProgramDeploymentTransaction(tx *types.ProgramDeploymentTransaction) error {
	_, err := w.programs.Deploy(tx.Bytecode)
	return err
}
