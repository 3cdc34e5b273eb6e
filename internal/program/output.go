// Package program implements the program registry, PDA derivation, and
// the capability interface guest programs satisfy.
package program

import (
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// ChainedCall is a request from one program invocation to invoke another.
type ChainedCall struct {
	ProgramId       primitives.ProgramId
	InstructionData []byte
	PreStates       []account.WithMetadata
	PDASeeds        [][]byte
}

// Output is the externally observable result of one program invocation:
// pre-states, post-states (1:1 positional with pre-states), the
// instruction data it was called with, and any chained calls it emits.
type Output struct {
	PreStates       []account.WithMetadata
	PostStates      []account.PostState
	InstructionData []byte
	ChainedCalls    []ChainedCall
}
