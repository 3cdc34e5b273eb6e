package program

import (
	"errors"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// ErrInsufficientBalance is returned by the authenticated-transfer
// program when the sender cannot cover the requested amount.
var ErrInsufficientBalance = errors.New("insufficient balance for transfer")

// ErrTransferNotAuthorized is returned when the sender account was not
// proven authorized for this invocation.
var ErrTransferNotAuthorized = errors.New("sender account is not authorized")

// ErrTransferBadInstruction is returned when the instruction data cannot
// be decoded into a transfer instruction.
var ErrTransferBadInstruction = errors.New("malformed transfer instruction")

// authenticatedTransferProgramID is the stable, compile-time id of the
// native token-transfer program. It is derived once from a fixed label so
// every implementation of this core agrees on the same id without a
// registry round-trip.
var authenticatedTransferProgramID = primitives.ProgramIdFromHash(primitives.HashBytes([]byte("nssa/native/authenticated-transfer")))

// AuthenticatedTransferProgramID returns the stable ProgramId of the
// native transfer program, used by the world state to pre-claim genesis
// commitments and by tests to build instructions.
func AuthenticatedTransferProgramID() primitives.ProgramId {
	return authenticatedTransferProgramID
}

// TransferInstruction is the instruction-data payload for the native
// transfer program: move Amount of native balance from pre_states[0] to
// pre_states[1].
type TransferInstruction struct {
	Amount primitives.Uint128
}

// EncodeTransferInstruction produces the canonical instruction-data bytes
// for a TransferInstruction.
func EncodeTransferInstruction(amount primitives.Uint128) []byte {
	return primitives.PutUint128LE(nil, amount)
}

func decodeTransferInstruction(data []byte) (TransferInstruction, error) {
	if len(data) != 16 {
		return TransferInstruction{}, ErrTransferBadInstruction
	}
	return TransferInstruction{Amount: primitives.Uint128FromLE(data)}, nil
}

// TransferProgram is the native program backing public-account
// transfers: the sender must be authorized; the program claims both
// accounts it touches.
type TransferProgram struct{}

func (TransferProgram) ID() primitives.ProgramId { return authenticatedTransferProgramID }

// Execute moves balance from preStates[0] to preStates[1]. It requires
// exactly two pre-states and an authorized sender.
func (TransferProgram) Execute(
	preStates []account.WithMetadata,
	instructionData []byte,
	pdaSeeds [][]byte,
	callerProgramID *primitives.ProgramId,
) (Output, error) {
	if len(preStates) != 2 {
		return Output{}, ErrTransferBadInstruction
	}
	instr, err := decodeTransferInstruction(instructionData)
	if err != nil {
		return Output{}, err
	}

	sender := preStates[0]
	recipient := preStates[1]

	if !sender.IsAuthorized {
		return Output{}, ErrTransferNotAuthorized
	}
	if sender.Account.Balance.LessThan(instr.Amount) {
		return Output{}, ErrInsufficientBalance
	}

	newSender := sender.Account
	newSender.Balance = newSender.Balance.Sub(instr.Amount)

	newRecipient := recipient.Account
	newRecipient.Balance = newRecipient.Balance.Add(instr.Amount)

	postStates := []account.PostState{
		account.NewClaimedPostState(authenticatedTransferProgramID, newSender),
		account.NewClaimedPostState(authenticatedTransferProgramID, newRecipient),
	}

	return Output{
		PreStates:       preStates,
		PostStates:      postStates,
		InstructionData: instructionData,
		ChainedCalls:    nil,
	}, nil
}
