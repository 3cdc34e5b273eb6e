package program

import "github.com/nssa-network/sequencer/pkg/primitives"

// DerivePDA deterministically derives the AccountId for a
// program-derived-address given the owning program and one seed. This is
// the hash `derive_pda(program_id, seeds)` of spec §4.3.
func DerivePDA(programID primitives.ProgramId, seed []byte) primitives.AccountId {
	h := primitives.HashBytes(programID.Encode(), seed)
	return primitives.AccountIdFromBytes(h[:])
}

// ComputeAuthorizedPDAs computes the set of AccountIds authorized inside
// a callee's frame: derive_pda(callerProgramID, s) for each s in seeds.
// callerProgramID is nil for the outermost call, in which case no PDAs
// are authorized.
func ComputeAuthorizedPDAs(callerProgramID *primitives.ProgramId, seeds [][]byte) map[primitives.AccountId]struct{} {
	out := make(map[primitives.AccountId]struct{}, len(seeds))
	if callerProgramID == nil {
		return out
	}
	for _, seed := range seeds {
		out[DerivePDA(*callerProgramID, seed)] = struct{}{}
	}
	return out
}
