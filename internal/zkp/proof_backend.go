package zkp

// ProofBackend is the external proof-verification collaborator the world
// state depends on (spec §4.2): verify a chained program's execution
// proof, or verify the top-level privacy circuit proof wrapping a whole
// transaction. CircuitManager is the concrete gnark/Groth16
// implementation; tests may substitute a stub.
type ProofBackend interface {
	Verify(proof *ProofData) (bool, error)
}

var _ ProofBackend = (*CircuitManager)(nil)

// AlwaysValidProofBackend accepts every proof unconditionally. It exists
// for sequencer tests that exercise transaction-application logic
// without paying for Groth16 setup/verification, mirroring the original
// Rust test suite's `mock` proof verifier.
type AlwaysValidProofBackend struct{}

func (AlwaysValidProofBackend) Verify(*ProofData) (bool, error) { return true, nil }
