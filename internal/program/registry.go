package program

import (
	"errors"
	"sync"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// ErrProgramExists is returned by Registry.Deploy when the program id
// (image hash) already has an entry.
var ErrProgramExists = errors.New("program already deployed")

// ErrProgramNotFound is returned when a ProgramId has no registered
// image, native or deployed.
var ErrProgramNotFound = errors.New("program not found")

// Program is the capability trait every guest program — native or
// deployed — satisfies. Execute is a deterministic pure function of its
// inputs: no wall-clock, no randomness, no I/O.
type Program interface {
	ID() primitives.ProgramId
	Execute(preStates []account.WithMetadata, instructionData []byte, pdaSeeds [][]byte, callerProgramID *primitives.ProgramId) (Output, error)
}

// Image is a registered program: either a native (compiled-in) Program
// implementation, or deployed bytecode interpreted at call time.
type Image struct {
	Native   Program
	Bytecode []byte // nil for native programs
}

// Registry maps ProgramId to its image. Native programs are registered
// once at construction; deployed programs are added by program-deployment
// transactions (spec §4.6).
type Registry struct {
	mu     sync.RWMutex
	images map[primitives.ProgramId]Image
}

func NewRegistry() *Registry {
	return &Registry{images: make(map[primitives.ProgramId]Image)}
}

// RegisterNative registers a compile-time native program under its
// stable ProgramId.
func (r *Registry) RegisterNative(p Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.images[p.ID()] = Image{Native: p}
}

// Deploy registers user bytecode, keyed by its hash, as a new ProgramId.
// Returns ErrProgramExists if that id is already present.
func (r *Registry) Deploy(bytecode []byte) (primitives.ProgramId, error) {
	id := primitives.ProgramIdFromHash(primitives.HashBytes(bytecode))

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.images[id]; ok {
		return id, ErrProgramExists
	}
	r.images[id] = Image{Bytecode: bytecode}
	return id, nil
}

// Has reports whether id is registered, native or deployed.
func (r *Registry) Has(id primitives.ProgramId) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.images[id]
	return ok
}

// Get looks up a registered program implementation. Deployed bytecode is
// wrapped in an interpretedProgram so callers get a uniform Program
// interface regardless of whether the image is native or deployed.
func (r *Registry) Get(id primitives.ProgramId) (Program, error) {
	r.mu.RLock()
	img, ok := r.images[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrProgramNotFound
	}
	if img.Native != nil {
		return img.Native, nil
	}
	return &interpretedProgram{id: id, bytecode: img.Bytecode}, nil
}

// interpretedProgram wraps deployed bytecode. The guest-program runtime
// itself (bytecode interpretation/VM) is out of this core's scope (spec
// §1): this stub exists only to give deployed programs a uniform
// call-site, and its Execute always fails until wired to an external
// runtime.
type interpretedProgram struct {
	id       primitives.ProgramId
	bytecode []byte
}

func (p *interpretedProgram) ID() primitives.ProgramId { return p.id }

var ErrRuntimeNotWired = errors.New("deployed-program runtime is an external collaborator, not wired in this core")

func (p *interpretedProgram) Execute([]account.WithMetadata, []byte, [][]byte, *primitives.ProgramId) (Output, error) {
	return Output{}, ErrRuntimeNotWired
}
