package primitives

import (
	"encoding/binary"
	"encoding/hex"
)

// ProgramId is a 256-bit program identifier, stored as eight little-endian
// 32-bit words per the encoding discipline in spec §4.1.
type ProgramId [8]uint32

// DefaultProgramId marks accounts that have not yet been claimed by any
// program.
var DefaultProgramId = ProgramId{}

func (p ProgramId) IsDefault() bool { return p == DefaultProgramId }

func (p ProgramId) Equal(other ProgramId) bool { return p == other }

// Encode serializes the program id as 8 little-endian u32 words (32 bytes).
func (p ProgramId) Encode() []byte {
	out := make([]byte, 32)
	for i, word := range p {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], word)
	}
	return out
}

// ProgramIdFromBytes decodes 32 bytes into a ProgramId. Callers must
// supply exactly 32 bytes.
func ProgramIdFromBytes(b []byte) ProgramId {
	var p ProgramId
	for i := range p {
		p[i] = binary.LittleEndian.Uint32(b[i*4 : i*4+4])
	}
	return p
}

// ProgramIdFromHash derives a ProgramId from the image hash of deployed
// bytecode: the hash's 32 bytes are reinterpreted as 8 little-endian u32
// words, giving a deterministic, collision-resistant identifier.
func ProgramIdFromHash(h Hash) ProgramId {
	return ProgramIdFromBytes(h[:])
}

func (p ProgramId) String() string { return hex.EncodeToString(p.Encode()) }
