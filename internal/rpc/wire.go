// Package rpc implements the sequencer's Submit API (spec §6, EXTERNAL
// INTERFACES): submit, get_account, get_transaction, get_block,
// get_last_block, get_proof_for_commitment, get_accounts_nonces, over an
// opaque length-prefixed binary transport versioned with a single-byte
// prefix.
package rpc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ProtocolVersion is the single version byte prefixing every request and
// response frame. Bumped on any incompatible wire change.
const ProtocolVersion = 1

// MaxFrameBytes bounds a single frame's payload, guarding the server
// against an attacker-controlled length field forcing an unbounded
// allocation.
const MaxFrameBytes = 16 << 20

// Opcode identifies one of the Submit API's seven operations. It is the
// second byte of every request frame; responses echo it back unchanged.
type Opcode uint8

const (
	OpSubmit                Opcode = 0x01
	OpGetAccount            Opcode = 0x02
	OpGetTransaction        Opcode = 0x03
	OpGetBlock              Opcode = 0x04
	OpGetLastBlock          Opcode = 0x05
	OpGetProofForCommitment Opcode = 0x06
	OpGetAccountsNonces     Opcode = 0x07
)

// Status is the single byte leading every response payload: ok or a
// reason the request could not be served.
type Status uint8

const (
	StatusOK Status = iota
	StatusRejected
	StatusNotFound
	StatusBadRequest
	StatusInternalError
)

var (
	ErrUnsupportedVersion = errors.New("rpc: unsupported protocol version")
	ErrUnknownOpcode      = errors.New("rpc: unknown opcode")
	ErrFrameTooLarge      = errors.New("rpc: frame exceeds MaxFrameBytes")
	ErrTruncatedFrame     = errors.New("rpc: truncated frame")
)

// frame is a single length-prefixed message: version byte, opcode byte,
// u32 LE payload length, payload.
type frame struct {
	Version uint8
	Opcode  Opcode
	Payload []byte
}

// writeFrame writes f to w as version | opcode | len(payload) u32 LE |
// payload, mirroring the fixed-header-then-payload shape of a
// length-prefixed wire protocol.
func writeFrame(w io.Writer, f frame) error {
	if len(f.Payload) > MaxFrameBytes {
		return ErrFrameTooLarge
	}
	hdr := make([]byte, 6)
	hdr[0] = f.Version
	hdr[1] = byte(f.Opcode)
	binary.LittleEndian.PutUint32(hdr[2:6], uint32(len(f.Payload)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	if len(f.Payload) == 0 {
		return nil
	}
	_, err := w.Write(f.Payload)
	return err
}

// readFrame reads exactly one frame from r, rejecting an oversize
// declared length before attempting to read attacker-controlled payload
// bytes.
func readFrame(r io.Reader) (frame, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return frame{}, err
	}
	version := hdr[0]
	if version != ProtocolVersion {
		return frame{}, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, version, ProtocolVersion)
	}
	opcode := Opcode(hdr[1])
	payloadLen := binary.LittleEndian.Uint32(hdr[2:6])
	if payloadLen > MaxFrameBytes {
		return frame{}, ErrFrameTooLarge
	}
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return frame{}, fmt.Errorf("%w: %v", ErrTruncatedFrame, err)
		}
	}
	return frame{Version: version, Opcode: opcode, Payload: payload}, nil
}

func putBytes(buf []byte, data []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func takeBytes(b []byte) (data []byte, rest []byte, err error) {
	if len(b) < 4 {
		return nil, nil, ErrTruncatedFrame
	}
	n := binary.LittleEndian.Uint32(b[0:4])
	b = b[4:]
	if uint64(len(b)) < uint64(n) {
		return nil, nil, ErrTruncatedFrame
	}
	return b[:n], b[n:], nil
}
