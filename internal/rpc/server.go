package rpc

import (
	"context"
	"errors"
	"net"

	"github.com/nssa-network/sequencer/internal/logging"
	"github.com/nssa-network/sequencer/internal/mempool"
	"github.com/nssa-network/sequencer/internal/storage"
	"github.com/nssa-network/sequencer/internal/zkp"
	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
	"github.com/nssa-network/sequencer/pkg/types"
)

// Core is the subset of *sequencer.Core the Submit API serves. Declared
// as an interface so the server can be tested against a fake without
// standing up a full sequencer.
type Core interface {
	SubmitTransaction(tx *types.Transaction) error
	GetAccount(id primitives.AccountId) account.Account
	GetAccountsNonces(ids []primitives.AccountId) []uint64
	GetBlock(blockID uint64) (*types.Block, error)
	GetLastBlock() (*types.Block, error)
	GetTransaction(hash primitives.Hash) (*types.Transaction, uint64, error)
	GetProofForCommitment(ctx context.Context, position uint64) (*zkp.MembershipProof, error)
}

// Server accepts one connection at a time per goroutine and answers each
// frame it reads with exactly one response frame, serially per
// connection.
type Server struct {
	listener net.Listener
	core     Core
	log      *logging.Logger
}

// Listen starts a Submit API server bound to addr (e.g. "0.0.0.0:9000").
func Listen(addr string, core Core) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: ln, core: core, log: logging.New("rpc", logging.LevelInfo)}, nil
}

// Addr returns the server's bound network address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve blocks accepting connections until the listener is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	for {
		req, err := readFrame(conn)
		if err != nil {
			return
		}
		resp, err := s.dispatch(req)
		if err != nil {
			s.log.Warnf("dispatch opcode %d failed: %v", req.Opcode, err)
			return
		}
		if err := writeFrame(conn, resp); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(req frame) (frame, error) {
	switch req.Opcode {
	case OpSubmit:
		return s.handleSubmit(req)
	case OpGetAccount:
		return s.handleGetAccount(req)
	case OpGetAccountsNonces:
		return s.handleGetAccountsNonces(req)
	case OpGetTransaction:
		return s.handleGetTransaction(req)
	case OpGetBlock:
		return s.handleGetBlock(req)
	case OpGetLastBlock:
		return s.handleGetLastBlock(req)
	case OpGetProofForCommitment:
		return s.handleGetProofForCommitment(req)
	default:
		return errorFrame(req.Opcode, StatusBadRequest, ErrUnknownOpcode.Error()), nil
	}
}

func okFrame(opcode Opcode, payload []byte) frame {
	return frame{Version: ProtocolVersion, Opcode: opcode, Payload: append([]byte{byte(StatusOK)}, payload...)}
}

func statusFrame(opcode Opcode, status Status, payload []byte) frame {
	return frame{Version: ProtocolVersion, Opcode: opcode, Payload: append([]byte{byte(status)}, payload...)}
}

func errorFrame(opcode Opcode, status Status, reason string) frame {
	return statusFrame(opcode, status, encodeErrorResponse(reason))
}

func (s *Server) handleSubmit(req frame) (frame, error) {
	r, err := decodeSubmitRequest(req.Payload)
	if err != nil {
		return errorFrame(req.Opcode, StatusBadRequest, err.Error()), nil
	}
	if err := s.core.SubmitTransaction(r.Transaction); err != nil {
		reason := err.Error()
		if errors.Is(err, mempool.ErrPoolFull) || errors.Is(err, mempool.ErrTxAlreadyExists) || errors.Is(err, mempool.ErrNullifierConflict) {
			return okFrame(req.Opcode, encodeSubmitResponse(SubmitResponse{Accepted: false, Reason: reason})), nil
		}
		return errorFrame(req.Opcode, StatusInternalError, reason), nil
	}
	return okFrame(req.Opcode, encodeSubmitResponse(SubmitResponse{Accepted: true})), nil
}

func (s *Server) handleGetAccount(req frame) (frame, error) {
	r, err := decodeGetAccountRequest(req.Payload)
	if err != nil {
		return errorFrame(req.Opcode, StatusBadRequest, err.Error()), nil
	}
	acc := s.core.GetAccount(r.AccountID)
	return okFrame(req.Opcode, encodeGetAccountResponse(GetAccountResponse{Account: acc})), nil
}

func (s *Server) handleGetAccountsNonces(req frame) (frame, error) {
	r, err := decodeGetAccountsNoncesRequest(req.Payload)
	if err != nil {
		return errorFrame(req.Opcode, StatusBadRequest, err.Error()), nil
	}
	nonces := s.core.GetAccountsNonces(r.AccountIDs)
	return okFrame(req.Opcode, encodeGetAccountsNoncesResponse(GetAccountsNoncesResponse{Nonces: nonces})), nil
}

func (s *Server) handleGetTransaction(req frame) (frame, error) {
	r, err := decodeGetTransactionRequest(req.Payload)
	if err != nil {
		return errorFrame(req.Opcode, StatusBadRequest, err.Error()), nil
	}
	tx, blockID, err := s.core.GetTransaction(r.Hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorFrame(req.Opcode, StatusNotFound, err.Error()), nil
		}
		return errorFrame(req.Opcode, StatusInternalError, err.Error()), nil
	}
	return okFrame(req.Opcode, encodeGetTransactionResponse(GetTransactionResponse{Transaction: tx, BlockID: blockID})), nil
}

func (s *Server) handleGetBlock(req frame) (frame, error) {
	r, err := decodeGetBlockRequest(req.Payload)
	if err != nil {
		return errorFrame(req.Opcode, StatusBadRequest, err.Error()), nil
	}
	block, err := s.core.GetBlock(r.BlockID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorFrame(req.Opcode, StatusNotFound, err.Error()), nil
		}
		return errorFrame(req.Opcode, StatusInternalError, err.Error()), nil
	}
	return okFrame(req.Opcode, encodeGetBlockResponse(GetBlockResponse{Block: block})), nil
}

func (s *Server) handleGetLastBlock(req frame) (frame, error) {
	block, err := s.core.GetLastBlock()
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return errorFrame(req.Opcode, StatusNotFound, err.Error()), nil
		}
		return errorFrame(req.Opcode, StatusInternalError, err.Error()), nil
	}
	return okFrame(req.Opcode, encodeGetBlockResponse(GetBlockResponse{Block: block})), nil
}

func (s *Server) handleGetProofForCommitment(req frame) (frame, error) {
	r, err := decodeGetProofForCommitmentRequest(req.Payload)
	if err != nil {
		return errorFrame(req.Opcode, StatusBadRequest, err.Error()), nil
	}
	proof, err := s.core.GetProofForCommitment(context.Background(), r.Position)
	if err != nil {
		return okFrame(req.Opcode, encodeGetProofForCommitmentResponse(GetProofForCommitmentResponse{Found: false})), nil
	}
	return okFrame(req.Opcode, encodeGetProofForCommitmentResponse(GetProofForCommitmentResponse{
		Found:    true,
		Position: proof.LeafPosition,
		Siblings: proof.Siblings,
	})), nil
}
