package state

import (
	"encoding/binary"
	"sort"

	"github.com/nssa-network/sequencer/pkg/account"
	"github.com/nssa-network/sequencer/pkg/primitives"
)

// Snapshot produces the deterministic binary encoding of every account
// in the world state, in ascending account-id order, the blob persisted as
// the store's `state` column family entry (spec §6).
func (w *WorldState) Snapshot() []byte {
	w.mu.RLock()
	defer w.mu.RUnlock()

	buf := make([]byte, 0, 8+len(w.accounts)*64)
	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], uint64(len(w.accounts)))
	buf = append(buf, countBuf[:]...)

	ids := make([]primitives.AccountId, 0, len(w.accounts))
	for id := range w.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return string(ids[i][:]) < string(ids[j][:]) })

	for _, id := range ids {
		acc := w.accounts[id]
		buf = append(buf, id.Bytes()...)
		encoded := acc.Encode()
		buf = primitives.PutUint64LE(buf, uint64(len(encoded)))
		buf = append(buf, encoded...)
	}
	return buf
}

// RestoreSnapshot loads an account map produced by Snapshot, replacing
// the world state's current accounts entirely (used on sequencer
// restart). Only accounts are restored; the commitment accumulator and
// nullifier set are not part of the blob.
func (w *WorldState) RestoreSnapshot(b []byte) error {
	if len(b) < 8 {
		return account.ErrTruncatedAccount
	}
	count := binary.LittleEndian.Uint64(b[:8])
	b = b[8:]

	accounts := make(map[primitives.AccountId]account.Account, count)
	for i := uint64(0); i < count; i++ {
		if len(b) < 32+8 {
			return account.ErrTruncatedAccount
		}
		id := primitives.AccountIdFromBytes(b[:32])
		b = b[32:]
		l := binary.LittleEndian.Uint64(b[:8])
		b = b[8:]
		if uint64(len(b)) < l {
			return account.ErrTruncatedAccount
		}
		acc, err := account.Decode(b[:l])
		if err != nil {
			return err
		}
		b = b[l:]
		accounts[id] = acc
	}

	w.mu.Lock()
	w.accounts = accounts
	w.mu.Unlock()
	return nil
}
