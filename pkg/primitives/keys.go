package primitives

// NullifierPublicKey (NPK) authorizes spends of a private account; the
// account's id is derivable from it.
type NullifierPublicKey [HashSize]byte

// NullifierSecretKey (NSK) is the secret counterpart to a
// NullifierPublicKey; knowledge of it authorizes spending a private
// account's commitment.
type NullifierSecretKey [HashSize]byte

// SharedSecretKey is the per-output Diffie-Hellman shared secret used to
// derive the authenticated-encryption key for a private account's
// ciphertext.
type SharedSecretKey [HashSize]byte

func (k NullifierPublicKey) Bytes() []byte { return k[:] }
func (k NullifierSecretKey) Bytes() []byte { return k[:] }
func (k SharedSecretKey) Bytes() []byte    { return k[:] }

// AccountIdFromNPK derives the AccountId belonging to a nullifier public
// key. Private accounts are addressed by hashing their NPK the same way
// public accounts are addressed by hashing their signing public key.
func AccountIdFromNPK(npk NullifierPublicKey) AccountId {
	return AccountIdFromBytes(sumSHA256(npk[:]))
}
