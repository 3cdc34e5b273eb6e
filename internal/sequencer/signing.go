package sequencer

import (
	"crypto/ed25519"
	"errors"
	"os"
	"path/filepath"
)

var zeroSigningKey [32]byte

// resolveSigningKey uses cfg.SigningKey if the operator supplied one
// explicitly, otherwise loads (or creates, on first run) the persisted
// key under <home>/signing_key.
func resolveSigningKey(cfg *Config) (ed25519.PrivateKey, error) {
	if cfg.SigningKey != zeroSigningKey {
		return signingKeyFromBytes(cfg.SigningKey), nil
	}
	return loadOrCreateSigningKey(filepath.Join(cfg.Home, "signing_key"))
}

// ErrBadSigningKeySize is returned when a persisted signing key file is
// not exactly ed25519.SeedSize bytes.
var ErrBadSigningKeySize = errors.New("sequencer: signing key file has the wrong size")

// loadOrCreateSigningKey mirrors the original's
// `load_or_create_signing_key`: read a persisted seed from path, or
// generate and persist a fresh one on first run.
func loadOrCreateSigningKey(path string) (ed25519.PrivateKey, error) {
	seed, err := os.ReadFile(path)
	if err == nil {
		if len(seed) != ed25519.SeedSize {
			return nil, ErrBadSigningKeySize
		}
		return ed25519.NewKeyFromSeed(seed), nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	seed = priv.Seed()
	if err := os.WriteFile(path, seed, 0o600); err != nil {
		return nil, err
	}
	return priv, nil
}

// signingKeyFromBytes builds an ed25519 key from the 32-byte seed in
// config (spec §6 `signing_key: 32B`).
func signingKeyFromBytes(seed [32]byte) ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(seed[:])
}
