package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the identity keystore. Interactive-use
// strength: the coordinator unlocks its identity once per process, not
// per request.
const (
	kdfTime    = 3
	kdfMemory  = 64 * 1024 // KiB
	kdfThreads = 4
	saltSize   = 16
)

// ErrBadPassphrase covers both a wrong passphrase and a tampered key
// file; GCM cannot distinguish the two and neither should callers.
var ErrBadPassphrase = errors.New("crypto: wrong passphrase or corrupted key file")

// keyFile is the on-disk envelope for a passphrase-protected identity
// key. The Argon2 parameters travel with the file so they can be
// raised later without breaking existing keys.
type keyFile struct {
	Version int    `json:"version"`
	Time    uint32 `json:"argon2_time"`
	Memory  uint32 `json:"argon2_memory"`
	Threads uint8  `json:"argon2_threads"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Sealed  []byte `json:"sealed"`
}

const keyFileVersion = 1

// SealKeyFile writes an Ed25519 private key to path, encrypted under a
// key Argon2id-derives from passphrase. The file is created 0600 in a
// 0700 directory.
func SealKeyFile(path string, priv ed25519.PrivateKey, passphrase string) error {
	if len(priv) != ed25519.PrivateKeySize {
		return fmt.Errorf("crypto: private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(priv))
	}
	if passphrase == "" {
		return errors.New("crypto: empty passphrase")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("crypto: create keystore dir: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("crypto: generate salt: %w", err)
	}
	var nonce [NonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("crypto: generate nonce: %w", err)
	}

	c, err := NewCipher(argon2.IDKey([]byte(passphrase), salt, kdfTime, kdfMemory, kdfThreads, KeySize))
	if err != nil {
		return err
	}
	envelope := keyFile{
		Version: keyFileVersion,
		Time:    kdfTime,
		Memory:  kdfMemory,
		Threads: kdfThreads,
		Salt:    salt,
		Nonce:   nonce[:],
		Sealed:  c.Seal(nonce, nil, priv),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("crypto: marshal key file: %w", err)
	}
	return os.WriteFile(path, body, 0o600)
}

// OpenKeyFile reads a SealKeyFile envelope back into a private key.
func OpenKeyFile(path, passphrase string) (ed25519.PrivateKey, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var envelope keyFile
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("crypto: parse key file: %w", err)
	}
	if envelope.Version != keyFileVersion {
		return nil, fmt.Errorf("crypto: unsupported key file version %d", envelope.Version)
	}
	if len(envelope.Nonce) != NonceSize {
		return nil, ErrBadPassphrase
	}

	c, err := NewCipher(argon2.IDKey([]byte(passphrase), envelope.Salt, envelope.Time, envelope.Memory, envelope.Threads, KeySize))
	if err != nil {
		return nil, err
	}
	var nonce [NonceSize]byte
	copy(nonce[:], envelope.Nonce)
	priv, err := c.Open(nonce, nil, envelope.Sealed)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	if len(priv) != ed25519.PrivateKeySize {
		return nil, ErrBadPassphrase
	}
	return ed25519.PrivateKey(priv), nil
}
