// Package crypto holds the cryptographic primitives Orbit's data
// planes share: an AES-256-GCM cipher for chunk and window payloads,
// the deterministic nonce schedule that keys it, X25519 exchange keys
// and the HKDF derivation that turns an exchange into per-transfer
// keys, and the passphrase keystore protecting a coordinator identity
// at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// KeySize is the AES-256 key length every Orbit cipher uses.
const KeySize = 32

// NonceSize is the GCM nonce length the nonce schedule produces.
const NonceSize = 12

var (
	ErrKeySize    = errors.New("crypto: key must be 32 bytes")
	ErrAuthFailed = errors.New("crypto: payload failed authentication")
)

// Cipher seals and opens chunk or window payloads under one AES-256
// key. The GCM state is built once at construction; a transfer reuses
// the same Cipher for every payload it moves, so the per-payload cost
// is one Seal or Open, not a key schedule.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher builds a Cipher from a 32-byte key, typically a
// TransferKeys payload/control key or a derived window key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d", ErrKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: init gcm: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// Seal encrypts and authenticates plaintext, appending the 16-byte
// tag. aad binds contextual fields (chunk index, window header) into
// the tag without encrypting them, so a payload replayed under a
// different context fails Open. The nonce must be unique per payload
// under this key; the ChunkNonce/ControlNonce schedule guarantees
// that.
func (c *Cipher) Seal(nonce [NonceSize]byte, aad, plaintext []byte) []byte {
	return c.aead.Seal(nil, nonce[:], plaintext, aad)
}

// Open decrypts and verifies a sealed payload. It never returns
// partial plaintext: any tag, aad, or nonce mismatch yields
// ErrAuthFailed.
func (c *Cipher) Open(nonce [NonceSize]byte, aad, ciphertext []byte) ([]byte, error) {
	plaintext, err := c.aead.Open(nil, nonce[:], ciphertext, aad)
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}
