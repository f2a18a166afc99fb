package wormhole

import (
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/saworbit/orbit-sub003/internal/crypto"
)

const windowKeyInfo = "orbit-wormhole-window-v1"

// windowCipher builds the AEAD for one window: a per-window AES-256
// key HKDF-derived from the shared ORBIT_AUTH_SECRET, salted with the
// window ID so no two windows in a transfer ever share a key.
func windowCipher(secret []byte, windowID uint64) (*crypto.Cipher, error) {
	var salt [8]byte
	binary.BigEndian.PutUint64(salt[:], windowID)

	r := hkdf.New(sha256.New, secret, salt[:], []byte(windowKeyInfo))
	key := make([]byte, crypto.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return crypto.NewCipher(key)
}

// shardNonce derives the nonce for one shard: the window ID seeds the
// IV base and the shard index counts within it, so no nonce repeats
// under a window key.
func shardNonce(windowID uint64, shardIndex uint32) [crypto.NonceSize]byte {
	var ivBase [crypto.NonceSize]byte
	binary.BigEndian.PutUint64(ivBase[:8], windowID)
	return crypto.ChunkNonce(ivBase, uint64(shardIndex))
}

// SealWindow encrypts one shard's plaintext under the window's key.
func SealWindow(secret []byte, windowID uint64, shardIndex uint32, aad, plaintext []byte) ([]byte, error) {
	c, err := windowCipher(secret, windowID)
	if err != nil {
		return nil, err
	}
	return c.Seal(shardNonce(windowID, shardIndex), aad, plaintext), nil
}

// OpenWindow reverses SealWindow.
func OpenWindow(secret []byte, windowID uint64, shardIndex uint32, aad, ciphertext []byte) ([]byte, error) {
	c, err := windowCipher(secret, windowID)
	if err != nil {
		return nil, err
	}
	return c.Open(shardNonce(windowID, shardIndex), aad, ciphertext)
}
