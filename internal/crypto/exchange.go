package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// transferKeyInfo domain-separates transfer-key derivation from every
// other HKDF use of the same exchange.
const transferKeyInfo = "orbit-transfer-keys-v1"

var errLowOrderPoint = errors.New("crypto: peer public key yields an all-zero shared secret")

// ExchangeKey is one side's X25519 keypair for a single transfer's key
// negotiation. The private scalar never leaves this struct; callers
// ship Public to the peer and call DeriveTransferKeys with the peer's.
// A fresh key per transfer is what gives the exchange forward secrecy,
// so keys are not reused across transfers.
type ExchangeKey struct {
	Public  [32]byte
	private [32]byte
}

// NewExchangeKey generates a fresh X25519 keypair.
func NewExchangeKey() (*ExchangeKey, error) {
	var k ExchangeKey
	if _, err := rand.Read(k.private[:]); err != nil {
		return nil, fmt.Errorf("crypto: generate exchange key: %w", err)
	}
	curve25519.ScalarBaseMult(&k.Public, &k.private)
	return &k, nil
}

// shared computes the ECDH shared secret with peer, rejecting
// low-order peer points (which force the secret to zero).
func (k *ExchangeKey) shared(peer [32]byte) ([32]byte, error) {
	var secret [32]byte
	curve25519.ScalarMult(&secret, &k.private, &peer)
	if secret == [32]byte{} {
		return secret, errLowOrderPoint
	}
	return secret, nil
}

// TransferKeys are the independent keys one transfer runs on, split
// out of a single HKDF expansion so compromise of one does not reveal
// the others.
type TransferKeys struct {
	PayloadKey [KeySize]byte   // chunk payload AEAD
	ControlKey [KeySize]byte   // control message AEAD
	IVBase     [NonceSize]byte // root of the nonce schedule
}

// DeriveTransferKeys runs this side of the key negotiation: X25519
// with the peer's public key, then HKDF-SHA256 expansion salted with
// the transfer's manifest hash. The salt binds the keys to exactly one
// transfer; the same two peers negotiating a different transfer derive
// unrelated keys.
func (k *ExchangeKey) DeriveTransferKeys(peer [32]byte, manifestHash []byte) (*TransferKeys, error) {
	if len(manifestHash) != 32 {
		return nil, fmt.Errorf("crypto: manifest hash must be 32 bytes, got %d", len(manifestHash))
	}
	secret, err := k.shared(peer)
	if err != nil {
		return nil, err
	}

	r := hkdf.New(sha256.New, secret[:], manifestHash, []byte(transferKeyInfo))
	material := make([]byte, KeySize+KeySize+NonceSize)
	if _, err := io.ReadFull(r, material); err != nil {
		return nil, fmt.Errorf("crypto: derive transfer keys: %w", err)
	}

	var keys TransferKeys
	copy(keys.PayloadKey[:], material[:KeySize])
	copy(keys.ControlKey[:], material[KeySize:2*KeySize])
	copy(keys.IVBase[:], material[2*KeySize:])
	return &keys, nil
}
