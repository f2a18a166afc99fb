package control

import "github.com/saworbit/orbit-sub003/internal/crypto"

// SessionKeys are the per-transfer AEAD keys negotiated between a
// coordinator and a destination: an X25519 exchange HKDF'd with the
// transfer's manifest hash as salt, so the derived keys are bound to
// exactly one transfer and cannot be replayed against another.
type SessionKeys = crypto.TransferKeys

// EphemeralKeypair generates a fresh X25519 exchange key for one
// transfer's session-key negotiation. Callers discard it once
// NegotiateSessionKeys returns on both sides; reusing it across
// transfers would give up the forward secrecy the exchange provides.
func EphemeralKeypair() (*crypto.ExchangeKey, error) {
	return crypto.NewExchangeKey()
}

// NegotiateSessionKeys derives this side's view of the session keys
// from our ephemeral exchange key, the peer's ephemeral public key,
// and the transfer's manifest hash.
func NegotiateSessionKeys(ours *crypto.ExchangeKey, theirPublic [32]byte, manifestHash []byte) (*SessionKeys, error) {
	return ours.DeriveTransferKeys(theirPublic, manifestHash)
}
