// Package control implements Orbit's P2P control plane: capability
// tokens, the file-replication operation destinations invoke against
// sources, and the coordinator's control-plane listener.
package control

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// DefaultTokenTTL is the single-purpose token's default lifetime.
const DefaultTokenTTL = time.Hour

// Claims is the signed body of a CapabilityToken.
type Claims struct {
	Subject   string `json:"subject"`
	AllowPath string `json:"allow_path"`
	Exp       int64  `json:"exp"`
	Iat       int64  `json:"iat"`
	Iss       string `json:"iss"`
}

// CapabilityToken is a single-purpose, HMAC-signed bearer token
// authorising access to exactly one path until Claims.Exp, signed with
// HMAC-SHA256 over the shared grid secret.
type CapabilityToken struct {
	Claims    Claims `json:"claims"`
	Signature string `json:"signature"` // base64 HMAC-SHA256
}

// IssueToken signs {subject="transfer", allow_path, exp=now+ttl, iat=now,
// iss} with HMAC-SHA256 over the shared grid secret. A zero ttl uses
// DefaultTokenTTL.
func IssueToken(secret []byte, allowPath, issuer string, ttl time.Duration, now time.Time) (*CapabilityToken, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	claims := Claims{
		Subject:   "transfer",
		AllowPath: allowPath,
		Iat:       now.Unix(),
		Exp:       now.Add(ttl).Unix(),
		Iss:       issuer,
	}
	sig, err := signClaims(secret, claims)
	if err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, "control.IssueToken", err)
	}
	return &CapabilityToken{Claims: claims, Signature: sig}, nil
}

// VerifyToken checks tok's HMAC signature against secret and that it
// has not expired as of now. Path authorisation (token.allow_path ==
// requested path) is the caller's responsibility, performed after
// path-traversal rejection handled upstream by the path-jail layer.
func VerifyToken(secret []byte, tok *CapabilityToken, now time.Time) error {
	expected, err := signClaims(secret, tok.Claims)
	if err != nil {
		return orbiterr.New(orbiterr.Permanent, "control.VerifyToken", err)
	}
	if !hmac.Equal([]byte(expected), []byte(tok.Signature)) {
		return orbiterr.New(orbiterr.PolicyViolation, "control.VerifyToken", errBadSignature)
	}
	if now.Unix() >= tok.Claims.Exp {
		return orbiterr.New(orbiterr.PolicyViolation, "control.VerifyToken", errTokenExpired)
	}
	return nil
}

func signClaims(secret []byte, claims Claims) (string, error) {
	body, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, secret)
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
