package control

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/saworbit/orbit-sub003/internal/crypto"
)

// Identity is the coordinator's Ed25519 keypair. cmd/orbitd uses the
// hex-encoded public key as the issuer string of the capability tokens
// it hands out; tokens are HMAC-signed, not signed with Priv.
type Identity struct {
	Priv ed25519.PrivateKey
	Pub  ed25519.PublicKey
}

// DefaultIdentityPaths returns the private/public key paths under the
// invoking user's home directory, under Orbit's own dotdir.
func DefaultIdentityPaths() (privPath, pubPath string, err error) {
	h, err := os.UserHomeDir()
	if err != nil {
		return "", "", err
	}
	dir := filepath.Join(h, ".orbit")
	return filepath.Join(dir, "id_ed25519"), filepath.Join(dir, "id_ed25519.pub"), nil
}

// LoadOrCreateIdentity loads an ed25519 identity from privPath/pubPath,
// generating and persisting a new one if either file is missing (the
// new keypair then replaces whichever file did exist). The
// private key is stored as a plain base64 file; use
// LoadOrCreateIdentityEncrypted to protect it with a passphrase.
func LoadOrCreateIdentity(privPath, pubPath string) (*Identity, error) {
	return LoadOrCreateIdentityEncrypted(privPath, pubPath, "")
}

// LoadOrCreateIdentityEncrypted is LoadOrCreateIdentity with the
// private key persisted through internal/crypto's Argon2id+AES-256-GCM
// keystore whenever passphrase is non-empty, instead of as a plain
// base64 file. The public key is never secret and is always stored as
// plain base64.
func LoadOrCreateIdentityEncrypted(privPath, pubPath, passphrase string) (*Identity, error) {
	if privPath == "" {
		p, u, err := DefaultIdentityPaths()
		if err != nil {
			return nil, err
		}
		privPath, pubPath = p, u
	}
	if pubPath == "" {
		pubPath = privPath + ".pub"
	}

	id, err := loadIdentity(privPath, pubPath, passphrase)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(privPath), 0o700); err != nil {
		return nil, err
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	if passphrase != "" {
		if err := crypto.SealKeyFile(privPath, priv, passphrase); err != nil {
			return nil, fmt.Errorf("encrypt private key: %w", err)
		}
	} else {
		if err := os.WriteFile(privPath, []byte(base64.StdEncoding.EncodeToString(priv)), 0o600); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(pubPath, []byte(base64.StdEncoding.EncodeToString(pub)), 0o644); err != nil {
		return nil, err
	}
	return &Identity{Priv: priv, Pub: pub}, nil
}

func loadIdentity(privPath, pubPath, passphrase string) (*Identity, error) {
	ub, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}
	pub, err := base64.StdEncoding.DecodeString(string(ub))
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}

	var priv []byte
	if passphrase != "" {
		key, err := crypto.OpenKeyFile(privPath, passphrase)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			return nil, fmt.Errorf("decrypt private key: %w", err)
		}
		priv = key
	} else {
		pb, err := os.ReadFile(privPath)
		if err != nil {
			return nil, err
		}
		priv, err = base64.StdEncoding.DecodeString(string(pb))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	}

	if len(priv) != ed25519.PrivateKeySize || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("bad key sizes")
	}
	return &Identity{Priv: ed25519.PrivateKey(priv), Pub: ed25519.PublicKey(pub)}, nil
}
