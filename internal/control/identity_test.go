package control

import (
	"path/filepath"
	"testing"
)

func TestLoadOrCreateIdentityGeneratesThenReloads(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "id_ed25519")
	pubPath := filepath.Join(dir, "id_ed25519.pub")

	first, err := LoadOrCreateIdentity(privPath, pubPath)
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity (generate): %v", err)
	}
	if len(first.Priv) == 0 || len(first.Pub) == 0 {
		t.Fatal("expected a generated keypair")
	}

	second, err := LoadOrCreateIdentity(privPath, pubPath)
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity (reload): %v", err)
	}
	if string(second.Priv) != string(first.Priv) {
		t.Fatal("expected reload to return the same private key, not regenerate")
	}
	if string(second.Pub) != string(first.Pub) {
		t.Fatal("expected reload to return the same public key, not regenerate")
	}
}

func TestLoadOrCreateIdentityDefaultsSiblingPubPath(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "id_ed25519")

	id, err := LoadOrCreateIdentity(privPath, "")
	if err != nil {
		t.Fatalf("LoadOrCreateIdentity: %v", err)
	}
	if len(id.Pub) == 0 {
		t.Fatal("expected a public key even with an empty pubPath argument")
	}
}

func TestLoadOrCreateIdentityEncryptedRoundTrips(t *testing.T) {
	dir := t.TempDir()
	privPath := filepath.Join(dir, "id_ed25519")
	pubPath := filepath.Join(dir, "id_ed25519.pub")

	first, err := LoadOrCreateIdentityEncrypted(privPath, pubPath, "correct horse battery staple")
	if err != nil {
		t.Fatalf("LoadOrCreateIdentityEncrypted (generate): %v", err)
	}

	second, err := LoadOrCreateIdentityEncrypted(privPath, pubPath, "correct horse battery staple")
	if err != nil {
		t.Fatalf("LoadOrCreateIdentityEncrypted (reload): %v", err)
	}
	if string(second.Priv) != string(first.Priv) || string(second.Pub) != string(first.Pub) {
		t.Fatal("expected reload with the same passphrase to return the same keypair")
	}

	if _, err := LoadOrCreateIdentityEncrypted(privPath, pubPath, "wrong passphrase"); err == nil {
		t.Fatal("expected reload with the wrong passphrase to fail")
	}
}
