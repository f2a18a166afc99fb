package crypto

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"testing"
)

func testCipher(t *testing.T) *Cipher {
	t.Helper()
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("rand: %v", err)
	}
	c, err := NewCipher(key)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	return c
}

func TestCipherRoundTrip(t *testing.T) {
	c := testCipher(t)
	nonce := ChunkNonce([NonceSize]byte{1, 2, 3}, 7)
	aad := []byte("window-header")
	plaintext := []byte("chunk payload bytes")

	sealed := c.Seal(nonce, aad, plaintext)
	got, err := c.Open(nonce, aad, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestCipherRejectsTamperedPayload(t *testing.T) {
	c := testCipher(t)
	nonce := ChunkNonce([NonceSize]byte{}, 0)
	sealed := c.Seal(nonce, nil, []byte("payload"))

	sealed[0] ^= 0xFF
	if _, err := c.Open(nonce, nil, sealed); err != ErrAuthFailed {
		t.Fatalf("expected ErrAuthFailed on a flipped byte, got %v", err)
	}
}

func TestCipherRejectsWrongAAD(t *testing.T) {
	c := testCipher(t)
	nonce := ChunkNonce([NonceSize]byte{}, 3)
	sealed := c.Seal(nonce, []byte("chunk 3"), []byte("payload"))

	if _, err := c.Open(nonce, []byte("chunk 4"), sealed); err != ErrAuthFailed {
		t.Fatalf("expected ErrAuthFailed under a different aad, got %v", err)
	}
}

func TestNewCipherRejectsShortKey(t *testing.T) {
	if _, err := NewCipher(make([]byte, 16)); err == nil {
		t.Fatal("expected an error for a 16-byte key")
	}
}

func TestChunkNoncesAreUniquePerIndex(t *testing.T) {
	base := [NonceSize]byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9}
	seen := map[[NonceSize]byte]uint64{}
	for i := uint64(0); i < 1000; i++ {
		n := ChunkNonce(base, i)
		if prev, dup := seen[n]; dup {
			t.Fatalf("nonce collision between indices %d and %d", prev, i)
		}
		seen[n] = i
	}
}

func TestControlNoncesNeverCollideWithChunkNonces(t *testing.T) {
	base := [NonceSize]byte{1}
	for i := uint64(0); i < 100; i++ {
		if ControlNonce(base, i) == ChunkNonce(base, i) {
			t.Fatalf("control counter %d collided with chunk index %d", i, i)
		}
	}
}

func TestDeriveTransferKeysAgreeAcrossPeers(t *testing.T) {
	coordinator, err := NewExchangeKey()
	if err != nil {
		t.Fatalf("NewExchangeKey: %v", err)
	}
	destination, err := NewExchangeKey()
	if err != nil {
		t.Fatalf("NewExchangeKey: %v", err)
	}
	manifestHash := bytes.Repeat([]byte{0xAB}, 32)

	ours, err := coordinator.DeriveTransferKeys(destination.Public, manifestHash)
	if err != nil {
		t.Fatalf("DeriveTransferKeys: %v", err)
	}
	theirs, err := destination.DeriveTransferKeys(coordinator.Public, manifestHash)
	if err != nil {
		t.Fatalf("DeriveTransferKeys: %v", err)
	}
	if *ours != *theirs {
		t.Fatal("peers derived different transfer keys from the same exchange")
	}
}

func TestDeriveTransferKeysBindToManifest(t *testing.T) {
	a, _ := NewExchangeKey()
	b, _ := NewExchangeKey()

	k1, err := a.DeriveTransferKeys(b.Public, bytes.Repeat([]byte{1}, 32))
	if err != nil {
		t.Fatalf("DeriveTransferKeys: %v", err)
	}
	k2, err := a.DeriveTransferKeys(b.Public, bytes.Repeat([]byte{2}, 32))
	if err != nil {
		t.Fatalf("DeriveTransferKeys: %v", err)
	}
	if k1.PayloadKey == k2.PayloadKey {
		t.Fatal("different transfers derived the same payload key")
	}
}

func TestDeriveTransferKeysRejectsBadManifestHash(t *testing.T) {
	a, _ := NewExchangeKey()
	b, _ := NewExchangeKey()
	if _, err := a.DeriveTransferKeys(b.Public, []byte("short")); err == nil {
		t.Fatal("expected an error for a non-32-byte manifest hash")
	}
}

func TestDeriveTransferKeysRejectsLowOrderPeer(t *testing.T) {
	a, _ := NewExchangeKey()
	if _, err := a.DeriveTransferKeys([32]byte{}, bytes.Repeat([]byte{1}, 32)); err == nil {
		t.Fatal("expected an error for the all-zero peer point")
	}
}

func TestKeyFileRoundTrip(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	path := filepath.Join(t.TempDir(), "id_ed25519.sealed")

	if err := SealKeyFile(path, priv, "correct horse"); err != nil {
		t.Fatalf("SealKeyFile: %v", err)
	}
	got, err := OpenKeyFile(path, "correct horse")
	if err != nil {
		t.Fatalf("OpenKeyFile: %v", err)
	}
	if !priv.Equal(got) {
		t.Fatal("key did not survive the keystore round trip")
	}
}

func TestKeyFileRejectsWrongPassphrase(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	path := filepath.Join(t.TempDir(), "id_ed25519.sealed")
	if err := SealKeyFile(path, priv, "right"); err != nil {
		t.Fatalf("SealKeyFile: %v", err)
	}
	if _, err := OpenKeyFile(path, "wrong"); err != ErrBadPassphrase {
		t.Fatalf("expected ErrBadPassphrase, got %v", err)
	}
}

func TestSealKeyFileRejectsEmptyPassphrase(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	path := filepath.Join(t.TempDir(), "id")
	if err := SealKeyFile(path, priv, ""); err == nil {
		t.Fatal("expected an error for an empty passphrase")
	}
}
