package wormhole

import "testing"

func TestSealOpenWindowRoundTrip(t *testing.T) {
	secret := []byte("orbit-auth-secret")
	plaintext := []byte("shard payload bytes")
	aad := []byte("aad")

	ct, err := SealWindow(secret, 7, 2, aad, plaintext)
	if err != nil {
		t.Fatalf("SealWindow: %v", err)
	}
	pt, err := OpenWindow(secret, 7, 2, aad, ct)
	if err != nil {
		t.Fatalf("OpenWindow: %v", err)
	}
	if string(pt) != string(plaintext) {
		t.Fatalf("expected round-tripped plaintext, got %q", pt)
	}
}

func TestOpenWindowRejectsWrongWindow(t *testing.T) {
	secret := []byte("orbit-auth-secret")
	ct, _ := SealWindow(secret, 7, 2, []byte("aad"), []byte("data"))
	if _, err := OpenWindow(secret, 8, 2, []byte("aad"), ct); err == nil {
		t.Fatal("expected decryption under a different window ID to fail")
	}
}

func TestWindowKeysDifferPerWindow(t *testing.T) {
	secret := []byte("orbit-auth-secret")
	ct1, err := SealWindow(secret, 1, 0, nil, []byte("same payload"))
	if err != nil {
		t.Fatalf("SealWindow: %v", err)
	}
	ct2, err := SealWindow(secret, 2, 0, nil, []byte("same payload"))
	if err != nil {
		t.Fatalf("SealWindow: %v", err)
	}
	if string(ct1) == string(ct2) {
		t.Fatal("expected distinct windows to seal under distinct keys")
	}
}
