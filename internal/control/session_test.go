package control

import (
	"bytes"
	"testing"
)

func TestNegotiateSessionKeysIsSymmetric(t *testing.T) {
	coordinator, err := EphemeralKeypair()
	if err != nil {
		t.Fatalf("EphemeralKeypair (coordinator): %v", err)
	}
	destination, err := EphemeralKeypair()
	if err != nil {
		t.Fatalf("EphemeralKeypair (destination): %v", err)
	}

	manifestHash := bytes.Repeat([]byte{0x42}, 32)

	coordKeys, err := NegotiateSessionKeys(coordinator, destination.Public, manifestHash)
	if err != nil {
		t.Fatalf("NegotiateSessionKeys (coordinator): %v", err)
	}
	destKeys, err := NegotiateSessionKeys(destination, coordinator.Public, manifestHash)
	if err != nil {
		t.Fatalf("NegotiateSessionKeys (destination): %v", err)
	}

	if coordKeys.PayloadKey != destKeys.PayloadKey {
		t.Fatal("expected both sides to derive the same payload key")
	}
	if coordKeys.ControlKey != destKeys.ControlKey {
		t.Fatal("expected both sides to derive the same control key")
	}
	if coordKeys.IVBase != destKeys.IVBase {
		t.Fatal("expected both sides to derive the same IV base")
	}
}

func TestNegotiateSessionKeysBindToManifestHash(t *testing.T) {
	a, _ := EphemeralKeypair()
	b, _ := EphemeralKeypair()

	hashOne := bytes.Repeat([]byte{0x01}, 32)
	hashTwo := bytes.Repeat([]byte{0x02}, 32)

	keysOne, err := NegotiateSessionKeys(a, b.Public, hashOne)
	if err != nil {
		t.Fatalf("NegotiateSessionKeys: %v", err)
	}
	keysTwo, err := NegotiateSessionKeys(a, b.Public, hashTwo)
	if err != nil {
		t.Fatalf("NegotiateSessionKeys: %v", err)
	}

	if keysOne.PayloadKey == keysTwo.PayloadKey {
		t.Fatal("expected different manifest hashes to derive different session keys")
	}
}
