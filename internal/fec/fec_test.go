package fec

import (
	"bytes"
	"testing"
)

func windowShards(n, width int) [][]byte {
	shards := make([][]byte, n)
	for i := range shards {
		shards[i] = bytes.Repeat([]byte{byte(i + 1)}, width)
	}
	return shards
}

func TestParityThenReconstruct(t *testing.T) {
	code, err := NewCode(4, 2)
	if err != nil {
		t.Fatalf("NewCode: %v", err)
	}
	data := windowShards(4, 64)
	parity, err := code.Parity(data)
	if err != nil {
		t.Fatalf("Parity: %v", err)
	}
	if len(parity) != 2 {
		t.Fatalf("expected 2 parity shards, got %d", len(parity))
	}

	received := make([][]byte, 6)
	copy(received, data)
	copy(received[4:], parity)
	received[1] = nil
	received[3] = nil

	if err := code.Reconstruct(received); err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	for i, want := range data {
		if !bytes.Equal(received[i], want) {
			t.Fatalf("shard %d not recovered", i)
		}
	}
}

func TestReconstructFailsPastParityBudget(t *testing.T) {
	code, err := NewCode(4, 2)
	if err != nil {
		t.Fatalf("NewCode: %v", err)
	}
	data := windowShards(4, 32)
	parity, err := code.Parity(data)
	if err != nil {
		t.Fatalf("Parity: %v", err)
	}

	received := make([][]byte, 6)
	copy(received, data)
	copy(received[4:], parity)
	received[0], received[1], received[2] = nil, nil, nil

	err = code.Reconstruct(received)
	if err == nil {
		t.Fatal("expected failure with 3 losses against 2 parity shards")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("parity covers")) {
		t.Fatalf("expected ErrUnrecoverable, got %v", err)
	}
}

func TestParityRejectsRaggedShards(t *testing.T) {
	code, _ := NewCode(2, 1)
	_, err := code.Parity([][]byte{make([]byte, 10), make([]byte, 11)})
	if err == nil {
		t.Fatal("expected an error for unequal shard lengths")
	}
}

func TestParityRejectsWrongShardCount(t *testing.T) {
	code, _ := NewCode(4, 2)
	if _, err := code.Parity(windowShards(3, 8)); err == nil {
		t.Fatal("expected an error for 3 shards against n=4")
	}
}

func TestNewCodeBounds(t *testing.T) {
	if _, err := NewCode(0, 2); err == nil {
		t.Fatal("expected an error for n=0")
	}
	if _, err := NewCode(200, 100); err == nil {
		t.Fatal("expected an error past 256 total shards")
	}
}

func TestReconstructNoopWhenComplete(t *testing.T) {
	code, _ := NewCode(3, 1)
	data := windowShards(3, 16)
	parity, err := code.Parity(data)
	if err != nil {
		t.Fatalf("Parity: %v", err)
	}
	received := append(append([][]byte{}, data...), parity...)
	if err := code.Reconstruct(received); err != nil {
		t.Fatalf("Reconstruct on a complete window: %v", err)
	}
}

func BenchmarkParity64K(b *testing.B) {
	code, _ := NewCode(8, 2)
	data := windowShards(8, 64*1024)
	b.SetBytes(int64(8 * 64 * 1024))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := code.Parity(data); err != nil {
			b.Fatal(err)
		}
	}
}
