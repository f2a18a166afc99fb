package hashing

import (
	"bytes"
	"io"
	"testing"
)

func TestHashDeterministic(t *testing.T) {
	data := []byte("orbit test payload")
	h1 := Hash(data)
	h2 := Hash(data)
	if h1 != h2 {
		t.Fatalf("hash not deterministic: %x != %x", h1, h2)
	}
}

func TestZeroScan(t *testing.T) {
	if !ZeroScan(make([]byte, 4097)) {
		t.Error("expected all-zero buffer to scan as zero")
	}
	buf := make([]byte, 4097)
	buf[4096] = 1
	if ZeroScan(buf) {
		t.Error("expected non-zero tail byte to fail zero scan")
	}
}

func TestChunkStreamDeterministicBoundaries(t *testing.T) {
	data := make([]byte, 3*MaxChunkSize)
	for i := range data {
		data[i] = byte(i * 31 % 251)
	}

	chunksA, err := ChunkAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ChunkAll: %v", err)
	}
	chunksB, err := ChunkAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ChunkAll (rerun): %v", err)
	}
	if len(chunksA) != len(chunksB) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(chunksA), len(chunksB))
	}
	for i := range chunksA {
		if chunksA[i].Hash != chunksB[i].Hash {
			t.Fatalf("chunk %d boundary mismatch between runs", i)
		}
	}

	var total int
	for _, c := range chunksA {
		total += len(c.Data)
		if len(c.Data) > MaxChunkSize {
			t.Errorf("chunk exceeds MaxChunkSize: %d", len(c.Data))
		}
	}
	if total != len(data) {
		t.Errorf("chunked bytes %d != input bytes %d", total, len(data))
	}
}

func TestChunkStreamEmptyInput(t *testing.T) {
	chunks, err := ChunkAll(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("ChunkAll on empty input: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty file, got %d", len(chunks))
	}
}

func TestChunkStreamShortFinalChunk(t *testing.T) {
	data := make([]byte, MinChunkSize/2)
	next := ChunkStream(bytes.NewReader(data))
	c, err := next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Data) != len(data) {
		t.Errorf("expected single terminal chunk of %d bytes, got %d", len(data), len(c.Data))
	}
	if _, err := next(); err != io.EOF {
		t.Errorf("expected io.EOF after terminal chunk, got %v", err)
	}
}
