package hashing

import (
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// StreamHasher incrementally hashes data written to it, for callers
// that need a running digest over a copy loop rather than a single
// buffer passed to Hash.
type StreamHasher struct {
	h *blake3.Hasher
}

// NewStreamHasher creates a StreamHasher ready to accept writes.
func NewStreamHasher() *StreamHasher {
	return &StreamHasher{h: blake3.New()}
}

func (s *StreamHasher) Write(p []byte) (int, error) {
	return s.h.Write(p)
}

// Sum returns the digest of everything written so far without
// resetting the hasher.
func (s *StreamHasher) Sum() Digest {
	var d Digest
	copy(d[:], s.h.Sum(nil))
	return d
}

// HashFile computes the whole-file digest of path, streaming rather
// than loading the file: the audit log records this alongside the
// per-chunk manifest verification as an end-to-end check.
func HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()

	s := NewStreamHasher()
	if _, err := io.Copy(s, f); err != nil {
		return Digest{}, err
	}
	return s.Sum(), nil
}
