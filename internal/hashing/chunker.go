package hashing

import (
	"bufio"
	"io"

	"github.com/restic/chunker"
)

const (
	// MinChunkSize is the smallest chunk the content-defined chunker
	// will produce, other than a short final chunk at EOF.
	MinChunkSize = 64 * 1024
	// MaxChunkSize is the largest chunk the chunker will produce before
	// forcing a cut.
	MaxChunkSize = 1024 * 1024
	// averageBits is chosen so that 2^averageBits == 256 KiB, the
	// target average chunk size.
	averageBits = 18
)

// orbitPolynomial pins the irreducible polynomial used for the rolling
// hash so that chunk boundaries are reproducible across runs and hosts
// (the chunker package's default constructor picks a random one, which
// would make boundaries non-deterministic between processes).
const orbitPolynomial chunker.Pol = 0x3DA3358B4DC173

// Chunk is one content-defined, content-addressed slice of a stream.
type Chunk struct {
	Hash Digest
	Data []byte
}

// ChunkStream performs content-defined chunking over r using a Rabin
// rolling hash (restic/chunker), targeting an average chunk size of
// 256 KiB with a 64 KiB floor and a 1 MiB ceiling. Boundaries are
// deterministic: identical input bytes always produce identical cuts.
// The returned function yields one chunk per call and returns
// io.EOF once the stream (and any final short chunk) is exhausted.
func ChunkStream(r io.Reader) func() (Chunk, error) {
	c := chunker.NewWithBoundaries(bufio.NewReaderSize(r, MaxChunkSize), orbitPolynomial, MinChunkSize, MaxChunkSize)
	c.SetAverageBits(averageBits)
	buf := make([]byte, MaxChunkSize)

	return func() (Chunk, error) {
		ck, err := c.Next(buf)
		if err != nil {
			return Chunk{}, err
		}
		data := make([]byte, len(ck.Data))
		copy(data, ck.Data)
		return Chunk{Hash: Hash(data), Data: data}, nil
	}
}

// ChunkAll drains ChunkStream into a slice. Convenience wrapper for
// manifest planning, which needs the full ordered chunk list anyway.
func ChunkAll(r io.Reader) ([]Chunk, error) {
	next := ChunkStream(r)
	var chunks []Chunk
	for {
		c, err := next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
}
