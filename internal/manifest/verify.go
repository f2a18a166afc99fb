package manifest

import (
	"io"
	"os"

	"github.com/saworbit/orbit-sub003/internal/hashing"
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// Verify re-hashes destinationFile chunk-by-chunk against cargo and
// rolls the per-chunk results up into window-level pass/fail. A window
// is reported ok only when every constituent chunk re-hashed clean and
// the recomputed window root matches the recorded one; this lets a
// caller skip re-verifying whole windows on a subsequent pass once they
// come back ok.
func Verify(destinationFile string, cargo *CargoManifest) (*VerificationResult, error) {
	const op = "manifest.Verify"

	f, err := os.Open(destinationFile)
	if err != nil {
		return nil, orbiterr.New(orbiterr.Permanent, op, err)
	}
	defer f.Close()

	result := &VerificationResult{}
	actual := make([]hashing.Digest, len(cargo.Chunks))
	ok := make([]bool, len(cargo.Chunks))

	buf := make([]byte, 0, hashing.MaxChunkSize)
	for i, want := range cargo.Chunks {
		if cap(buf) < want.Length {
			buf = make([]byte, want.Length)
		}
		slice := buf[:want.Length]
		if _, err := io.ReadFull(f, slice); err != nil {
			result.FailedChunks = append(result.FailedChunks, i)
			continue
		}
		got := hashing.Hash(slice)
		actual[i] = got
		if got == want.Hash {
			ok[i] = true
			result.OkChunks = append(result.OkChunks, i)
		} else {
			result.FailedChunks = append(result.FailedChunks, i)
		}
	}

	for _, w := range cargo.WindowRoots {
		allOK := true
		for i := w.ChunkStart; i < w.ChunkEnd; i++ {
			if !ok[i] {
				allOK = false
				break
			}
		}
		if !allOK {
			result.FailedWindows = append(result.FailedWindows, w.Index)
			continue
		}
		root := merkleRoot(actual[w.ChunkStart:w.ChunkEnd])
		if root == w.Root {
			result.OkWindows = append(result.OkWindows, w.Index)
		} else {
			result.FailedWindows = append(result.FailedWindows, w.Index)
		}
	}

	return result, nil
}
