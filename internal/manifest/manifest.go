// Package manifest implements Orbit's transfer planning and
// post-transfer verification: walking a source tree,
// recording ordered chunk hashes and windowed Merkle roots, and
// re-hashing a destination file against that record.
package manifest

import (
	"time"

	"github.com/saworbit/orbit-sub003/internal/hashing"
)

// ChunkDescriptor records one chunk's position and identity within a
// file.
type ChunkDescriptor struct {
	Index  int            `json:"index"`
	Hash   hashing.Digest `json:"hash"`
	Length int            `json:"length"`
}

// WindowRoot is the Merkle root over one sliding window of chunks.
// Windows overlap so that a single damaged chunk near a boundary still
// falls fully inside at least one window, letting verify skip every
// window that comes back clean without re-hashing chunk-by-chunk.
type WindowRoot struct {
	Index      int            `json:"index"`
	Root       hashing.Digest `json:"root"`
	ChunkStart int            `json:"chunk_start"`
	ChunkEnd   int            `json:"chunk_end"` // exclusive
}

// CargoManifest is the per-file record produced by Plan.
type CargoManifest struct {
	Path        string            `json:"path"`
	Size        int64             `json:"size"`
	ChunkCount  int               `json:"chunk_count"`
	HashAlgo    string            `json:"hash_algo"`
	Chunks      []ChunkDescriptor `json:"chunks"`
	WindowRoots []WindowRoot      `json:"window_roots"`
	MerkleRoot  hashing.Digest    `json:"merkle_root"`

	// Orbit records the window geometry used so verify can be replayed
	// against a manifest produced by a different WindowSize/Overlap.
	WindowSize    int `json:"window_size"`
	WindowOverlap int `json:"window_overlap"`
}

// FlightPlan is the transfer-wide record: one CargoManifest per file
// under the walked source tree, plus the transfer's identity.
type FlightPlan struct {
	TransferID string          `json:"transfer_id"`
	CreatedAt  time.Time       `json:"created_at"`
	Cargo      []CargoManifest `json:"cargo"`
}

// VerificationResult reports which chunks and windows of a destination
// file matched their recorded hashes.
type VerificationResult struct {
	OkChunks      []int `json:"ok_chunks"`
	FailedChunks  []int `json:"failed_chunks"`
	OkWindows     []int `json:"ok_windows"`
	FailedWindows []int `json:"failed_windows"`
}

// Matches reports whether verification found no failures at all.
func (r VerificationResult) Matches() bool {
	return len(r.FailedChunks) == 0 && len(r.FailedWindows) == 0
}
