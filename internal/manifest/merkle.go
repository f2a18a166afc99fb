package manifest

import "github.com/saworbit/orbit-sub003/internal/hashing"

const (
	// WindowSize is the number of chunks covered by one Merkle window.
	WindowSize = 64
	// WindowOverlap is the number of chunks shared between consecutive
	// windows, so a chunk near a boundary is never covered by only one.
	WindowOverlap = 4
	windowStride  = WindowSize - WindowOverlap
)

// merkleRoot builds a bottom-up binary Merkle tree over leaf, hashing
// sibling pairs with BLAKE3 and duplicating the final node of an odd
// level. Applied to an arbitrary slice of leaf hashes (a window, or
// the full chunk list for the top-level root).
func merkleRoot(leaves []hashing.Digest) hashing.Digest {
	if len(leaves) == 0 {
		return hashing.Digest{}
	}
	level := make([]hashing.Digest, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		var next []hashing.Digest
		for i := 0; i < len(level); i += 2 {
			var combined [2 * hashing.HashSize]byte
			copy(combined[:hashing.HashSize], level[i][:])
			if i+1 < len(level) {
				copy(combined[hashing.HashSize:], level[i+1][:])
			} else {
				copy(combined[hashing.HashSize:], level[i][:])
			}
			next = append(next, hashing.Hash(combined[:]))
		}
		level = next
	}
	return level[0]
}

// computeWindowRoots slides a WindowSize window with WindowOverlap
// overlap across chunks, emitting one WindowRoot per step. The final
// window is truncated to whatever remains rather than padded.
func computeWindowRoots(chunks []ChunkDescriptor) []WindowRoot {
	if len(chunks) == 0 {
		return nil
	}
	var windows []WindowRoot
	for start, idx := 0, 0; start < len(chunks); idx++ {
		end := start + WindowSize
		if end > len(chunks) {
			end = len(chunks)
		}
		leaves := make([]hashing.Digest, end-start)
		for i := start; i < end; i++ {
			leaves[i-start] = chunks[i].Hash
		}
		windows = append(windows, WindowRoot{
			Index:      idx,
			Root:       merkleRoot(leaves),
			ChunkStart: start,
			ChunkEnd:   end,
		})
		if end == len(chunks) {
			break
		}
		start += windowStride
	}
	return windows
}
