package wormhole

import "github.com/saworbit/orbit-sub003/internal/hashing"

// windowMerkleRoot hashes each shard then builds a bottom-up binary
// Merkle tree over the per-shard hashes, duplicating the final node of
// an odd level. Same algorithm as internal/manifest's window roots,
// applied here to raw shard bytes rather than recorded chunk hashes.
func windowMerkleRoot(shards [][]byte) hashing.Digest {
	if len(shards) == 0 {
		return hashing.Digest{}
	}
	level := make([]hashing.Digest, len(shards))
	for i, s := range shards {
		level[i] = hashing.Hash(s)
	}
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
