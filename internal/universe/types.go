// Package universe implements the Universe Index: an
// ACID multimap from chunk hash to the set of locations that hold a
// copy of that chunk, backed by a bolt B-tree.
package universe

import (
	"encoding/binary"

	"github.com/saworbit/orbit-sub003/internal/hashing"
)

// ChunkLocation names one place a chunk with a given hash can be read
// back from: a container, an offset and length within it, the backend
// that owns the container, and the container's current generation.
type ChunkLocation struct {
	ContainerID string
	Offset      uint64
	Length      uint32
	BackendID   string
	Generation  uint64
}

// encode produces the compact on-disk record for a ChunkLocation.
// Layout: offset(8) length(4) generation(8) containerLen(1) container
// backendLen(1) backend: a fixed-width numeric prefix followed by
// length-prefixed strings.
func (c ChunkLocation) encode() []byte {
	buf := make([]byte, 8+4+8+1+len(c.ContainerID)+1+len(c.BackendID))
	i := 0
	binary.BigEndian.PutUint64(buf[i:], c.Offset)
	i += 8
	binary.BigEndian.PutUint32(buf[i:], c.Length)
	i += 4
	binary.BigEndian.PutUint64(buf[i:], c.Generation)
	i += 8
	buf[i] = byte(len(c.ContainerID))
	i++
	i += copy(buf[i:], c.ContainerID)
	buf[i] = byte(len(c.BackendID))
	i++
	copy(buf[i:], c.BackendID)
	return buf
}

func decodeChunkLocation(buf []byte) (ChunkLocation, bool) {
	if len(buf) < 8+4+8+1 {
		return ChunkLocation{}, false
	}
	var c ChunkLocation
	i := 0
	c.Offset = binary.BigEndian.Uint64(buf[i:])
	i += 8
	c.Length = binary.BigEndian.Uint32(buf[i:])
	i += 4
	c.Generation = binary.BigEndian.Uint64(buf[i:])
	i += 8
	containerLen := int(buf[i])
	i++
	if len(buf) < i+containerLen+1 {
		return ChunkLocation{}, false
	}
	c.ContainerID = string(buf[i : i+containerLen])
	i += containerLen
	backendLen := int(buf[i])
	i++
	if len(buf) < i+backendLen {
		return ChunkLocation{}, false
	}
	c.BackendID = string(buf[i : i+backendLen])
	return c, true
}

// key builds the composite row key hash||seq used as the multimap's
// B-tree key, so all locations for one hash sort contiguously.
func key(hash hashing.Digest, seq uint64) []byte {
	k := make([]byte, hashing.HashSize+8)
	copy(k, hash[:])
	binary.BigEndian.PutUint64(k[hashing.HashSize:], seq)
	return k
}
