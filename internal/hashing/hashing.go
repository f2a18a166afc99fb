// Package hashing implements Orbit's content-defined chunking and
// chunk identity hashing.
package hashing

import (
	"encoding/base64"
	"encoding/json"

	"github.com/zeebo/blake3"
)

// HashSize is the length in bytes of a chunk identity hash.
const HashSize = 32

// Digest is a BLAKE3-256 hash. It marshals to JSON as a base64 string
// rather than the verbose byte-array form [32]byte would otherwise
// produce.
type Digest [HashSize]byte

func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(d[:]))
}

func (d *Digest) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	copy(d[:], decoded)
	return nil
}

// Hash computes the BLAKE3-256 digest of b. A chunk's identity is this
// hash: identical bytes always produce the identical hash, and hashing
// never fails.
func Hash(b []byte) Digest {
	return Digest(blake3.Sum256(b))
}

// ZeroScan reports whether b is entirely zero bytes. It is used to feed
// sparse-file handling in the transfer engine: an all-zero chunk
// can be represented as a hole instead of written out.
func ZeroScan(b []byte) bool {
	// Eight bytes are compared per iteration; b need not be aligned,
	// the tail is walked byte-by-byte.
	n := len(b)
	i := 0
	for ; i+8 <= n; i += 8 {
		if b[i] != 0 || b[i+1] != 0 || b[i+2] != 0 || b[i+3] != 0 ||
			b[i+4] != 0 || b[i+5] != 0 || b[i+6] != 0 || b[i+7] != 0 {
			return false
		}
	}
	for ; i < n; i++ {
		if b[i] != 0 {
			return false
		}
	}
	return true
}
