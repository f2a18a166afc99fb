// Package fec wraps Reed-Solomon erasure coding for the wormhole
// transport: a window's N data shards gain K parity shards, and any N
// of the N+K survivors reconstruct the originals. It also carries the
// redundancy policy that decides, from observed loss, whether parity
// is worth paying for at all and how much.
package fec

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// MaxShards bounds data and parity counts; reedsolomon's Galois field
// caps total shards at 256.
const MaxShards = 256

var (
	errShardCount = errors.New("fec: shard counts must be in [1, 256]")
	// ErrUnrecoverable means more shards are missing than parity can
	// rebuild; the window has to be retransmitted.
	ErrUnrecoverable = errors.New("fec: more shards lost than parity covers")
)

// Code is the erasure code for one window geometry: N data shards
// protected by K parity shards. A sender and receiver agree on the
// geometry through the window header, build the same Code, and use it
// for every window of that shape.
type Code struct {
	N  int
	K  int
	rs reedsolomon.Encoder
}

// NewCode builds a Code for n data and k parity shards.
func NewCode(n, k int) (*Code, error) {
	if n < 1 || k < 1 || n+k > MaxShards {
		return nil, fmt.Errorf("%w: n=%d k=%d", errShardCount, n, k)
	}
	rs, err := reedsolomon.New(n, k)
	if err != nil {
		return nil, fmt.Errorf("fec: build code: %w", err)
	}
	return &Code{N: n, K: k, rs: rs}, nil
}

// Parity computes the K parity shards over data, which must hold
// exactly N equal-length shards. The inputs are not modified.
func (c *Code) Parity(data [][]byte) ([][]byte, error) {
	if len(data) != c.N {
		return nil, fmt.Errorf("fec: expected %d data shards, got %d", c.N, len(data))
	}
	width := len(data[0])
	for i, s := range data {
		if len(s) != width {
			return nil, fmt.Errorf("fec: shard %d is %d bytes, want %d", i, len(s), width)
		}
	}

	all := make([][]byte, c.N+c.K)
	copy(all, data)
	for i := c.N; i < len(all); i++ {
		all[i] = make([]byte, width)
	}
	if err := c.rs.Encode(all); err != nil {
		return nil, fmt.Errorf("fec: encode parity: %w", err)
	}
	return all[c.N:], nil
}

// Reconstruct fills in nil entries of shards (data first, then parity,
// N+K total) from the survivors, in place. Fails with ErrUnrecoverable
// when more than K entries are nil.
func (c *Code) Reconstruct(shards [][]byte) error {
	if len(shards) != c.N+c.K {
		return fmt.Errorf("fec: expected %d shards, got %d", c.N+c.K, len(shards))
	}
	missing := 0
	for _, s := range shards {
		if s == nil {
			missing++
		}
	}
	if missing > c.K {
		return fmt.Errorf("%w: %d missing, parity covers %d", ErrUnrecoverable, missing, c.K)
	}
	if missing == 0 {
		return nil
	}
	if err := c.rs.Reconstruct(shards); err != nil {
		return fmt.Errorf("fec: reconstruct: %w", err)
	}
	return nil
}
