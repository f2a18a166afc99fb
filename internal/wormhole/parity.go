package wormhole

import (
	"github.com/saworbit/orbit-sub003/internal/fec"
)

// EncodeParity pads w.DataShards to a common length and generates K
// parity shards over them via Reed-Solomon, storing the result on
// w.ParityShards and transitioning the window to ParitySent. Orbit
// uses Reed-Solomon (klauspost/reedsolomon) for the K-of-N recovery
// role rather than a fountain code.
func (w *Window) EncodeParity() error {
	code, err := fec.NewCode(w.N, w.K)
	if err != nil {
		return err
	}
	parity, err := code.Parity(padShards(w.DataShards))
	if err != nil {
		return err
	}
	w.ParityShards = parity
	return w.TransitionTo(ParitySent)
}

// Reconstruct rebuilds any nil entries in received (length N+K, data
// shards first) using the window's parity, in place.
func (w *Window) Reconstruct(received [][]byte) error {
	code, err := fec.NewCode(w.N, w.K)
	if err != nil {
		return err
	}
	return code.Reconstruct(received)
}

func padShards(shards [][]byte) [][]byte {
	maxLen := 0
	for _, s := range shards {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	padded := make([][]byte, len(shards))
	for i, s := range shards {
		if len(s) == maxLen {
			padded[i] = s
			continue
		}
		p := make([]byte, maxLen)
		copy(p, s)
		padded[i] = p
	}
	return padded
}
