package wormhole

import (
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// Receiver reassembles windows from received datagrams, reconstructing
// missing shards with FEC parity when possible, and tracks completion
// in a ResumeState.
type Receiver struct {
	secret         []byte
	resume         *ResumeState
	retryBudget    int
	onWindowFailed func(windowID uint64)
}

// NewReceiver creates a Receiver. onWindowFailed, if non-nil, is
// invoked when a window exhausts its retry budget; the audit logger
// attaches here to emit ChunkDeadLettered for the window.
func NewReceiver(secret []byte, resume *ResumeState, retryBudget int, onWindowFailed func(windowID uint64)) *Receiver {
	return &Receiver{secret: secret, resume: resume, retryBudget: retryBudget, onWindowFailed: onWindowFailed}
}

// AssembleWindow decodes every wire datagram belonging to one window,
// reconstructs any missing data shards from parity, and verifies the
// result against the advertised Merkle root before marking the window
// Acknowledged. wire entries may be nil for shards that never arrived.
func (r *Receiver) AssembleWindow(windowID int64, n, k int, merkleRoot [32]byte, wire [][]byte) ([][]byte, error) {
	w := &Window{ID: uint64(windowID), N: n, K: k, State: Open, retryBudget: r.retryBudget}

	shards := make([][]byte, n+k)
	for i, raw := range wire {
		if raw == nil {
			continue
		}
		_, plaintext, err := DecodeDatagram(r.secret, raw)
		if err != nil {
			continue // treat an unauthenticated/corrupt datagram as missing
		}
		if i < len(shards) {
			shards[i] = plaintext
		}
	}

	missing := 0
	for _, s := range shards {
		if s == nil {
			missing++
		}
	}
	if missing > 0 {
		if missing > k {
			if err := w.RecordRetry(); err != nil {
				return nil, err
			}
			if w.State == Failed && r.onWindowFailed != nil {
				r.onWindowFailed(w.ID)
			}
			return nil, orbiterr.New(orbiterr.IntegrityMismatch, "wormhole.AssembleWindow", errTooManyMissingShards)
		}
		if err := w.Reconstruct(shards); err != nil {
			return nil, orbiterr.New(orbiterr.IntegrityMismatch, "wormhole.AssembleWindow", err)
		}
	}

	data := shards[:n]
	if windowMerkleRoot(data) != merkleRoot {
		return nil, orbiterr.New(orbiterr.IntegrityMismatch, "wormhole.AssembleWindow", errMerkleMismatch)
	}

	if err := w.TransitionTo(Acknowledged); err != nil {
		return nil, err
	}
	if r.resume != nil {
		if err := r.resume.MarkAcknowledged(windowID); err != nil {
			return nil, err
		}
	}
	return data, nil
}
