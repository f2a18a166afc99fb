// Package wormhole implements Orbit's UDP window/FEC transport:
// an alternative to the reliable P2P stream for
// lossy or high-latency links, trading a reliable substrate for
// Reed-Solomon parity and bounded retransmission.
package wormhole

import (
	"fmt"

	"github.com/saworbit/orbit-sub003/internal/hashing"
)

// Mode selects how much of the parity/feedback machinery a transfer
// uses.
type Mode int

const (
	// ModeStream uses the reliable substrate only, no parity.
	ModeStream Mode = iota
	// ModeResilient adds FEC parity on top of the reliable substrate.
	ModeResilient
	// ModeExtreme assumes no feedback channel. Its parity is the same
	// Reed-Solomon encoding as ModeResilient; there is no fountain
	// code, and Sender treats the two modes alike.
	ModeExtreme
)

func (m Mode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeResilient:
		return "resilient"
	case ModeExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}

// WindowState is a window's position in its lifecycle.
type WindowState int

const (
	Open WindowState = iota
	ParitySent
	Acknowledged
	Failed
)

func (s WindowState) String() string {
	switch s {
	case Open:
		return "Open"
	case ParitySent:
		return "ParitySent"
	case Acknowledged:
		return "Acknowledged"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

var validWindowTransitions = map[WindowState]map[WindowState]bool{
	Open:       {ParitySent: true, Acknowledged: true, Failed: true},
	ParitySent: {Acknowledged: true, Failed: true},
}

// Window groups N data chunks with K parity shards, tracked through
// the Open -> ParitySent -> Acknowledged|Failed lifecycle.
type Window struct {
	ID         uint64
	N          int
	K          int
	MerkleRoot hashing.Digest
	State      WindowState

	DataShards   [][]byte
	ParityShards [][]byte

	retriesUsed int
	retryBudget int
}

// NewWindow creates an Open window covering dataShards, with retry
// budget controlling how many parity/retransmit rounds it tolerates
// before moving to Failed.
func NewWindow(id uint64, dataShards [][]byte, k, retryBudget int) *Window {
	return &Window{
		ID:          id,
		N:           len(dataShards),
		K:           k,
		MerkleRoot:  windowMerkleRoot(dataShards),
		State:       Open,
		DataShards:  dataShards,
		retryBudget: retryBudget,
	}
}

// TransitionTo moves the window to next, rejecting any transition not
// in validWindowTransitions.
func (w *Window) TransitionTo(next WindowState) error {
	allowed := validWindowTransitions[w.State]
	if !allowed[next] {
		return fmt.Errorf("wormhole: invalid window transition %s -> %s", w.State, next)
	}
	w.State = next
	return nil
}

// RecordRetry consumes one unit of retry budget and transitions to
// Failed once the retransmit/parity budget is exhausted.
func (w *Window) RecordRetry() error {
	w.retriesUsed++
	if w.retriesUsed > w.retryBudget {
		return w.TransitionTo(Failed)
	}
	return nil
}
