package wormhole

import (
	"context"
	"sync"

	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// maxInFlight bounds how many shard datagrams SendWindow seals and
// writes at once, via a semaphore channel of that capacity.
const maxInFlight = 4

// DatagramWriter sends one already-framed wire datagram. Implementations
// wrap a net.PacketConn or similar UDP socket.
type DatagramWriter interface {
	WriteDatagram(wire []byte) error
}

// Sender transmits windows over a DatagramWriter, encoding FEC parity
// for any mode other than ModeStream.
type Sender struct {
	secret []byte
	writer DatagramWriter
	mode   Mode
	tuner  *ParityController
}

// NewSender creates a Sender in the given mode.
func NewSender(secret []byte, writer DatagramWriter, mode Mode) *Sender {
	return &Sender{secret: secret, writer: writer, mode: mode}
}

// SetParityController attaches an adaptive tuner. When set, SendWindow
// retunes w.K from the controller's latest recommendation before
// encoding parity, so a worsening link raises redundancy on the very
// next window rather than waiting for a fixed config value to change.
func (s *Sender) SetParityController(c *ParityController) {
	s.tuner = c
}

// Observe feeds one period's observed loss/RTT into the attached
// ParityController, if any. A Sender with no controller attached
// ignores samples.
func (s *Sender) Observe(sample LossSample) {
	if s.tuner != nil {
		s.tuner.Observe(sample)
	}
}

// SendWindow encodes (if applicable) and transmits every shard of w,
// fanning the sends out across a bounded worker set so at most
// maxInFlight datagrams are being sealed/written concurrently.
func (s *Sender) SendWindow(ctx context.Context, w *Window) error {
	if s.mode != ModeStream {
		if s.tuner != nil {
			if enabled, k, _ := s.tuner.Parameters(); enabled && k <= w.N {
				w.K = k
			}
		}
		if err := w.EncodeParity(); err != nil {
			return orbiterr.New(orbiterr.Permanent, "wormhole.SendWindow", err)
		}
	}

	shards := make([][]byte, 0, len(w.DataShards)+len(w.ParityShards))
	shards = append(shards, w.DataShards...)
	shards = append(shards, w.ParityShards...)

	inflight := make(chan struct{}, maxInFlight)
	var wg sync.WaitGroup
	errCh := make(chan error, len(shards))

	for i, shard := range shards {
		if shard == nil {
			continue
		}
		select {
		case inflight <- struct{}{}:
		case <-ctx.Done():
			return orbiterr.New(orbiterr.Cancelled, "wormhole.SendWindow", ctx.Err())
		}
		wg.Add(1)
		go func(idx int, payload []byte) {
			defer wg.Done()
			defer func() { <-inflight }()

			typ := ShardData
			if idx >= w.N {
				typ = ShardParity
			}
			dgram := Datagram{
				WindowID:   w.ID,
				ShardIndex: uint32(idx),
				Type:       typ,
				N:          uint32(w.N),
				K:          uint32(w.K),
				MerkleRoot: w.MerkleRoot,
			}
			wire, err := EncodeDatagram(s.secret, dgram, payload)
			if err != nil {
				errCh <- err
				return
			}
			if err := s.writer.WriteDatagram(wire); err != nil {
				errCh <- err
			}
		}(i, shard)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			if rerr := w.RecordRetry(); rerr != nil {
				return rerr
			}
			return orbiterr.New(orbiterr.Transient, "wormhole.SendWindow", err)
		}
	}
	if w.State == Open {
		return w.TransitionTo(ParitySent)
	}
	return nil
}
