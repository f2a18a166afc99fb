package p2pdata

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/saworbit/orbit-sub003/internal/control"
	"github.com/saworbit/orbit-sub003/internal/orbiterr"
)

// maxInFlight bounds how many chunk frames may be read off disk ahead
// of the network write: a single reader goroutine feeds a single
// writer through a bounded channel, since one stream serves one path.
const maxInFlight = 4

// StreamServer is the source side of the P2P data plane: it verifies a
// CapabilityToken and streams a file's bytes as framed 64 KiB chunks.
type StreamServer struct {
	secret []byte
}

// NewStreamServer creates a StreamServer that verifies tokens against
// the shared grid secret.
func NewStreamServer(secret []byte) *StreamServer {
	return &StreamServer{secret: secret}
}

type frame struct {
	index uint64
	data  []byte
}

// ReadStream implements the read_stream operation: verify
// tok, assert tok.Claims.AllowPath == path exactly, validate path
// itself (rejects empty paths and confirms the target still exists),
// then stream path's contents to w as framed chunks until EOF or ctx
// is cancelled (the caller cancels ctx on client disconnect so the
// file handle is released promptly).
func (s *StreamServer) ReadStream(ctx context.Context, w io.Writer, path string, tok *control.CapabilityToken) error {
	if err := control.VerifyToken(s.secret, tok, time.Now()); err != nil {
		return orbiterr.New(orbiterr.PolicyViolation, "p2pdata.ReadStream", err)
	}
	if tok.Claims.AllowPath != path {
		return orbiterr.New(orbiterr.PolicyViolation, "p2pdata.ReadStream", errPathMismatch)
	}
	if err := jailPath(path); err != nil {
		return orbiterr.New(orbiterr.PolicyViolation, "p2pdata.ReadStream", err)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return orbiterr.New(orbiterr.Permanent, "p2pdata.ReadStream", errNotFound)
		}
		return orbiterr.New(orbiterr.Transient, "p2pdata.ReadStream", err)
	}
	defer f.Close()
	if fi, err := f.Stat(); err != nil || !fi.Mode().IsRegular() {
		return orbiterr.New(orbiterr.Permanent, "p2pdata.ReadStream", errNotRegular)
	}

	frames := make(chan frame, maxInFlight)
	readErr := make(chan error, 1)

	go func() {
		defer close(frames)
		buf := make([]byte, ChunkSize)
		var idx uint64
		for {
			select {
			case <-ctx.Done():
				readErr <- ctx.Err()
				return
			default:
			}
			n, err := f.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case frames <- frame{index: idx, data: chunk}:
					idx++
				case <-ctx.Done():
					readErr <- ctx.Err()
					return
				}
			}
			if err == io.EOF {
				readErr <- nil
				return
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	var nextIndex uint64
	for fr := range frames {
		if err := writeChunkFrame(w, fr.index, fr.data); err != nil {
			return orbiterr.New(orbiterr.Transient, "p2pdata.ReadStream", err)
		}
		nextIndex = fr.index + 1
	}

	if err := <-readErr; err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return orbiterr.New(orbiterr.Cancelled, "p2pdata.ReadStream", err)
		}
		return orbiterr.New(orbiterr.Transient, "p2pdata.ReadStream", err)
	}

	// Terminal zero-length frame marks a clean end of stream, distinct
	// from a transport-level close mid-transfer. FrameReader expects it
	// at the index following the last real chunk.
	if err := writeChunkFrame(w, nextIndex, nil); err != nil {
		return orbiterr.New(orbiterr.Transient, "p2pdata.ReadStream", err)
	}
	return nil
}
