package p2pdata

import (
	"context"

	"github.com/quic-go/quic-go"
)

// Serve accepts streams on l and handles each one as a read_stream
// request until ctx is cancelled or the listener errors. The accept
// loop hands each stream to its own goroutine so one slow or stuck
// client can't block new connections.
func (s *StreamServer) Serve(ctx context.Context, l *quic.Listener) error {
	for {
		conn, err := l.Accept(ctx)
		if err != nil {
			return err
		}
		go s.serveConnection(ctx, conn)
	}
}

func (s *StreamServer) serveConnection(ctx context.Context, conn *quic.Conn) {
	defer conn.CloseWithError(0, "done")
	for {
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			return
		}
		go s.serveStream(ctx, stream)
	}
}

func (s *StreamServer) serveStream(ctx context.Context, stream *quic.Stream) {
	defer stream.Close()

	req, err := readRequest(stream)
	if err != nil {
		return
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		// ReadStream keeps writing until this returns; closing the
		// read side unblocks it promptly on client disconnect.
		buf := make([]byte, 1)
		if _, err := stream.Read(buf); err != nil {
			cancel()
		}
	}()

	_ = s.ReadStream(streamCtx, stream, req.Path, req.Token)
}
