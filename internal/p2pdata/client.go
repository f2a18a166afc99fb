package p2pdata

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"io"

	"github.com/quic-go/quic-go"
	"github.com/saworbit/orbit-sub003/internal/control"
)

// requestMessage is the single length-prefixed JSON message a
// destination sends to open a read_stream: the path it wants and the
// capability token authorising it.
type requestMessage struct {
	Path  string                    `json:"path"`
	Token *control.CapabilityToken `json:"token"`
}

func writeRequest(w io.Writer, path string, tok *control.CapabilityToken) error {
	body, err := json.Marshal(requestMessage{Path: path, Token: tok})
	if err != nil {
		return err
	}
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(body)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

func readRequest(r io.Reader) (*requestMessage, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, err
	}
	body := make([]byte, binary.BigEndian.Uint32(length[:]))
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	var req requestMessage
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// QUICSourceStreamer implements control.SourceStreamer over the data
// plane defined in this package: it dials sourceURL, opens a stream,
// sends the (path, token) request, and returns a FrameReader over the
// rest of the stream. A nil TLSConfig uses ClientTLSConfig.
type QUICSourceStreamer struct {
	TLSConfig *tls.Config
}

// OpenStream implements control.SourceStreamer.
func (c *QUICSourceStreamer) OpenStream(ctx context.Context, sourceURL, remotePath string, tok *control.CapabilityToken) (io.ReadCloser, error) {
	tlsConf := c.TLSConfig
	if tlsConf == nil {
		tlsConf = ClientTLSConfig()
	}
	conn, err := DialQUIC(ctx, sourceURL, tlsConf)
	if err != nil {
		return nil, err
	}
	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "open stream failed")
		return nil, err
	}
	if err := writeRequest(stream, remotePath, tok); err != nil {
		_ = stream.Close()
		_ = conn.CloseWithError(0, "request write failed")
		return nil, err
	}
	return &connReader{FrameReader: NewFrameReader(stream, stream), conn: conn}, nil
}

// connReader closes both the stream (via the embedded FrameReader) and
// the QUIC connection it was opened on.
type connReader struct {
	*FrameReader
	conn *quic.Conn
}

func (c *connReader) Close() error {
	err := c.FrameReader.Close()
	_ = c.conn.CloseWithError(0, "stream complete")
	return err
}
