package p2pdata

import (
	"context"
	"crypto/tls"

	"github.com/quic-go/quic-go"
)

// quicConfig is shared by dial and listen: generous windows for bulk
// chunk streaming, a keepalive short enough to detect a dead peer well
// before the idle timeout.
func quicConfig() *quic.Config {
	return &quic.Config{
		KeepAlivePeriod:                10e9,
		MaxIdleTimeout:                 60e9,
		InitialStreamReceiveWindow:     8 << 20,
		InitialConnectionReceiveWindow: 128 << 20,
	}
}

// DialQUIC opens a QUIC connection to addr for the data plane.
func DialQUIC(ctx context.Context, addr string, tlsConfig *tls.Config) (*quic.Conn, error) {
	return quic.DialAddr(ctx, addr, tlsConfig, quicConfig())
}

// ListenQUIC starts a QUIC listener accepting data-plane connections.
func ListenQUIC(addr string, tlsConfig *tls.Config) (*quic.Listener, error) {
	return quic.ListenAddr(addr, tlsConfig, quicConfig())
}
