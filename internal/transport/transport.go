// Package transport starts engines and hands back their byte streams.
// A Launcher handles the "where": a local process, a TCP socket, or a
// command on an SSH host.  What is spoken over the stream is the
// protocol adapter's business.
package transport

import (
	"context"
	"io"
	"net"
)

// Launcher starts one engine.  Closing the returned stream terminates
// the engine, or disconnects from it when it is not ours to stop.
type Launcher interface {
	Launch(ctx context.Context) (io.ReadWriteCloser, error)

	// String describes the engine's location for log messages.
	String() string
}

// Dialer opens outbound network connections.  Implementations include
// a plain TCP dialer and one that routes through an SSH gateway.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH connection).  Stateless dialers return nil.
	Close() error
}

var (
	_ Launcher = (*Process)(nil)
	_ Launcher = (*Socket)(nil)
	_ Launcher = (*RemoteCommand)(nil)
	_ Dialer   = (*TCPDialer)(nil)
	_ Dialer   = (*SSHDialer)(nil)
)
