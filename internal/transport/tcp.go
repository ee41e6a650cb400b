package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	ecerr "enginectl/internal/errors"
	"enginectl/internal/retry"
	"enginectl/util"
)

// TCPDialer establishes plain TCP connections, optionally binding to a
// specific source port.
type TCPDialer struct {
	Timeout   time.Duration
	LocalPort int // optional source-port binding (0 = ephemeral)
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}

	if d.LocalPort > 0 {
		local := fmt.Sprintf(":%d", d.LocalPort)
		a, err := net.ResolveTCPAddr(network, local)
		if err != nil {
			return nil, fmt.Errorf("resolve local addr: %w", err)
		}
		dialer.LocalAddr = a
	}

	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }

// Socket connects to an engine that is already listening on a TCP
// port.  Refused connections are retried with Backoff, since an engine
// started moments ago may not be listening yet.
type Socket struct {
	Dialer  Dialer
	Address string
	Backoff *retry.Backoff // nil selects retry.DefaultBackoff
	Logger  *util.Logger
}

func (s *Socket) String() string { return "tcp://" + s.Address }

// Launch dials the engine.  Closing the stream also closes the dialer.
func (s *Socket) Launch(ctx context.Context) (io.ReadWriteCloser, error) {
	b := retry.DefaultBackoff()
	if s.Backoff != nil {
		b = s.Backoff
	}
	bo := *b
	if bo.Retryable == nil {
		bo.Retryable = ecerr.IsRetryable
	}
	onRetry := bo.OnRetry
	bo.OnRetry = func(attempt int, err error, wait time.Duration) {
		s.Logger.Verbose("%s: attempt %d failed (%v), retrying in %s", s, attempt, err, wait)
		if onRetry != nil {
			onRetry(attempt, err, wait)
		}
	}

	var conn net.Conn
	err := bo.Do(ctx, func(int) error {
		c, err := s.Dialer.Dial(ctx, "tcp", s.Address)
		if err != nil {
			return ecerr.Wrap("dial", s.Address, err)
		}
		conn = c
		return nil
	})
	if err != nil {
		s.Dialer.Close()
		return nil, err
	}
	s.Logger.Verbose("connected to %s", conn.RemoteAddr())
	return &dialedConn{Conn: conn, dialer: s.Dialer}, nil
}

type dialedConn struct {
	net.Conn
	dialer Dialer
}

func (c *dialedConn) Close() error {
	return errors.Join(c.Conn.Close(), c.dialer.Close())
}
