package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"enginectl/internal/remote"
	"enginectl/util"
)

// SSHDialer routes connections through an SSH gateway.  The gateway
// is connected lazily on the first Dial call and torn down on Close.
type SSHDialer struct {
	client    *remote.Client
	config    *remote.Config
	logger    *util.Logger
	mu        sync.Mutex
	connected bool
}

// NewSSHDialer creates a dialer that forwards connections through the
// SSH host described by cfg.
func NewSSHDialer(cfg *remote.Config, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		client: remote.NewClient(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

func (d *SSHDialer) connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected && d.client.IsAlive() {
		return nil
	}

	d.logger.Verbose("connecting to SSH gateway %s@%s", d.config.User, d.config.Addr())
	if err := d.client.Connect(ctx); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	d.connected = true
	return nil
}

// Dial connects to address from the gateway.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.connect(ctx); err != nil {
		return nil, err
	}
	return d.client.Dial(ctx, network, address)
}

// Close tears down the gateway connection.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		d.connected = false
		return d.client.Close()
	}
	return nil
}

// RemoteCommand runs an engine executable on an SSH host.
type RemoteCommand struct {
	Config  *remote.Config
	Command string
	Logger  *util.Logger
}

func (r *RemoteCommand) String() string {
	return fmt.Sprintf("ssh://%s@%s %s", r.Config.User, r.Config.Addr(), r.Command)
}

// Launch connects and starts the command.  Closing the stream ends the
// SSH connection as well.
func (r *RemoteCommand) Launch(ctx context.Context) (io.ReadWriteCloser, error) {
	client := remote.NewClient(r.Config, r.Logger)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	stream, err := client.Start(r.Command)
	if err != nil {
		client.Close()
		return nil, err
	}
	return &remoteStream{ReadWriteCloser: stream, client: client}, nil
}

type remoteStream struct {
	io.ReadWriteCloser
	client *remote.Client
}

func (s *remoteStream) Close() error {
	return errors.Join(s.ReadWriteCloser.Close(), s.client.Close())
}
