// Package remote runs engines on other machines over SSH, and dials
// socket engines through an SSH gateway.
package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	ecerr "enginectl/internal/errors"
	"enginectl/util"
)

// Config holds everything needed to reach an SSH host.
type Config struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	Password      string // used as is; PromptPass asks on the terminal instead
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// Addr returns host:port.
func (c *Config) Addr() string { return util.FormatAddr(c.Host, c.Port) }

// Client is one SSH connection.  It can run any number of engine
// commands and forward any number of connections.
type Client struct {
	config *Config
	client *ssh.Client
	logger *util.Logger
	mu     sync.RWMutex
	alive  bool
}

// NewClient creates a client that is ready to [Client.Connect].
func NewClient(cfg *Config, logger *util.Logger) *Client {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &Client{config: cfg, logger: logger}
}

// Connect dials the host and completes the handshake.  ConnTimeout
// bounds the handshake; ctx bounds the TCP dial.
func (c *Client) Connect(ctx context.Context) error {
	cfg := c.config
	authMethods, err := BuildAuthMethods(cfg)
	if err != nil {
		return ecerr.WrapSSH("auth", cfg.Host, cfg.Port, err)
	}
	hkCallback, err := hostKeyCallback(cfg)
	if err != nil {
		return ecerr.WrapSSH("hostkey", cfg.Host, cfg.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         cfg.ConnTimeout,
	}

	addr := cfg.Addr()
	c.logger.Debug("ssh: dialing %s as %s", addr, cfg.User)

	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return ecerr.Wrap("dial", addr, err)
	}

	tcpConn.SetDeadline(time.Now().Add(cfg.ConnTimeout)) //nolint:errcheck
	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return ecerr.WrapSSH("handshake", cfg.Host, cfg.Port, classifyHandshake(err))
	}
	tcpConn.SetDeadline(time.Time{}) //nolint:errcheck

	client := ssh.NewClient(sshConn, chans, reqs)

	c.mu.Lock()
	c.client = client
	c.alive = true
	c.mu.Unlock()

	go c.monitor(client)
	return nil
}

func classifyHandshake(err error) error {
	var keyErr *knownhosts.KeyError
	if errors.As(err, &keyErr) || strings.Contains(err.Error(), "knownhosts: key") {
		return fmt.Errorf("%w: %v", ecerr.ErrHostKeyMismatch, err)
	}
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("%w: %v", ecerr.ErrAuthFailed, err)
	}
	return err
}

func (c *Client) current() (*ssh.Client, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.alive || c.client == nil {
		return nil, ecerr.ErrNotConnected
	}
	return c.client, nil
}

// Dial opens a connection to address from the remote host.
func (c *Client) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	client, err := c.current()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("ssh: forwarding %s %s", network, address)
	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", address, err)
	}
	return conn, nil
}

// Start runs command on the remote host.  The returned stream writes
// to its stdin and reads its stdout; stderr goes to the logger.
// Closing the stream ends the remote session.
func (c *Client) Start(command string) (io.ReadWriteCloser, error) {
	client, err := c.current()
	if err != nil {
		return nil, err
	}
	host, port := c.config.Host, c.config.Port

	sess, err := client.NewSession()
	if err != nil {
		return nil, ecerr.WrapSSH("session", host, port, err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		sess.Close()
		return nil, ecerr.WrapSSH("session", host, port, err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		sess.Close()
		return nil, ecerr.WrapSSH("session", host, port, err)
	}
	stderr, err := sess.StderrPipe()
	if err != nil {
		sess.Close()
		return nil, ecerr.WrapSSH("session", host, port, err)
	}

	c.logger.Verbose("ssh: running %q on %s", command, host)
	if err := sess.Start(command); err != nil {
		sess.Close()
		return nil, ecerr.WrapSSH("exec", host, port, err)
	}
	go logLines(c.logger, host, stderr)

	return &commandStream{sess: sess, stdin: stdin, stdout: stdout}, nil
}

// Close shuts down the SSH connection and every stream on it.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alive = false
	if c.client != nil {
		err := c.client.Close()
		c.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the connection is still up.
func (c *Client) IsAlive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alive
}

func (c *Client) monitor(client *ssh.Client) {
	err := client.Wait()

	c.mu.Lock()
	if c.client == client {
		c.alive = false
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug("ssh: connection to %s closed: %v", c.config.Host, err)
	} else {
		c.logger.Debug("ssh: connection to %s closed", c.config.Host)
	}
}

func logLines(logger *util.Logger, host string, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		logger.Verbose("%s stderr: %s", host, sc.Text())
	}
}

// commandStream is a remote command's stdin and stdout.
type commandStream struct {
	sess   *ssh.Session
	stdin  io.WriteCloser
	stdout io.Reader
	once   sync.Once
	err    error
}

func (s *commandStream) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *commandStream) Write(p []byte) (int, error) { return s.stdin.Write(p) }

func (s *commandStream) Close() error {
	s.once.Do(func() {
		s.stdin.Close()
		s.sess.Signal(ssh.SIGKILL) //nolint:errcheck
		if err := s.sess.Close(); err != nil && !errors.Is(err, io.EOF) {
			s.err = err
		}
	})
	return s.err
}
