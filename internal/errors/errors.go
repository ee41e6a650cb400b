// Package errors provides domain-specific error types for enginectl.
//
// Inside a running engine session nothing is returned to the caller:
// these types travel in Diagnostic events and log lines instead.  They
// are returned as ordinary errors only while an engine is being
// launched or configured, before a session exists.
package errors

import (
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrSessionClosed      = errors.New("engine session is closed")
	ErrNotConnected       = errors.New("not connected")
	ErrTimeout            = errors.New("operation timed out")
	ErrAuthFailed         = errors.New("authentication failed")
	ErrHostKeyMismatch    = errors.New("host key mismatch")
	ErrUnknownProtocol    = errors.New("unknown engine protocol")
	ErrNoSuchOption       = errors.New("no such option")
	ErrInvalidOptionValue = errors.New("invalid option value")
	ErrStalled            = errors.New("stalled connection")
	ErrUnexpectedMove     = errors.New("move outside a search")
	ErrEngineReported     = errors.New("engine reported an error")
	ErrMalformedLine      = errors.New("malformed line")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure reaching a socket engine.
type NetworkError struct {
	Op        string // "dial", "read", "write"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "session", "exec"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ProcessError represents a failure starting or stopping an engine
// executable.
type ProcessError struct {
	Op   string // "start", "pipe", "kill", "wait"
	Path string
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("engine process %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// OptionError describes an option value the session refused to send
// to the engine.  Err is ErrNoSuchOption or ErrInvalidOptionValue.
type OptionError struct {
	Engine string
	Name   string
	Value  string
	Err    error
}

func (e *OptionError) Error() string {
	if errors.Is(e.Err, ErrNoSuchOption) {
		return fmt.Sprintf("%s: %v %q", e.Engine, e.Err, e.Name)
	}
	return fmt.Sprintf("%s: %v for option %q: %q", e.Engine, e.Err, e.Name, e.Value)
}

func (e *OptionError) Unwrap() error { return e.Err }

// ProtocolError describes a line from the engine that could not be
// acted on.
type ProtocolError struct {
	Engine string
	Line   string
	Err    error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v: %q", e.Engine, e.Err, e.Line)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string // config field name
	Value   any    // the invalid value (nil if missing)
	Message string // human-readable explanation
	Hint    string // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// classifyRetryable treats a refused connection as retryable: a socket
// engine that was just spawned may not be listening yet.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Timeout()
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target any) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
