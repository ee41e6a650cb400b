package errors

import (
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
)

func TestNetworkError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  NetworkError
		want string
	}{
		{
			name: "retryable",
			err:  NetworkError{Op: "dial", Addr: "127.0.0.1:16000", Err: io.EOF, Retryable: true},
			want: "dial 127.0.0.1:16000: EOF (retryable)",
		},
		{
			name: "non-retryable",
			err:  NetworkError{Op: "write", Addr: "engine:9999", Err: fmt.Errorf("broken pipe")},
			want: "write engine:9999: broken pipe",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("exec", "engines.example.com", 22, fmt.Errorf("command not found"))
	want := "ssh exec engines.example.com:22: command not found"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !Is(err, err.Err) {
		t.Error("should unwrap to inner error")
	}
}

func TestProcessError_Format(t *testing.T) {
	inner := fmt.Errorf("no such file or directory")
	err := &ProcessError{Op: "start", Path: "/usr/games/stockfish", Err: inner}
	want := "engine process start /usr/games/stockfish: no such file or directory"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !Is(err, inner) {
		t.Error("should unwrap to inner error")
	}
}

func TestOptionError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *OptionError
		want string
	}{
		{
			name: "unknown",
			err:  &OptionError{Engine: "stockfish", Name: "Hashh", Value: "64", Err: ErrNoSuchOption},
			want: `stockfish: no such option "Hashh"`,
		},
		{
			name: "invalid",
			err:  &OptionError{Engine: "stockfish", Name: "Hash", Value: "0", Err: ErrInvalidOptionValue},
			want: `stockfish: invalid option value for option "Hash": "0"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if !Is(tt.err, tt.err.Err) {
				t.Error("should unwrap to sentinel")
			}
		})
	}
}

func TestProtocolError_Format(t *testing.T) {
	err := &ProtocolError{Engine: "sf", Line: "bestmove e2e4", Err: ErrUnexpectedMove}
	want := `sf: move outside a search: "bestmove e2e4"`
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrUnexpectedMove) {
		t.Error("should unwrap to ErrUnexpectedMove")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "protocol",
				Value:   "winboard3",
				Message: "unknown protocol",
				Hint:    "use uci or xboard",
			},
			want: "config: --protocol=winboard3: unknown protocol\n  hint: use uci or xboard",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "connect",
				Message: "required with --transport=tcp",
			},
			want: "config: --connect: required with --transport=tcp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	inner := fmt.Errorf("dial tcp: %w", syscall.ECONNREFUSED)
	err := Wrap("dial", "127.0.0.1:16000", inner)

	if err.Op != "dial" || err.Addr != "127.0.0.1:16000" {
		t.Errorf("wrong fields: Op=%q Addr=%q", err.Op, err.Addr)
	}
	if !err.Retryable {
		t.Error("refused connection should be retryable")
	}
	if !Is(err, syscall.ECONNREFUSED) {
		t.Error("should unwrap to ECONNREFUSED")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF, Retryable: true}, true},
		{"non-retryable network", &NetworkError{Op: "dial", Addr: "x", Err: io.EOF, Retryable: false}, false},
		{"refused", syscall.ECONNREFUSED, true},
		{"temporary dns", &net.DNSError{IsTemporary: true}, true},
		{"plain error", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrSessionClosed, ErrNotConnected, ErrTimeout, ErrAuthFailed,
		ErrHostKeyMismatch, ErrUnknownProtocol, ErrNoSuchOption,
		ErrInvalidOptionValue, ErrStalled, ErrUnexpectedMove,
		ErrEngineReported, ErrMalformedLine,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
