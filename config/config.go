// Package config defines the runtime configuration for enginectl and
// provides helpers for parsing option, SSH and transport specs.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"enginectl/engine"
	ecerr "enginectl/internal/errors"
	"enginectl/protocol"
	"enginectl/util"
)

// Config holds every tuneable for one enginectl run.
type Config struct {
	Mode    string // "probe" or "console"
	Verbose int
	Engine  EngineConfig
}

// EngineConfig describes one engine: where it runs, how to talk to it,
// and what to send it before normal operation.
type EngineConfig struct {
	// ── Identity and protocol ────────────────────────────────────────
	Name     string
	Protocol string

	// ── Launch ───────────────────────────────────────────────────────
	Transport Transport
	Command   string   // executable (process, ssh)
	Args      []string // process arguments
	Dir       string   // process working directory
	Address   string   // host:port (tcp)
	SSH       SSHConfig

	// ── Setup ────────────────────────────────────────────────────────
	InitStrings  []string
	Options      []engine.OptionValue
	WhiteEvalPOV bool

	Timeouts Timeouts
}

// SSHConfig selects an SSH host: the engine's host for the ssh
// transport, or a gateway for tcp.
type SSHConfig struct {
	Spec          string // raw [user@]host[:port]
	User          string
	Host          string
	Port          int
	KeyPath       string
	Password      string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
}

// Enabled reports whether an SSH host was given.
func (s *SSHConfig) Enabled() bool { return s.Host != "" }

// Timeouts are the session's timer intervals plus launch limits.
type Timeouts struct {
	Ping      time.Duration
	Idle      time.Duration
	Quit      time.Duration
	Feature   time.Duration // Xboard feature handshake
	KillGrace time.Duration
	Connect   time.Duration
	Ready     time.Duration // probe mode's wait for the handshake
}

// ── Transport ────────────────────────────────────────────────────────

// Transport says where an engine runs.
type Transport string

const (
	TransportProcess Transport = "process"
	TransportTCP     Transport = "tcp"
	TransportSSH     Transport = "ssh"
)

// ParseTransport accepts "process", "tcp" or "ssh".  An empty string
// selects the process transport.
func ParseTransport(s string) (Transport, error) {
	switch t := Transport(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return TransportProcess, nil
	case TransportProcess, TransportTCP, TransportSSH:
		return t, nil
	}
	return "", fmt.Errorf("invalid transport %q: want process, tcp or ssh", s)
}

// ── Option specs ─────────────────────────────────────────────────────

// ParseOptionSpec splits "name=value".  The value may be empty, as for
// button options, but the name may not.
func ParseOptionSpec(spec string) (engine.OptionValue, error) {
	name, value, ok := strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return engine.OptionValue{}, fmt.Errorf("invalid option %q: expected name=value", spec)
	}
	return engine.OptionValue{Name: name, Value: strings.TrimSpace(value)}, nil
}

// ── SSH address parser ──────────────────────────────────────────────────

// sshRe matches [user@]host[:port].
var sshRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseSSHSpec extracts user, host, and port from a string such as
// "chess@engines.example.com:2222".  Port defaults to 22.
func ParseSSHSpec(spec string) (user, host string, port int, err error) {
	m := sshRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid SSH spec %q: expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid SSH port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeProbe, ModeConsole:
	default:
		return &ecerr.ConfigError{Field: "mode", Value: c.Mode, Message: "unknown mode",
			Hint: "use probe or console"}
	}
	return c.Engine.Validate()
}

// Validate checks one engine definition.
func (e *EngineConfig) Validate() error {
	if !protocol.Valid(e.Protocol) {
		return &ecerr.ConfigError{Field: "protocol", Value: e.Protocol, Message: "unknown protocol",
			Hint: "use " + strings.Join(protocol.Names(), " or ")}
	}

	switch e.Transport {
	case TransportProcess:
		if e.Command == "" {
			return &ecerr.ConfigError{Field: "command", Message: "engine command is required",
				Hint: "enginectl [flags] <engine> [args...]"}
		}
	case TransportTCP:
		if _, _, err := util.SplitAddr(e.Address, 0); err != nil {
			return &ecerr.ConfigError{Field: "connect", Value: e.Address, Message: "host:port is required"}
		}
	case TransportSSH:
		if !e.SSH.Enabled() {
			return &ecerr.ConfigError{Field: "ssh", Message: "the ssh transport requires an SSH host"}
		}
		if e.Command == "" {
			return &ecerr.ConfigError{Field: "command", Message: "remote engine command is required"}
		}
	default:
		return &ecerr.ConfigError{Field: "transport", Value: e.Transport, Message: "unknown transport"}
	}

	if e.Transport == TransportProcess && e.SSH.Enabled() {
		return &ecerr.ConfigError{Field: "ssh", Value: e.SSH.Spec,
			Message: "a local process cannot run through SSH", Hint: "use --transport ssh"}
	}
	if e.SSH.PromptPass && e.SSH.Password != "" {
		return &ecerr.ConfigError{Field: "ssh-password",
			Message: "prompting is pointless when ENGINECTL_SSH_PASSWORD is set"}
	}

	for _, d := range []struct {
		field string
		v     time.Duration
	}{
		{"ping-timeout", e.Timeouts.Ping},
		{"idle-timeout", e.Timeouts.Idle},
		{"quit-timeout", e.Timeouts.Quit},
	} {
		if d.v <= 0 {
			return &ecerr.ConfigError{Field: d.field, Value: d.v, Message: "must be positive"}
		}
	}
	for _, o := range e.Options {
		if o.Name == "" {
			return &ecerr.ConfigError{Field: "option", Message: "option name is empty"}
		}
	}
	return nil
}
