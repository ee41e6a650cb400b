package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig holds the raw ENGINECTL_* values.  Booleans accept what
// strconv.ParseBool accepts; durations use time.ParseDuration syntax.
// List variables are separated by ";" since option values and init
// strings may contain commas.
type envConfig struct {
	Mode      string `env:"ENGINECTL_MODE"`
	Verbose   int    `env:"ENGINECTL_VERBOSE"`
	Name      string `env:"ENGINECTL_NAME"`
	Protocol  string `env:"ENGINECTL_PROTOCOL"`
	Transport string `env:"ENGINECTL_TRANSPORT"`
	Connect   string `env:"ENGINECTL_CONNECT"`
	Dir       string `env:"ENGINECTL_DIR"`

	SSH           string `env:"ENGINECTL_SSH"`
	SSHKey        string `env:"ENGINECTL_SSH_KEY"`
	SSHPassword   string `env:"ENGINECTL_SSH_PASSWORD"`
	SSHAgent      bool   `env:"ENGINECTL_SSH_AGENT"`
	StrictHostKey bool   `env:"ENGINECTL_STRICT_HOSTKEY"`
	KnownHosts    string `env:"ENGINECTL_KNOWN_HOSTS"`

	Options  []string `env:"ENGINECTL_OPTIONS" envSeparator:";"`
	Init     []string `env:"ENGINECTL_INIT" envSeparator:";"`
	WhitePOV bool     `env:"ENGINECTL_WHITE_POV"`

	PingTimeout    time.Duration `env:"ENGINECTL_PING_TIMEOUT"`
	IdleTimeout    time.Duration `env:"ENGINECTL_IDLE_TIMEOUT"`
	QuitTimeout    time.Duration `env:"ENGINECTL_QUIT_TIMEOUT"`
	FeatureTimeout time.Duration `env:"ENGINECTL_FEATURE_TIMEOUT"`
	KillGrace      time.Duration `env:"ENGINECTL_KILL_GRACE"`
	ConnTimeout    time.Duration `env:"ENGINECTL_CONNECT_TIMEOUT"`
	ReadyTimeout   time.Duration `env:"ENGINECTL_READY_TIMEOUT"`
}

// LoadFromEnv overlays environment variables onto cfg.  Only set,
// non-zero variables override the existing value.  Call it BEFORE CLI
// flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) error {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&cfg.Mode, raw.Mode)
	if raw.Verbose > 0 {
		cfg.Verbose = raw.Verbose
	}

	e := &cfg.Engine
	setString(&e.Name, raw.Name)
	setString(&e.Protocol, raw.Protocol)
	setString(&e.Address, raw.Connect)
	setString(&e.Dir, raw.Dir)
	if raw.Transport != "" {
		t, err := ParseTransport(raw.Transport)
		if err != nil {
			return fmt.Errorf("ENGINECTL_TRANSPORT: %w", err)
		}
		e.Transport = t
	}

	if raw.SSH != "" {
		if err := e.SSH.SetSpec(raw.SSH); err != nil {
			return fmt.Errorf("ENGINECTL_SSH: %w", err)
		}
	}
	setString(&e.SSH.KeyPath, raw.SSHKey)
	setString(&e.SSH.Password, raw.SSHPassword)
	setString(&e.SSH.KnownHosts, raw.KnownHosts)
	e.SSH.UseAgent = e.SSH.UseAgent || raw.SSHAgent
	e.SSH.StrictHostKey = e.SSH.StrictHostKey || raw.StrictHostKey

	for _, spec := range raw.Options {
		o, err := ParseOptionSpec(spec)
		if err != nil {
			return fmt.Errorf("ENGINECTL_OPTIONS: %w", err)
		}
		e.Options = append(e.Options, o)
	}
	e.InitStrings = append(e.InitStrings, raw.Init...)
	e.WhiteEvalPOV = e.WhiteEvalPOV || raw.WhitePOV

	setDuration(&e.Timeouts.Ping, raw.PingTimeout)
	setDuration(&e.Timeouts.Idle, raw.IdleTimeout)
	setDuration(&e.Timeouts.Quit, raw.QuitTimeout)
	setDuration(&e.Timeouts.Feature, raw.FeatureTimeout)
	setDuration(&e.Timeouts.KillGrace, raw.KillGrace)
	setDuration(&e.Timeouts.Connect, raw.ConnTimeout)
	setDuration(&e.Timeouts.Ready, raw.ReadyTimeout)
	return nil
}

// SetSpec parses and stores a [user@]host[:port] spec.
func (s *SSHConfig) SetSpec(spec string) error {
	user, host, port, err := ParseSSHSpec(spec)
	if err != nil {
		return err
	}
	s.Spec, s.User, s.Host, s.Port = spec, user, host, port
	return nil
}

// ── helpers ──────────────────────────────────────────────────────────

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
