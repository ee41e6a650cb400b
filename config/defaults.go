package config

import (
	"time"

	"enginectl/engine"
	"enginectl/internal/transport"
	"enginectl/protocol"
	"enginectl/protocol/xboard"
)

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

// Modes.
const (
	ModeProbe   = "probe"
	ModeConsole = "console"
)

const (
	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultProtocol is spoken when none is given.
	DefaultProtocol = protocol.UCI

	// DefaultMode runs the handshake, lists the options and quits.
	DefaultMode = ModeProbe

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second

	// DefaultReadyTimeout bounds probe mode's wait for the handshake.
	DefaultReadyTimeout = 30 * time.Second
)

// DefaultTimeouts returns the standard timer intervals.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Ping:      engine.DefaultPingTimeout,
		Idle:      engine.DefaultIdleTimeout,
		Quit:      engine.DefaultQuitTimeout,
		Feature:   xboard.DefaultFeatureTimeout,
		KillGrace: transport.DefaultKillGrace,
		Connect:   DefaultConnTimeout,
		Ready:     DefaultReadyTimeout,
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Mode: DefaultMode,
		Engine: EngineConfig{
			Protocol:  DefaultProtocol,
			Transport: TransportProcess,
			Timeouts:  DefaultTimeouts(),
		},
	}
}
