package engine

import (
	"time"

	"enginectl/option"
	"enginectl/util"
)

// Protocol is the hook set a wire-protocol adapter implements.  All
// methods run on the session goroutine and must not block.
type Protocol interface {
	// StartProtocol begins the handshake.  The adapter must call
	// Link.ProtocolStarted once the engine has acknowledged it.
	StartProtocol()
	// SendPing writes a liveness probe and reports whether one was
	// sent.  It returns false when the current state allows no probe.
	SendPing() bool
	// SendQuit writes the protocol's termination command.
	SendQuit()
	// SendStop asks the engine to stop the current search.
	SendStop()
	// SendOption writes the command that sets an option.  The value
	// has already been validated.
	SendOption(name, value string)
	// ParseLine decodes one framed line from the engine.
	ParseLine(line string)
}

// GameProtocol is implemented by adapters that can drive a game.  It
// is optional: without it the session tracks game state only.
type GameProtocol interface {
	// NewGame prepares the engine for a new game played as side.
	NewGame(side Side)
	// SendGo tells the engine to start thinking on its move.
	SendGo()
	// SendResult tells the engine how the game ended.
	SendResult(r Result)
}

// Factory builds the adapter for a session.
type Factory func(Link) Protocol

// Link is the set of session services available to an adapter.  Its
// methods must only be called from adapter hooks or from functions
// passed to Schedule.
type Link interface {
	ID() int64
	Name() string
	SetName(name string)
	State() State
	Side() Side

	// Write sends a line, or holds it back according to mode.
	Write(line string, mode WriteMode)
	// ProtocolStarted completes the handshake begun by StartProtocol.
	ProtocolStarted()
	// Pong acknowledges the outstanding liveness probe.
	Pong()
	// Options is the registry the adapter declares options into.
	Options() *option.Registry

	ReportMove(move string)
	ReportInfo(info Info)
	Diagnostic(err error)

	// Schedule runs fn on the session goroutine after d.  The returned
	// function cancels it.  Pending functions never run once the
	// session has finished.
	Schedule(d time.Duration, fn func()) (cancel func())

	Logger() *util.Logger
}
