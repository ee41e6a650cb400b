// Package enginetest provides a scripted engine.Link for testing
// protocol adapters without a session.
package enginetest

import (
	"time"

	"enginectl/engine"
	"enginectl/option"
	"enginectl/util"
)

// Write is one line an adapter wrote.
type Write struct {
	Line string
	Mode engine.WriteMode
}

// Scheduled is a function an adapter scheduled.
type Scheduled struct {
	After     time.Duration
	Fn        func()
	Cancelled bool
}

// Link records everything an adapter does.  Fields may be set directly
// to steer the adapter.  It is not safe for concurrent use.
type Link struct {
	SessionID   int64
	EngineName  string
	EngineState engine.State
	EngineSide  engine.Side

	Writes      []Write
	Started     int
	Pongs       int
	Moves       []string
	Infos       []engine.Info
	Diagnostics []error
	Timers      []*Scheduled

	opts *option.Registry
	log  *util.Logger
}

// NewLink returns a Link in the Starting state.
func NewLink() *Link {
	return &Link{
		SessionID:   1,
		EngineName:  "engine1",
		EngineState: engine.Starting,
		opts:        option.NewRegistry(),
		log:         util.NopLogger(),
	}
}

// Lines returns the written lines without their modes.
func (l *Link) Lines() []string {
	lines := make([]string, len(l.Writes))
	for i, w := range l.Writes {
		lines[i] = w.Line
	}
	return lines
}

// Reset forgets the recorded writes.
func (l *Link) Reset() { l.Writes = nil }

// Fire runs every pending scheduled function.
func (l *Link) Fire() {
	for _, t := range l.Timers {
		if !t.Cancelled {
			t.Cancelled = true
			t.Fn()
		}
	}
}

func (l *Link) ID() int64 { return l.SessionID }
func (l *Link) Name() string { return l.EngineName }
func (l *Link) SetName(name string) { l.EngineName = name }
func (l *Link) State() engine.State { return l.EngineState }
func (l *Link) Side() engine.Side { return l.EngineSide }
func (l *Link) Options() *option.Registry { return l.opts }
func (l *Link) Logger() *util.Logger { return l.log }
func (l *Link) ProtocolStarted() { l.Started++ }
func (l *Link) Pong() { l.Pongs++ }
func (l *Link) ReportMove(move string) { l.Moves = append(l.Moves, move) }
func (l *Link) ReportInfo(info engine.Info) { l.Infos = append(l.Infos, info) }
func (l *Link) Diagnostic(err error) { l.Diagnostics = append(l.Diagnostics, err) }

func (l *Link) Write(line string, mode engine.WriteMode) {
	l.Writes = append(l.Writes, Write{Line: line, Mode: mode})
}

func (l *Link) Schedule(d time.Duration, fn func()) (cancel func()) {
	t := &Scheduled{After: d, Fn: fn}
	l.Timers = append(l.Timers, t)
	return func() { t.Cancelled = true }
}
