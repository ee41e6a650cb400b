package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	ecerr "enginectl/internal/errors"
	"enginectl/internal/framer"
	"enginectl/internal/metrics"
	"enginectl/option"
	"enginectl/util"
)

// Config tunes a Session.  Zero durations select the defaults.
type Config struct {
	// Name is the engine's display name until the engine reports its
	// own.
	Name string

	PingTimeout time.Duration
	IdleTimeout time.Duration
	QuitTimeout time.Duration

	Handler EventHandler
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Session is one managed connection to a single engine.  Its methods
// are safe for concurrent use; each one runs on the session goroutine
// and returns once it has taken effect.
type Session struct {
	id  int64
	log *util.Logger
	met *metrics.Collector

	ops     chan func()
	in      inbox
	stopped chan struct{} // loop has exited
	done    chan struct{} // loop has exited and events are delivered
	events  *dispatcher

	// Everything below is owned by the loop goroutine.
	name         string
	state        State
	side         Side
	pinging      bool
	pingState    State
	whiteEvalPOV bool
	quitting     bool
	exit         bool

	writeBuf  writeBuffer
	optionBuf map[string]string
	options   *option.Registry

	stream io.ReadWriteCloser
	open   bool
	onEOF  func(error) // nil while disconnect notifications are detached
	framer framer.Framer

	proto Protocol
	game  GameProtocol

	pingTimer *oneShot
	idleTimer *oneShot
	quitTimer *oneShot
}

// New creates a session that owns stream and starts reading from it.
// id identifies the session in diagnostics; whoever creates sessions
// hands out the ids.  The engine is not sent anything before Start.
// Cancelling ctx terminates the engine and finishes the session.
func New(ctx context.Context, id int64, stream io.ReadWriteCloser, newProtocol Factory, cfg Config) *Session {
	s := &Session{
		id:        id,
		log:       cfg.Logger,
		met:       cfg.Metrics,
		ops:       make(chan func()),
		in:        inbox{wake: make(chan struct{}, 1)},
		stopped:   make(chan struct{}),
		done:      make(chan struct{}),
		events:    newDispatcher(cfg.Handler),
		name:      cfg.Name,
		state:     NotStarted,
		pingState: NotStarted,
		writeBuf:  newWriteBuffer(),
		optionBuf: make(map[string]string),
		options:   option.NewRegistry(),
		stream:    stream,
		open:      true,
	}
	if s.name == "" {
		s.name = fmt.Sprintf("engine%d", id)
	}
	s.onEOF = s.onDisconnect

	s.pingTimer = s.newTimer(orDefault(cfg.PingTimeout, DefaultPingTimeout), s.onPingTimeout)
	s.idleTimer = s.newTimer(orDefault(cfg.IdleTimeout, DefaultIdleTimeout), s.onIdleTimeout)
	s.quitTimer = s.newTimer(orDefault(cfg.QuitTimeout, DefaultQuitTimeout), func() { s.endQuit(true) })

	s.proto = newProtocol(link{s})
	if g, ok := s.proto.(GameProtocol); ok {
		s.game = g
	}

	s.met.SessionOpened()
	go framer.Pump(stream, s.in.push, s.in.finish)
	go s.loop(ctx)
	return s
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// ── Reactive loop ────────────────────────────────────────────────────

func (s *Session) loop(ctx context.Context) {
	defer func() {
		s.pingTimer.stop()
		s.idleTimer.stop()
		s.quitTimer.stop()
		s.options.Clear()
		s.met.SessionClosed()
		close(s.stopped)
		s.events.close()
		<-s.events.done
		close(s.done)
	}()

	ctxDone := ctx.Done()
	for !s.exit {
		select {
		case op := <-s.ops:
			op()
		case <-s.in.wake:
			s.readAvailable()
		case <-ctxDone:
			ctxDone = nil
			s.log.Verbose("%s(%d): context cancelled, terminating", s.name, s.id)
			s.quitTimer.stop()
			s.closeConnection()
			s.finishQuit(true)
		}
	}
}

// post queues fn for the loop without waiting for it.  It reports
// false once the session has finished.
func (s *Session) post(fn func()) bool {
	select {
	case s.ops <- fn:
		return true
	case <-s.stopped:
		return false
	}
}

// call runs fn on the loop and waits for it to complete.
func (s *Session) call(fn func()) bool {
	finished := make(chan struct{})
	if !s.post(func() { defer close(finished); fn() }) {
		return false
	}
	<-finished
	return true
}

// inbox carries stream data from the pump goroutine to the loop
// without ever blocking the pump.
type inbox struct {
	mu     sync.Mutex
	chunks [][]byte
	err    error
	eof    bool
	wake   chan struct{}
}

func (b *inbox) push(p []byte) {
	b.mu.Lock()
	b.chunks = append(b.chunks, p)
	b.mu.Unlock()
	b.signal()
}

func (b *inbox) finish(err error) {
	b.mu.Lock()
	b.err, b.eof = err, true
	b.mu.Unlock()
	b.signal()
}

func (b *inbox) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// take empties the inbox.  The end of stream is reported once.
func (b *inbox) take() (chunks [][]byte, eof bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	chunks, b.chunks = b.chunks, nil
	eof, err = b.eof, b.err
	b.eof = false
	return chunks, eof, err
}

func (s *Session) readAvailable() {
	chunks, eof, err := s.in.take()
	for _, c := range chunks {
		s.onData(c)
	}
	if eof && s.onEOF != nil {
		s.onEOF(err)
	}
}

func (s *Session) onData(p []byte) {
	s.framer.Feed(p)
	for line := range s.framer.Lines() {
		if !s.open {
			return
		}
		s.idleTimer.stop()
		s.met.LineReceived(len(line))
		s.log.Debug("<%s(%d): %s", s.name, s.id, line)
		s.emit(Event{Kind: EventLineIn, Line: line})
		s.proto.ParseLine(line)
	}
}

// ── Events and state ─────────────────────────────────────────────────

func (s *Session) emit(ev Event) {
	ev.Session = s.id
	ev.Engine = s.name
	s.events.push(ev)
}

func (s *Session) setState(st State) {
	if s.state == st {
		return
	}
	s.state = st
	s.emit(Event{Kind: EventStateChanged, State: st})
}

func (s *Session) isReady() bool {
	if s.pinging {
		return false
	}
	switch s.state {
	case NotStarted, Starting, FinishingGame:
		return false
	}
	return true
}

// ── Lifecycle ────────────────────────────────────────────────────────

func (s *Session) start() {
	if s.state != NotStarted {
		return
	}
	s.pinging = false
	s.setState(Starting)
	s.flush()

	s.proto.StartProtocol()
	// The handshake counts as an outstanding probe until the adapter
	// reports it complete (which it may already have done).
	if s.state == Starting {
		s.pinging = true
	}
}

func (s *Session) protocolStarted() {
	if s.state != Starting {
		return
	}
	s.pinging = false
	s.setState(Idle)
	s.flush()
	s.applyPendingOptions()
	s.emit(Event{Kind: EventReady})
}

// closeConnection tears the stream down.  Disconnect notifications are
// detached first so closing never reports a disconnect of its own.
func (s *Session) closeConnection() {
	if s.state == Disconnected {
		return
	}
	s.setState(Disconnected)

	s.pinging = false
	s.pingTimer.stop()
	s.idleTimer.stop()
	s.writeBuf.clear()
	s.emit(Event{Kind: EventReady})

	s.onEOF = nil
	if s.open {
		s.open = false
		if err := s.stream.Close(); err != nil && !util.IsClosedErr(err) {
			s.log.Verbose("%s(%d): close: %v", s.name, s.id, err)
		}
	}
	s.emit(Event{Kind: EventDisconnected})
}

func (s *Session) forfeit(reason ForfeitReason) {
	s.log.Error("%s(%d) forfeits: %s", s.name, s.id, reason)
	s.met.Forfeit(string(reason))
	s.emit(Event{Kind: EventForfeit, Forfeit: reason})
}

// onDisconnect handles the engine closing its output outside a quit.
func (s *Session) onDisconnect(err error) {
	if s.state == Disconnected {
		return
	}
	if !util.IsClosedErr(err) {
		s.log.Warn("%s(%d): read: %v", s.name, s.id, err)
	}
	s.log.Info("%s(%d) disconnected", s.name, s.id)
	s.closeConnection()
	s.forfeit(Disconnection)
}

// ── Turn taking ──────────────────────────────────────────────────────

func (s *Session) newGame(side Side) {
	if s.state != Idle {
		s.log.Verbose("%s(%d): new game ignored while %s", s.name, s.id, s.state)
		return
	}
	s.side = side
	s.setState(Observing)
	if s.game != nil {
		s.game.NewGame(side)
	}
}

func (s *Session) goThink() {
	// Confirm the engine is alive before committing it to think.
	if s.state == Observing {
		s.ping()
	}
	if s.state != Observing && s.state != Idle {
		s.log.Verbose("%s(%d): go ignored while %s", s.name, s.id, s.state)
		return
	}
	s.setState(Thinking)
	if s.game != nil {
		s.game.SendGo()
	}
}

func (s *Session) endGame(r Result) {
	if s.state == Thinking || s.state == Observing {
		s.idleTimer.stop()
		s.setState(FinishingGame)
		if s.game != nil {
			s.game.SendResult(r)
		}
	}
	// Resynchronize before the next game.  An engine that cannot be
	// probed is taken at its word.
	if !s.ping() && s.state == FinishingGame && !s.pinging {
		s.setState(Idle)
		s.emit(Event{Kind: EventReady})
	}
}

func (s *Session) stopThinking() {
	if s.state != Thinking || s.pinging {
		return
	}
	s.idleTimer.start()
	s.proto.SendStop()
}

func (s *Session) onIdleTimeout() {
	if s.state != Thinking || s.pinging {
		return
	}
	s.log.Error("%s(%d) did not stop thinking", s.name, s.id)
	s.writeBuf.clear()
	s.closeConnection()
	s.forfeit(StalledConnection)
}

func (s *Session) reportMove(move string) {
	if s.state != Thinking {
		s.diagnostic(&ecerr.ProtocolError{Engine: s.name, Line: move, Err: ecerr.ErrUnexpectedMove})
		return
	}
	s.idleTimer.stop()
	s.setState(Observing)
	s.emit(Event{Kind: EventMove, Line: move})
}

func (s *Session) reportInfo(info Info) {
	if s.whiteEvalPOV && s.side == Black {
		info.Score = -info.Score
		info.Mate = -info.Mate
	}
	s.emit(Event{Kind: EventInfo, Info: &info})
}

func (s *Session) diagnostic(err error) {
	s.log.Warn("%s(%d): %v", s.name, s.id, err)
	s.emit(Event{Kind: EventDiagnostic, Err: err})
}

// ── Public API ───────────────────────────────────────────────────────

// ID returns the session id.
func (s *Session) ID() int64 { return s.id }

// Done is closed once the session has finished and every event has
// been delivered.
func (s *Session) Done() <-chan struct{} { return s.done }

// Start begins the protocol handshake.  Lines written before Start are
// sent first, in order.
func (s *Session) Start() { s.call(s.start) }

// NewGame moves an idle session into a game played as side.
func (s *Session) NewGame(side Side) { s.call(func() { s.newGame(side) }) }

// Go tells the engine to think on its move.  An observing engine is
// probed first.
func (s *Session) Go() { s.call(s.goThink) }

// EndGame reports the game's result to the engine and resynchronizes
// with it.
func (s *Session) EndGame(r Result) { s.call(func() { s.endGame(r) }) }

// StopThinking asks a thinking engine to move now.  An engine that
// stays silent for the idle timeout forfeits.
func (s *Session) StopThinking() { s.call(s.stopThinking) }

// Ping probes the engine.  It does nothing while a probe is already
// outstanding or the adapter cannot probe in the current state.
func (s *Session) Ping() { s.call(func() { s.ping() }) }

// Write sends a raw protocol line, buffered while the engine is busy
// confirming liveness.
func (s *Session) Write(line string) { s.call(func() { s.write(line, Buffered) }) }

// SetOption sets an engine option.  Before the handshake completes the
// value is remembered and applied afterwards.
func (s *Session) SetOption(name, value string) {
	s.call(func() { s.setOption(name, value) })
}

// ApplyConfiguration queues the init lines, applies the option values
// and records the score perspective.
func (s *Session) ApplyConfiguration(setup Setup) {
	s.call(func() { s.applyConfiguration(setup) })
}

// Quit asks the engine to exit, terminating it if it does not within
// the quit timeout.  The session is finished afterwards; wait on Done.
func (s *Session) Quit() { s.call(s.quit) }

// IsReady reports whether the session may be given new commands.  It
// is always false while a probe is outstanding.
func (s *Session) IsReady() bool {
	var ready bool
	if !s.call(func() { ready = s.isReady() }) {
		return false
	}
	return ready
}

// State returns the current state.
func (s *Session) State() State {
	var st State
	if !s.call(func() { st = s.state }) {
		// The loop has exited; its fields are no longer written.
		return s.state
	}
	return st
}

// Name returns the engine's display name.
func (s *Session) Name() string {
	var name string
	if !s.call(func() { name = s.name }) {
		return s.name
	}
	return name
}

// Options returns the options the engine declared.  It is empty once
// the session has finished.
func (s *Session) Options() []option.Option {
	var opts []option.Option
	s.call(func() { opts = s.options.All() })
	return opts
}

// PendingWrites returns the number of lines waiting in the write
// buffer.
func (s *Session) PendingWrites() int {
	var n int
	if !s.call(func() { n = s.writeBuf.len() }) {
		return s.writeBuf.len()
	}
	return n
}
