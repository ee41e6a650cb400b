package engine

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"enginectl/option"
	"enginectl/util"
)

// fakeStream is the session's end of a scripted engine.  Lines the
// session writes are recorded; the test plays the engine by calling
// say.
type fakeStream struct {
	r *io.PipeReader
	w *io.PipeWriter

	exitOnQuit atomic.Bool

	mu      sync.Mutex
	written []string
	closed  bool
}

func newFakeStream() *fakeStream {
	r, w := io.Pipe()
	return &fakeStream{r: r, w: w}
}

func (f *fakeStream) Read(p []byte) (int, error) { return f.r.Read(p) }

func (f *fakeStream) Write(p []byte) (int, error) {
	line := strings.TrimSuffix(string(p), "\n")
	f.mu.Lock()
	f.written = append(f.written, line)
	f.mu.Unlock()
	if line == "quit" && f.exitOnQuit.Load() {
		go f.w.Close()
	}
	return len(p), nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return f.r.Close()
}

// say writes raw engine output.
func (f *fakeStream) say(s string) { f.w.Write([]byte(s)) } //nolint:errcheck

// hangUp closes the engine's output.
func (f *fakeStream) hangUp() { f.w.Close() }

func (f *fakeStream) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.written...)
}

func (f *fakeStream) count(line string) int {
	n := 0
	for _, l := range f.lines() {
		if l == line {
			n++
		}
	}
	return n
}

func (f *fakeStream) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeProtocol is a minimal line protocol:
//
//	engine -> session: ready, pong, name N, option N MIN MAX,
//	                   move M, info score S
//	session -> engine: hello, ping, quit, stop, set N V,
//	                   new SIDE, go, result R
type fakeProtocol struct {
	l       Link
	noProbe atomic.Bool
}

func (p *fakeProtocol) StartProtocol() { p.l.Write("hello", Unbuffered) }

func (p *fakeProtocol) SendPing() bool {
	if p.noProbe.Load() {
		return false
	}
	p.l.Write("ping", Unbuffered)
	return true
}

func (p *fakeProtocol) SendQuit()                     { p.l.Write("quit", Unbuffered) }
func (p *fakeProtocol) SendStop()                     { p.l.Write("stop", Unbuffered) }
func (p *fakeProtocol) SendOption(name, value string) { p.l.Write("set "+name+" "+value, Buffered) }
func (p *fakeProtocol) NewGame(side Side)             { p.l.Write("new "+side.String(), Buffered) }
func (p *fakeProtocol) SendGo()                       { p.l.Write("go", Buffered) }
func (p *fakeProtocol) SendResult(r Result)           { p.l.Write("result "+r.String(), Buffered) }

func (p *fakeProtocol) ParseLine(line string) {
	cmd, rest, _ := strings.Cut(line, " ")
	switch cmd {
	case "ready":
		p.l.ProtocolStarted()
	case "pong":
		p.l.Pong()
	case "name":
		p.l.SetName(rest)
	case "option":
		f := strings.Fields(rest)
		if len(f) != 3 {
			p.l.Diagnostic(fmt.Errorf("bad option line %q", line))
			return
		}
		lo, _ := strconv.Atoi(f[1])
		hi, _ := strconv.Atoi(f[2])
		p.l.Options().Add(&option.Option{Name: f[0], Kind: option.Spin, Default: f[1], Min: lo, Max: hi})
	case "move":
		p.l.ReportMove(rest)
	case "info":
		var score int
		fmt.Sscanf(rest, "score %d", &score) //nolint:errcheck
		p.l.ReportInfo(Info{Score: score})
	}
}

// recorder collects events in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.all() {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) countLine(kind EventKind, line string) int {
	n := 0
	for _, ev := range r.all() {
		if ev.Kind == kind && ev.Line == line {
			n++
		}
	}
	return n
}

// index returns the position of the first event of kind, or -1.
func (r *recorder) index(kind EventKind) int {
	for i, ev := range r.all() {
		if ev.Kind == kind {
			return i
		}
	}
	return -1
}

func (r *recorder) last(kind EventKind) (Event, bool) {
	evs := r.all()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Kind == kind {
			return evs[i], true
		}
	}
	return Event{}, false
}

type harness struct {
	t      *testing.T
	s      *Session
	stream *fakeStream
	proto  *fakeProtocol
	rec    *recorder
	cancel context.CancelFunc
}

func testConfig() Config {
	return Config{
		Name:        "fake",
		PingTimeout: 50 * time.Millisecond,
		IdleTimeout: 50 * time.Millisecond,
		QuitTimeout: 100 * time.Millisecond,
		Logger:      util.NopLogger(),
	}
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{t: t, stream: newFakeStream(), rec: &recorder{}}
	cfg.Handler = h.rec.handle

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.s = New(ctx, 7, h.stream, func(l Link) Protocol {
		h.proto = &fakeProtocol{l: l}
		return h.proto
	}, cfg)

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.s.Done():
		case <-time.After(2 * time.Second):
			t.Error("session did not finish")
		}
	})
	return h
}

// startIdle runs the handshake and waits for the session to go idle.
func (h *harness) startIdle() {
	h.t.Helper()
	h.s.Start()
	h.engineSays("ready")
	if st := h.s.State(); st != Idle {
		h.t.Fatalf("state after handshake = %s, want idle", st)
	}
}

// engineSays sends one line from the engine and waits until the
// session has processed it.
func (h *harness) engineSays(line string) {
	h.t.Helper()
	before := h.rec.countLine(EventLineIn, line)
	h.stream.say(line + "\n")
	eventually(h.t, "line "+strconv.Quote(line), func() bool {
		return h.rec.countLine(EventLineIn, line) > before
	})
	// Any call queues behind the parse of the line.
	h.s.State()
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
}
