package core

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"enginectl/config"
	"enginectl/internal/metrics"
	"enginectl/util"
)

// scriptedEngine answers each exact input line with canned replies.
// It exits on "quit" and hangs up on hangUpOn.
type scriptedEngine struct {
	replies  map[string][]string
	hangUpOn string

	mu       sync.Mutex
	received []string
	launches atomic.Int32
}

func uciEngine() *scriptedEngine {
	return &scriptedEngine{replies: map[string][]string{
		"uci": {
			"id name FakeFish 1.0",
			"id author nobody",
			"option name Hash type spin default 16 min 1 max 1024",
			"option name Ponder type check default false",
			"uciok",
		},
		"isready":     {"readyok"},
		"go infinite": {"info depth 1 score cp 20 nodes 30 pv e2e4"},
		"stop":        {"bestmove e2e4"},
	}}
}

func (e *scriptedEngine) String() string { return "scripted" }

func (e *scriptedEngine) Launch(context.Context) (io.ReadWriteCloser, error) {
	e.launches.Add(1)
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	go func() {
		defer inR.Close()
		defer outW.Close()
		sc := bufio.NewScanner(inR)
		for sc.Scan() {
			line := sc.Text()
			e.mu.Lock()
			e.received = append(e.received, line)
			e.mu.Unlock()
			if line == "quit" || line == e.hangUpOn {
				return
			}
			for _, r := range e.replies[line] {
				fmt.Fprintln(outW, r)
			}
		}
	}()
	return &pipeStream{r: outR, w: inW}, nil
}

func (e *scriptedEngine) got(line string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range e.received {
		if l == line {
			return true
		}
	}
	return false
}

type pipeStream struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeStream) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeStream) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipeStream) Close() error {
	p.w.Close()
	return p.r.Close()
}

func testEngineConfig() *config.EngineConfig {
	cfg := config.Default().Engine
	cfg.Command = "fakefish"
	cfg.Timeouts.Quit = 500 * time.Millisecond
	cfg.Timeouts.Ready = 2 * time.Second
	return &cfg
}

func testManager(t *testing.T, cfg *config.EngineConfig, e *scriptedEngine) *Manager {
	t.Helper()
	m := NewManager(cfg, util.NopLogger(), metrics.New())
	m.Launcher = e
	return m
}

// lockedBuffer is a bytes.Buffer safe for the event goroutine.
type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func runWithTimeout(t *testing.T, m Mode) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.Run(ctx)
}
