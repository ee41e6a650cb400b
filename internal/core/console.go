package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/readline"
	"golang.org/x/term"

	"enginectl/engine"
	"enginectl/util"
)

const (
	historyFileName = ".enginectl_history"
	historySize     = 500
	consolePrompt   = "engine> "
)

// ConsoleMode is an interactive session with one engine.  Typed lines
// go to the engine as they are; lines starting with ':' are commands
// that drive the session:
//
//	:ping  :go  :stop  :new white|black  :end [result]
//	:set name=value  :options  :state  :help  :quit
type ConsoleMode struct {
	Manager      *Manager
	ReadyTimeout time.Duration
	Logger       *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.  A
	// non-terminal Stdin is read line by line without editing.
	Stdin  io.Reader
	Stdout io.Writer
}

// Run opens the session and reads commands until :quit, end of input,
// or the engine going away.
func (m *ConsoleMode) Run(ctx context.Context) error {
	ed := m.newEditor()
	defer ed.Close()
	out := ed.output()

	ready := make(chan struct{}, 1)
	s, err := m.Manager.Open(ctx, func(ev engine.Event) {
		if ev.Kind == engine.EventReady {
			notify(ready)
		}
		printEvent(out, ev)
	})
	if err != nil {
		return err
	}
	defer finish(s, m.Logger)

	if err := waitReady(ctx, s, ready, m.ReadyTimeout); err != nil {
		return err
	}
	fmt.Fprintf(out, "connected to %s, :help lists commands\n", s.Name())

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		for {
			line, err := ed.GetLine(consolePrompt)
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-s.Done():
				return
			}
		}
	}()

	for {
		select {
		case line := <-lines:
			if quit := m.dispatch(s, out, line); quit {
				return nil
			}
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		case <-s.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch runs one input line.  It reports whether the console should
// exit.
func (m *ConsoleMode) dispatch(s *engine.Session, out io.Writer, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, ":") {
		s.Write(line)
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "quit", "q":
		return true
	case "ping":
		s.Ping()
	case "go":
		s.Go()
	case "stop":
		s.StopThinking()
	case "new":
		side, ok := parseSide(arg)
		if !ok {
			fmt.Fprintln(out, "usage: :new white|black")
			return false
		}
		s.NewGame(side)
	case "end":
		if arg == "" {
			arg = "*"
		}
		s.EndGame(engine.Result{Score: arg})
	case "set":
		name, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			fmt.Fprintln(out, "usage: :set name=value")
			return false
		}
		s.SetOption(strings.TrimSpace(name), strings.TrimSpace(value))
	case "options":
		for _, o := range s.Options() {
			fmt.Fprintf(out, "  %s\n", o.String())
		}
	case "state":
		fmt.Fprintf(out, "%s(%d) state=%s ready=%t pending=%d\n",
			s.Name(), s.ID(), s.State(), s.IsReady(), s.PendingWrites())
	case "help", "h":
		fmt.Fprintln(out, ":ping :go :stop :new white|black :end [result] :set name=value :options :state :quit")
	default:
		fmt.Fprintf(out, "unknown command :%s\n", cmd)
	}
	return false
}

func parseSide(s string) (engine.Side, bool) {
	switch strings.ToLower(s) {
	case "white", "w":
		return engine.White, true
	case "black", "b":
		return engine.Black, true
	}
	return engine.NoSide, false
}

func printEvent(w io.Writer, ev engine.Event) {
	switch ev.Kind {
	case engine.EventLineIn:
		fmt.Fprintln(w, ev.Line)
	case engine.EventDiagnostic:
		fmt.Fprintf(w, "! %v\n", ev.Err)
	case engine.EventForfeit:
		fmt.Fprintf(w, "! %s forfeits: %s\n", ev.Engine, ev.Forfeit)
	case engine.EventQuit:
		if ev.Forced {
			fmt.Fprintf(w, "%s was terminated\n", ev.Engine)
		}
	}
}

// ── line editor ──────────────────────────────────────────────────────

// lineEditor reads console input with readline on a terminal and with
// a plain scanner otherwise.
type lineEditor struct {
	rl      *readline.Instance
	scanner *bufio.Scanner
	out     io.Writer
}

func (m *ConsoleMode) newEditor() *lineEditor {
	out := &syncWriter{w: m.Stdout}
	if out.w == nil {
		out.w = os.Stdout
	}

	if m.Stdin != nil || !term.IsTerminal(int(os.Stdin.Fd())) {
		in := m.Stdin
		if in == nil {
			in = os.Stdin
		}
		return &lineEditor{scanner: bufio.NewScanner(in), out: out}
	}

	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyPath(),
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
		Prompt:                 consolePrompt,
	})
	if err != nil {
		m.Logger.Warn("readline unavailable (%v), using basic input", err)
		return &lineEditor{scanner: bufio.NewScanner(os.Stdin), out: out}
	}
	return &lineEditor{rl: rl, out: out}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFileName)
}

// output is where engine output goes.
func (e *lineEditor) output() io.Writer { return e.out }

// GetLine returns the next input line or io.EOF.  Ctrl-C counts as
// end of input.
func (e *lineEditor) GetLine(prompt string) (string, error) {
	if e.rl == nil {
		if !e.scanner.Scan() {
			if err := e.scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return e.scanner.Text(), nil
	}

	e.rl.SetPrompt(prompt)
	line, err := e.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", io.EOF
		}
		return "", err
	}
	if t := strings.TrimSpace(line); t != "" {
		e.rl.SaveToHistory(t)
	}
	return line, nil
}

func (e *lineEditor) Close() {
	if e.rl != nil {
		e.rl.Close()
		e.rl = nil
	}
}

// syncWriter serialises writes from the event handler and the console.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
