package core

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"enginectl/engine"
	ecerr "enginectl/internal/errors"
	"enginectl/util"
)

// ProbeMode starts the engine, waits for the handshake, prints what
// the engine declared and asks it to quit.
type ProbeMode struct {
	Manager      *Manager
	ReadyTimeout time.Duration
	Logger       *util.Logger

	// Stdout defaults to os.Stdout when nil.
	Stdout io.Writer
}

func (m *ProbeMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run probes the engine.  The session is finished when Run returns.
func (m *ProbeMode) Run(ctx context.Context) error {
	ready := make(chan struct{}, 1)
	s, err := m.Manager.Open(ctx, func(ev engine.Event) {
		if ev.Kind == engine.EventReady {
			notify(ready)
		}
	})
	if err != nil {
		return err
	}
	defer finish(s, m.Logger)

	if err := waitReady(ctx, s, ready, m.ReadyTimeout); err != nil {
		return err
	}

	w := m.stdout()
	fmt.Fprintf(w, "engine    %s\n", s.Name())
	fmt.Fprintf(w, "protocol  %s\n", m.Manager.Config.Protocol)
	opts := s.Options()
	fmt.Fprintf(w, "options   %d\n", len(opts))
	for _, o := range opts {
		fmt.Fprintf(w, "  %s\n", o.String())
	}
	return nil
}

// ── shared helpers ───────────────────────────────────────────────────

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// waitReady blocks until s completes its handshake.
func waitReady(ctx context.Context, s *engine.Session, ready <-chan struct{}, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	t := time.NewTimer(timeout)
	defer t.Stop()

	for {
		switch s.State() {
		case engine.Disconnected:
			return fmt.Errorf("%s disconnected during the handshake: %w", s.Name(), ecerr.ErrSessionClosed)
		case engine.NotStarted, engine.Starting:
		default:
			return nil
		}
		select {
		case <-ready:
		case <-s.Done():
			return fmt.Errorf("%s: %w", s.Name(), ecerr.ErrSessionClosed)
		case <-t.C:
			return fmt.Errorf("%s did not finish the handshake within %s: %w", s.Name(), timeout, ecerr.ErrTimeout)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// finish asks the engine to quit and waits for the session to end.
func finish(s *engine.Session, logger *util.Logger) {
	s.Quit()
	<-s.Done()
	logger.Verbose("%s(%d) closed", s.Name(), s.ID())
}
