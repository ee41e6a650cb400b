package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	ecerr "enginectl/internal/errors"
	"enginectl/util"
)

// TestHelperProcess is not a real test.  It is the engine executable
// the process tests launch, selected by GO_WANT_HELPER_PROCESS.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	mode := os.Args[len(os.Args)-1]
	fmt.Fprintln(os.Stderr, "helper engine starting")
	switch mode {
	case "stubborn":
		// Ignores stdin closing.
		time.Sleep(time.Minute)
	default:
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			switch sc.Text() {
			case "uci":
				fmt.Println("id name helper")
				fmt.Println("uciok")
			case "quit":
				return
			}
		}
	}
}

func helper(mode string, logger *util.Logger) *Process {
	return &Process{
		Path:      os.Args[0],
		Args:      []string{"-test.run=TestHelperProcess", "--", mode},
		Env:       []string{"GO_WANT_HELPER_PROCESS=1"},
		KillGrace: 100 * time.Millisecond,
		Logger:    logger,
	}
}

// syncBuffer is a bytes.Buffer safe for the logger's goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestProcess_Launch verifies stdin and stdout form the stream and the
// engine's own exit ends it.
func TestProcess_Launch(t *testing.T) {
	var logs syncBuffer
	logger := util.NewLogger(int(util.LogVerbose))
	logger.SetOutput(&logs)

	stream, err := helper("engine", logger).Launch(context.Background())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	if _, err := stream.Write([]byte("uci\n")); err != nil {
		t.Fatal(err)
	}
	r := bufio.NewReader(stream)
	for _, want := range []string{"id name helper\n", "uciok\n"} {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatal(err)
		}
		if line != want {
			t.Errorf("got %q, want %q", line, want)
		}
	}

	stream.Write([]byte("quit\n")) //nolint:errcheck
	if _, err := r.ReadString('\n'); err == nil {
		t.Error("read past engine exit")
	}

	start := time.Now()
	if err := stream.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if d := time.Since(start); d > time.Second {
		t.Errorf("Close of an exited engine took %s", d)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(logs.String(), "helper engine starting") {
		if time.Now().After(deadline) {
			t.Fatalf("stderr not logged; log:\n%s", logs.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestProcess_CloseKillsStubbornEngine verifies an engine that ignores
// its closed stdin is killed after the grace period.
func TestProcess_CloseKillsStubbornEngine(t *testing.T) {
	stream, err := helper("stubborn", util.NopLogger()).Launch(context.Background())
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- stream.Close() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not kill the engine")
	}

	// Closing again is harmless.
	if err := stream.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

// TestProcess_NotFound verifies a missing executable is a lookup
// error.
func TestProcess_NotFound(t *testing.T) {
	p := &Process{Path: "/nonexistent/engine", Logger: util.NopLogger()}
	_, err := p.Launch(context.Background())

	var pe *ecerr.ProcessError
	if !errors.As(err, &pe) || pe.Op != "lookup" {
		t.Fatalf("err = %v, want lookup ProcessError", err)
	}
}

// TestProcess_CancelledContext verifies nothing starts after
// cancellation.
func TestProcess_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := helper("engine", util.NopLogger()).Launch(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestProcess_String(t *testing.T) {
	p := &Process{Path: "stockfish", Args: []string{"--threads", "2"}}
	if got := p.String(); got != "stockfish --threads 2" {
		t.Errorf("String = %q", got)
	}
}
