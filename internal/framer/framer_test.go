package framer

import (
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"testing/iotest"
)

func collect(f *Framer) []string {
	return slices.Collect(f.Lines())
}

func TestFramer_SplitsAndStrips(t *testing.T) {
	var f Framer
	f.Feed([]byte("id name Stockfish\r\nuciok\n"))

	got := collect(&f)
	want := []string{"id name Stockfish", "uciok"}
	if !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
	if f.Buffered() != 0 {
		t.Errorf("buffered = %d, want 0", f.Buffered())
	}
}

func TestFramer_DropsEmptyLines(t *testing.T) {
	var f Framer
	f.Feed([]byte("\n\r\nreadyok\n\n"))

	got := collect(&f)
	if !slices.Equal(got, []string{"readyok"}) {
		t.Errorf("got %q", got)
	}
}

func TestFramer_HoldsPartialLine(t *testing.T) {
	var f Framer
	f.Feed([]byte("bestmove e2e4 pon"))

	if got := collect(&f); len(got) != 0 {
		t.Fatalf("partial line surfaced: %q", got)
	}
	if f.Buffered() != len("bestmove e2e4 pon") {
		t.Errorf("buffered = %d", f.Buffered())
	}

	f.Feed([]byte("der e7e5\r"))
	if got := collect(&f); len(got) != 0 {
		t.Fatalf("line surfaced before its newline: %q", got)
	}

	f.Feed([]byte("\n"))
	got := collect(&f)
	if !slices.Equal(got, []string{"bestmove e2e4 ponder e7e5"}) {
		t.Errorf("got %q", got)
	}
}

func TestFramer_RestartableAfterEarlyStop(t *testing.T) {
	var f Framer
	f.Feed([]byte("a\nb\nc\n"))

	for line := range f.Lines() {
		if line != "a" {
			t.Fatalf("first line = %q", line)
		}
		break
	}

	got := collect(&f)
	if !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("after restart got %q, want [b c]", got)
	}
	if got := collect(&f); len(got) != 0 {
		t.Errorf("third call yielded %q", got)
	}
}

func TestPump_DeliversChunksThenEOF(t *testing.T) {
	r := iotest.OneByteReader(strings.NewReader("uciok\n"))

	var f Framer
	var eofs []error
	Pump(r, f.Feed, func(err error) { eofs = append(eofs, err) })

	if got := collect(&f); !slices.Equal(got, []string{"uciok"}) {
		t.Errorf("got %q", got)
	}
	if len(eofs) != 1 || !errors.Is(eofs[0], io.EOF) {
		t.Errorf("eofs = %v, want exactly one io.EOF", eofs)
	}
}

func TestPump_ReportsReadError(t *testing.T) {
	boom := errors.New("pipe broke")
	r := iotest.DataErrReader(iotest.ErrReader(boom))

	var got error
	Pump(r, func([]byte) { t.Error("unexpected data") }, func(err error) { got = err })

	if !errors.Is(got, boom) {
		t.Errorf("got %v, want %v", got, boom)
	}
}
