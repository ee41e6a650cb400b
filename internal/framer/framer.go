// Package framer turns the raw byte stream coming from an engine into
// discrete text lines.
//
// Reading and framing are split: [Pump] moves bytes off the transport
// on its own goroutine, while a [Framer] is fed from the session's
// reactive context and hands out complete lines only.
package framer

import (
	"bytes"
	"io"
	"iter"

	"enginectl/util"
)

// Framer accumulates stream data and yields complete lines.  The zero
// value is ready to use.  It is not safe for concurrent use.
type Framer struct {
	buf []byte
}

// Feed appends raw stream data.
func (f *Framer) Feed(p []byte) {
	f.buf = append(f.buf, p...)
}

// Buffered returns the number of bytes held back as an incomplete line.
func (f *Framer) Buffered() int { return len(f.buf) }

// Lines yields every complete line currently buffered, with the line
// terminator ("\n" or "\r\n") removed.  Lines that are empty after
// stripping are consumed but not yielded.  A trailing fragment without
// a newline stays buffered for a later call.  Stopping the iteration
// early leaves the remaining lines in place.
func (f *Framer) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			i := bytes.IndexByte(f.buf, '\n')
			if i < 0 {
				break
			}
			line := f.buf[:i]
			line = bytes.TrimSuffix(line, []byte{'\r'})
			s := string(line)
			f.buf = f.buf[i+1:]
			if s == "" {
				continue
			}
			if !yield(s) {
				break
			}
		}
		if len(f.buf) == 0 {
			f.buf = nil
		}
	}
}

// Pump reads r until it fails, handing each chunk to onData and the
// terminal error to onEOF exactly once.  onData receives a copy it may
// keep.  A clean end of stream is reported as io.EOF.  Pump blocks; run
// it on its own goroutine.
func Pump(r io.Reader, onData func([]byte), onEOF func(error)) {
	bp := util.GetBuf()
	defer util.PutBuf(bp)
	buf := *bp

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onData(chunk)
		}
		if err != nil {
			onEOF(err)
			return
		}
	}
}
