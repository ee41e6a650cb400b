package engine

import "github.com/eapache/queue"

// writeBuffer holds outbound lines the engine cannot accept yet, in
// the order they were written.
type writeBuffer struct {
	q *queue.Queue
}

func newWriteBuffer() writeBuffer { return writeBuffer{q: queue.New()} }

func (b writeBuffer) push(line string) { b.q.Add(line) }

func (b writeBuffer) len() int { return b.q.Length() }

// drain removes and returns every buffered line.
func (b writeBuffer) drain() []string {
	lines := make([]string, 0, b.q.Length())
	for b.q.Length() > 0 {
		lines = append(lines, b.q.Remove().(string))
	}
	return lines
}

func (b writeBuffer) clear() {
	for b.q.Length() > 0 {
		b.q.Remove()
	}
}

// write sends line to the engine, or buffers it while the engine is
// not started or, for Buffered lines, while a probe is outstanding.
// Lines written after the session disconnected are dropped.
func (s *Session) write(line string, mode WriteMode) {
	if s.state == Disconnected {
		return
	}
	if s.state == NotStarted || (mode == Buffered && s.pinging) {
		s.writeBuf.push(line)
		return
	}
	s.send(line)
}

// flush sends the buffered lines in order.  It does nothing while a
// probe is outstanding or before the engine is started.
func (s *Session) flush() {
	if s.pinging || s.state == NotStarted {
		return
	}
	for _, line := range s.writeBuf.drain() {
		s.write(line, Unbuffered)
	}
}

func (s *Session) send(line string) {
	if !s.open {
		return
	}
	s.log.Debug(">%s(%d): %s", s.name, s.id, line)
	s.emit(Event{Kind: EventLineOut, Line: line})

	n, err := s.stream.Write([]byte(line + "\n"))
	s.met.LineSent(n)
	if err != nil {
		// The read side will notice the broken stream and report it.
		s.log.Verbose("write %q: %v", line, err)
	}
}
