package engine

import (
	"sync"

	"github.com/eapache/queue"
)

// EventKind tells what an Event reports.
type EventKind int

const (
	// EventReady: the session may be given new commands.
	EventReady EventKind = iota
	// EventStateChanged: State holds the new state.
	EventStateChanged
	// EventLineIn: Line was framed from the engine's output.
	EventLineIn
	// EventLineOut: Line was written to the engine.
	EventLineOut
	// EventMove: the engine played Line.
	EventMove
	// EventInfo: the engine reported search information.
	EventInfo
	// EventDiagnostic: a command was dropped or the engine reported
	// an error.  Err holds the details.
	EventDiagnostic
	// EventForfeit: the game is lost for Forfeit.
	EventForfeit
	// EventDisconnected: the stream was closed.
	EventDisconnected
	// EventQuit: the session is finished.  Forced is set when the
	// engine had to be terminated.
	EventQuit
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventStateChanged:
		return "state"
	case EventLineIn:
		return "line-in"
	case EventLineOut:
		return "line-out"
	case EventMove:
		return "move"
	case EventInfo:
		return "info"
	case EventDiagnostic:
		return "diagnostic"
	case EventForfeit:
		return "forfeit"
	case EventDisconnected:
		return "disconnected"
	case EventQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Event is a notification from a session.  Session and Engine identify
// the source; the remaining fields depend on Kind.
type Event struct {
	Kind    EventKind
	Session int64
	Engine  string

	State   State
	Line    string
	Info    *Info
	Err     error
	Forfeit ForfeitReason
	Forced  bool
}

// EventHandler receives session events.  Calls are sequential and in
// the order the events happened.
type EventHandler func(Event)

// dispatcher delivers events on its own goroutine so the session never
// waits on an observer.
type dispatcher struct {
	handler EventHandler

	mu     sync.Mutex
	q      *queue.Queue
	closed bool
	wake   chan struct{}
	done   chan struct{}
}

func newDispatcher(h EventHandler) *dispatcher {
	d := &dispatcher{
		handler: h,
		q:       queue.New(),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) push(ev Event) {
	if d.handler == nil {
		return
	}
	d.mu.Lock()
	if !d.closed {
		d.q.Add(ev)
	}
	d.mu.Unlock()
	d.signal()
}

// close lets the dispatcher exit once the queue is drained.
func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.signal()
}

func (d *dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	for range d.wake {
		for {
			d.mu.Lock()
			if d.q.Length() == 0 {
				closed := d.closed
				d.mu.Unlock()
				if closed {
					return
				}
				break
			}
			ev := d.q.Remove().(Event)
			d.mu.Unlock()
			d.handler(ev)
		}
	}
}
