// Package metrics provides lightweight, lock-free counters for
// tracking what the engine sessions of one enginectl run did.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so sessions never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics across engine sessions.
// A nil Collector is safe to use: all methods become no-ops.
type Collector struct {
	sessionsActive atomic.Int64
	sessionsTotal  atomic.Int64
	linesIn        atomic.Int64
	linesOut       atomic.Int64
	bytesIn        atomic.Int64
	bytesOut       atomic.Int64
	pingsSent      atomic.Int64
	pongs          atomic.Int64
	pingTimeouts   atomic.Int64
	forfeits       atomic.Int64
	optionErrors   atomic.Int64

	mu          sync.RWMutex
	startTime   time.Time
	lastPong    time.Time
	lastForfeit string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session lifecycle ────────────────────────────────────────────────

// SessionOpened increments both the active and total session counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active session counter.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// ActiveSessions returns the number of sessions not yet finalized.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// ── Line traffic ─────────────────────────────────────────────────────

// LineReceived records one framed inbound line of n bytes.
func (c *Collector) LineReceived(n int) {
	if c == nil {
		return
	}
	c.linesIn.Add(1)
	c.bytesIn.Add(int64(n))
}

// LineSent records one outbound line of n bytes (terminator included).
func (c *Collector) LineSent(n int) {
	if c == nil {
		return
	}
	c.linesOut.Add(1)
	c.bytesOut.Add(int64(n))
}

// LinesIn returns the total number of inbound lines.
func (c *Collector) LinesIn() int64 {
	if c == nil {
		return 0
	}
	return c.linesIn.Load()
}

// LinesOut returns the total number of outbound lines.
func (c *Collector) LinesOut() int64 {
	if c == nil {
		return 0
	}
	return c.linesOut.Load()
}

// ── Keep-alive ───────────────────────────────────────────────────────

// PingSent records a liveness probe written to an engine.
func (c *Collector) PingSent() {
	if c == nil {
		return
	}
	c.pingsSent.Add(1)
}

// PongReceived records a probe acknowledgement.
func (c *Collector) PongReceived() {
	if c == nil {
		return
	}
	c.pongs.Add(1)
	c.mu.Lock()
	c.lastPong = time.Now()
	c.mu.Unlock()
}

// PingTimedOut records a probe that was never answered.
func (c *Collector) PingTimedOut() {
	if c == nil {
		return
	}
	c.pingTimeouts.Add(1)
}

// Pings returns the number of probes sent.
func (c *Collector) Pings() int64 {
	if c == nil {
		return 0
	}
	return c.pingsSent.Load()
}

// ── Failures ─────────────────────────────────────────────────────────

// Forfeit records a game forfeited on an engine's behalf.
func (c *Collector) Forfeit(reason string) {
	if c == nil {
		return
	}
	c.forfeits.Add(1)
	c.mu.Lock()
	c.lastForfeit = reason
	c.mu.Unlock()
}

// Forfeits returns the number of forfeits recorded.
func (c *Collector) Forfeits() int64 {
	if c == nil {
		return 0
	}
	return c.forfeits.Load()
}

// OptionRejected records an option command dropped as a protocol
// violation.
func (c *Collector) OptionRejected() {
	if c == nil {
		return
	}
	c.optionErrors.Add(1)
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime         string `json:"uptime"`
	SessionsActive int64  `json:"sessions_active"`
	SessionsTotal  int64  `json:"sessions_total"`
	LinesIn        int64  `json:"lines_in"`
	LinesOut       int64  `json:"lines_out"`
	BytesIn        int64  `json:"bytes_in"`
	BytesOut       int64  `json:"bytes_out"`
	PingsSent      int64  `json:"pings_sent"`
	Pongs          int64  `json:"pongs"`
	PingTimeouts   int64  `json:"ping_timeouts"`
	Forfeits       int64  `json:"forfeits"`
	OptionErrors   int64  `json:"option_errors"`
	LastPong       string `json:"last_pong,omitempty"`
	LastForfeit    string `json:"last_forfeit,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:         time.Since(c.startTime).Truncate(time.Millisecond).String(),
		SessionsActive: c.sessionsActive.Load(),
		SessionsTotal:  c.sessionsTotal.Load(),
		LinesIn:        c.linesIn.Load(),
		LinesOut:       c.linesOut.Load(),
		BytesIn:        c.bytesIn.Load(),
		BytesOut:       c.bytesOut.Load(),
		PingsSent:      c.pingsSent.Load(),
		Pongs:          c.pongs.Load(),
		PingTimeouts:   c.pingTimeouts.Load(),
		Forfeits:       c.forfeits.Load(),
		OptionErrors:   c.optionErrors.Load(),
		LastForfeit:    c.lastForfeit,
	}
	if !c.lastPong.IsZero() {
		s.LastPong = c.lastPong.Format(time.RFC3339)
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
