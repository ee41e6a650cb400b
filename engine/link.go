package engine

import (
	"time"

	"enginectl/option"
	"enginectl/util"
)

// link is the adapter's view of its session.  Every method runs on
// the session goroutine.
type link struct{ s *Session }

func (l link) ID() int64 { return l.s.id }
func (l link) Name() string { return l.s.name }
func (l link) State() State { return l.s.state }
func (l link) Side() Side { return l.s.side }
func (l link) ProtocolStarted() { l.s.protocolStarted() }
func (l link) Pong() { l.s.pong() }

func (l link) SetName(name string) {
	if name == "" || name == l.s.name {
		return
	}
	l.s.log.Verbose("%s(%d) is %s", l.s.name, l.s.id, name)
	l.s.name = name
}

func (l link) Write(line string, mode WriteMode) { l.s.write(line, mode) }
func (l link) Options() *option.Registry { return l.s.options }
func (l link) ReportMove(move string) { l.s.reportMove(move) }
func (l link) ReportInfo(info Info) { l.s.reportInfo(info) }
func (l link) Diagnostic(err error) { l.s.diagnostic(err) }
func (l link) Logger() *util.Logger { return l.s.log }

func (l link) Schedule(d time.Duration, fn func()) (cancel func()) {
	cancelled := false
	t := time.AfterFunc(d, func() {
		l.s.post(func() {
			if !cancelled {
				fn()
			}
		})
	})
	return func() {
		cancelled = true
		t.Stop()
	}
}
