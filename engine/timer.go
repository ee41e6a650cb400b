package engine

import "time"

// oneShot is a restartable single-shot timer whose expiry is delivered
// into the session loop.  start and stop must only be called on the
// loop.  A fire already queued when stop runs is discarded.
type oneShot struct {
	s    *Session
	d    time.Duration
	fire func()

	t      *time.Timer
	gen    uint64
	active bool
}

func (s *Session) newTimer(d time.Duration, fire func()) *oneShot {
	return &oneShot{s: s, d: d, fire: fire}
}

func (o *oneShot) start() {
	o.stop()
	o.active = true
	gen := o.gen
	o.t = time.AfterFunc(o.d, func() {
		o.s.post(func() {
			if !o.active || o.gen != gen {
				return
			}
			o.active = false
			o.fire()
		})
	})
}

func (o *oneShot) stop() {
	if o.t != nil {
		o.t.Stop()
		o.t = nil
	}
	o.active = false
	o.gen++
}

func (o *oneShot) isActive() bool { return o.active }
