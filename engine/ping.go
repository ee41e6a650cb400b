package engine

// ping sends a liveness probe and reports whether one went out.
func (s *Session) ping() bool {
	if s.pinging || s.state == NotStarted || s.state == Disconnected {
		return false
	}
	if !s.proto.SendPing() {
		return false
	}
	s.pinging = true
	s.pingState = s.state
	s.pingTimer.start()
	s.met.PingSent()
	return true
}

// pong acknowledges the outstanding probe.
func (s *Session) pong() {
	if !s.pinging {
		return
	}
	s.pingTimer.stop()
	s.pinging = false
	s.met.PongReceived()
	s.flush()

	if s.state == FinishingGame {
		if s.pingState != FinishingGame {
			// The game ended while the probe was in flight; the
			// engine has not been observed in a stable state yet.
			if s.ping() {
				return
			}
		}
		s.setState(Idle)
	}
	s.emit(Event{Kind: EventReady})
}

func (s *Session) onPingTimeout() {
	if !s.pinging {
		return
	}
	s.log.Error("%s(%d) did not answer ping within %s", s.name, s.id, s.pingTimer.d)
	s.met.PingTimedOut()
	s.pinging = false
	s.writeBuf.clear()
	s.closeConnection()
	s.forfeit(StalledConnection)
}
