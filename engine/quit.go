package engine

func (s *Session) quit() {
	if s.quitting {
		return
	}
	s.quitting = true

	if !s.open || s.state == Disconnected {
		s.finishQuit(false)
		return
	}
	s.log.Verbose("%s(%d): quitting", s.name, s.id)
	s.onEOF = s.onQuitEOF
	s.proto.SendQuit()
	s.quitTimer.start()
}

// onQuitEOF handles the engine closing its output after being asked
// to quit.
func (s *Session) onQuitEOF(error) {
	s.quitTimer.stop()
	s.endQuit(false)
}

func (s *Session) endQuit(forced bool) {
	s.onEOF = nil
	if forced {
		s.log.Warn("%s(%d) did not quit within %s, terminating", s.name, s.id, s.quitTimer.d)
	}
	s.closeConnection()
	s.finishQuit(forced)
}

func (s *Session) finishQuit(forced bool) {
	if s.exit {
		return
	}
	s.log.Verbose("%s(%d): finished", s.name, s.id)
	s.emit(Event{Kind: EventQuit, Forced: forced})
	s.exit = true
}
