package engine

import (
	"maps"
	"slices"

	ecerr "enginectl/internal/errors"
)

func (s *Session) setOption(name, value string) {
	if s.state == NotStarted || s.state == Starting {
		s.optionBuf[name] = value
		return
	}

	o := s.options.Lookup(name)
	if o == nil {
		s.rejectOption(name, value, ecerr.ErrNoSuchOption)
		return
	}
	if !o.IsValid(value) {
		s.rejectOption(name, value, ecerr.ErrInvalidOptionValue)
		return
	}
	o.SetValue(value)
	s.proto.SendOption(o.Name, value)
}

func (s *Session) rejectOption(name, value string, cause error) {
	err := &ecerr.OptionError{Engine: s.name, Name: name, Value: value, Err: cause}
	s.met.OptionRejected()
	s.diagnostic(err)
}

// applyPendingOptions replays the values set before the handshake
// completed, sorted by name.
func (s *Session) applyPendingOptions() {
	pending := s.optionBuf
	s.optionBuf = make(map[string]string)
	for _, name := range slices.Sorted(maps.Keys(pending)) {
		s.setOption(name, pending[name])
	}
}

func (s *Session) applyConfiguration(setup Setup) {
	for _, line := range setup.InitStrings {
		s.write(line, Buffered)
	}
	for _, ov := range setup.Options {
		s.setOption(ov.Name, ov.Value)
	}
	s.whiteEvalPOV = setup.WhiteEvalPOV
}
